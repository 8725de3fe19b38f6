package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/logger"
)

const DefaultMovementsLimit = 100

type StockRepository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockStock(ctx context.Context, refs []model.StockRef) ([]model.StockLevel, error)
	SetStock(ctx context.Context, ref model.StockRef, qty decimal.Decimal) error
	AddMovements(ctx context.Context, movements []model.StockMovement) error
	ListMovements(ctx context.Context, ref *model.StockRef, limit int) ([]model.StockMovement, error)
}

type MovementPublisher interface {
	PublishMovements(ctx context.Context, movements []model.StockMovement) error
}

// StockTx is the ledger's view of an open storage transaction.
type StockTx interface {
	// Levels locks refs and returns their current quantities in the order given.
	Levels(ctx context.Context, refs ...model.StockRef) ([]model.StockLevel, error)
	// Apply locks every referenced row and applies deltas, or fails without writing
	// if any balance would become negative. Movements come back additions first.
	Apply(ctx context.Context, deltas ...model.Delta) ([]model.StockMovement, error)
}

type service struct {
	repo           StockRepository
	publisher      MovementPublisher
	readDBTimeout  time.Duration
	writeDBTimeout time.Duration
	now            func() time.Time
}

func NewLedgerService(
	repository StockRepository,
	publisher MovementPublisher,
	readDBTimeout time.Duration,
	writeDBTimeout time.Duration,
) *service {
	return &service{
		repo:           repository,
		publisher:      publisher,
		readDBTimeout:  readDBTimeout,
		writeDBTimeout: writeDBTimeout,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Transact runs fn in one storage transaction. Movements applied through tx are
// published once the transaction commits.
func (svc *service) Transact(ctx context.Context, fn func(ctx context.Context, tx StockTx) error) error {
	const op string = "ledger.service.Transact"

	wdbCtx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	var t *stockTx
	err := svc.repo.InTx(wdbCtx, func(ctx context.Context) error {
		t = &stockTx{svc: svc}
		return fn(ctx, t)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	svc.publish(ctx, t.movements)
	return nil
}

// ApplyDelta posts one signed change in its own transaction.
func (svc *service) ApplyDelta(
	ctx context.Context,
	entity model.EntityType,
	id uuid.UUID,
	qty decimal.Decimal,
	reason model.MovementReason,
	referenceID uuid.UUID,
) (model.StockMovement, error) {
	const op string = "ledger.service.ApplyDelta"

	var out model.StockMovement
	err := svc.Transact(ctx, func(ctx context.Context, tx StockTx) error {
		moved, err := tx.Apply(ctx, model.Delta{
			Ref:         model.StockRef{Type: entity, ID: id},
			Qty:         qty,
			Reason:      reason,
			ReferenceID: referenceID,
		})
		if err != nil {
			return err
		}
		if len(moved) > 0 {
			out = moved[0]
		}
		return nil
	})
	if err != nil {
		return model.StockMovement{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (svc *service) Movements(ctx context.Context, ref *model.StockRef, limit int) ([]model.StockMovement, error) {
	const op string = "ledger.service.Movements"

	if limit <= 0 {
		limit = DefaultMovementsLimit
	}
	if ref != nil && !ref.Type.Valid() {
		return nil, fmt.Errorf("%s: %w", op, model.ValidationError("unknown entity type %q", ref.Type))
	}

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	out, err := svc.repo.ListMovements(ctx, ref, limit)
	if err != nil {
		logger.Error(ctx, "repository list movements", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (svc *service) publish(ctx context.Context, movements []model.StockMovement) {
	if svc.publisher == nil || len(movements) == 0 {
		return
	}
	if err := svc.publisher.PublishMovements(ctx, movements); err != nil {
		logger.Warn(ctx, "publish stock movements",
			logger.Int("movements", len(movements)),
			logger.ErrorF(err),
		)
	}
}

type stockTx struct {
	svc       *service
	movements []model.StockMovement
}

func (t *stockTx) Levels(ctx context.Context, refs ...model.StockRef) ([]model.StockLevel, error) {
	sorted := sortedUnique(refs)
	levels, err := t.svc.repo.LockStock(ctx, sorted)
	if err != nil {
		return nil, err
	}

	byRef := make(map[model.StockRef]model.StockLevel, len(levels))
	for _, l := range levels {
		byRef[l.Ref] = l
	}

	out := make([]model.StockLevel, 0, len(refs))
	for _, ref := range refs {
		out = append(out, byRef[ref])
	}
	return out, nil
}

func (t *stockTx) Apply(ctx context.Context, deltas ...model.Delta) ([]model.StockMovement, error) {
	refs := make([]model.StockRef, 0, len(deltas))
	net := make(map[model.StockRef]decimal.Decimal, len(deltas))
	for _, d := range deltas {
		if !d.Ref.Type.Valid() {
			return nil, model.ValidationError("unknown entity type %q", d.Ref.Type)
		}
		if d.Qty.IsZero() {
			continue
		}
		if !model.Fits(d.Qty) {
			return nil, model.CheckQuantity("delta", d.Qty.Abs())
		}
		if _, ok := net[d.Ref]; !ok {
			refs = append(refs, d.Ref)
		}
		net[d.Ref] = net[d.Ref].Add(d.Qty)
	}
	if len(refs) == 0 {
		return nil, nil
	}

	levels, err := t.Levels(ctx, refs...)
	if err != nil {
		return nil, err
	}

	balances := make(map[model.StockRef]decimal.Decimal, len(levels))
	var shortages []model.Shortage
	for _, l := range levels {
		balances[l.Ref] = l.Quantity
		next := l.Quantity.Add(net[l.Ref])
		if !model.Fits(next) {
			return nil, fmt.Errorf("%w: balance of %s would reach %s", model.ErrInvalidQuantity, l.Name, next.String())
		}
		if next.IsNegative() {
			shortages = append(shortages, model.Shortage{
				Ref:       l.Ref,
				Name:      l.Name,
				Required:  net[l.Ref].Neg(),
				Available: l.Quantity,
			})
		}
	}
	if len(shortages) > 0 {
		return nil, &model.ShortageError{Shortages: shortages}
	}

	// Additions are journaled before deductions so no running balance dips
	// below zero when the net change is covered.
	ordered := slices.Clone(deltas)
	slices.SortStableFunc(ordered, func(a, b model.Delta) int {
		return b.Qty.Sign() - a.Qty.Sign()
	})

	now := t.svc.now()
	movements := make([]model.StockMovement, 0, len(ordered))
	for _, d := range ordered {
		if d.Qty.IsZero() {
			continue
		}
		balances[d.Ref] = balances[d.Ref].Add(d.Qty)
		movements = append(movements, model.StockMovement{
			ID:          uuid.New(),
			Ref:         d.Ref,
			Delta:       d.Qty,
			Balance:     balances[d.Ref],
			Reason:      d.Reason,
			ReferenceID: d.ReferenceID,
			CreatedAt:   now,
		})
	}

	for _, ref := range refs {
		if err := t.svc.repo.SetStock(ctx, ref, balances[ref]); err != nil {
			return nil, err
		}
	}
	if err := t.svc.repo.AddMovements(ctx, movements); err != nil {
		return nil, err
	}

	t.movements = append(t.movements, movements...)
	return movements, nil
}

func sortedUnique(refs []model.StockRef) []model.StockRef {
	out := slices.Clone(refs)
	slices.SortFunc(out, func(a, b model.StockRef) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
	return slices.Compact(out)
}
