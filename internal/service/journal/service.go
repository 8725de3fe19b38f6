package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bafnalights-dot/stock/internal/model"
	ledger "github.com/bafnalights-dot/stock/internal/service/ledger"
	"github.com/bafnalights-dot/stock/platform/logger"
)

type JournalRepository interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error)
	CreateRecord(ctx context.Context, rec *model.Record) error
	LockRecord(ctx context.Context, kind model.RecordKind, id uuid.UUID) (*model.Record, error)
	UpdateRecord(ctx context.Context, rec *model.Record) error
	DeleteRecord(ctx context.Context, kind model.RecordKind, id uuid.UUID) error
	ListRecords(ctx context.Context, f model.RecordFilter) ([]*model.Record, error)
}

type PurchaseRepository interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error)
	SupplierByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	PartByID(ctx context.Context, id uuid.UUID) (*model.Part, error)
	PartByName(ctx context.Context, name string) (*model.Part, error)
	UpdatePart(ctx context.Context, p *model.Part) error
	CreatePurchase(ctx context.Context, p *model.Purchase) error
	ListPurchases(ctx context.Context) ([]*model.Purchase, error)
	AddTransaction(ctx context.Context, t *model.Transaction) error
}

type Ledger interface {
	Transact(ctx context.Context, fn func(ctx context.Context, tx ledger.StockTx) error) error
}

type service struct {
	records       JournalRepository
	purchases     PurchaseRepository
	ledger        Ledger
	readDBTimeout time.Duration
	now           func() time.Time
}

func NewJournalService(
	records JournalRepository,
	purchases PurchaseRepository,
	ledger Ledger,
	readDBTimeout time.Duration,
) *service {
	return &service{
		records:       records,
		purchases:     purchases,
		ledger:        ledger,
		readDBTimeout: readDBTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a production or sales record and posts its stock effect.
func (svc *service) Create(ctx context.Context, params model.CreateRecordParams) (*model.Record, error) {
	const op string = "journal.service.Create"
	log := logger.With(
		logger.String("kind", string(params.Kind)),
		logger.String("item_id", params.ItemID.String()),
		logger.String("quantity", params.Quantity.String()),
	)

	if err := validateCreate(params); err != nil {
		log.Warn(ctx, "invalid record", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := svc.now()
	rec := &model.Record{
		ID:        uuid.New(),
		Kind:      params.Kind,
		Date:      dateOrToday(params.Date, now),
		ItemID:    params.ItemID,
		ItemName:  strings.TrimSpace(params.ItemName),
		Quantity:  params.Quantity,
		PartyName: strings.TrimSpace(params.PartyName),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := svc.ledger.Transact(ctx, func(ctx context.Context, tx ledger.StockTx) error {
		product, err := svc.records.ProductByID(ctx, rec.ItemID)
		if err != nil {
			return err
		}
		if rec.ItemName == "" {
			rec.ItemName = product.Name
		}

		if _, err := tx.Apply(ctx, model.Delta{
			Ref:         model.StockRef{Type: model.EntityProduct, ID: rec.ItemID},
			Qty:         rec.StockDelta(),
			Reason:      rec.Kind.Reason(),
			ReferenceID: rec.ID,
		}); err != nil {
			return err
		}

		return svc.records.CreateRecord(ctx, rec)
	})
	if err != nil {
		log.Error(ctx, "create record", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "record created", logger.String("record_id", rec.ID.String()))
	return rec, nil
}

// CreateBatch creates records one by one and stops at the first failure.
// Records created before the failure stay committed.
func (svc *service) CreateBatch(ctx context.Context, params []model.CreateRecordParams) model.BatchResult {
	res := model.BatchResult{FailedIndex: -1, Created: make([]*model.Record, 0, len(params))}
	for i, p := range params {
		rec, err := svc.Create(ctx, p)
		if err != nil {
			res.FailedIndex = i
			res.Err = err
			logger.Warn(ctx, "batch stopped",
				logger.String("kind", string(p.Kind)),
				logger.Int("failed_index", i),
				logger.Int("created", len(res.Created)),
			)
			return res
		}
		res.Created = append(res.Created, rec)
	}
	return res
}

// Edit reverses the record's current stock effect and applies the new one in one transaction.
func (svc *service) Edit(ctx context.Context, params model.EditRecordParams) (*model.Record, error) {
	const op string = "journal.service.Edit"
	log := logger.With(
		logger.String("kind", string(params.Kind)),
		logger.String("record_id", params.ID.String()),
		logger.String("new_quantity", params.NewQuantity.String()),
	)

	if err := validateEdit(params); err != nil {
		log.Warn(ctx, "invalid edit", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rec *model.Record
	err := svc.ledger.Transact(ctx, func(ctx context.Context, tx ledger.StockTx) error {
		cur, err := svc.records.LockRecord(ctx, params.Kind, params.ID)
		if err != nil {
			return err
		}

		next := *cur
		next.Quantity = params.NewQuantity
		if params.NewPartyName != nil {
			next.PartyName = strings.TrimSpace(*params.NewPartyName)
		}
		next.UpdatedAt = svc.now()

		ref := model.StockRef{Type: model.EntityProduct, ID: cur.ItemID}
		if _, err := tx.Apply(ctx,
			model.Delta{Ref: ref, Qty: cur.StockDelta().Neg(), Reason: cur.Kind.ReversalReason(), ReferenceID: cur.ID},
			model.Delta{Ref: ref, Qty: next.StockDelta(), Reason: cur.Kind.Reason(), ReferenceID: cur.ID},
		); err != nil {
			return err
		}

		if err := svc.records.UpdateRecord(ctx, &next); err != nil {
			return err
		}
		rec = &next
		return nil
	})
	if err != nil {
		log.Error(ctx, "edit record", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "record edited")
	return rec, nil
}

// Delete reverses the record's stock effect and removes it.
func (svc *service) Delete(ctx context.Context, kind model.RecordKind, id uuid.UUID) error {
	const op string = "journal.service.Delete"
	log := logger.With(
		logger.String("kind", string(kind)),
		logger.String("record_id", id.String()),
	)

	if kind != model.KindProduction && kind != model.KindSale {
		return fmt.Errorf("%s: %w", op, model.ValidationError("unknown record kind %q", kind))
	}

	err := svc.ledger.Transact(ctx, func(ctx context.Context, tx ledger.StockTx) error {
		cur, err := svc.records.LockRecord(ctx, kind, id)
		if err != nil {
			return err
		}

		if _, err := tx.Apply(ctx, model.Delta{
			Ref:         model.StockRef{Type: model.EntityProduct, ID: cur.ItemID},
			Qty:         cur.StockDelta().Neg(),
			Reason:      cur.Kind.ReversalReason(),
			ReferenceID: cur.ID,
		}); err != nil {
			return err
		}

		return svc.records.DeleteRecord(ctx, kind, id)
	})
	if err != nil {
		log.Error(ctx, "delete record", logger.ErrorF(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "record deleted")
	return nil
}

func (svc *service) List(ctx context.Context, filter model.RecordFilter) ([]*model.Record, error) {
	const op string = "journal.service.List"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	out, err := svc.records.ListRecords(ctx, filter)
	if err != nil {
		logger.Error(ctx, "repository list records",
			logger.String("kind", string(filter.Kind)),
			logger.ErrorF(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// CreatePurchase receives part stock, identified by id or by name.
func (svc *service) CreatePurchase(ctx context.Context, params model.CreatePurchaseParams) (*model.Purchase, error) {
	const op string = "journal.service.CreatePurchase"
	log := logger.With(
		logger.String("part_name", params.PartName),
		logger.String("quantity", params.Quantity.String()),
	)

	if err := model.CheckQuantity("quantity", params.Quantity); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if params.PartID == nil && strings.TrimSpace(params.PartName) == "" {
		return nil, fmt.Errorf("%s: %w", op, model.ValidationError("part_id or part_name is required"))
	}
	if params.UnitPrice != nil {
		if err := model.CheckAmount("unit_price", *params.UnitPrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	now := svc.now()
	purchase := &model.Purchase{
		ID:         uuid.New(),
		Date:       dateOrToday(params.Date, now),
		ItemID:     params.ItemID,
		Quantity:   params.Quantity,
		SupplierID: params.SupplierID,
		CreatedAt:  now,
	}

	err := svc.ledger.Transact(ctx, func(ctx context.Context, tx ledger.StockTx) error {
		part, err := svc.lockPart(ctx, tx, params)
		if err != nil {
			return err
		}
		purchase.PartID = part.ID
		purchase.PartName = part.Name

		purchase.UnitPrice = part.PurchasePrice
		if params.UnitPrice != nil {
			purchase.UnitPrice = *params.UnitPrice
			part.PurchasePrice = *params.UnitPrice
		}

		if params.ItemID != nil {
			product, err := svc.purchases.ProductByID(ctx, *params.ItemID)
			if err != nil {
				return err
			}
			purchase.ItemName = product.Name
		}
		if params.SupplierID != nil {
			if _, err := svc.purchases.SupplierByID(ctx, *params.SupplierID); err != nil {
				return err
			}
			part.SupplierID = params.SupplierID
		}

		if _, err := tx.Apply(ctx, model.Delta{
			Ref:         model.StockRef{Type: model.EntityPart, ID: part.ID},
			Qty:         purchase.Quantity,
			Reason:      model.ReasonPurchase,
			ReferenceID: purchase.ID,
		}); err != nil {
			return err
		}

		part.LastPurchaseDate = purchase.Date
		if err := svc.purchases.UpdatePart(ctx, part); err != nil {
			return err
		}
		if err := svc.purchases.CreatePurchase(ctx, purchase); err != nil {
			return err
		}

		return svc.purchases.AddTransaction(ctx, &model.Transaction{
			ID:      purchase.ID,
			Type:    model.TransactionPurchasePart,
			Date:    now,
			Details: purchaseDetails(purchase),
			Cost:    model.RoundAmount(purchase.Quantity.Mul(purchase.UnitPrice)),
		})
	})
	if err != nil {
		log.Error(ctx, "create purchase", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "purchase recorded", logger.String("purchase_id", purchase.ID.String()))
	return purchase, nil
}

func (svc *service) ListPurchases(ctx context.Context) ([]*model.Purchase, error) {
	const op string = "journal.service.ListPurchases"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	out, err := svc.purchases.ListPurchases(ctx)
	if err != nil {
		logger.Error(ctx, "repository list purchases", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// lockPart resolves the purchased part and reads it again once its row is locked,
// so the reference columns written back are current.
func (svc *service) lockPart(ctx context.Context, tx ledger.StockTx, params model.CreatePurchaseParams) (*model.Part, error) {
	id := uuid.Nil
	if params.PartID != nil {
		id = *params.PartID
	} else {
		p, err := svc.purchases.PartByName(ctx, strings.TrimSpace(params.PartName))
		if err != nil {
			return nil, err
		}
		id = p.ID
	}

	if _, err := tx.Levels(ctx, model.StockRef{Type: model.EntityPart, ID: id}); err != nil {
		return nil, err
	}
	return svc.purchases.PartByID(ctx, id)
}

func validateCreate(p model.CreateRecordParams) error {
	switch p.Kind {
	case model.KindProduction, model.KindSale:
	default:
		return model.ValidationError("unknown record kind %q", p.Kind)
	}
	if p.ItemID == uuid.Nil {
		return model.ValidationError("item_id is required")
	}
	if err := model.CheckQuantity("quantity", p.Quantity); err != nil {
		return err
	}
	if p.Kind == model.KindSale && strings.TrimSpace(p.PartyName) == "" {
		return model.ValidationError("party_name is required")
	}
	return nil
}

func validateEdit(p model.EditRecordParams) error {
	switch p.Kind {
	case model.KindProduction, model.KindSale:
	default:
		return model.ValidationError("unknown record kind %q", p.Kind)
	}
	if err := model.CheckQuantity("new_quantity", p.NewQuantity); err != nil {
		return err
	}
	if p.Kind == model.KindSale && p.NewPartyName != nil && strings.TrimSpace(*p.NewPartyName) == "" {
		return model.ValidationError("party_name must not be empty")
	}
	return nil
}

func dateOrToday(d, now time.Time) time.Time {
	if d.IsZero() {
		d = now
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func purchaseDetails(p *model.Purchase) map[string]any {
	details := map[string]any{
		"part_id":    p.PartID.String(),
		"part_name":  p.PartName,
		"quantity":   p.Quantity.InexactFloat64(),
		"unit_price": p.UnitPrice.InexactFloat64(),
	}
	if p.SupplierID != nil {
		details["supplier_id"] = p.SupplierID.String()
	}
	if p.ItemID != nil {
		details["item_name"] = p.ItemName
	}
	return details
}
