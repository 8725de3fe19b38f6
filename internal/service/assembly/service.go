package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bafnalights-dot/stock/internal/model"
	ledger "github.com/bafnalights-dot/stock/internal/service/ledger"
	"github.com/bafnalights-dot/stock/platform/logger"
)

type AssemblyRepository interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error)
	RecipeByProduct(ctx context.Context, productID uuid.UUID) (*model.Recipe, error)
	PartsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Part, error)
	CreateAssembly(ctx context.Context, a *model.AssemblyTransaction) error
	AddTransaction(ctx context.Context, t *model.Transaction) error
}

type Ledger interface {
	Transact(ctx context.Context, fn func(ctx context.Context, tx ledger.StockTx) error) error
}

type service struct {
	repo          AssemblyRepository
	ledger        Ledger
	readDBTimeout time.Duration
	now           func() time.Time
}

func NewAssemblyService(
	repository AssemblyRepository,
	ledger Ledger,
	readDBTimeout time.Duration,
) *service {
	return &service{
		repo:          repository,
		ledger:        ledger,
		readDBTimeout: readDBTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Assemble consumes recipe parts for quantity units of the product. A shortfall is
// reported in the result, not as an error, and leaves every stock untouched.
func (svc *service) Assemble(ctx context.Context, params model.AssembleParams) (*model.AssemblyResult, error) {
	const op string = "assembly.service.Assemble"
	log := logger.With(
		logger.String("finished_product_id", params.FinishedProductID.String()),
		logger.String("quantity", params.Quantity.String()),
	)

	if err := model.CheckQuantity("quantity", params.Quantity); err != nil {
		log.Warn(ctx, "invalid quantity", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result *model.AssemblyResult
	err := svc.ledger.Transact(ctx, func(ctx context.Context, tx ledger.StockTx) error {
		// The recipe is read in the transaction so a concurrent replace is seen whole or not at all.
		product, recipe, err := svc.load(ctx, params.FinishedProductID)
		if err != nil {
			return err
		}

		refs := make([]model.StockRef, 0, len(recipe.Lines))
		required := make([]decimal.Decimal, len(recipe.Lines))
		for i, l := range recipe.Lines {
			refs = append(refs, model.StockRef{Type: model.EntityPart, ID: l.PartID})
			required[i] = l.QuantityNeeded.Mul(params.Quantity)
			if !model.Fits(required[i]) {
				return fmt.Errorf("%w: %s units need %s of part %s, more precision or magnitude than stock can hold",
					model.ErrInvalidQuantity, params.Quantity.String(), required[i].String(), l.PartID)
			}
		}

		levels, err := tx.Levels(ctx, refs...)
		if err != nil {
			return err
		}

		var short []model.InsufficientPart
		for i, l := range recipe.Lines {
			if required[i].GreaterThan(levels[i].Quantity) {
				short = append(short, model.InsufficientPart{
					PartID:    l.PartID,
					PartName:  levels[i].Name,
					Required:  required[i],
					Available: levels[i].Quantity,
				})
			}
		}
		if len(short) > 0 {
			result = &model.AssemblyResult{Message: "Insufficient parts", InsufficientParts: short}
			return nil
		}

		parts, err := svc.repo.PartsByIDs(ctx, refs2ids(refs))
		if err != nil {
			return err
		}

		txID := uuid.New()
		deltas := make([]model.Delta, 0, len(recipe.Lines)+1)
		used := make([]model.PartConsumption, 0, len(recipe.Lines))
		cost := decimal.Zero
		for i, l := range recipe.Lines {
			price := parts[l.PartID].PurchasePrice
			deltas = append(deltas, model.Delta{
				Ref:         refs[i],
				Qty:         required[i].Neg(),
				Reason:      model.ReasonAssemblyConsume,
				ReferenceID: txID,
			})
			used = append(used, model.PartConsumption{
				PartID:       l.PartID,
				PartName:     levels[i].Name,
				QuantityUsed: required[i],
				UnitPrice:    price,
			})
			cost = cost.Add(required[i].Mul(price))
		}
		productRef := model.StockRef{Type: model.EntityProduct, ID: product.ID}
		deltas = append(deltas, model.Delta{
			Ref:         productRef,
			Qty:         params.Quantity,
			Reason:      model.ReasonAssemblyProduce,
			ReferenceID: txID,
		})

		cost = model.RoundAmount(cost)

		moved, err := tx.Apply(ctx, deltas...)
		if err != nil {
			return err
		}
		newQuantity := decimal.Zero
		for _, m := range moved {
			if m.Ref == productRef {
				newQuantity = m.Balance
			}
		}

		now := svc.now()
		if err := svc.repo.CreateAssembly(ctx, &model.AssemblyTransaction{
			ID:                txID,
			Date:              now,
			FinishedProductID: product.ID,
			ProductName:       product.Name,
			QuantityProduced:  params.Quantity,
			Cost:              cost,
			Consumptions:      used,
		}); err != nil {
			return err
		}

		if err := svc.repo.AddTransaction(ctx, &model.Transaction{
			ID:      txID,
			Type:    model.TransactionAssembly,
			Date:    now,
			Details: assemblyDetails(product, params.Quantity, used),
			Cost:    cost,
		}); err != nil {
			return err
		}

		result = &model.AssemblyResult{
			Success:       true,
			Message:       fmt.Sprintf("Successfully assembled %s %s", params.Quantity.String(), product.Name),
			TransactionID: txID,
			NewQuantity:   newQuantity,
			Cost:          cost,
			PartsUsed:     used,
		}
		return nil
	})
	if err != nil {
		log.Error(ctx, "ledger transact", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if result.Success {
		log.Info(ctx, "product assembled",
			logger.String("transaction_id", result.TransactionID.String()),
			logger.String("cost", result.Cost.String()),
		)
	} else {
		log.Warn(ctx, "insufficient parts", logger.Int("short_parts", len(result.InsufficientParts)))
	}
	return result, nil
}

func (svc *service) load(ctx context.Context, productID uuid.UUID) (*model.FinishedProduct, *model.Recipe, error) {
	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	product, err := svc.repo.ProductByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}

	recipe, err := svc.repo.RecipeByProduct(ctx, productID)
	if errors.Is(err, model.ErrRecipeNotFound) || (err == nil && len(recipe.Lines) == 0) {
		return nil, nil, model.ErrNoRecipe
	}
	if err != nil {
		return nil, nil, err
	}
	return product, recipe, nil
}

func refs2ids(refs []model.StockRef) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}

func assemblyDetails(p *model.FinishedProduct, qty decimal.Decimal, used []model.PartConsumption) map[string]any {
	parts := make([]map[string]any, 0, len(used))
	for _, u := range used {
		parts = append(parts, map[string]any{
			"part_name":     u.PartName,
			"quantity_used": u.QuantityUsed.InexactFloat64(),
		})
	}
	return map[string]any{
		"finished_product_id": p.ID.String(),
		"product_name":        p.Name,
		"quantity_produced":   qty.InexactFloat64(),
		"parts_used":          parts,
	}
}
