package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bafnalights-dot/stock/internal/model"
	ledger "github.com/bafnalights-dot/stock/internal/service/ledger"
	"github.com/bafnalights-dot/stock/platform/logger"
)

type CatalogRepository interface {
	CreateSupplier(ctx context.Context, s *model.Supplier) error
	SupplierByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	ListSuppliers(ctx context.Context) ([]*model.Supplier, error)

	CreatePart(ctx context.Context, p *model.Part) error
	PartByID(ctx context.Context, id uuid.UUID) (*model.Part, error)
	PartByName(ctx context.Context, name string) (*model.Part, error)
	ListParts(ctx context.Context) ([]*model.Part, error)
	UpdatePart(ctx context.Context, p *model.Part) error

	CreateProduct(ctx context.Context, p *model.FinishedProduct) error
	ProductByID(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error)
	ListProducts(ctx context.Context) ([]*model.FinishedProduct, error)
	UpdateProduct(ctx context.Context, p *model.FinishedProduct) error

	AddTransaction(ctx context.Context, t *model.Transaction) error
}

type Ledger interface {
	Transact(ctx context.Context, fn func(ctx context.Context, tx ledger.StockTx) error) error
}

type RecipeRegistry interface {
	Set(ctx context.Context, productID uuid.UUID, lines []model.RecipeLine) (*model.Recipe, error)
}

type service struct {
	repo          CatalogRepository
	ledger        Ledger
	recipes       RecipeRegistry
	readDBTimeout time.Duration
	now           func() time.Time
}

func NewCatalogService(
	repository CatalogRepository,
	ledger Ledger,
	recipes RecipeRegistry,
	readDBTimeout time.Duration,
) *service {
	return &service{
		repo:          repository,
		ledger:        ledger,
		recipes:       recipes,
		readDBTimeout: readDBTimeout,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (svc *service) CreateSupplier(ctx context.Context, params model.CreateSupplierParams) (*model.Supplier, error) {
	const op string = "catalog.service.CreateSupplier"

	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%s: %w", op, model.ValidationError("name is required"))
	}

	s := &model.Supplier{
		ID:          uuid.New(),
		Name:        name,
		ContactInfo: strings.TrimSpace(params.ContactInfo),
		CreatedAt:   svc.now(),
	}

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	if err := svc.repo.CreateSupplier(ctx, s); err != nil {
		logger.Error(ctx, "repository create supplier", logger.String("name", name), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func (svc *service) ListSuppliers(ctx context.Context) ([]*model.Supplier, error) {
	const op string = "catalog.service.ListSuppliers"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	out, err := svc.repo.ListSuppliers(ctx)
	if err != nil {
		logger.Error(ctx, "repository list suppliers", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// CreatePart registers a part and posts its opening quantity through the ledger.
func (svc *service) CreatePart(ctx context.Context, params model.CreatePartParams) (*model.Part, error) {
	const op string = "catalog.service.CreatePart"
	log := logger.With(
		logger.String("name", params.Name),
		logger.String("quantity", params.Quantity.String()),
	)

	if err := validatePart(params); err != nil {
		log.Warn(ctx, "invalid part", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := svc.now()
	p := &model.Part{
		ID:                uuid.New(),
		Name:              strings.TrimSpace(params.Name),
		Category:          strings.TrimSpace(params.Category),
		OpeningStock:      params.Quantity,
		SupplierID:        params.SupplierID,
		PurchasePrice:     params.PurchasePrice,
		LowStockThreshold: model.DefaultLowStockThreshold,
		LastPurchaseDate:  now,
		CreatedAt:         now,
	}
	if params.LowStockThreshold != nil {
		p.LowStockThreshold = *params.LowStockThreshold
	}
	if params.LastPurchaseDate != nil {
		p.LastPurchaseDate = params.LastPurchaseDate.UTC()
	}

	var created *model.Part
	err := svc.ledger.Transact(ctx, func(ctx context.Context, tx ledger.StockTx) error {
		if p.SupplierID != nil {
			if _, err := svc.repo.SupplierByID(ctx, *p.SupplierID); err != nil {
				return err
			}
		}
		if err := svc.repo.CreatePart(ctx, p); err != nil {
			return err
		}

		if _, err := tx.Apply(ctx, model.Delta{
			Ref:         model.StockRef{Type: model.EntityPart, ID: p.ID},
			Qty:         params.Quantity,
			Reason:      model.ReasonOpening,
			ReferenceID: p.ID,
		}); err != nil {
			return err
		}

		if err := svc.repo.AddTransaction(ctx, &model.Transaction{
			ID:   uuid.New(),
			Type: model.TransactionPurchasePart,
			Date: now,
			Details: map[string]any{
				"part_name": p.Name,
				"quantity":  params.Quantity.InexactFloat64(),
				"price":     p.PurchasePrice.InexactFloat64(),
			},
			Cost: model.RoundAmount(params.Quantity.Mul(p.PurchasePrice)),
		}); err != nil {
			return err
		}

		var err error
		created, err = svc.repo.PartByID(ctx, p.ID)
		return err
	})
	if err != nil {
		log.Error(ctx, "create part", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "part created", logger.String("part_id", created.ID.String()))
	return created, nil
}

func (svc *service) ListParts(ctx context.Context) ([]*model.Part, error) {
	const op string = "catalog.service.ListParts"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	out, err := svc.repo.ListParts(ctx)
	if err != nil {
		logger.Error(ctx, "repository list parts", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// UpdatePart changes reference data only; stock is left to the ledger.
func (svc *service) UpdatePart(ctx context.Context, params model.UpdatePartParams) (*model.Part, error) {
	const op string = "catalog.service.UpdatePart"
	log := logger.With(logger.String("part_id", params.ID.String()))

	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return nil, fmt.Errorf("%s: %w", op, model.ValidationError("name must not be empty"))
	}
	if params.PurchasePrice != nil {
		if err := model.CheckAmount("purchase_price", *params.PurchasePrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if params.LowStockThreshold != nil {
		if err := model.CheckAmount("low_stock_threshold", *params.LowStockThreshold); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	var updated *model.Part
	err := svc.ledger.Transact(ctx, func(ctx context.Context, tx ledger.StockTx) error {
		// Lock first so concurrent updates and purchases apply one after another.
		if _, err := tx.Levels(ctx, model.StockRef{Type: model.EntityPart, ID: params.ID}); err != nil {
			return err
		}
		p, err := svc.repo.PartByID(ctx, params.ID)
		if err != nil {
			return err
		}

		if params.Name != nil {
			p.Name = strings.TrimSpace(*params.Name)
		}
		if params.Category != nil {
			p.Category = strings.TrimSpace(*params.Category)
		}
		if params.SupplierID != nil {
			if _, err := svc.repo.SupplierByID(ctx, *params.SupplierID); err != nil {
				return err
			}
			p.SupplierID = params.SupplierID
		}
		if params.PurchasePrice != nil {
			p.PurchasePrice = *params.PurchasePrice
		}
		if params.LowStockThreshold != nil {
			p.LowStockThreshold = *params.LowStockThreshold
		}

		if err := svc.repo.UpdatePart(ctx, p); err != nil {
			return err
		}
		updated, err = svc.repo.PartByID(ctx, p.ID)
		return err
	})
	if err != nil {
		log.Error(ctx, "update part", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// CreateProduct registers a finished product, posts its opening stock and, when
// part lines are given, stores its recipe. Unknown parts are created with no stock.
func (svc *service) CreateProduct(ctx context.Context, params model.CreateProductParams) (*model.FinishedProduct, error) {
	const op string = "catalog.service.CreateProduct"
	log := logger.With(
		logger.String("name", params.Name),
		logger.String("opening_stock", params.OpeningStock.String()),
		logger.Int("recipe_lines", len(params.Parts)),
	)

	if strings.TrimSpace(params.Name) == "" {
		return nil, fmt.Errorf("%s: %w", op, model.ValidationError("name is required"))
	}
	if err := model.CheckAmount("opening_stock", params.OpeningStock); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i, l := range params.Parts {
		if strings.TrimSpace(l.PartName) == "" {
			return nil, fmt.Errorf("%s: %w: line %d has no part name", op, model.ErrInvalidRecipe, i)
		}
		if err := model.CheckQuantity("quantity_needed", l.QuantityNeeded); err != nil {
			return nil, fmt.Errorf("%s: %w: line %d: %w", op, model.ErrInvalidRecipe, i, err)
		}
	}

	now := svc.now()
	p := &model.FinishedProduct{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(params.Name),
		Category:     strings.TrimSpace(params.Category),
		OpeningStock: params.OpeningStock,
		CreatedAt:    now,
	}

	var created *model.FinishedProduct
	err := svc.ledger.Transact(ctx, func(ctx context.Context, tx ledger.StockTx) error {
		if err := svc.repo.CreateProduct(ctx, p); err != nil {
			return err
		}

		if _, err := tx.Apply(ctx, model.Delta{
			Ref:         model.StockRef{Type: model.EntityProduct, ID: p.ID},
			Qty:         params.OpeningStock,
			Reason:      model.ReasonOpening,
			ReferenceID: p.ID,
		}); err != nil {
			return err
		}

		if len(params.Parts) > 0 {
			lines := make([]model.RecipeLine, 0, len(params.Parts))
			for _, l := range params.Parts {
				part, err := svc.partByNameOrCreate(ctx, strings.TrimSpace(l.PartName), now)
				if err != nil {
					return err
				}
				lines = append(lines, model.RecipeLine{PartID: part.ID, QuantityNeeded: l.QuantityNeeded})
			}
			if _, err := svc.recipes.Set(ctx, p.ID, lines); err != nil {
				return err
			}
		}

		var err error
		created, err = svc.repo.ProductByID(ctx, p.ID)
		return err
	})
	if err != nil {
		log.Error(ctx, "create product", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "product created", logger.String("finished_product_id", created.ID.String()))
	return created, nil
}

func (svc *service) Product(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error) {
	const op string = "catalog.service.Product"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	p, err := svc.repo.ProductByID(ctx, id)
	if err != nil {
		logger.Error(ctx, "repository product by id", logger.String("finished_product_id", id.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (svc *service) ListProducts(ctx context.Context) ([]*model.FinishedProduct, error) {
	const op string = "catalog.service.ListProducts"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	out, err := svc.repo.ListProducts(ctx)
	if err != nil {
		logger.Error(ctx, "repository list products", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (svc *service) UpdateProduct(ctx context.Context, params model.UpdateProductParams) (*model.FinishedProduct, error) {
	const op string = "catalog.service.UpdateProduct"

	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return nil, fmt.Errorf("%s: %w", op, model.ValidationError("name must not be empty"))
	}

	var updated *model.FinishedProduct
	err := svc.ledger.Transact(ctx, func(ctx context.Context, _ ledger.StockTx) error {
		p, err := svc.repo.ProductByID(ctx, params.ID)
		if err != nil {
			return err
		}
		if params.Name != nil {
			p.Name = strings.TrimSpace(*params.Name)
		}
		if params.Category != nil {
			p.Category = strings.TrimSpace(*params.Category)
		}
		if err := svc.repo.UpdateProduct(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		logger.Error(ctx, "update product", logger.String("finished_product_id", params.ID.String()), logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (svc *service) partByNameOrCreate(ctx context.Context, name string, now time.Time) (*model.Part, error) {
	p, err := svc.repo.PartByName(ctx, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, model.ErrPartNotFound) {
		return nil, err
	}

	p = &model.Part{
		ID:                uuid.New(),
		Name:              name,
		LowStockThreshold: model.DefaultLowStockThreshold,
		LastPurchaseDate:  now,
		CreatedAt:         now,
	}
	if err := svc.repo.CreatePart(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func validatePart(p model.CreatePartParams) error {
	if strings.TrimSpace(p.Name) == "" {
		return model.ValidationError("name is required")
	}
	if err := model.CheckAmount("quantity", p.Quantity); err != nil {
		return err
	}
	if err := model.CheckAmount("purchase_price", p.PurchasePrice); err != nil {
		return err
	}
	if p.LowStockThreshold != nil {
		return model.CheckAmount("low_stock_threshold", *p.LowStockThreshold)
	}
	return nil
}
