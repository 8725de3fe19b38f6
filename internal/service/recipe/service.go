package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bafnalights-dot/stock/internal/model"
	"github.com/bafnalights-dot/stock/platform/logger"
)

type RecipeRepository interface {
	RecipeByProduct(ctx context.Context, productID uuid.UUID) (*model.Recipe, error)
	ListRecipes(ctx context.Context) ([]*model.Recipe, error)
	SaveRecipe(ctx context.Context, rec *model.Recipe) error
	ProductByID(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error)
	PartsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Part, error)
}

type service struct {
	repo           RecipeRepository
	readDBTimeout  time.Duration
	writeDBTimeout time.Duration
}

func NewRecipeService(
	repository RecipeRepository,
	readDBTimeout time.Duration,
	writeDBTimeout time.Duration,
) *service {
	return &service{
		repo:           repository,
		readDBTimeout:  readDBTimeout,
		writeDBTimeout: writeDBTimeout,
	}
}

// Get returns the product's recipe lines in their stored order.
func (svc *service) Get(ctx context.Context, productID uuid.UUID) (*model.Recipe, error) {
	const op string = "recipe.service.Get"

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	rec, err := svc.repo.RecipeByProduct(ctx, productID)
	if err != nil {
		logger.Error(ctx, "repository recipe by product",
			logger.String("finished_product_id", productID.String()),
			logger.ErrorF(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

// View is Get joined with part names and their current stock.
func (svc *service) View(ctx context.Context, productID uuid.UUID) (*model.RecipeView, error) {
	const op string = "recipe.service.View"

	rec, err := svc.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	views, err := svc.views(ctx, []*model.Recipe{rec})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return views[0], nil
}

func (svc *service) List(ctx context.Context) ([]*model.RecipeView, error) {
	const op string = "recipe.service.List"

	rctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	recipes, err := svc.repo.ListRecipes(rctx)
	if err != nil {
		logger.Error(ctx, "repository list recipes", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	views, err := svc.views(ctx, recipes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return views, nil
}

// Set replaces every line of the product's recipe.
func (svc *service) Set(ctx context.Context, productID uuid.UUID, lines []model.RecipeLine) (*model.Recipe, error) {
	const op string = "recipe.service.Set"
	log := logger.With(
		logger.String("finished_product_id", productID.String()),
		logger.Int("lines", len(lines)),
	)

	if err := validateLines(lines); err != nil {
		log.Warn(ctx, "invalid recipe", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, svc.writeDBTimeout)
	defer cancel()

	product, err := svc.repo.ProductByID(ctx, productID)
	if err != nil {
		log.Error(ctx, "repository product by id", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.PartID)
	}
	parts, err := svc.repo.PartsByIDs(ctx, ids)
	if err != nil {
		log.Error(ctx, "repository parts by ids", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, id := range ids {
		if _, ok := parts[id]; !ok {
			log.Warn(ctx, "unknown recipe part", logger.String("part_id", id.String()))
			return nil, fmt.Errorf("%s: %w", op, model.ErrPartNotFound)
		}
	}

	rec := &model.Recipe{
		ID:                  uuid.New(),
		FinishedProductID:   productID,
		FinishedProductName: product.Name,
		Lines:               append([]model.RecipeLine(nil), lines...),
		CreatedAt:           time.Now().UTC(),
	}
	if err := svc.repo.SaveRecipe(ctx, rec); err != nil {
		log.Error(ctx, "repository save recipe", logger.ErrorF(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(ctx, "recipe saved", logger.String("recipe_id", rec.ID.String()))
	return rec, nil
}

func (svc *service) views(ctx context.Context, recipes []*model.Recipe) ([]*model.RecipeView, error) {
	var ids []uuid.UUID
	for _, rec := range recipes {
		for _, l := range rec.Lines {
			ids = append(ids, l.PartID)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, svc.readDBTimeout)
	defer cancel()

	parts, err := svc.repo.PartsByIDs(ctx, ids)
	if err != nil {
		logger.Error(ctx, "repository parts by ids", logger.ErrorF(err))
		return nil, err
	}

	out := make([]*model.RecipeView, 0, len(recipes))
	for _, rec := range recipes {
		v := &model.RecipeView{
			ID:                  rec.ID,
			FinishedProductID:   rec.FinishedProductID,
			FinishedProductName: rec.FinishedProductName,
			Parts:               make([]model.RecipeLineView, 0, len(rec.Lines)),
			CreatedAt:           rec.CreatedAt,
		}
		for _, l := range rec.Lines {
			lv := model.RecipeLineView{PartID: l.PartID, QuantityNeeded: l.QuantityNeeded}
			if p, ok := parts[l.PartID]; ok {
				lv.PartName = p.Name
				lv.AvailableQuantity = p.Quantity
			}
			v.Parts = append(v.Parts, lv)
		}
		out = append(out, v)
	}
	return out, nil
}

func validateLines(lines []model.RecipeLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: recipe must have at least one part", model.ErrInvalidRecipe)
	}

	seen := make(map[uuid.UUID]struct{}, len(lines))
	for i, l := range lines {
		if l.PartID == uuid.Nil {
			return fmt.Errorf("%w: line %d has no part", model.ErrInvalidRecipe, i)
		}
		if !l.QuantityNeeded.IsPositive() {
			return fmt.Errorf("%w: line %d quantity must be greater than zero", model.ErrInvalidRecipe, i)
		}
		if !model.Fits(l.QuantityNeeded) {
			return fmt.Errorf("%w: line %d quantity %s allows at most %d decimal places",
				model.ErrInvalidRecipe, i, l.QuantityNeeded.String(), model.DecimalScale)
		}
		if _, dup := seen[l.PartID]; dup {
			return fmt.Errorf("%w: part %s listed twice", model.ErrInvalidRecipe, l.PartID)
		}
		seen[l.PartID] = struct{}{}
	}
	return nil
}
