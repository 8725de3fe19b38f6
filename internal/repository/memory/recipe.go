package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/bafnalights-dot/stock/internal/model"
)

func (r *repository) RecipeByProduct(ctx context.Context, productID uuid.UUID) (*model.Recipe, error) {
	var out *model.Recipe
	err := r.view(ctx, func(s *store) error {
		rec, ok := s.recipes[productID]
		if !ok {
			return model.ErrRecipeNotFound
		}
		out = s.recipeView(rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository.RecipeByProduct: %w", err)
	}
	return out, nil
}

func (r *repository) ListRecipes(ctx context.Context) ([]*model.Recipe, error) {
	var out []*model.Recipe
	err := r.view(ctx, func(s *store) error {
		out = make([]*model.Recipe, 0, len(s.recipes))
		for _, rec := range s.recipes {
			out = append(out, s.recipeView(rec))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.Recipe) int { return cmp.Compare(a.FinishedProductName, b.FinishedProductName) })
	return out, err
}

func (r *repository) SaveRecipe(ctx context.Context, rec *model.Recipe) error {
	const op = "repository.SaveRecipe"

	err := r.view(ctx, func(s *store) error {
		if _, ok := s.products[rec.FinishedProductID]; !ok {
			return model.ErrProductNotFound
		}
		for _, l := range rec.Lines {
			if _, ok := s.parts[l.PartID]; !ok {
				return model.ErrPartNotFound
			}
		}

		if cur, ok := s.recipes[rec.FinishedProductID]; ok {
			rec.ID = cur.ID
			rec.CreatedAt = cur.CreatedAt
		}
		cp := *rec
		cp.Lines = slices.Clone(rec.Lines)
		s.recipes[rec.FinishedProductID] = &cp
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *store) recipeView(rec *model.Recipe) *model.Recipe {
	cp := *rec
	cp.Lines = slices.Clone(rec.Lines)
	if p, ok := s.products[rec.FinishedProductID]; ok {
		cp.FinishedProductName = p.Name
	}
	return &cp
}
