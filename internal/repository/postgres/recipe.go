package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bafnalights-dot/stock/internal/model"
)

// RecipeByProduct share-locks the recipe row; inside a transaction its lines cannot
// be replaced until that transaction ends.
func (r *repository) RecipeByProduct(ctx context.Context, productID uuid.UUID) (*model.Recipe, error) {
	const op = "repository.RecipeByProduct"

	row, err := r.queryRow(ctx, r.sb.
		Select("rc.id", "rc.finished_product_id", "f.name", "rc.created_at").
		From("recipes rc").
		Join("finished_products f ON f.id = rc.finished_product_id").
		Where(sq.Eq{"rc.finished_product_id": productID}).
		Suffix("FOR SHARE OF rc"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var rec model.Recipe
	if err := row.Scan(&rec.ID, &rec.FinishedProductID, &rec.FinishedProductName, &rec.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err, model.ErrRecipeNotFound))
	}

	lines, err := r.recipeLines(ctx, []uuid.UUID{rec.ID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec.Lines = lines[rec.ID]

	return &rec, nil
}

func (r *repository) ListRecipes(ctx context.Context) ([]*model.Recipe, error) {
	const op = "repository.ListRecipes"

	rows, err := r.query(ctx, r.sb.
		Select("rc.id", "rc.finished_product_id", "f.name", "rc.created_at").
		From("recipes rc").
		Join("finished_products f ON f.id = rc.finished_product_id").
		OrderBy("f.name"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	recipes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Recipe, error) {
		var rec model.Recipe
		err := row.Scan(&rec.ID, &rec.FinishedProductID, &rec.FinishedProductName, &rec.CreatedAt)
		return &rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]uuid.UUID, 0, len(recipes))
	for _, rec := range recipes {
		ids = append(ids, rec.ID)
	}
	lines, err := r.recipeLines(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, rec := range recipes {
		rec.Lines = lines[rec.ID]
	}

	return recipes, nil
}

// SaveRecipe upserts the product's recipe and replaces all of its lines.
func (r *repository) SaveRecipe(ctx context.Context, rec *model.Recipe) error {
	const op = "repository.SaveRecipe"

	return r.InTx(ctx, func(ctx context.Context) error {
		row, err := r.queryRow(ctx, r.sb.
			Insert("recipes").
			Columns("id", "finished_product_id", "created_at").
			Values(rec.ID, rec.FinishedProductID, rec.CreatedAt).
			Suffix("ON CONFLICT (finished_product_id) DO UPDATE SET finished_product_id = EXCLUDED.finished_product_id RETURNING id, created_at"))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := row.Scan(&rec.ID, &rec.CreatedAt); err != nil {
			return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrRecipeNotFound))
		}

		if _, err := r.exec(ctx, r.sb.Delete("recipe_lines").Where(sq.Eq{"recipe_id": rec.ID})); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if len(rec.Lines) == 0 {
			return nil
		}
		ins := r.sb.
			Insert("recipe_lines").
			Columns("recipe_id", "position", "part_id", "quantity_needed")
		for i, l := range rec.Lines {
			ins = ins.Values(rec.ID, i, l.PartID, l.QuantityNeeded)
		}
		if _, err := r.exec(ctx, ins); err != nil {
			return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrPartNotFound))
		}
		return nil
	})
}

func (r *repository) recipeLines(ctx context.Context, recipeIDs []uuid.UUID) (map[uuid.UUID][]model.RecipeLine, error) {
	out := make(map[uuid.UUID][]model.RecipeLine, len(recipeIDs))
	if len(recipeIDs) == 0 {
		return out, nil
	}

	rows, err := r.query(ctx, r.sb.
		Select("recipe_id", "part_id", "quantity_needed").
		From("recipe_lines").
		Where(sq.Eq{"recipe_id": recipeIDs}).
		OrderBy("recipe_id", "position"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recipeID uuid.UUID
			l        model.RecipeLine
		)
		if err := rows.Scan(&recipeID, &l.PartID, &l.QuantityNeeded); err != nil {
			return nil, err
		}
		out[recipeID] = append(out[recipeID], l)
	}
	return out, rows.Err()
}
