package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bafnalights-dot/stock/internal/model"
)

var stockTables = map[model.EntityType]string{
	model.EntityPart:    "parts",
	model.EntityProduct: "finished_products",
}

// LockStock takes row locks on every ref, products before parts and each table in id order.
func (r *repository) LockStock(ctx context.Context, refs []model.StockRef) ([]model.StockLevel, error) {
	const op = "repository.LockStock"

	byType := map[model.EntityType][]uuid.UUID{}
	for _, ref := range refs {
		byType[ref.Type] = append(byType[ref.Type], ref.ID)
	}

	found := make(map[model.StockRef]model.StockLevel, len(refs))
	for _, typ := range []model.EntityType{model.EntityProduct, model.EntityPart} {
		ids := byType[typ]
		if len(ids) == 0 {
			continue
		}

		rows, err := r.query(ctx, r.sb.
			Select("id", "name", "quantity").
			From(stockTables[typ]).
			Where(sq.Eq{"id": ids}).
			OrderBy("id").
			Suffix("FOR UPDATE"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		levels, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StockLevel, error) {
			lvl := model.StockLevel{Ref: model.StockRef{Type: typ}}
			err := row.Scan(&lvl.Ref.ID, &lvl.Name, &lvl.Quantity)
			return lvl, err
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for _, lvl := range levels {
			found[lvl.Ref] = lvl
		}
	}

	out := make([]model.StockLevel, 0, len(refs))
	for _, ref := range refs {
		lvl, ok := found[ref]
		if !ok {
			return nil, notFoundFor(ref.Type)
		}
		out = append(out, lvl)
	}
	return out, nil
}

func (r *repository) SetStock(ctx context.Context, ref model.StockRef, qty decimal.Decimal) error {
	const op = "repository.SetStock"

	table, ok := stockTables[ref.Type]
	if !ok {
		return fmt.Errorf("%s: unknown entity type %q", op, ref.Type)
	}

	ct, err := r.exec(ctx, r.sb.
		Update(table).
		Set("quantity", qty).
		Where(sq.Eq{"id": ref.ID}))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, notFoundFor(ref.Type)))
	}
	if ct.RowsAffected() == 0 {
		return notFoundFor(ref.Type)
	}
	return nil
}

func (r *repository) AddMovements(ctx context.Context, movements []model.StockMovement) error {
	const op = "repository.AddMovements"
	if len(movements) == 0 {
		return nil
	}

	ins := r.sb.
		Insert("stock_movements").
		Columns("id", "entity_type", "entity_id", "delta", "balance", "reason", "reference_id", "created_at")
	for _, m := range movements {
		ins = ins.Values(m.ID, m.Ref.Type, m.Ref.ID, m.Delta, m.Balance, m.Reason, nullUUID(m.ReferenceID), m.CreatedAt)
	}

	if _, err := r.exec(ctx, ins); err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, nil))
	}
	return nil
}

func (r *repository) ListMovements(ctx context.Context, ref *model.StockRef, limit int) ([]model.StockMovement, error) {
	const op = "repository.ListMovements"

	q := r.sb.
		Select("id", "entity_type", "entity_id", "delta", "balance", "reason", "reference_id", "created_at").
		From("stock_movements").
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if ref != nil {
		q = q.Where(sq.Eq{"entity_type": ref.Type, "entity_id": ref.ID})
	}

	rows, err := r.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.StockMovement, error) {
		var (
			m     model.StockMovement
			refID *uuid.UUID
		)
		err := row.Scan(&m.ID, &m.Ref.Type, &m.Ref.ID, &m.Delta, &m.Balance, &m.Reason, &refID, &m.CreatedAt)
		if refID != nil {
			m.ReferenceID = *refID
		}
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func notFoundFor(t model.EntityType) error {
	if t == model.EntityPart {
		return model.ErrPartNotFound
	}
	return model.ErrProductNotFound
}

func nullUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
