package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bafnalights-dot/stock/internal/model"
)

var recordColumns = []string{"id", "kind", "date", "item_id", "item_name", "quantity", "party_name", "created_at", "updated_at"}

func (r *repository) CreateRecord(ctx context.Context, rec *model.Record) error {
	const op = "repository.CreateRecord"

	_, err := r.exec(ctx, r.sb.
		Insert("stock_records").
		Columns(recordColumns...).
		Values(rec.ID, rec.Kind, rec.Date, rec.ItemID, rec.ItemName, rec.Quantity, rec.PartyName, rec.CreatedAt, rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrRecordNotFound))
	}
	return nil
}

// LockRecord reads a record of the given kind and holds its row lock until the transaction ends.
func (r *repository) LockRecord(ctx context.Context, kind model.RecordKind, id uuid.UUID) (*model.Record, error) {
	const op = "repository.LockRecord"

	row, err := r.queryRow(ctx, r.sb.
		Select(recordColumns...).
		From("stock_records").
		Where(sq.Eq{"id": id, "kind": kind}).
		Suffix("FOR UPDATE"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rec, err := scanRecord(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err, model.ErrRecordNotFound))
	}
	return rec, nil
}

func (r *repository) UpdateRecord(ctx context.Context, rec *model.Record) error {
	const op = "repository.UpdateRecord"

	ct, err := r.exec(ctx, r.sb.
		Update("stock_records").
		Set("quantity", rec.Quantity).
		Set("party_name", rec.PartyName).
		Set("updated_at", rec.UpdatedAt).
		Where(sq.Eq{"id": rec.ID, "kind": rec.Kind}))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrRecordNotFound))
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrRecordNotFound)
	}
	return nil
}

func (r *repository) DeleteRecord(ctx context.Context, kind model.RecordKind, id uuid.UUID) error {
	const op = "repository.DeleteRecord"

	ct, err := r.exec(ctx, r.sb.
		Delete("stock_records").
		Where(sq.Eq{"id": id, "kind": kind}))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrRecordNotFound)
	}
	return nil
}

func (r *repository) ListRecords(ctx context.Context, f model.RecordFilter) ([]*model.Record, error) {
	const op = "repository.ListRecords"

	where := sq.Eq{"kind": f.Kind}
	if f.ItemID != nil {
		where["item_id"] = *f.ItemID
	}

	rows, err := r.query(ctx, r.sb.
		Select(recordColumns...).
		From("stock_records").
		Where(where).
		OrderBy("date DESC", "created_at DESC"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Record, error) {
		return scanRecord(row)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*model.Record, error) {
	var rec model.Record
	err := row.Scan(
		&rec.ID,
		&rec.Kind,
		&rec.Date,
		&rec.ItemID,
		&rec.ItemName,
		&rec.Quantity,
		&rec.PartyName,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

var purchaseColumns = []string{"id", "date", "item_id", "item_name", "part_id", "part_name", "quantity", "unit_price", "supplier_id", "created_at"}

func (r *repository) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	const op = "repository.CreatePurchase"

	_, err := r.exec(ctx, r.sb.
		Insert("purchases").
		Columns(purchaseColumns...).
		Values(p.ID, p.Date, p.ItemID, p.ItemName, p.PartID, p.PartName, p.Quantity, p.UnitPrice, p.SupplierID, p.CreatedAt))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrPartNotFound))
	}
	return nil
}

func (r *repository) ListPurchases(ctx context.Context) ([]*model.Purchase, error) {
	const op = "repository.ListPurchases"

	rows, err := r.query(ctx, r.sb.
		Select(purchaseColumns...).
		From("purchases").
		OrderBy("date DESC", "created_at DESC"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Purchase, error) {
		var p model.Purchase
		err := row.Scan(&p.ID, &p.Date, &p.ItemID, &p.ItemName, &p.PartID, &p.PartName,
			&p.Quantity, &p.UnitPrice, &p.SupplierID, &p.CreatedAt)
		return &p, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *repository) CreateAssembly(ctx context.Context, a *model.AssemblyTransaction) error {
	const op = "repository.CreateAssembly"

	return r.InTx(ctx, func(ctx context.Context) error {
		_, err := r.exec(ctx, r.sb.
			Insert("assemblies").
			Columns("id", "date", "finished_product_id", "product_name", "quantity_produced", "cost").
			Values(a.ID, a.Date, a.FinishedProductID, a.ProductName, a.QuantityProduced, a.Cost))
		if err != nil {
			return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrProductNotFound))
		}

		if len(a.Consumptions) == 0 {
			return nil
		}
		ins := r.sb.
			Insert("assembly_consumptions").
			Columns("assembly_id", "position", "part_id", "part_name", "quantity_used", "unit_price")
		for i, c := range a.Consumptions {
			ins = ins.Values(a.ID, i, c.PartID, c.PartName, c.QuantityUsed, c.UnitPrice)
		}
		if _, err := r.exec(ctx, ins); err != nil {
			return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrPartNotFound))
		}
		return nil
	})
}

func (r *repository) AddTransaction(ctx context.Context, t *model.Transaction) error {
	const op = "repository.AddTransaction"

	details := t.Details
	if details == nil {
		details = map[string]any{}
	}

	_, err := r.exec(ctx, r.sb.
		Insert("transactions").
		Columns("id", "type", "date", "details", "cost").
		Values(t.ID, t.Type, t.Date, details, t.Cost))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, nil))
	}
	return nil
}

func (r *repository) ListTransactions(ctx context.Context, limit int) ([]*model.Transaction, error) {
	const op = "repository.ListTransactions"

	rows, err := r.query(ctx, r.sb.
		Select("id", "type", "date", "details", "cost").
		From("transactions").
		OrderBy("date DESC").
		Limit(uint64(limit)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Transaction, error) {
		var t model.Transaction
		err := row.Scan(&t.ID, &t.Type, &t.Date, &t.Details, &t.Cost)
		return &t, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
