package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/bafnalights-dot/stock/internal/model"
)

var partColumns = []string{
	"p.id", "p.name", "p.category", "p.quantity", "p.opening_stock", "p.supplier_id",
	"COALESCE(s.name, '')", "p.purchase_price", "p.low_stock_threshold", "p.last_purchase_date", "p.created_at",
}

func (r *repository) CreateSupplier(ctx context.Context, s *model.Supplier) error {
	const op = "repository.CreateSupplier"

	_, err := r.exec(ctx, r.sb.
		Insert("suppliers").
		Columns("id", "name", "contact_info", "created_at").
		Values(s.ID, s.Name, s.ContactInfo, s.CreatedAt))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrSupplierNotFound))
	}
	return nil
}

func (r *repository) SupplierByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	const op = "repository.SupplierByID"

	row, err := r.queryRow(ctx, r.sb.
		Select("id", "name", "contact_info", "created_at").
		From("suppliers").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var s model.Supplier
	if err := row.Scan(&s.ID, &s.Name, &s.ContactInfo, &s.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err, model.ErrSupplierNotFound))
	}
	return &s, nil
}

func (r *repository) ListSuppliers(ctx context.Context) ([]*model.Supplier, error) {
	const op = "repository.ListSuppliers"

	rows, err := r.query(ctx, r.sb.
		Select("id", "name", "contact_info", "created_at").
		From("suppliers").
		OrderBy("name"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Supplier, error) {
		var s model.Supplier
		err := row.Scan(&s.ID, &s.Name, &s.ContactInfo, &s.CreatedAt)
		return &s, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// CreatePart inserts the part with zero stock; opening stock is posted through the ledger.
func (r *repository) CreatePart(ctx context.Context, p *model.Part) error {
	const op = "repository.CreatePart"

	_, err := r.exec(ctx, r.sb.
		Insert("parts").
		Columns("id", "name", "category", "quantity", "opening_stock", "supplier_id",
			"purchase_price", "low_stock_threshold", "last_purchase_date", "created_at").
		Values(p.ID, p.Name, p.Category, 0, p.OpeningStock, p.SupplierID,
			p.PurchasePrice, p.LowStockThreshold, p.LastPurchaseDate, p.CreatedAt))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrPartNotFound))
	}
	return nil
}

func (r *repository) PartByID(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	return r.partBy(ctx, "repository.PartByID", sq.Eq{"p.id": id})
}

func (r *repository) PartByName(ctx context.Context, name string) (*model.Part, error) {
	return r.partBy(ctx, "repository.PartByName", sq.Eq{"p.name": name})
}

func (r *repository) partBy(ctx context.Context, op string, where sq.Eq) (*model.Part, error) {
	row, err := r.queryRow(ctx, r.partSelect().Where(where))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := scanPart(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err, model.ErrPartNotFound))
	}
	return p, nil
}

func (r *repository) PartsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Part, error) {
	const op = "repository.PartsByIDs"

	out := make(map[uuid.UUID]*model.Part, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	parts, err := r.listParts(ctx, r.partSelect().Where(sq.Eq{"p.id": ids}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, p := range parts {
		out[p.ID] = p
	}
	return out, nil
}

func (r *repository) ListParts(ctx context.Context) ([]*model.Part, error) {
	const op = "repository.ListParts"

	parts, err := r.listParts(ctx, r.partSelect().OrderBy("p.name"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return parts, nil
}

func (r *repository) UpdatePart(ctx context.Context, p *model.Part) error {
	const op = "repository.UpdatePart"

	ct, err := r.exec(ctx, r.sb.
		Update("parts").
		SetMap(sq.Eq{
			"name":                p.Name,
			"category":            p.Category,
			"supplier_id":         p.SupplierID,
			"purchase_price":      p.PurchasePrice,
			"low_stock_threshold": p.LowStockThreshold,
			"last_purchase_date":  p.LastPurchaseDate,
		}).
		Where(sq.Eq{"id": p.ID}))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrPartNotFound))
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrPartNotFound)
	}
	return nil
}

func (r *repository) partSelect() sq.SelectBuilder {
	return r.sb.
		Select(partColumns...).
		From("parts p").
		LeftJoin("suppliers s ON s.id = p.supplier_id")
}

func (r *repository) listParts(ctx context.Context, b sq.SelectBuilder) ([]*model.Part, error) {
	rows, err := r.query(ctx, b)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Part, error) {
		return scanPart(row)
	})
}

func scanPart(row pgx.Row) (*model.Part, error) {
	var p model.Part
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&p.Quantity,
		&p.OpeningStock,
		&p.SupplierID,
		&p.SupplierName,
		&p.PurchasePrice,
		&p.LowStockThreshold,
		&p.LastPurchaseDate,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts the product with zero stock; opening stock is posted through the ledger.
func (r *repository) CreateProduct(ctx context.Context, p *model.FinishedProduct) error {
	const op = "repository.CreateProduct"

	_, err := r.exec(ctx, r.sb.
		Insert("finished_products").
		Columns("id", "name", "category", "quantity", "opening_stock", "created_at").
		Values(p.ID, p.Name, p.Category, 0, p.OpeningStock, p.CreatedAt))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrProductNotFound))
	}
	return nil
}

func (r *repository) ProductByID(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error) {
	const op = "repository.ProductByID"

	row, err := r.queryRow(ctx, r.productSelect().Where(sq.Eq{"f.id": id}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapErr(err, model.ErrProductNotFound))
	}
	return p, nil
}

func (r *repository) ListProducts(ctx context.Context) ([]*model.FinishedProduct, error) {
	const op = "repository.ListProducts"

	rows, err := r.query(ctx, r.productSelect().OrderBy("f.name"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.FinishedProduct, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *repository) UpdateProduct(ctx context.Context, p *model.FinishedProduct) error {
	const op = "repository.UpdateProduct"

	ct, err := r.exec(ctx, r.sb.
		Update("finished_products").
		Set("name", p.Name).
		Set("category", p.Category).
		Where(sq.Eq{"id": p.ID}))
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapErr(err, model.ErrProductNotFound))
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, model.ErrProductNotFound)
	}
	return nil
}

func (r *repository) productSelect() sq.SelectBuilder {
	return r.sb.
		Select("f.id", "f.name", "f.category", "f.quantity", "f.opening_stock",
			"EXISTS (SELECT 1 FROM recipes rc WHERE rc.finished_product_id = f.id)", "f.created_at").
		From("finished_products f")
}

func scanProduct(row pgx.Row) (*model.FinishedProduct, error) {
	var p model.FinishedProduct
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.Quantity, &p.OpeningStock, &p.HasRecipe, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
