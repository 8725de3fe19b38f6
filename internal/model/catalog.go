package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var DefaultLowStockThreshold = decimal.NewFromInt(10)

type Supplier struct {
	ID          uuid.UUID
	Name        string
	ContactInfo string
	CreatedAt   time.Time
}

type Part struct {
	ID           uuid.UUID
	Name         string
	Category     string
	Quantity     decimal.Decimal
	OpeningStock decimal.Decimal
	SupplierID   *uuid.UUID
	// Resolved on read, never stored.
	SupplierName      string
	PurchasePrice     decimal.Decimal
	LowStockThreshold decimal.Decimal
	LastPurchaseDate  time.Time
	CreatedAt         time.Time
}

func (p *Part) IsLowStock() bool {
	return p.Quantity.LessThanOrEqual(p.LowStockThreshold)
}

type FinishedProduct struct {
	ID           uuid.UUID
	Name         string
	Category     string
	Quantity     decimal.Decimal
	OpeningStock decimal.Decimal
	HasRecipe    bool
	CreatedAt    time.Time
}

type CreateSupplierParams struct {
	Name        string
	ContactInfo string
}

type CreatePartParams struct {
	Name              string
	Category          string
	Quantity          decimal.Decimal
	SupplierID        *uuid.UUID
	PurchasePrice     decimal.Decimal
	LowStockThreshold *decimal.Decimal
	LastPurchaseDate  *time.Time
}

// UpdatePartParams changes reference fields only; stock moves through the ledger.
type UpdatePartParams struct {
	ID                uuid.UUID
	Name              *string
	Category          *string
	SupplierID        *uuid.UUID
	PurchasePrice     *decimal.Decimal
	LowStockThreshold *decimal.Decimal
}

type CreateProductParams struct {
	Name         string
	Category     string
	OpeningStock decimal.Decimal
	// Optional bill of materials given by part name; unknown parts are created with zero stock.
	Parts []NamedRecipeLine
}

type UpdateProductParams struct {
	ID       uuid.UUID
	Name     *string
	Category *string
}

type NamedRecipeLine struct {
	PartName       string
	QuantityNeeded decimal.Decimal
}
