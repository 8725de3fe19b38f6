package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntityType string

const (
	EntityPart    EntityType = "part"
	EntityProduct EntityType = "finished_product"
)

func (t EntityType) Valid() bool {
	return t == EntityPart || t == EntityProduct
}

type MovementReason string

const (
	ReasonOpening            MovementReason = "opening"
	ReasonPurchase           MovementReason = "purchase"
	ReasonAssemblyConsume    MovementReason = "assembly_consume"
	ReasonAssemblyProduce    MovementReason = "assembly_produce"
	ReasonProduction         MovementReason = "production"
	ReasonProductionReversal MovementReason = "production_reversal"
	ReasonSale               MovementReason = "sale"
	ReasonSaleReversal       MovementReason = "sale_reversal"
)

// StockRef names a single stock-carrying row.
type StockRef struct {
	Type EntityType
	ID   uuid.UUID
}

// Less orders refs by type then id; rows are always locked in this order.
func (r StockRef) Less(o StockRef) bool {
	if r.Type != o.Type {
		return r.Type < o.Type
	}
	return r.ID.String() < o.ID.String()
}

// StockLevel is a locked view of a stock row.
type StockLevel struct {
	Ref      StockRef
	Name     string
	Quantity decimal.Decimal
}

// Delta is a signed change to apply to a stock row.
type Delta struct {
	Ref         StockRef
	Qty         decimal.Decimal
	Reason      MovementReason
	ReferenceID uuid.UUID
}

// StockMovement is one journaled ledger change.
type StockMovement struct {
	ID          uuid.UUID
	Ref         StockRef
	Delta       decimal.Decimal
	Balance     decimal.Decimal
	Reason      MovementReason
	ReferenceID uuid.UUID
	CreatedAt   time.Time
}
