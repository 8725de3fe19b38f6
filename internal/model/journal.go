package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RecordKind string

const (
	KindProduction RecordKind = "production"
	KindSale       RecordKind = "sale"
)

// Sign is the direction a record of this kind moves product stock.
func (k RecordKind) Sign() int64 {
	if k == KindSale {
		return -1
	}
	return 1
}

func (k RecordKind) Reason() MovementReason {
	if k == KindSale {
		return ReasonSale
	}
	return ReasonProduction
}

func (k RecordKind) ReversalReason() MovementReason {
	if k == KindSale {
		return ReasonSaleReversal
	}
	return ReasonProductionReversal
}

// Record is a Production or Sales entry against a finished product.
// ItemName is a snapshot taken at creation and is not refreshed on rename.
type Record struct {
	ID        uuid.UUID
	Kind      RecordKind
	Date      time.Time
	ItemID    uuid.UUID
	ItemName  string
	Quantity  decimal.Decimal
	PartyName string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockDelta returns the ledger effect of the record's current quantity.
func (r *Record) StockDelta() decimal.Decimal {
	return r.Quantity.Mul(decimal.NewFromInt(r.Kind.Sign()))
}

type CreateRecordParams struct {
	Kind      RecordKind
	Date      time.Time
	ItemID    uuid.UUID
	ItemName  string
	Quantity  decimal.Decimal
	PartyName string
}

type EditRecordParams struct {
	ID          uuid.UUID
	Kind        RecordKind
	NewQuantity decimal.Decimal
	// Sales only; nil keeps the current party.
	NewPartyName *string
}

// BatchResult reports a sequence of independent creates that stops at the first failure.
type BatchResult struct {
	Created     []*Record
	FailedIndex int
	Err         error
}

type Purchase struct {
	ID         uuid.UUID
	Date       time.Time
	ItemID     *uuid.UUID
	ItemName   string
	PartID     uuid.UUID
	PartName   string
	Quantity   decimal.Decimal
	UnitPrice  decimal.Decimal
	SupplierID *uuid.UUID
	CreatedAt  time.Time
}

type CreatePurchaseParams struct {
	Date       time.Time
	ItemID     *uuid.UUID
	PartID     *uuid.UUID
	PartName   string
	Quantity   decimal.Decimal
	UnitPrice  *decimal.Decimal
	SupplierID *uuid.UUID
}

// RecordFilter selects records of one kind, optionally for a single item.
type RecordFilter struct {
	Kind   RecordKind
	ItemID *uuid.UUID
}
