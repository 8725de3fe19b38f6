package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AssembleParams struct {
	FinishedProductID uuid.UUID
	Quantity          decimal.Decimal
}

type PartConsumption struct {
	PartID       uuid.UUID
	PartName     string
	QuantityUsed decimal.Decimal
	UnitPrice    decimal.Decimal
}

type InsufficientPart struct {
	PartID    uuid.UUID
	PartName  string
	Required  decimal.Decimal
	Available decimal.Decimal
}

// AssemblyResult is either a success with the new product stock and cost,
// or a failure listing every short part.
type AssemblyResult struct {
	Success           bool
	Message           string
	TransactionID     uuid.UUID
	NewQuantity       decimal.Decimal
	Cost              decimal.Decimal
	PartsUsed         []PartConsumption
	InsufficientParts []InsufficientPart
}

type AssemblyTransaction struct {
	ID                uuid.UUID
	Date              time.Time
	FinishedProductID uuid.UUID
	ProductName       string
	QuantityProduced  decimal.Decimal
	Cost              decimal.Decimal
	Consumptions      []PartConsumption
}
