package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type RecipeLine struct {
	PartID         uuid.UUID
	QuantityNeeded decimal.Decimal
}

type Recipe struct {
	ID                  uuid.UUID
	FinishedProductID   uuid.UUID
	FinishedProductName string
	Lines               []RecipeLine
	CreatedAt           time.Time
}

// RecipeLineView is a recipe line joined with the part's current state.
type RecipeLineView struct {
	PartID            uuid.UUID
	PartName          string
	QuantityNeeded    decimal.Decimal
	AvailableQuantity decimal.Decimal
}

type RecipeView struct {
	ID                  uuid.UUID
	FinishedProductID   uuid.UUID
	FinishedProductName string
	Parts               []RecipeLineView
	CreatedAt           time.Time
}
