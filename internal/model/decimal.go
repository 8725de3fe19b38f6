package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Quantities and amounts are stored as NUMERIC(18, 4).
const (
	DecimalScale   = 4
	decimalIntDigs = 14
)

var decimalLimit = decimal.New(1, decimalIntDigs)

// Fits reports whether d is stored exactly, without rounding or overflow.
func Fits(d decimal.Decimal) bool {
	return d.Abs().LessThan(decimalLimit) && d.Round(DecimalScale).Equal(d)
}

// RoundAmount rounds a derived amount such as a cost to the stored scale.
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(DecimalScale)
}

// CheckQuantity rejects a quantity that is not positive or cannot be stored exactly.
// It matches ErrInvalidQuantity.
func CheckQuantity(field string, q decimal.Decimal) error {
	if !q.IsPositive() {
		return QuantityError(field, q)
	}
	if !Fits(q) {
		return precisionError(ErrInvalidQuantity, field, q)
	}
	return nil
}

// CheckAmount rejects a negative amount or one that cannot be stored exactly.
// It matches ErrValidation.
func CheckAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return ValidationError("%s must not be negative", field)
	}
	if !Fits(d) {
		return precisionError(ErrValidation, field, d)
	}
	return nil
}

func precisionError(kind error, field string, d decimal.Decimal) error {
	return fmt.Errorf("%w: %s allows at most %d decimal places and %d integer digits, got %s",
		kind, field, DecimalScale, decimalIntDigs, d.String())
}
