package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrValidation        = errors.New("validation error")     // 400
	ErrInvalidQuantity   = errors.New("invalid quantity")     // 400
	ErrInvalidRecipe     = errors.New("invalid recipe")       // 400
	ErrNotFound          = errors.New("not found")            // 404
	ErrConflict          = errors.New("conflict")             // 409
	ErrInsufficientStock = errors.New("insufficient stock")   // 409
	ErrBadGateway        = errors.New("bad gateway")          // 502
	ErrServiceBusy       = errors.New("service busy")         // 429
	ErrNoRecipe          = wrapNotFound("recipe not found for this product")

	ErrPartNotFound     = wrapNotFound("part not found")
	ErrProductNotFound  = wrapNotFound("product not found")
	ErrSupplierNotFound = wrapNotFound("supplier not found")
	ErrRecipeNotFound   = wrapNotFound("recipe not found")
	ErrRecordNotFound   = wrapNotFound("record not found")
)

type notFoundError struct{ msg string }

func (e *notFoundError) Error() string        { return e.msg }
func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

func wrapNotFound(msg string) error { return &notFoundError{msg: msg} }

// Shortage describes one stock entity that cannot cover a requested deduction.
type Shortage struct {
	Ref       StockRef
	Name      string
	Required  decimal.Decimal
	Available decimal.Decimal
}

// ShortageError lists every entity that would go negative. It matches ErrInsufficientStock.
type ShortageError struct {
	Shortages []Shortage
}

func (e *ShortageError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (required %s, available %s)",
			s.Name, s.Required.String(), s.Available.String()))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func (e *ShortageError) Is(target error) bool { return target == ErrInsufficientStock }

// ValidationError reports a rejected field and matches ErrValidation.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// QuantityError reports a non-positive quantity and matches ErrInvalidQuantity.
func QuantityError(field string, q decimal.Decimal) error {
	return fmt.Errorf("%w: %s must be greater than zero, got %s", ErrInvalidQuantity, field, q.String())
}
