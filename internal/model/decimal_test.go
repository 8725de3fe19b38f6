package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCheckQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		wantErr error
	}{
		{in: "1"},
		{in: "0.0001"},
		{in: "1.23450"},
		{in: "99999999999999.9999"},
		{in: "0", wantErr: ErrInvalidQuantity},
		{in: "-2", wantErr: ErrInvalidQuantity},
		{in: "0.00001", wantErr: ErrInvalidQuantity},
		{in: "1.23456", wantErr: ErrInvalidQuantity},
		{in: "100000000000000", wantErr: ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			err := CheckQuantity("quantity", decimal.RequireFromString(tt.in))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCheckAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		wantErr error
	}{
		{in: "0"},
		{in: "12.5"},
		{in: "-0.01", wantErr: ErrValidation},
		{in: "0.12345", wantErr: ErrValidation},
		{in: "1e15", wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			err := CheckAmount("unit_price", decimal.RequireFromString(tt.in))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
