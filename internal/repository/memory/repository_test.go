package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bafnalights-dot/stock/internal/model"
)

func newPart(t *testing.T, r *repository) *model.Part {
	t.Helper()

	p := &model.Part{ID: uuid.New(), Name: gofakeit.UUID(), CreatedAt: time.Now()}
	require.NoError(t, r.CreatePart(context.Background(), p))
	return p
}

func TestInTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRepository()
	p := newPart(t, r)
	ref := model.StockRef{Type: model.EntityPart, ID: p.ID}

	boom := errors.New("boom")
	err := r.InTx(ctx, func(ctx context.Context) error {
		require.NoError(t, r.SetStock(ctx, ref, decimal.NewFromInt(9)))
		require.NoError(t, r.AddMovements(ctx, []model.StockMovement{{ID: uuid.New(), Ref: ref}}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := r.PartByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.IsZero())

	movements, err := r.ListMovements(ctx, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, movements)
}

func TestInTxNested(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRepository()
	p := newPart(t, r)
	ref := model.StockRef{Type: model.EntityPart, ID: p.ID}

	err := r.InTx(ctx, func(ctx context.Context) error {
		return r.InTx(ctx, func(ctx context.Context) error {
			return r.SetStock(ctx, ref, decimal.NewFromInt(3))
		})
	})
	require.NoError(t, err)

	levels, err := r.LockStock(ctx, []model.StockRef{ref})
	require.NoError(t, err)
	require.Len(t, levels, 1)
	assert.True(t, levels[0].Quantity.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, p.Name, levels[0].Name)
}

func TestCreatePartDuplicateName(t *testing.T) {
	t.Parallel()

	r := NewRepository()
	p := newPart(t, r)

	err := r.CreatePart(context.Background(), &model.Part{ID: uuid.New(), Name: p.Name})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestSetStock(t *testing.T) {
	t.Parallel()

	r := NewRepository()
	p := newPart(t, r)

	tests := []struct {
		name    string
		ref     model.StockRef
		qty     decimal.Decimal
		wantErr error
	}{
		{
			name: "ok",
			ref:  model.StockRef{Type: model.EntityPart, ID: p.ID},
			qty:  decimal.NewFromInt(4),
		},
		{
			name:    "negative",
			ref:     model.StockRef{Type: model.EntityPart, ID: p.ID},
			qty:     decimal.NewFromInt(-1),
			wantErr: model.ErrInsufficientStock,
		},
		{
			name:    "unknown part",
			ref:     model.StockRef{Type: model.EntityPart, ID: uuid.New()},
			qty:     decimal.NewFromInt(1),
			wantErr: model.ErrNotFound,
		},
		{
			name:    "unknown product",
			ref:     model.StockRef{Type: model.EntityProduct, ID: uuid.New()},
			qty:     decimal.NewFromInt(1),
			wantErr: model.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.SetStock(context.Background(), tt.ref, tt.qty)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestListMovementsNewestFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	r := NewRepository()
	a := model.StockRef{Type: model.EntityPart, ID: uuid.New()}
	b := model.StockRef{Type: model.EntityProduct, ID: uuid.New()}

	batch := []model.StockMovement{
		{ID: uuid.New(), Ref: a},
		{ID: uuid.New(), Ref: b},
		{ID: uuid.New(), Ref: a},
	}
	require.NoError(t, r.AddMovements(ctx, batch))

	all, err := r.ListMovements(ctx, nil, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, batch[2].ID, all[0].ID)
	assert.Equal(t, batch[1].ID, all[1].ID)

	onlyA, err := r.ListMovements(ctx, &a, 10)
	require.NoError(t, err)
	require.Len(t, onlyA, 2)
	assert.Equal(t, batch[2].ID, onlyA[0].ID)
	assert.Equal(t, batch[0].ID, onlyA[1].ID)
}
