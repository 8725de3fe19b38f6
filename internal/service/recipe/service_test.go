package service

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bafnalights-dot/stock/internal/model"
	repository "github.com/bafnalights-dot/stock/internal/repository/memory"
)

type testRepository interface {
	RecipeRepository
	CreatePart(ctx context.Context, p *model.Part) error
	CreateProduct(ctx context.Context, p *model.FinishedProduct) error
}

func newSvc(t *testing.T) (*service, testRepository) {
	t.Helper()

	repo := repository.NewRepository()
	return NewRecipeService(repo, time.Second, time.Second), repo
}

func seed(t *testing.T, repo testRepository, parts int) (uuid.UUID, []uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	product := &model.FinishedProduct{ID: uuid.New(), Name: gofakeit.ProductName() + gofakeit.UUID(), CreatedAt: time.Now()}
	require.NoError(t, repo.CreateProduct(ctx, product))

	ids := make([]uuid.UUID, 0, parts)
	for i := 0; i < parts; i++ {
		p := &model.Part{ID: uuid.New(), Name: gofakeit.UUID(), CreatedAt: time.Now()}
		require.NoError(t, repo.CreatePart(ctx, p))
		ids = append(ids, p.ID)
	}
	return product.ID, ids
}

func TestSetThenGetRoundTrip(t *testing.T) {
	t.Parallel()

	svc, repo := newSvc(t)
	productID, parts := seed(t, repo, 3)

	lines := []model.RecipeLine{
		{PartID: parts[2], QuantityNeeded: decimal.NewFromInt(2)},
		{PartID: parts[0], QuantityNeeded: decimal.RequireFromString("0.5")},
		{PartID: parts[1], QuantityNeeded: decimal.NewFromInt(7)},
	}

	_, err := svc.Set(context.Background(), productID, lines)
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), productID)
	require.NoError(t, err)
	require.Len(t, got.Lines, len(lines))
	for i := range lines {
		assert.Equal(t, lines[i].PartID, got.Lines[i].PartID)
		assert.True(t, lines[i].QuantityNeeded.Equal(got.Lines[i].QuantityNeeded))
	}
}

func TestSetReplacesAllLines(t *testing.T) {
	t.Parallel()

	svc, repo := newSvc(t)
	productID, parts := seed(t, repo, 3)
	ctx := context.Background()

	first, err := svc.Set(ctx, productID, []model.RecipeLine{
		{PartID: parts[0], QuantityNeeded: decimal.NewFromInt(1)},
		{PartID: parts[1], QuantityNeeded: decimal.NewFromInt(1)},
	})
	require.NoError(t, err)

	second, err := svc.Set(ctx, productID, []model.RecipeLine{
		{PartID: parts[2], QuantityNeeded: decimal.NewFromInt(4)},
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	view, err := svc.View(ctx, productID)
	require.NoError(t, err)
	require.Len(t, view.Parts, 1)
	assert.Equal(t, parts[2], view.Parts[0].PartID)
	assert.NotEmpty(t, view.Parts[0].PartName)
}

func TestSetRejects(t *testing.T) {
	t.Parallel()

	partA := uuid.New()

	tests := []struct {
		name    string
		lines   func(parts []uuid.UUID) []model.RecipeLine
		product func(id uuid.UUID) uuid.UUID
		wantErr error
	}{
		{
			name:    "empty line list",
			lines:   func([]uuid.UUID) []model.RecipeLine { return nil },
			wantErr: model.ErrInvalidRecipe,
		},
		{
			name: "zero quantity",
			lines: func(p []uuid.UUID) []model.RecipeLine {
				return []model.RecipeLine{{PartID: p[0], QuantityNeeded: decimal.Zero}}
			},
			wantErr: model.ErrInvalidRecipe,
		},
		{
			name: "negative quantity",
			lines: func(p []uuid.UUID) []model.RecipeLine {
				return []model.RecipeLine{{PartID: p[0], QuantityNeeded: decimal.NewFromInt(-1)}}
			},
			wantErr: model.ErrInvalidRecipe,
		},
		{
			name: "more than four decimal places",
			lines: func(p []uuid.UUID) []model.RecipeLine {
				return []model.RecipeLine{{PartID: p[0], QuantityNeeded: decimal.RequireFromString("0.00001")}}
			},
			wantErr: model.ErrInvalidRecipe,
		},
		{
			name: "beyond storable magnitude",
			lines: func(p []uuid.UUID) []model.RecipeLine {
				return []model.RecipeLine{{PartID: p[0], QuantityNeeded: decimal.New(1, 14)}}
			},
			wantErr: model.ErrInvalidRecipe,
		},
		{
			name: "duplicate part",
			lines: func(p []uuid.UUID) []model.RecipeLine {
				return []model.RecipeLine{
					{PartID: p[0], QuantityNeeded: decimal.NewFromInt(1)},
					{PartID: p[0], QuantityNeeded: decimal.NewFromInt(2)},
				}
			},
			wantErr: model.ErrInvalidRecipe,
		},
		{
			name: "unknown part",
			lines: func([]uuid.UUID) []model.RecipeLine {
				return []model.RecipeLine{{PartID: partA, QuantityNeeded: decimal.NewFromInt(1)}}
			},
			wantErr: model.ErrPartNotFound,
		},
		{
			name: "unknown product",
			lines: func(p []uuid.UUID) []model.RecipeLine {
				return []model.RecipeLine{{PartID: p[0], QuantityNeeded: decimal.NewFromInt(1)}}
			},
			product: func(uuid.UUID) uuid.UUID { return uuid.New() },
			wantErr: model.ErrProductNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, repo := newSvc(t)
			productID, parts := seed(t, repo, 1)
			if tt.product != nil {
				productID = tt.product(productID)
			}

			_, err := svc.Set(context.Background(), productID, tt.lines(parts))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = svc.Get(context.Background(), productID)
			assert.ErrorIs(t, err, model.ErrNotFound)
		})
	}
}

func TestGetMissingRecipe(t *testing.T) {
	t.Parallel()

	svc, repo := newSvc(t)
	productID, _ := seed(t, repo, 0)

	_, err := svc.Get(context.Background(), productID)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrRecipeNotFound)
}

func TestList(t *testing.T) {
	t.Parallel()

	svc, repo := newSvc(t)
	p1, parts1 := seed(t, repo, 1)
	p2, parts2 := seed(t, repo, 2)
	ctx := context.Background()

	_, err := svc.Set(ctx, p1, []model.RecipeLine{{PartID: parts1[0], QuantityNeeded: decimal.NewFromInt(1)}})
	require.NoError(t, err)
	_, err = svc.Set(ctx, p2, []model.RecipeLine{
		{PartID: parts2[0], QuantityNeeded: decimal.NewFromInt(1)},
		{PartID: parts2[1], QuantityNeeded: decimal.NewFromInt(3)},
	})
	require.NoError(t, err)

	views, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, views, 2)
}
