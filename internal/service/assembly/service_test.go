package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bafnalights-dot/stock/internal/model"
	repository "github.com/bafnalights-dot/stock/internal/repository/memory"
	ledger "github.com/bafnalights-dot/stock/internal/service/ledger"
)

type testRepository interface {
	ledger.StockRepository
	AssemblyRepository
	CreatePart(ctx context.Context, p *model.Part) error
	CreateProduct(ctx context.Context, p *model.FinishedProduct) error
	SaveRecipe(ctx context.Context, rec *model.Recipe) error
	ListTransactions(ctx context.Context, limit int) ([]*model.Transaction, error)
}

type env struct {
	repo   testRepository
	ledger interface {
		Ledger
		ApplyDelta(ctx context.Context, entity model.EntityType, id uuid.UUID, qty decimal.Decimal,
			reason model.MovementReason, referenceID uuid.UUID) (model.StockMovement, error)
	}
	svc *service
}

func newEnv(t *testing.T) env {
	t.Helper()

	repo := repository.NewRepository()
	l := ledger.NewLedgerService(repo, nil, time.Second, time.Second)
	return env{
		repo:   repo,
		ledger: l,
		svc:    NewAssemblyService(repo, l, time.Second),
	}
}

func (e env) part(t *testing.T, qty int64, price string) *model.Part {
	t.Helper()

	p := &model.Part{
		ID:            uuid.New(),
		Name:          gofakeit.UUID(),
		PurchasePrice: decimal.RequireFromString(price),
		CreatedAt:     time.Now(),
	}
	require.NoError(t, e.repo.CreatePart(context.Background(), p))
	if qty > 0 {
		_, err := e.ledger.ApplyDelta(context.Background(), model.EntityPart, p.ID, decimal.NewFromInt(qty), model.ReasonOpening, uuid.Nil)
		require.NoError(t, err)
	}
	return p
}

func (e env) product(t *testing.T, lines ...model.RecipeLine) *model.FinishedProduct {
	t.Helper()

	p := &model.FinishedProduct{ID: uuid.New(), Name: gofakeit.ProductName() + " " + gofakeit.UUID(), CreatedAt: time.Now()}
	require.NoError(t, e.repo.CreateProduct(context.Background(), p))
	if len(lines) > 0 {
		require.NoError(t, e.repo.SaveRecipe(context.Background(), &model.Recipe{
			ID:                uuid.New(),
			FinishedProductID: p.ID,
			Lines:             lines,
			CreatedAt:         time.Now(),
		}))
	}
	return p
}

func (e env) stock(t *testing.T, typ model.EntityType, id uuid.UUID) decimal.Decimal {
	t.Helper()

	var out decimal.Decimal
	require.NoError(t, e.ledger.Transact(context.Background(), func(ctx context.Context, tx ledger.StockTx) error {
		lv, err := tx.Levels(ctx, model.StockRef{Type: typ, ID: id})
		if err != nil {
			return err
		}
		out = lv[0].Quantity
		return nil
	}))
	return out
}

func line(p *model.Part, n int64) model.RecipeLine {
	return model.RecipeLine{PartID: p.ID, QuantityNeeded: decimal.NewFromInt(n)}
}

func TestAssembleInsufficientListsEveryShortPart(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.part(t, 10, "1.50")
	b := e.part(t, 3, "4")
	x := e.product(t, line(a, 2), line(b, 1))

	res, err := e.svc.Assemble(context.Background(), model.AssembleParams{
		FinishedProductID: x.ID,
		Quantity:          decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.InsufficientParts, 1)
	assert.Equal(t, b.Name, res.InsufficientParts[0].PartName)
	assert.True(t, res.InsufficientParts[0].Required.Equal(decimal.NewFromInt(4)))
	assert.True(t, res.InsufficientParts[0].Available.Equal(decimal.NewFromInt(3)))

	assert.True(t, e.stock(t, model.EntityPart, a.ID).Equal(decimal.NewFromInt(10)))
	assert.True(t, e.stock(t, model.EntityPart, b.ID).Equal(decimal.NewFromInt(3)))
	assert.True(t, e.stock(t, model.EntityProduct, x.ID).IsZero())

	feed, err := e.repo.ListTransactions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestAssembleAllShortPartsReported(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.part(t, 1, "1")
	b := e.part(t, 0, "1")
	c := e.part(t, 100, "1")
	x := e.product(t, line(a, 2), line(b, 1), line(c, 1))

	res, err := e.svc.Assemble(context.Background(), model.AssembleParams{FinishedProductID: x.ID, Quantity: decimal.NewFromInt(2)})
	require.NoError(t, err)
	assert.False(t, res.Success)

	names := []string{}
	for _, s := range res.InsufficientParts {
		names = append(names, s.PartName)
	}
	assert.ElementsMatch(t, []string{a.Name, b.Name}, names)
}

func TestAssembleSuccess(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.part(t, 10, "1.50")
	b := e.part(t, 5, "4")
	x := e.product(t, line(a, 2), line(b, 1))

	res, err := e.svc.Assemble(context.Background(), model.AssembleParams{
		FinishedProductID: x.ID,
		Quantity:          decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	// 8 x 1.50 + 4 x 4
	assert.True(t, res.Cost.Equal(decimal.NewFromInt(28)), res.Cost.String())
	assert.True(t, res.NewQuantity.Equal(decimal.NewFromInt(4)))
	require.Len(t, res.PartsUsed, 2)
	assert.True(t, res.PartsUsed[0].QuantityUsed.Equal(decimal.NewFromInt(8)))
	assert.True(t, res.PartsUsed[1].QuantityUsed.Equal(decimal.NewFromInt(4)))

	assert.True(t, e.stock(t, model.EntityPart, a.ID).Equal(decimal.NewFromInt(2)))
	assert.True(t, e.stock(t, model.EntityPart, b.ID).Equal(decimal.NewFromInt(1)))
	assert.True(t, e.stock(t, model.EntityProduct, x.ID).Equal(decimal.NewFromInt(4)))

	feed, err := e.repo.ListTransactions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, model.TransactionAssembly, feed[0].Type)
	assert.Equal(t, res.TransactionID, feed[0].ID)
	assert.True(t, feed[0].Cost.Equal(res.Cost))
}

func TestAssembleErrors(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.part(t, 10, "1")
	withRecipe := e.product(t, line(a, 1))
	noRecipe := e.product(t)
	fine := e.product(t, model.RecipeLine{PartID: a.ID, QuantityNeeded: decimal.RequireFromString("0.0001")})

	tests := []struct {
		name    string
		params  model.AssembleParams
		wantErr error
	}{
		{
			name:    "zero quantity",
			params:  model.AssembleParams{FinishedProductID: withRecipe.ID, Quantity: decimal.Zero},
			wantErr: model.ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			params:  model.AssembleParams{FinishedProductID: withRecipe.ID, Quantity: decimal.NewFromInt(-2)},
			wantErr: model.ErrInvalidQuantity,
		},
		{
			name:    "quantity too precise",
			params:  model.AssembleParams{FinishedProductID: withRecipe.ID, Quantity: decimal.RequireFromString("1.00001")},
			wantErr: model.ErrInvalidQuantity,
		},
		{
			name:    "required part quantity too precise",
			params:  model.AssembleParams{FinishedProductID: fine.ID, Quantity: decimal.RequireFromString("0.5")},
			wantErr: model.ErrInvalidQuantity,
		},
		{
			name:    "unknown product",
			params:  model.AssembleParams{FinishedProductID: uuid.New(), Quantity: decimal.NewFromInt(1)},
			wantErr: model.ErrProductNotFound,
		},
		{
			name:    "no recipe",
			params:  model.AssembleParams{FinishedProductID: noRecipe.ID, Quantity: decimal.NewFromInt(1)},
			wantErr: model.ErrNoRecipe,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.svc.Assemble(context.Background(), tt.params)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, res)
		})
	}

	assert.True(t, e.stock(t, model.EntityPart, a.ID).Equal(decimal.NewFromInt(10)))
}

func TestConcurrentAssembliesNeverOverdraw(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.part(t, 10, "1")
	x := e.product(t, line(a, 3))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.svc.Assemble(context.Background(), model.AssembleParams{FinishedProductID: x.ID, Quantity: decimal.NewFromInt(1)})
			if err == nil && res.Success {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.True(t, e.stock(t, model.EntityPart, a.ID).Equal(decimal.NewFromInt(1)))
	assert.True(t, e.stock(t, model.EntityProduct, x.ID).Equal(decimal.NewFromInt(3)))
}

// txLedger reports whether a transaction is open.
type txLedger struct {
	Ledger
	open bool
}

func (l *txLedger) Transact(ctx context.Context, fn func(ctx context.Context, tx ledger.StockTx) error) error {
	return l.Ledger.Transact(ctx, func(ctx context.Context, tx ledger.StockTx) error {
		l.open = true
		defer func() { l.open = false }()
		return fn(ctx, tx)
	})
}

type recipeReads struct {
	testRepository
	ledger  *txLedger
	outside int
}

func (r *recipeReads) RecipeByProduct(ctx context.Context, productID uuid.UUID) (*model.Recipe, error) {
	if !r.ledger.open {
		r.outside++
	}
	return r.testRepository.RecipeByProduct(ctx, productID)
}

func TestAssembleReadsRecipeInTransaction(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	a := e.part(t, 5, "2")
	x := e.product(t, line(a, 1))

	l := &txLedger{Ledger: e.ledger}
	repo := &recipeReads{testRepository: e.repo, ledger: l}
	svc := NewAssemblyService(repo, l, time.Second)

	res, err := svc.Assemble(context.Background(), model.AssembleParams{FinishedProductID: x.ID, Quantity: decimal.NewFromInt(2)})
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.True(t, res.NewQuantity.Equal(decimal.NewFromInt(2)))
	assert.Zero(t, repo.outside)
}
