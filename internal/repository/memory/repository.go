package repository

import (
	"context"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/bafnalights-dot/stock/internal/model"
)

type txKey struct{}

type store struct {
	suppliers    map[uuid.UUID]*model.Supplier
	parts        map[uuid.UUID]*model.Part
	products     map[uuid.UUID]*model.FinishedProduct
	recipes      map[uuid.UUID]*model.Recipe // by finished product id
	records      map[uuid.UUID]*model.Record
	purchases    []*model.Purchase
	assemblies   []*model.AssemblyTransaction
	transactions []*model.Transaction
	movements    []model.StockMovement
}

func newStore() *store {
	return &store{
		suppliers: make(map[uuid.UUID]*model.Supplier),
		parts:     make(map[uuid.UUID]*model.Part),
		products:  make(map[uuid.UUID]*model.FinishedProduct),
		recipes:   make(map[uuid.UUID]*model.Recipe),
		records:   make(map[uuid.UUID]*model.Record),
	}
}

// clone copies every map and slice header. Stored values are never mutated in place,
// so sharing the pointed-to structs is safe.
func (s *store) clone() *store {
	return &store{
		suppliers:    maps.Clone(s.suppliers),
		parts:        maps.Clone(s.parts),
		products:     maps.Clone(s.products),
		recipes:      maps.Clone(s.recipes),
		records:      maps.Clone(s.records),
		purchases:    s.purchases[:len(s.purchases):len(s.purchases)],
		assemblies:   s.assemblies[:len(s.assemblies):len(s.assemblies)],
		transactions: s.transactions[:len(s.transactions):len(s.transactions)],
		movements:    s.movements[:len(s.movements):len(s.movements)],
	}
}

// repository keeps the whole ledger in memory. A single mutex serialises
// transactions; a failed transaction restores the snapshot taken at its start.
type repository struct {
	mu   sync.Mutex
	data *store
}

func NewRepository() *repository {
	return &repository{data: newStore()}
}

func (r *repository) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.inTx(ctx) {
		return fn(ctx)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, r)); err != nil {
		r.data = snapshot
		return err
	}
	return nil
}

func (r *repository) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*repository)
	return ok && owner == r
}

// view runs fn against the store, taking the lock unless ctx already holds it.
func (r *repository) view(ctx context.Context, fn func(s *store) error) error {
	if r.inTx(ctx) {
		return fn(r.data)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.data)
}
