package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/bafnalights-dot/stock/internal/model"
)

func (r *repository) CreateRecord(ctx context.Context, rec *model.Record) error {
	return r.view(ctx, func(s *store) error {
		if _, ok := s.products[rec.ItemID]; !ok {
			return fmt.Errorf("repository.CreateRecord: %w", model.ErrProductNotFound)
		}
		cp := *rec
		s.records[rec.ID] = &cp
		return nil
	})
}

func (r *repository) LockRecord(ctx context.Context, kind model.RecordKind, id uuid.UUID) (*model.Record, error) {
	var out *model.Record
	err := r.view(ctx, func(s *store) error {
		rec, ok := s.records[id]
		if !ok || rec.Kind != kind {
			return model.ErrRecordNotFound
		}
		cp := *rec
		out = &cp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository.LockRecord: %w", err)
	}
	return out, nil
}

func (r *repository) UpdateRecord(ctx context.Context, rec *model.Record) error {
	err := r.view(ctx, func(s *store) error {
		cur, ok := s.records[rec.ID]
		if !ok || cur.Kind != rec.Kind {
			return model.ErrRecordNotFound
		}
		cp := *cur
		cp.Quantity = rec.Quantity
		cp.PartyName = rec.PartyName
		cp.UpdatedAt = rec.UpdatedAt
		s.records[rec.ID] = &cp
		return nil
	})
	if err != nil {
		return fmt.Errorf("repository.UpdateRecord: %w", err)
	}
	return nil
}

func (r *repository) DeleteRecord(ctx context.Context, kind model.RecordKind, id uuid.UUID) error {
	err := r.view(ctx, func(s *store) error {
		cur, ok := s.records[id]
		if !ok || cur.Kind != kind {
			return model.ErrRecordNotFound
		}
		delete(s.records, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("repository.DeleteRecord: %w", err)
	}
	return nil
}

func (r *repository) ListRecords(ctx context.Context, f model.RecordFilter) ([]*model.Record, error) {
	var out []*model.Record
	err := r.view(ctx, func(s *store) error {
		for _, rec := range s.records {
			if rec.Kind != f.Kind || (f.ItemID != nil && rec.ItemID != *f.ItemID) {
				continue
			}
			cp := *rec
			out = append(out, &cp)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.Record) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, err
}

func (r *repository) CreatePurchase(ctx context.Context, p *model.Purchase) error {
	return r.view(ctx, func(s *store) error {
		cp := *p
		s.purchases = append(s.purchases, &cp)
		return nil
	})
}

func (r *repository) ListPurchases(ctx context.Context) ([]*model.Purchase, error) {
	var out []*model.Purchase
	err := r.view(ctx, func(s *store) error {
		out = make([]*model.Purchase, 0, len(s.purchases))
		for i := len(s.purchases) - 1; i >= 0; i-- {
			cp := *s.purchases[i]
			out = append(out, &cp)
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b *model.Purchase) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, err
}

func (r *repository) CreateAssembly(ctx context.Context, a *model.AssemblyTransaction) error {
	return r.view(ctx, func(s *store) error {
		cp := *a
		cp.Consumptions = slices.Clone(a.Consumptions)
		s.assemblies = append(s.assemblies, &cp)
		return nil
	})
}

func (r *repository) AddTransaction(ctx context.Context, t *model.Transaction) error {
	return r.view(ctx, func(s *store) error {
		cp := *t
		s.transactions = append(s.transactions, &cp)
		return nil
	})
}

func (r *repository) ListTransactions(ctx context.Context, limit int) ([]*model.Transaction, error) {
	var out []*model.Transaction
	err := r.view(ctx, func(s *store) error {
		out = make([]*model.Transaction, 0, min(limit, len(s.transactions)))
		for i := len(s.transactions) - 1; i >= 0; i-- {
			cp := *s.transactions[i]
			out = append(out, &cp)
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b *model.Transaction) int { return cmp.Compare(b.Date.UnixNano(), a.Date.UnixNano()) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
