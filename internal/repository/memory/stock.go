package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bafnalights-dot/stock/internal/model"
)

// LockStock requires a transaction; the store-wide lock it holds covers every row.
func (r *repository) LockStock(ctx context.Context, refs []model.StockRef) ([]model.StockLevel, error) {
	const op = "repository.LockStock"

	var out []model.StockLevel
	err := r.view(ctx, func(s *store) error {
		out = make([]model.StockLevel, 0, len(refs))
		for _, ref := range refs {
			lvl, err := s.level(ref)
			if err != nil {
				return err
			}
			out = append(out, lvl)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *repository) SetStock(ctx context.Context, ref model.StockRef, qty decimal.Decimal) error {
	const op = "repository.SetStock"

	err := r.view(ctx, func(s *store) error {
		if qty.IsNegative() {
			return fmt.Errorf("%w: negative balance for %s", model.ErrInsufficientStock, ref.ID)
		}

		switch ref.Type {
		case model.EntityPart:
			p, ok := s.parts[ref.ID]
			if !ok {
				return model.ErrPartNotFound
			}
			cp := *p
			cp.Quantity = qty
			s.parts[ref.ID] = &cp
		case model.EntityProduct:
			p, ok := s.products[ref.ID]
			if !ok {
				return model.ErrProductNotFound
			}
			cp := *p
			cp.Quantity = qty
			s.products[ref.ID] = &cp
		default:
			return fmt.Errorf("unknown entity type %q", ref.Type)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repository) AddMovements(ctx context.Context, movements []model.StockMovement) error {
	return r.view(ctx, func(s *store) error {
		s.movements = append(s.movements, movements...)
		return nil
	})
}

func (r *repository) ListMovements(ctx context.Context, ref *model.StockRef, limit int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	err := r.view(ctx, func(s *store) error {
		for i := len(s.movements) - 1; i >= 0 && len(out) < limit; i-- {
			m := s.movements[i]
			if ref != nil && m.Ref != *ref {
				continue
			}
			out = append(out, m)
		}
		return nil
	})
	return out, err
}

func (s *store) level(ref model.StockRef) (model.StockLevel, error) {
	switch ref.Type {
	case model.EntityPart:
		p, ok := s.parts[ref.ID]
		if !ok {
			return model.StockLevel{}, model.ErrPartNotFound
		}
		return model.StockLevel{Ref: ref, Name: p.Name, Quantity: p.Quantity}, nil
	case model.EntityProduct:
		p, ok := s.products[ref.ID]
		if !ok {
			return model.StockLevel{}, model.ErrProductNotFound
		}
		return model.StockLevel{Ref: ref, Name: p.Name, Quantity: p.Quantity}, nil
	default:
		return model.StockLevel{}, fmt.Errorf("unknown entity type %q", ref.Type)
	}
}
