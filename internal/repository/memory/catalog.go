package repository

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bafnalights-dot/stock/internal/model"
)

func (r *repository) CreateSupplier(ctx context.Context, sup *model.Supplier) error {
	return r.view(ctx, func(s *store) error {
		cp := *sup
		s.suppliers[sup.ID] = &cp
		return nil
	})
}

func (r *repository) SupplierByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var out *model.Supplier
	err := r.view(ctx, func(s *store) error {
		sup, ok := s.suppliers[id]
		if !ok {
			return model.ErrSupplierNotFound
		}
		cp := *sup
		out = &cp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository.SupplierByID: %w", err)
	}
	return out, nil
}

func (r *repository) ListSuppliers(ctx context.Context) ([]*model.Supplier, error) {
	var out []*model.Supplier
	err := r.view(ctx, func(s *store) error {
		out = make([]*model.Supplier, 0, len(s.suppliers))
		for _, sup := range s.suppliers {
			cp := *sup
			out = append(out, &cp)
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.Supplier) int { return cmp.Compare(a.Name, b.Name) })
	return out, err
}

func (r *repository) CreatePart(ctx context.Context, p *model.Part) error {
	const op = "repository.CreatePart"

	err := r.view(ctx, func(s *store) error {
		for _, existing := range s.parts {
			if existing.Name == p.Name {
				return fmt.Errorf("%w: part %q already exists", model.ErrConflict, p.Name)
			}
		}
		cp := *p
		cp.Quantity = decimal.Zero
		cp.SupplierName = ""
		s.parts[p.ID] = &cp
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repository) PartByID(ctx context.Context, id uuid.UUID) (*model.Part, error) {
	var out *model.Part
	err := r.view(ctx, func(s *store) error {
		p, ok := s.parts[id]
		if !ok {
			return model.ErrPartNotFound
		}
		out = s.partView(p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository.PartByID: %w", err)
	}
	return out, nil
}

func (r *repository) PartByName(ctx context.Context, name string) (*model.Part, error) {
	var out *model.Part
	err := r.view(ctx, func(s *store) error {
		for _, p := range s.parts {
			if p.Name == name {
				out = s.partView(p)
				return nil
			}
		}
		return model.ErrPartNotFound
	})
	if err != nil {
		return nil, fmt.Errorf("repository.PartByName: %w", err)
	}
	return out, nil
}

func (r *repository) PartsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Part, error) {
	out := make(map[uuid.UUID]*model.Part, len(ids))
	err := r.view(ctx, func(s *store) error {
		for _, id := range ids {
			if p, ok := s.parts[id]; ok {
				out[id] = s.partView(p)
			}
		}
		return nil
	})
	return out, err
}

func (r *repository) ListParts(ctx context.Context) ([]*model.Part, error) {
	var out []*model.Part
	err := r.view(ctx, func(s *store) error {
		out = make([]*model.Part, 0, len(s.parts))
		for _, p := range s.parts {
			out = append(out, s.partView(p))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.Part) int { return cmp.Compare(a.Name, b.Name) })
	return out, err
}

func (r *repository) UpdatePart(ctx context.Context, p *model.Part) error {
	const op = "repository.UpdatePart"

	err := r.view(ctx, func(s *store) error {
		cur, ok := s.parts[p.ID]
		if !ok {
			return model.ErrPartNotFound
		}
		for id, existing := range s.parts {
			if id != p.ID && existing.Name == p.Name {
				return fmt.Errorf("%w: part %q already exists", model.ErrConflict, p.Name)
			}
		}
		cp := *cur
		cp.Name = p.Name
		cp.Category = p.Category
		cp.SupplierID = p.SupplierID
		cp.PurchasePrice = p.PurchasePrice
		cp.LowStockThreshold = p.LowStockThreshold
		cp.LastPurchaseDate = p.LastPurchaseDate
		s.parts[p.ID] = &cp
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *store) partView(p *model.Part) *model.Part {
	cp := *p
	cp.SupplierName = ""
	if p.SupplierID != nil {
		if sup, ok := s.suppliers[*p.SupplierID]; ok {
			cp.SupplierName = sup.Name
		}
	}
	return &cp
}

func (r *repository) CreateProduct(ctx context.Context, p *model.FinishedProduct) error {
	const op = "repository.CreateProduct"

	err := r.view(ctx, func(s *store) error {
		for _, existing := range s.products {
			if existing.Name == p.Name {
				return fmt.Errorf("%w: product %q already exists", model.ErrConflict, p.Name)
			}
		}
		cp := *p
		cp.Quantity = decimal.Zero
		cp.HasRecipe = false
		s.products[p.ID] = &cp
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repository) ProductByID(ctx context.Context, id uuid.UUID) (*model.FinishedProduct, error) {
	var out *model.FinishedProduct
	err := r.view(ctx, func(s *store) error {
		p, ok := s.products[id]
		if !ok {
			return model.ErrProductNotFound
		}
		out = s.productView(p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("repository.ProductByID: %w", err)
	}
	return out, nil
}

func (r *repository) ListProducts(ctx context.Context) ([]*model.FinishedProduct, error) {
	var out []*model.FinishedProduct
	err := r.view(ctx, func(s *store) error {
		out = make([]*model.FinishedProduct, 0, len(s.products))
		for _, p := range s.products {
			out = append(out, s.productView(p))
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.FinishedProduct) int { return cmp.Compare(a.Name, b.Name) })
	return out, err
}

func (r *repository) UpdateProduct(ctx context.Context, p *model.FinishedProduct) error {
	const op = "repository.UpdateProduct"

	err := r.view(ctx, func(s *store) error {
		cur, ok := s.products[p.ID]
		if !ok {
			return model.ErrProductNotFound
		}
		for id, existing := range s.products {
			if id != p.ID && existing.Name == p.Name {
				return fmt.Errorf("%w: product %q already exists", model.ErrConflict, p.Name)
			}
		}
		cp := *cur
		cp.Name = p.Name
		cp.Category = p.Category
		s.products[p.ID] = &cp
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *store) productView(p *model.FinishedProduct) *model.FinishedProduct {
	cp := *p
	_, cp.HasRecipe = s.recipes[p.ID]
	return &cp
}
