package core

import (
	"context"
	"plantary/pkg/domain"
)

// ownerVeggies returns the veggies owned by owner in creation order,
// restricted to kind unless kind is KindAny.
func (s *Service) ownerVeggies(ctx context.Context, owner domain.AccountID, kind domain.Kind) ([]domain.Veggie, error) {
	if err := domain.ValidateKindFilter(kind); err != nil {
		return nil, err
	}
	var out []domain.Veggie
	err := s.view(ctx, func(v domain.TransactionView) error {
		for _, veggie := range v.ListVeggies() {
			if kind != domain.KindAny && veggie.Kind != kind {
				continue
			}
			if current, ok := v.TokenOwner(veggie.ID); ok && current == owner {
				out = append(out, veggie)
			}
		}
		return nil
	})
	return out, err
}

// CountOwnerVeggies counts owner's veggies of kind; KindAny counts all kinds.
func (s *Service) CountOwnerVeggies(ctx context.Context, owner domain.AccountID, kind domain.Kind) (int, error) {
	veggies, err := s.ownerVeggies(ctx, owner, kind)
	if err != nil {
		return 0, err
	}
	return len(veggies), nil
}

// GetOwnerVeggiesPage pages through owner's veggies of kind in creation order.
func (s *Service) GetOwnerVeggiesPage(ctx context.Context, owner domain.AccountID, kind domain.Kind, pageSize, page uint16) ([]domain.Veggie, error) {
	veggies, err := s.ownerVeggies(ctx, owner, kind)
	if err != nil {
		return nil, err
	}
	return domain.Page(veggies, pageSize, page), nil
}

// ListVeggiesPage pages through every veggie in creation order.
func (s *Service) ListVeggiesPage(ctx context.Context, pageSize, page uint16) []domain.Veggie {
	var veggies []domain.Veggie
	_ = s.view(ctx, func(v domain.TransactionView) error {
		veggies = v.ListVeggies()
		return nil
	})
	return domain.Page(veggies, pageSize, page)
}
