package core

import (
	"context"
	"fmt"
	"plantary/pkg/domain"
)

// SeedInput carries the fields an admin supplies when creating a seed.
type SeedInput struct {
	Kind       domain.Kind
	Category   domain.Category
	Descriptor string
	Rarity     float64
	Edition    uint32
}

// SeedUpdate carries the full replacement record for UpdateSeed. Kind and
// Category must repeat the stored values.
type SeedUpdate struct {
	Kind       domain.Kind
	Category   domain.Category
	Descriptor string
	Rarity     float64
	Edition    uint32
	State      domain.SeedState
}

// CreateSeed adds a seed to the catalog with a fresh id and appends it to the
// (kind, category) index. New seeds start in SeedWaiting.
func (s *Service) CreateSeed(ctx context.Context, input SeedInput) (domain.Seed, domain.Result, error) {
	var created domain.Seed
	res, err := s.run(ctx, "create_seed", func(tx domain.Transaction) (string, error) {
		if err := s.AssertAdmin(ctx); err != nil {
			return "", err
		}
		if err := domain.ValidateKind(input.Kind); err != nil {
			return "", err
		}
		if err := domain.ValidateCategory(input.Category); err != nil {
			return "", err
		}
		if err := domain.ValidateRarity(input.Rarity); err != nil {
			return "", err
		}
		rng, err := s.callRNG(ctx)
		if err != nil {
			return "", err
		}
		id, err := generateSeedID(tx, rng)
		if err != nil {
			return "", err
		}
		created, err = tx.CreateSeed(domain.Seed{
			ID:         id,
			Kind:       input.Kind,
			Category:   input.Category,
			Descriptor: input.Descriptor,
			Rarity:     input.Rarity,
			Edition:    input.Edition,
			State:      domain.SeedWaiting,
		})
		if err != nil {
			return "", err
		}
		return domain.FormatID(uint64(created.ID)), nil
	})
	return created, res, err
}

// UpdateSeed replaces the mutable fields of a seed. The index is untouched
// because kind and category cannot change.
func (s *Service) UpdateSeed(ctx context.Context, id domain.SeedID, update SeedUpdate) (domain.Seed, domain.Result, error) {
	var updated domain.Seed
	res, err := s.run(ctx, "update_seed", func(tx domain.Transaction) (string, error) {
		if err := s.AssertAdmin(ctx); err != nil {
			return "", err
		}
		if err := domain.ValidateRarity(update.Rarity); err != nil {
			return "", err
		}
		if err := domain.ValidateSeedState(update.State); err != nil {
			return "", err
		}
		var err error
		updated, err = tx.UpdateSeed(id, func(seed *domain.Seed) error {
			if seed.Kind != update.Kind || seed.Category != update.Category {
				return fmt.Errorf("%w: seed %d kind and category are immutable", domain.ErrInvalidType, id)
			}
			seed.Descriptor = update.Descriptor
			seed.Rarity = update.Rarity
			seed.Edition = update.Edition
			seed.State = update.State
			return nil
		})
		return domain.FormatID(uint64(id)), err
	})
	return updated, res, err
}

// DeleteSeed removes a seed from the catalog and prunes it from the index.
// Veggies already minted from it keep their descriptor.
func (s *Service) DeleteSeed(ctx context.Context, id domain.SeedID) (domain.Result, error) {
	return s.run(ctx, "delete_seed", func(tx domain.Transaction) (string, error) {
		if err := s.AssertAdmin(ctx); err != nil {
			return "", err
		}
		return domain.FormatID(uint64(id)), tx.DeleteSeed(id)
	})
}

// GetSeed looks up a seed without failing when it is absent.
func (s *Service) GetSeed(ctx context.Context, id domain.SeedID) (domain.Seed, bool) {
	var (
		seed  domain.Seed
		found bool
	)
	_ = s.view(ctx, func(v domain.TransactionView) error {
		seed, found = v.FindSeed(id)
		return nil
	})
	return seed, found
}

// GetSeedsPage pages through the whole catalog in creation order.
func (s *Service) GetSeedsPage(ctx context.Context, pageSize, page uint16) []domain.Seed {
	var seeds []domain.Seed
	_ = s.view(ctx, func(v domain.TransactionView) error {
		seeds = v.ListSeeds()
		return nil
	})
	return domain.Page(seeds, pageSize, page)
}

// GetSeedsOfTypePage pages through the seeds indexed under (kind, category)
// in index order.
func (s *Service) GetSeedsOfTypePage(ctx context.Context, kind domain.Kind, category domain.Category, pageSize, page uint16) ([]domain.Seed, error) {
	if err := domain.ValidateKind(kind); err != nil {
		return nil, err
	}
	if err := domain.ValidateCategory(category); err != nil {
		return nil, err
	}
	var seeds []domain.Seed
	_ = s.view(ctx, func(v domain.TransactionView) error {
		ids, _ := v.CandidateSeedIDs(kind, category)
		seeds = make([]domain.Seed, 0, len(ids))
		for _, id := range ids {
			if seed, ok := v.FindSeed(id); ok {
				seeds = append(seeds, seed)
			}
		}
		return nil
	})
	return domain.Page(seeds, pageSize, page), nil
}

// CandidateIDs returns the index list for (kind, category), or false when no
// seed of that pair was ever created.
func (s *Service) CandidateIDs(ctx context.Context, kind domain.Kind, category domain.Category) ([]domain.SeedID, bool) {
	var (
		ids []domain.SeedID
		ok  bool
	)
	_ = s.view(ctx, func(v domain.TransactionView) error {
		ids, ok = v.CandidateSeedIDs(kind, category)
		return nil
	})
	return ids, ok
}
