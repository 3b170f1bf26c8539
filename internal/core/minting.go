package core

import (
	"context"
	"fmt"
	"math/rand/v2"
	"plantary/pkg/domain"
)

// MaxIDAttempts bounds the collision-retry loop of id generation.
const MaxIDAttempts = 64

// MintPlant mints a plant of the given category for the caller, charging the
// plant price for that category.
func (s *Service) MintPlant(ctx context.Context, category domain.Category) (domain.Veggie, domain.Result, error) {
	var created domain.Veggie
	res, err := s.run(ctx, "mint_plant", func(tx domain.Transaction) (string, error) {
		caller, err := requireCaller(ctx)
		if err != nil {
			return "", err
		}
		if err := domain.ValidateCategory(category); err != nil {
			return "", err
		}
		if err := s.verifyPayment(ctx, domain.KindPlant, category); err != nil {
			return "", err
		}
		rng, err := s.callRNG(ctx)
		if err != nil {
			return "", err
		}
		created, err = createEntity(tx, rng, caller, domain.KindPlant, category, domain.NoParent)
		if err != nil {
			return "", err
		}
		return domain.FormatID(uint64(created.ID)), nil
	})
	return created, res, err
}

// Harvest derives a harvest from the plant parentID. The caller must own the
// plant or hold delegated access from its owner; the harvest is owned by the
// caller and priced by the plant's category.
func (s *Service) Harvest(ctx context.Context, parentID domain.TokenID) (domain.Veggie, domain.Result, error) {
	var created domain.Veggie
	res, err := s.run(ctx, "harvest", func(tx domain.Transaction) (string, error) {
		caller, err := requireCaller(ctx)
		if err != nil {
			return "", err
		}
		parent, ok := tx.FindVeggie(parentID)
		if !ok {
			return "", domain.VeggieNotFound(parentID)
		}
		if !parent.IsPlant() {
			return "", fmt.Errorf("%w: non-plant harvest of %s %d", domain.ErrInvalidType, parent.Kind, parent.ID)
		}
		owner, ok := tx.TokenOwner(parentID)
		if !ok {
			return "", domain.TokenNotFound(parentID)
		}
		if owner != caller && !tx.HasAccess(domain.HashAccount(owner), domain.HashAccount(caller)) {
			return "", fmt.Errorf("%w: %s may not harvest %d", domain.ErrPermissionDenied, caller, parentID)
		}
		if err := s.verifyPayment(ctx, domain.KindHarvest, parent.Category); err != nil {
			return "", err
		}
		rng, err := s.callRNG(ctx)
		if err != nil {
			return "", err
		}
		created, err = createEntity(tx, rng, caller, domain.KindHarvest, parent.Category, parent.ID)
		if err != nil {
			return "", err
		}
		return domain.FormatID(uint64(created.ID)), nil
	})
	return created, res, err
}

// createEntity draws a fresh id, picks a seed uniformly from the (kind,
// category) pool, draws the dna and records the veggie together with its
// ownership. All draws come from rng.
func createEntity(tx domain.Transaction, rng *rand.Rand, owner domain.AccountID, kind domain.Kind, category domain.Category, parent domain.TokenID) (domain.Veggie, error) {
	if err := domain.ValidateKind(kind); err != nil {
		return domain.Veggie{}, err
	}
	if err := domain.ValidateCategory(category); err != nil {
		return domain.Veggie{}, err
	}
	id, err := generateTokenID(tx, rng)
	if err != nil {
		return domain.Veggie{}, err
	}
	candidates, ok := tx.CandidateSeedIDs(kind, category)
	if !ok || len(candidates) == 0 {
		return domain.Veggie{}, domain.NotFoundError{Entity: domain.EntitySeed, ID: fmt.Sprintf("pool %s/%s", kind, category)}
	}
	seedID := candidates[rng.IntN(len(candidates))]
	seed, ok := tx.FindSeed(seedID)
	if !ok {
		return domain.Veggie{}, domain.SeedNotFound(seedID)
	}
	veggie, err := tx.CreateVeggie(domain.Veggie{
		ID:         id,
		Kind:       kind,
		Category:   category,
		Parent:     parent,
		DNA:        rng.Uint64(),
		Descriptor: seed.Descriptor,
	})
	if err != nil {
		return domain.Veggie{}, err
	}
	if err := tx.MintToken(owner, id); err != nil {
		return domain.Veggie{}, err
	}
	return veggie, nil
}

// generateTokenID draws ids until one is unused by both the entity store and
// the token ledger, giving up after MaxIDAttempts draws.
func generateTokenID(tx domain.Transaction, rng *rand.Rand) (domain.TokenID, error) {
	for attempt := 0; attempt < MaxIDAttempts; attempt++ {
		id := domain.TokenID(rng.Uint64())
		if id == domain.NoParent {
			continue
		}
		if _, taken := tx.FindVeggie(id); taken {
			continue
		}
		if _, taken := tx.TokenOwner(id); taken {
			continue
		}
		return id, nil
	}
	return 0, fmt.Errorf("%w: no free token id after %d attempts", domain.ErrExhaustedIDSpace, MaxIDAttempts)
}

// generateSeedID is generateTokenID for the catalog id space.
func generateSeedID(tx domain.Transaction, rng *rand.Rand) (domain.SeedID, error) {
	for attempt := 0; attempt < MaxIDAttempts; attempt++ {
		id := domain.SeedID(rng.Uint64())
		if id == 0 {
			continue
		}
		if _, taken := tx.FindSeed(id); taken {
			continue
		}
		return id, nil
	}
	return 0, fmt.Errorf("%w: no free seed id after %d attempts", domain.ErrExhaustedIDSpace, MaxIDAttempts)
}
