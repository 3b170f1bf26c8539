package core

import (
	"context"
	"errors"
	"plantary/pkg/domain"
	"testing"
)

const (
	testAdmin        domain.AccountID = "admin.near"
	testCollaborator domain.AccountID = "helper.near"
	alice            domain.AccountID = "alice.near"
	bob              domain.AccountID = "bob.near"
	carol            domain.AccountID = "carol.near"
)

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	base := []ServiceOption{
		WithAdmins(testAdmin, testCollaborator),
		WithEntropySource(&CountingEntropy{Seed: []byte(t.Name())}),
	}
	return NewInMemoryService(NewDefaultRulesEngine(), append(base, opts...)...)
}

func as(caller domain.AccountID) context.Context {
	return WithCaller(context.Background(), caller)
}

func paying(caller domain.AccountID, amount domain.Balance) context.Context {
	return WithAttachedDeposit(as(caller), amount)
}

func mustCreateSeed(t *testing.T, svc *Service, kind domain.Kind, category domain.Category, descriptor string) domain.Seed {
	t.Helper()
	seed, _, err := svc.CreateSeed(as(testAdmin), SeedInput{
		Kind:       kind,
		Category:   category,
		Descriptor: descriptor,
		Rarity:     5,
		Edition:    100,
	})
	if err != nil {
		t.Fatalf("create seed %s: %v", descriptor, err)
	}
	return seed
}

func mustMintPlant(t *testing.T, svc *Service, owner domain.AccountID, category domain.Category) domain.Veggie {
	t.Helper()
	price := svc.Prices().PriceFor(domain.KindPlant, category)
	plant, _, err := svc.MintPlant(paying(owner, price), category)
	if err != nil {
		t.Fatalf("mint plant: %v", err)
	}
	return plant
}

func mustHarvest(t *testing.T, svc *Service, caller domain.AccountID, parent domain.Veggie) domain.Veggie {
	t.Helper()
	price := svc.Prices().PriceFor(domain.KindHarvest, parent.Category)
	harvest, _, err := svc.Harvest(paying(caller, price), parent.ID)
	if err != nil {
		t.Fatalf("harvest %d: %v", parent.ID, err)
	}
	return harvest
}

func expectErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}

// fakePersistentStore is a PersistentStore with no provider hooks.
type fakePersistentStore struct {
	snapshot   domain.Snapshot
	runErr     error
	viewCalled bool
}

func (f *fakePersistentStore) RunInTransaction(context.Context, func(domain.Transaction) error) (domain.Result, error) {
	return domain.Result{}, f.runErr
}

func (f *fakePersistentStore) View(context.Context, func(domain.TransactionView) error) error {
	f.viewCalled = true
	return nil
}

func (f *fakePersistentStore) GetVeggie(domain.TokenID) (domain.Veggie, bool) { return domain.Veggie{}, false }
func (f *fakePersistentStore) ListVeggies() []domain.Veggie                   { return nil }
func (f *fakePersistentStore) GetSeed(domain.SeedID) (domain.Seed, bool)      { return domain.Seed{}, false }
func (f *fakePersistentStore) ListSeeds() []domain.Seed                       { return nil }
func (f *fakePersistentStore) ExportState() domain.Snapshot                   { return f.snapshot }

func (f *fakePersistentStore) ImportState(_ context.Context, snapshot domain.Snapshot) error {
	f.snapshot = snapshot
	return nil
}

// collidingTx reports every id as taken.
type collidingTx struct {
	domain.Transaction
}

func (collidingTx) FindVeggie(domain.TokenID) (domain.Veggie, bool) { return domain.Veggie{}, true }
func (collidingTx) TokenOwner(domain.TokenID) (domain.AccountID, bool) {
	return "", true
}
func (collidingTx) FindSeed(domain.SeedID) (domain.Seed, bool) { return domain.Seed{}, true }
