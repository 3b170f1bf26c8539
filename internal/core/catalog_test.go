package core

import (
	"context"
	"math"
	"plantary/pkg/domain"
	"slices"
	"testing"
)

func TestCreateSeedStartsWaitingAndIndexes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, ok := svc.CandidateIDs(ctx, domain.KindPlant, domain.CategoryOracle); ok {
		t.Fatalf("expected no index entry before the first seed")
	}

	seed := mustCreateSeed(t, svc, domain.KindPlant, domain.CategoryOracle, "ipfs://oracle-1")
	if seed.ID == 0 {
		t.Fatalf("expected non-zero seed id")
	}
	if seed.State != domain.SeedWaiting {
		t.Fatalf("expected new seed to be waiting, got %s", seed.State)
	}
	got, ok := svc.GetSeed(ctx, seed.ID)
	if !ok || got != seed {
		t.Fatalf("expected stored seed %+v, got %+v (%v)", seed, got, ok)
	}
	ids, ok := svc.CandidateIDs(ctx, domain.KindPlant, domain.CategoryOracle)
	if !ok || !slices.Equal(ids, []domain.SeedID{seed.ID}) {
		t.Fatalf("expected index [%d], got %v", seed.ID, ids)
	}

	second := mustCreateSeed(t, svc, domain.KindPlant, domain.CategoryOracle, "ipfs://oracle-2")
	ids, _ = svc.CandidateIDs(ctx, domain.KindPlant, domain.CategoryOracle)
	if !slices.Equal(ids, []domain.SeedID{seed.ID, second.ID}) {
		t.Fatalf("expected both seeds indexed in creation order, got %v", ids)
	}
}

func TestCreateSeedValidation(t *testing.T) {
	svc := newTestService(t)

	cases := []struct {
		name   string
		ctx    context.Context
		input  SeedInput
		target error
	}{
		{"not admin", as(alice), SeedInput{Kind: domain.KindPlant, Category: domain.CategoryOracle, Rarity: 1}, domain.ErrPermissionDenied},
		{"no caller", context.Background(), SeedInput{Kind: domain.KindPlant, Category: domain.CategoryOracle, Rarity: 1}, domain.ErrPermissionDenied},
		{"wildcard kind", as(testAdmin), SeedInput{Kind: domain.KindAny, Category: domain.CategoryOracle, Rarity: 1}, domain.ErrInvalidType},
		{"unknown kind", as(testAdmin), SeedInput{Kind: 7, Category: domain.CategoryOracle, Rarity: 1}, domain.ErrInvalidType},
		{"unknown category", as(testAdmin), SeedInput{Kind: domain.KindPlant, Category: 9, Rarity: 1}, domain.ErrInvalidType},
		{"rarity below", as(testAdmin), SeedInput{Kind: domain.KindPlant, Category: domain.CategoryOracle, Rarity: 0.99}, domain.ErrInvalidRarity},
		{"rarity above", as(testAdmin), SeedInput{Kind: domain.KindPlant, Category: domain.CategoryOracle, Rarity: 10.01}, domain.ErrInvalidRarity},
		{"rarity nan", as(testAdmin), SeedInput{Kind: domain.KindPlant, Category: domain.CategoryOracle, Rarity: math.NaN()}, domain.ErrInvalidRarity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.CreateSeed(tc.ctx, tc.input)
			expectErr(t, err, tc.target)
		})
	}
	if seeds := svc.GetSeedsPage(context.Background(), 0, 0); len(seeds) != 0 {
		t.Fatalf("expected rejected creates to leave catalog empty, got %d seeds", len(seeds))
	}
}

func TestCreateSeedCollaboratorAllowed(t *testing.T) {
	svc := newTestService(t)
	if _, _, err := svc.CreateSeed(as(testCollaborator), SeedInput{Kind: domain.KindHarvest, Category: domain.CategorySeed, Rarity: 10}); err != nil {
		t.Fatalf("collaborator create: %v", err)
	}
}

func TestUpdateSeed(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	seed := mustCreateSeed(t, svc, domain.KindHarvest, domain.CategoryPortrait, "ipfs://portrait")

	updated, _, err := svc.UpdateSeed(as(testAdmin), seed.ID, SeedUpdate{
		Kind:       domain.KindHarvest,
		Category:   domain.CategoryPortrait,
		Descriptor: "ipfs://portrait-v2",
		Rarity:     9.5,
		Edition:    7,
		State:      domain.SeedLive,
	})
	if err != nil {
		t.Fatalf("update seed: %v", err)
	}
	if updated.ID != seed.ID || updated.Descriptor != "ipfs://portrait-v2" || updated.Rarity != 9.5 || updated.Edition != 7 || updated.State != domain.SeedLive {
		t.Fatalf("unexpected updated seed %+v", updated)
	}
	ids, _ := svc.CandidateIDs(ctx, domain.KindHarvest, domain.CategoryPortrait)
	if !slices.Equal(ids, []domain.SeedID{seed.ID}) {
		t.Fatalf("expected index untouched by update, got %v", ids)
	}

	_, _, err = svc.UpdateSeed(as(testAdmin), seed.ID, SeedUpdate{Kind: domain.KindPlant, Category: domain.CategoryPortrait, Rarity: 2, State: domain.SeedLive})
	expectErr(t, err, domain.ErrInvalidType)
	_, _, err = svc.UpdateSeed(as(testAdmin), seed.ID, SeedUpdate{Kind: domain.KindHarvest, Category: domain.CategoryMoney, Rarity: 2, State: domain.SeedLive})
	expectErr(t, err, domain.ErrInvalidType)
	_, _, err = svc.UpdateSeed(as(testAdmin), seed.ID, SeedUpdate{Kind: domain.KindHarvest, Category: domain.CategoryPortrait, Rarity: 11})
	expectErr(t, err, domain.ErrInvalidRarity)
	_, _, err = svc.UpdateSeed(as(testAdmin), seed.ID+1, SeedUpdate{Kind: domain.KindHarvest, Category: domain.CategoryPortrait, Rarity: 2})
	expectErr(t, err, domain.ErrNotFound)
	_, _, err = svc.UpdateSeed(as(bob), seed.ID, SeedUpdate{Kind: domain.KindHarvest, Category: domain.CategoryPortrait, Rarity: 2})
	expectErr(t, err, domain.ErrPermissionDenied)

	got, _ := svc.GetSeed(ctx, seed.ID)
	if got != updated {
		t.Fatalf("expected failed updates to leave seed unchanged, got %+v", got)
	}
}

func TestDeleteSeedPrunesIndex(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first := mustCreateSeed(t, svc, domain.KindPlant, domain.CategoryInsult, "ipfs://insult-1")
	second := mustCreateSeed(t, svc, domain.KindPlant, domain.CategoryInsult, "ipfs://insult-2")

	if _, err := svc.DeleteSeed(as(alice), first.ID); err == nil {
		t.Fatalf("expected non-admin delete to fail")
	}
	if _, err := svc.DeleteSeed(as(testAdmin), first.ID); err != nil {
		t.Fatalf("delete seed: %v", err)
	}
	if _, ok := svc.GetSeed(ctx, first.ID); ok {
		t.Fatalf("expected seed removed")
	}
	ids, ok := svc.CandidateIDs(ctx, domain.KindPlant, domain.CategoryInsult)
	if !ok || !slices.Equal(ids, []domain.SeedID{second.ID}) {
		t.Fatalf("expected only %d indexed, got %v", second.ID, ids)
	}

	// every mint now draws the surviving seed
	for i := 0; i < 5; i++ {
		plant := mustMintPlant(t, svc, alice, domain.CategoryInsult)
		if plant.Descriptor != second.Descriptor {
			t.Fatalf("expected descriptor %s, got %s", second.Descriptor, plant.Descriptor)
		}
	}

	if _, err := svc.DeleteSeed(as(testAdmin), second.ID); err != nil {
		t.Fatalf("delete second seed: %v", err)
	}
	_, _, err := svc.MintPlant(as(alice), domain.CategoryInsult)
	expectErr(t, err, domain.ErrNotFound)

	_, err = svc.DeleteSeed(as(testAdmin), second.ID)
	expectErr(t, err, domain.ErrNotFound)
}

func TestIndexMatchesCatalogAfterMixedOperations(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	var created []domain.Seed
	for i, kind := range []domain.Kind{domain.KindPlant, domain.KindHarvest, domain.KindPlant, domain.KindHarvest, domain.KindPlant} {
		category := domain.Categories[i%len(domain.Categories)]
		created = append(created, mustCreateSeed(t, svc, kind, category, "ipfs://mixed"))
	}
	if _, _, err := svc.UpdateSeed(as(testAdmin), created[0].ID, SeedUpdate{Kind: created[0].Kind, Category: created[0].Category, Rarity: 3, State: domain.SeedLive}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := svc.DeleteSeed(as(testAdmin), created[2].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	for _, kind := range domain.Kinds {
		for _, category := range domain.Categories {
			var want []domain.SeedID
			for _, seed := range svc.GetSeedsPage(ctx, 0, 0) {
				if seed.Kind == kind && seed.Category == category {
					want = append(want, seed.ID)
				}
			}
			got, _ := svc.CandidateIDs(ctx, kind, category)
			if !sameIDs(want, got) {
				t.Fatalf("%s/%s: index %v does not match catalog %v", kind, category, got, want)
			}
		}
	}
}

func TestSeedPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	var oracle []domain.SeedID
	for i := 0; i < 5; i++ {
		oracle = append(oracle, mustCreateSeed(t, svc, domain.KindPlant, domain.CategoryOracle, "ipfs://o").ID)
		mustCreateSeed(t, svc, domain.KindHarvest, domain.CategoryOracle, "ipfs://h")
	}

	if all := svc.GetSeedsPage(ctx, 0, 3); len(all) != 10 {
		t.Fatalf("expected page size 0 to return all 10 seeds, got %d", len(all))
	}
	if page := svc.GetSeedsPage(ctx, 4, 2); len(page) != 2 {
		t.Fatalf("expected last partial page of 2, got %d", len(page))
	}
	if page := svc.GetSeedsPage(ctx, 4, 3); len(page) != 0 {
		t.Fatalf("expected empty page past the end, got %d", len(page))
	}

	var paged []domain.SeedID
	for p := uint16(0); ; p++ {
		page, err := svc.GetSeedsOfTypePage(ctx, domain.KindPlant, domain.CategoryOracle, 2, p)
		if err != nil {
			t.Fatalf("typed page: %v", err)
		}
		if len(page) == 0 {
			break
		}
		for _, seed := range page {
			paged = append(paged, seed.ID)
		}
	}
	if !slices.Equal(paged, oracle) {
		t.Fatalf("expected typed pages to reconstruct %v, got %v", oracle, paged)
	}

	if _, err := svc.GetSeedsOfTypePage(ctx, domain.KindAny, domain.CategoryOracle, 2, 0); err == nil {
		t.Fatalf("expected wildcard kind to be rejected for typed seed pages")
	}
	if page, err := svc.GetSeedsOfTypePage(ctx, domain.KindPlant, domain.CategoryMoney, 2, 0); err != nil || len(page) != 0 {
		t.Fatalf("expected empty page for unused pair, got %v %v", page, err)
	}
}
