package core

import (
	"context"
	"fmt"
	"plantary/pkg/domain"
	"slices"
)

// CatalogIndexRule blocks commits after which the (kind, category) index no
// longer lists exactly the existing seeds of each pair.
func CatalogIndexRule() domain.Rule {
	return catalogIndexRule{}
}

type catalogIndexRule struct{}

func (catalogIndexRule) Name() string { return "catalog_index" }

type seedPair struct {
	kind     domain.Kind
	category domain.Category
}

func (r catalogIndexRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, domain.EntitySeed) {
		return res, nil
	}
	expected := make(map[seedPair][]domain.SeedID)
	for _, seed := range view.ListSeeds() {
		key := seedPair{kind: seed.Kind, category: seed.Category}
		expected[key] = append(expected[key], seed.ID)
	}
	for _, kind := range domain.Kinds {
		for _, category := range domain.Categories {
			key := seedPair{kind: kind, category: category}
			want := expected[key]
			got, _ := view.CandidateSeedIDs(kind, category)
			if sameIDs(want, got) {
				continue
			}
			res.Violations = append(res.Violations, blockingViolation(r.Name(), domain.EntitySeed, fmt.Sprintf("%s/%s", kind, category),
				fmt.Sprintf("index for %s/%s lists %d seeds, catalog has %d", kind, category, len(got), len(want))))
		}
	}
	return res, nil
}

func sameIDs(a, b []domain.SeedID) bool {
	if len(a) != len(b) {
		return false
	}
	x := slices.Clone(a)
	y := slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
