package core

import (
	"context"
	"fmt"
	"plantary/pkg/domain"
)

// OwnershipConsistencyRule blocks commits that leave a veggie without an owner.
func OwnershipConsistencyRule() domain.Rule {
	return ownershipConsistencyRule{}
}

type ownershipConsistencyRule struct{}

func (ownershipConsistencyRule) Name() string { return "ownership_consistency" }

func (r ownershipConsistencyRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	if !touches(changes, domain.EntityVeggie, domain.EntityToken) {
		return res, nil
	}
	for _, veggie := range view.ListVeggies() {
		if _, ok := view.TokenOwner(veggie.ID); ok {
			continue
		}
		id := domain.FormatID(uint64(veggie.ID))
		res.Violations = append(res.Violations, blockingViolation(r.Name(), domain.EntityVeggie, id,
			fmt.Sprintf("veggie %s has no owner", id)))
	}
	return res, nil
}
