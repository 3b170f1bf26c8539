package core

import (
	"context"
	"fmt"
	"plantary/pkg/domain"
)

// HarvestParentageRule checks every veggie created in the transaction: plants
// have no parent, and harvests point at an existing plant of the same category.
func HarvestParentageRule() domain.Rule {
	return harvestParentageRule{}
}

type harvestParentageRule struct{}

func (harvestParentageRule) Name() string { return "harvest_parentage" }

func (r harvestParentageRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityVeggie || change.Action != domain.ActionCreate {
			continue
		}
		child, ok := change.After.(domain.Veggie)
		if !ok {
			continue
		}
		if msg := r.check(view, child); msg != "" {
			res.Violations = append(res.Violations, blockingViolation(r.Name(), domain.EntityVeggie, domain.FormatID(uint64(child.ID)), msg))
		}
	}
	return res, nil
}

func (harvestParentageRule) check(view domain.RuleView, child domain.Veggie) string {
	switch child.Kind {
	case domain.KindPlant:
		if child.Parent != domain.NoParent {
			return fmt.Sprintf("plant %d must not have a parent", child.ID)
		}
	case domain.KindHarvest:
		parent, ok := view.FindVeggie(child.Parent)
		if !ok {
			return fmt.Sprintf("harvest %d references missing parent %d", child.ID, child.Parent)
		}
		if !parent.IsPlant() {
			return fmt.Sprintf("harvest %d parent %d is not a plant", child.ID, parent.ID)
		}
		if parent.Category != child.Category {
			return fmt.Sprintf("harvest %d category %s differs from parent %s", child.ID, child.Category, parent.Category)
		}
	default:
		return fmt.Sprintf("veggie %d has unknown kind %d", child.ID, uint8(child.Kind))
	}
	return ""
}
