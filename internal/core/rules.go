package core

import "plantary/pkg/domain"

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *domain.RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in ledger policy set.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(OwnershipConsistencyRule())
	engine.Register(HarvestParentageRule())
	engine.Register(CatalogIndexRule())
	return engine
}

func touches(changes []domain.Change, entities ...domain.EntityType) bool {
	for _, change := range changes {
		for _, entity := range entities {
			if change.Entity == entity {
				return true
			}
		}
	}
	return false
}

func blockingViolation(rule string, entity domain.EntityType, id, message string) domain.Violation {
	return domain.Violation{
		Rule:     rule,
		Severity: domain.SeverityBlock,
		Message:  message,
		Entity:   entity,
		EntityID: id,
	}
}
