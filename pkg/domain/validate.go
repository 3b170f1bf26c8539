package domain

import "fmt"

// ValidateKind accepts only concrete kinds.
func ValidateKind(k Kind) error {
	if k != KindPlant && k != KindHarvest {
		return fmt.Errorf("%w: unknown veggie type %d", ErrInvalidType, uint8(k))
	}
	return nil
}

// ValidateKindFilter accepts KindAny as a wildcard in addition to concrete kinds.
func ValidateKindFilter(k Kind) error {
	if k == KindAny {
		return nil
	}
	return ValidateKind(k)
}

// ValidateCategory accepts only the fixed category enumeration.
func ValidateCategory(c Category) error {
	if _, ok := categoryNames[c]; !ok {
		return fmt.Errorf("%w: unknown category %d", ErrInvalidType, uint8(c))
	}
	return nil
}

// ValidateRarity enforces the inclusive [MinRarity, MaxRarity] range.
func ValidateRarity(r float64) error {
	if !(r >= MinRarity && r <= MaxRarity) {
		return fmt.Errorf("%w: %v outside [%v, %v]", ErrInvalidRarity, r, MinRarity, MaxRarity)
	}
	return nil
}

// ValidateSeedState accepts the two declared seed states.
func ValidateSeedState(s SeedState) error {
	if s != SeedLive && s != SeedWaiting {
		return fmt.Errorf("%w: unknown seed state %d", ErrInvalidType, uint8(s))
	}
	return nil
}
