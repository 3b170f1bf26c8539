package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by ledger operations. Every one aborts the whole call.
var (
	// ErrNotFound reports a missing veggie, seed, token, or access record.
	ErrNotFound = errors.New("not found")
	// ErrInvalidType reports a kind or category outside the fixed enumeration,
	// or an attempt to change an immutable field.
	ErrInvalidType = errors.New("invalid type")
	// ErrInvalidRarity reports a rarity outside [MinRarity, MaxRarity].
	ErrInvalidRarity = errors.New("invalid rarity")
	// ErrPermissionDenied reports missing ownership, delegation, or admin rights.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAlreadyExists reports an id collision with an existing record.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnpaid reports an attached deposit that does not equal the price.
	ErrUnpaid = errors.New("unpaid")
	// ErrExhaustedIDSpace reports that id generation gave up after repeated collisions.
	ErrExhaustedIDSpace = errors.New("exhausted id space")
	// ErrStillReferenced reports a delete blocked by records that depend on the target.
	ErrStillReferenced = errors.New("still referenced")
	// ErrInvalidAccount reports an account id that fails syntactic validation.
	ErrInvalidAccount = errors.New("invalid account id")
)

// NotFoundError carries the missing record's type and id and matches ErrNotFound.
type NotFoundError struct {
	Entity EntityType
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// VeggieNotFound builds the NotFound error for a token id.
func VeggieNotFound(id TokenID) error {
	return NotFoundError{Entity: EntityVeggie, ID: FormatID(uint64(id))}
}

// SeedNotFound builds the NotFound error for a seed id.
func SeedNotFound(id SeedID) error {
	return NotFoundError{Entity: EntitySeed, ID: FormatID(uint64(id))}
}

// TokenNotFound builds the NotFound error for an unowned token id.
func TokenNotFound(id TokenID) error {
	return NotFoundError{Entity: EntityToken, ID: FormatID(uint64(id))}
}
