package domain

import "context"

// Transaction exposes the ledger operations that a persistence implementation
// must support within an atomic scope. Every mutation is applied to the
// transaction's private copy of state and discarded if the call fails.
type Transaction interface {
	Snapshot() TransactionView

	FindVeggie(id TokenID) (Veggie, bool)
	// CreateVeggie inserts a new entity. The id must be non-zero and unused.
	CreateVeggie(Veggie) (Veggie, error)
	// DeleteVeggie removes the entity together with its ownership record.
	DeleteVeggie(id TokenID) error

	FindSeed(id SeedID) (Seed, bool)
	// CreateSeed inserts a seed and appends its id to the (kind, category) index.
	CreateSeed(Seed) (Seed, error)
	// UpdateSeed applies mutator to a copy of the stored seed. Kind and
	// category are immutable; changing either fails with ErrInvalidType.
	UpdateSeed(id SeedID, mutator func(*Seed) error) (Seed, error)
	// DeleteSeed removes the seed and prunes it from the index.
	DeleteSeed(id SeedID) error
	CandidateSeedIDs(kind Kind, category Category) ([]SeedID, bool)

	MintToken(owner AccountID, id TokenID) error
	TokenOwner(id TokenID) (AccountID, bool)
	SetTokenOwner(id TokenID, owner AccountID) error

	GrantAccess(grantor, delegate AccountHash)
	RevokeAccess(grantor, delegate AccountHash) error
	HasAccess(grantor, delegate AccountHash) bool
}

// TransactionView provides read-only access to snapshot data for rules and queries.
type TransactionView interface {
	ListVeggies() []Veggie
	FindVeggie(id TokenID) (Veggie, bool)
	ListSeeds() []Seed
	FindSeed(id SeedID) (Seed, bool)
	CandidateSeedIDs(kind Kind, category Category) ([]SeedID, bool)
	ListTokens() []TokenOwnership
	TokenOwner(id TokenID) (AccountID, bool)
	ListGrants() []AccessGrant
	HasAccess(grantor, delegate AccountHash) bool
}

// Snapshot is the serialisable form of the full ledger state. Slices keep
// insertion order so pagination stays stable across export and import.
type Snapshot struct {
	Veggies []Veggie         `json:"veggies" cbor:"1,keyasint"`
	Seeds   []Seed           `json:"seeds" cbor:"2,keyasint"`
	Tokens  []TokenOwnership `json:"tokens" cbor:"3,keyasint"`
	Grants  []AccessGrant    `json:"grants" cbor:"4,keyasint"`
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetVeggie(id TokenID) (Veggie, bool)
	ListVeggies() []Veggie
	GetSeed(id SeedID) (Seed, bool)
	ListSeeds() []Seed
	ExportState() Snapshot
	ImportState(ctx context.Context, snapshot Snapshot) error
}
