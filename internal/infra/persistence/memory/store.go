// Package memory provides an in-memory implementation of the ledger
// persistence store used for tests, ephemeral environments and as the
// transactional core of the snapshotting SQL backends.
package memory

import (
	"context"
	"fmt"
	"plantary/pkg/domain"
	"slices"
	"sort"
	"sync"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Veggie aliases domain.Veggie for in-memory persistence operations.
	Veggie = domain.Veggie
	// Seed aliases domain.Seed.
	Seed = domain.Seed
	// TokenID aliases domain.TokenID.
	TokenID = domain.TokenID
	// SeedID aliases domain.SeedID.
	SeedID = domain.SeedID
	// AccountID aliases domain.AccountID.
	AccountID = domain.AccountID
	// AccountHash aliases domain.AccountHash.
	AccountHash = domain.AccountHash
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// Snapshot aliases domain.Snapshot, the serialisable ledger state.
	Snapshot = domain.Snapshot
)

type memoryState struct {
	veggies     map[TokenID]Veggie
	veggieOrder []TokenID
	seeds       map[SeedID]Seed
	seedOrder   []SeedID
	index       map[domain.Kind]map[domain.Category][]SeedID
	owners      map[TokenID]AccountID
	tokenOrder  []TokenID
	grants      map[AccountHash]map[AccountHash]struct{}
}

func newMemoryState() memoryState {
	return memoryState{
		veggies: make(map[TokenID]Veggie),
		seeds:   make(map[SeedID]Seed),
		index:   make(map[domain.Kind]map[domain.Category][]SeedID),
		owners:  make(map[TokenID]AccountID),
		grants:  make(map[AccountHash]map[AccountHash]struct{}),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.veggies {
		cloned.veggies[k] = v
	}
	for k, v := range s.seeds {
		cloned.seeds[k] = v
	}
	for kind, byCategory := range s.index {
		inner := make(map[domain.Category][]SeedID, len(byCategory))
		for category, ids := range byCategory {
			inner[category] = slices.Clone(ids)
		}
		cloned.index[kind] = inner
	}
	for k, v := range s.owners {
		cloned.owners[k] = v
	}
	for grantor, delegates := range s.grants {
		set := make(map[AccountHash]struct{}, len(delegates))
		for d := range delegates {
			set[d] = struct{}{}
		}
		cloned.grants[grantor] = set
	}
	cloned.veggieOrder = slices.Clone(s.veggieOrder)
	cloned.seedOrder = slices.Clone(s.seedOrder)
	cloned.tokenOrder = slices.Clone(s.tokenOrder)
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Veggies: make([]Veggie, 0, len(state.veggieOrder)),
		Seeds:   make([]Seed, 0, len(state.seedOrder)),
		Tokens:  make([]domain.TokenOwnership, 0, len(state.tokenOrder)),
		Grants:  []domain.AccessGrant{},
	}
	for _, id := range state.veggieOrder {
		s.Veggies = append(s.Veggies, state.veggies[id])
	}
	for _, id := range state.seedOrder {
		s.Seeds = append(s.Seeds, state.seeds[id])
	}
	for _, id := range state.tokenOrder {
		s.Tokens = append(s.Tokens, domain.TokenOwnership{TokenID: id, Owner: state.owners[id]})
	}
	s.Grants = listGrants(&state)
	return s
}

// memoryStateFromSnapshot rebuilds state and the catalog index from a snapshot,
// rejecting snapshots that would violate the ledger invariants.
func memoryStateFromSnapshot(s Snapshot) (memoryState, error) {
	state := newMemoryState()
	for _, seed := range s.Seeds {
		if seed.ID == 0 {
			return memoryState{}, fmt.Errorf("seed with reserved id 0")
		}
		if _, exists := state.seeds[seed.ID]; exists {
			return memoryState{}, fmt.Errorf("duplicate seed %d", seed.ID)
		}
		if err := validateSeed(seed); err != nil {
			return memoryState{}, fmt.Errorf("seed %d: %w", seed.ID, err)
		}
		state.seeds[seed.ID] = seed
		state.seedOrder = append(state.seedOrder, seed.ID)
		state.appendIndex(seed)
	}
	for _, token := range s.Tokens {
		if token.TokenID == 0 {
			return memoryState{}, fmt.Errorf("token with reserved id 0")
		}
		if _, exists := state.owners[token.TokenID]; exists {
			return memoryState{}, fmt.Errorf("duplicate token %d", token.TokenID)
		}
		if token.Owner == "" {
			return memoryState{}, fmt.Errorf("token %d: %w: empty owner", token.TokenID, domain.ErrInvalidAccount)
		}
		state.owners[token.TokenID] = token.Owner
		state.tokenOrder = append(state.tokenOrder, token.TokenID)
	}
	for _, v := range s.Veggies {
		if v.ID == 0 {
			return memoryState{}, fmt.Errorf("veggie with reserved id 0")
		}
		if _, exists := state.veggies[v.ID]; exists {
			return memoryState{}, fmt.Errorf("duplicate veggie %d", v.ID)
		}
		if _, owned := state.owners[v.ID]; !owned {
			return memoryState{}, fmt.Errorf("veggie %d has no owner", v.ID)
		}
		if err := domain.ValidateKind(v.Kind); err != nil {
			return memoryState{}, fmt.Errorf("veggie %d: %w", v.ID, err)
		}
		if err := domain.ValidateCategory(v.Category); err != nil {
			return memoryState{}, fmt.Errorf("veggie %d: %w", v.ID, err)
		}
		state.veggies[v.ID] = v
		state.veggieOrder = append(state.veggieOrder, v.ID)
	}
	for _, id := range state.veggieOrder {
		if err := checkLineage(&state, state.veggies[id]); err != nil {
			return memoryState{}, err
		}
	}
	for _, g := range s.Grants {
		set, ok := state.grants[g.Grantor]
		if !ok {
			set = make(map[AccountHash]struct{})
			state.grants[g.Grantor] = set
		}
		set[g.Delegate] = struct{}{}
	}
	return state, nil
}

func validateSeed(seed Seed) error {
	if err := domain.ValidateKind(seed.Kind); err != nil {
		return err
	}
	if err := domain.ValidateCategory(seed.Category); err != nil {
		return err
	}
	if err := domain.ValidateRarity(seed.Rarity); err != nil {
		return err
	}
	return domain.ValidateSeedState(seed.State)
}

// checkLineage enforces that plants are roots and every harvest hangs off a
// plant of the same category.
func checkLineage(state *memoryState, v Veggie) error {
	if v.Kind == domain.KindPlant {
		if v.Parent != domain.NoParent {
			return fmt.Errorf("plant %d: %w: unexpected parent %d", v.ID, domain.ErrInvalidType, v.Parent)
		}
		return nil
	}
	parent, ok := state.veggies[v.Parent]
	if !ok {
		return fmt.Errorf("harvest %d: parent %w", v.ID, domain.VeggieNotFound(v.Parent))
	}
	if parent.Kind != domain.KindPlant || parent.Category != v.Category {
		return fmt.Errorf("harvest %d: %w: parent %d is a %s %s", v.ID, domain.ErrInvalidType, parent.ID, parent.Category, parent.Kind)
	}
	return nil
}

func (s *memoryState) appendIndex(seed Seed) {
	byCategory, ok := s.index[seed.Kind]
	if !ok {
		byCategory = make(map[domain.Category][]SeedID)
		s.index[seed.Kind] = byCategory
	}
	byCategory[seed.Category] = append(byCategory[seed.Category], seed.ID)
}

func (s *memoryState) pruneIndex(seed Seed) {
	byCategory, ok := s.index[seed.Kind]
	if !ok {
		return
	}
	ids := byCategory[seed.Category]
	if i := slices.Index(ids, seed.ID); i >= 0 {
		byCategory[seed.Category] = slices.Delete(slices.Clone(ids), i, i+1)
	}
}

func (s *memoryState) candidates(kind domain.Kind, category domain.Category) ([]SeedID, bool) {
	byCategory, ok := s.index[kind]
	if !ok {
		return nil, false
	}
	ids, ok := byCategory[category]
	if !ok {
		return nil, false
	}
	return slices.Clone(ids), true
}

func listGrants(state *memoryState) []domain.AccessGrant {
	out := make([]domain.AccessGrant, 0, len(state.grants))
	for grantor, delegates := range state.grants {
		for d := range delegates {
			out = append(out, domain.AccessGrant{Grantor: grantor, Delegate: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Grantor != out[j].Grantor {
			return out[i].Grantor.String() < out[j].Grantor.String()
		}
		return out[i].Delegate.String() < out[j].Delegate.String()
	})
	return out
}

func removeID[T comparable](ids []T, id T) []T {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}

// Store is the in-memory ledger. A single mutex serialises transactions so one
// call runs to completion before the next is observed.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	commit CommitHook
}

// CommitHook receives the state a transaction is about to publish. It runs
// under the store lock; an error aborts the commit and keeps the prior state.
type CommitHook func(ctx context.Context, next Snapshot) error

// Option configures a Store.
type Option func(*Store)

// WithCommitHook registers h to run before every state swap.
func WithCommitHook(h CommitHook) Option {
	return func(s *Store) { s.commit = h }
}

// NewStore constructs an empty in-memory store. A nil engine gets an empty one.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot. The commit
// hook sees the snapshot before it becomes visible.
func (s *Store) ImportState(ctx context.Context, snapshot Snapshot) error {
	state, err := memoryStateFromSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.runCommitHook(ctx, state); err != nil {
		return err
	}
	s.state = state
	return nil
}

// Load replaces the store state without running the commit hook. Backends use
// it to hydrate from their own storage.
func (s *Store) Load(snapshot Snapshot) error {
	state, err := memoryStateFromSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}

func (s *Store) runCommitHook(ctx context.Context, next memoryState) error {
	if s.commit == nil {
		return nil
	}
	return s.commit(ctx, snapshotFromMemoryState(next))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// transaction represents a mutation set applied to a private copy of the store state.
type transaction struct {
	state   memoryState
	changes []Change
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListVeggies returns all veggies in creation order.
func (v transactionView) ListVeggies() []Veggie {
	out := make([]Veggie, 0, len(v.state.veggieOrder))
	for _, id := range v.state.veggieOrder {
		out = append(out, v.state.veggies[id])
	}
	return out
}

func (v transactionView) FindVeggie(id TokenID) (Veggie, bool) {
	veggie, ok := v.state.veggies[id]
	return veggie, ok
}

// ListSeeds returns all seeds in creation order.
func (v transactionView) ListSeeds() []Seed {
	out := make([]Seed, 0, len(v.state.seedOrder))
	for _, id := range v.state.seedOrder {
		out = append(out, v.state.seeds[id])
	}
	return out
}

func (v transactionView) FindSeed(id SeedID) (Seed, bool) {
	seed, ok := v.state.seeds[id]
	return seed, ok
}

// CandidateSeedIDs returns a copy of the index list for the pair.
func (v transactionView) CandidateSeedIDs(kind domain.Kind, category domain.Category) ([]SeedID, bool) {
	return v.state.candidates(kind, category)
}

// ListTokens returns ownership rows in mint order.
func (v transactionView) ListTokens() []domain.TokenOwnership {
	out := make([]domain.TokenOwnership, 0, len(v.state.tokenOrder))
	for _, id := range v.state.tokenOrder {
		out = append(out, domain.TokenOwnership{TokenID: id, Owner: v.state.owners[id]})
	}
	return out
}

func (v transactionView) TokenOwner(id TokenID) (AccountID, bool) {
	owner, ok := v.state.owners[id]
	return owner, ok
}

func (v transactionView) ListGrants() []domain.AccessGrant {
	return listGrants(v.state)
}

func (v transactionView) HasAccess(grantor, delegate AccountHash) bool {
	_, ok := v.state.grants[grantor][delegate]
	return ok
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces committed state only when fn succeeds and no blocking rule
// violation is reported.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	if err := s.runCommitHook(ctx, tx.state); err != nil {
		return Result{}, err
	}
	s.state = tx.state
	return result, nil
}

// View executes fn against committed state under the read lock. Committed
// state is replaced on commit, never mutated, and view methods return copies.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(newTransactionView(&s.state))
}

// helper to record and append change entries.
func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

func (tx *transaction) FindVeggie(id TokenID) (Veggie, bool) {
	v, ok := tx.state.veggies[id]
	return v, ok
}

// CreateVeggie stores a new veggie. Ownership is registered separately via MintToken.
func (tx *transaction) CreateVeggie(v Veggie) (Veggie, error) {
	if v.ID == 0 {
		return Veggie{}, fmt.Errorf("%w: veggie id 0 is reserved", domain.ErrAlreadyExists)
	}
	if _, exists := tx.state.veggies[v.ID]; exists {
		return Veggie{}, fmt.Errorf("%w: veggie %d", domain.ErrAlreadyExists, v.ID)
	}
	tx.state.veggies[v.ID] = v
	tx.state.veggieOrder = append(tx.state.veggieOrder, v.ID)
	tx.recordChange(Change{Entity: domain.EntityVeggie, Action: domain.ActionCreate, After: v})
	return v, nil
}

// DeleteVeggie removes a veggie and its ownership record together. Plants that
// still parent a harvest cannot be removed.
func (tx *transaction) DeleteVeggie(id TokenID) error {
	current, ok := tx.state.veggies[id]
	if !ok {
		return domain.VeggieNotFound(id)
	}
	for _, other := range tx.state.veggies {
		if other.Parent == id {
			return fmt.Errorf("%w: veggie %d is parent of harvest %d", domain.ErrStillReferenced, id, other.ID)
		}
	}
	delete(tx.state.veggies, id)
	tx.state.veggieOrder = removeID(tx.state.veggieOrder, id)
	tx.recordChange(Change{Entity: domain.EntityVeggie, Action: domain.ActionDelete, Before: current})
	if owner, owned := tx.state.owners[id]; owned {
		delete(tx.state.owners, id)
		tx.state.tokenOrder = removeID(tx.state.tokenOrder, id)
		tx.recordChange(Change{Entity: domain.EntityToken, Action: domain.ActionDelete, Before: domain.TokenOwnership{TokenID: id, Owner: owner}})
	}
	return nil
}

func (tx *transaction) FindSeed(id SeedID) (Seed, bool) {
	s, ok := tx.state.seeds[id]
	return s, ok
}

// CreateSeed stores a new seed and appends its id to the catalog index.
func (tx *transaction) CreateSeed(s Seed) (Seed, error) {
	if s.ID == 0 {
		return Seed{}, fmt.Errorf("%w: seed id 0 is reserved", domain.ErrAlreadyExists)
	}
	if _, exists := tx.state.seeds[s.ID]; exists {
		return Seed{}, fmt.Errorf("%w: seed %d", domain.ErrAlreadyExists, s.ID)
	}
	tx.state.seeds[s.ID] = s
	tx.state.seedOrder = append(tx.state.seedOrder, s.ID)
	tx.state.appendIndex(s)
	tx.recordChange(Change{Entity: domain.EntitySeed, Action: domain.ActionCreate, After: s})
	return s, nil
}

// UpdateSeed mutates a seed in place. The index is untouched because kind and
// category cannot change.
func (tx *transaction) UpdateSeed(id SeedID, mutator func(*Seed) error) (Seed, error) {
	current, ok := tx.state.seeds[id]
	if !ok {
		return Seed{}, domain.SeedNotFound(id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Seed{}, err
	}
	if current.Kind != before.Kind || current.Category != before.Category {
		return Seed{}, fmt.Errorf("%w: seed %d kind and category are immutable", domain.ErrInvalidType, id)
	}
	current.ID = id
	tx.state.seeds[id] = current
	tx.recordChange(Change{Entity: domain.EntitySeed, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteSeed removes a seed and prunes it from the catalog index.
func (tx *transaction) DeleteSeed(id SeedID) error {
	current, ok := tx.state.seeds[id]
	if !ok {
		return domain.SeedNotFound(id)
	}
	delete(tx.state.seeds, id)
	tx.state.seedOrder = removeID(tx.state.seedOrder, id)
	tx.state.pruneIndex(current)
	tx.recordChange(Change{Entity: domain.EntitySeed, Action: domain.ActionDelete, Before: current})
	return nil
}

func (tx *transaction) CandidateSeedIDs(kind domain.Kind, category domain.Category) ([]SeedID, bool) {
	return tx.state.candidates(kind, category)
}

// MintToken registers a new owned token.
func (tx *transaction) MintToken(owner AccountID, id TokenID) error {
	if id == 0 {
		return fmt.Errorf("%w: token id 0 is reserved", domain.ErrAlreadyExists)
	}
	if _, exists := tx.state.owners[id]; exists {
		return fmt.Errorf("%w: token %d", domain.ErrAlreadyExists, id)
	}
	tx.state.owners[id] = owner
	tx.state.tokenOrder = append(tx.state.tokenOrder, id)
	tx.recordChange(Change{Entity: domain.EntityToken, Action: domain.ActionCreate, After: domain.TokenOwnership{TokenID: id, Owner: owner}})
	return nil
}

func (tx *transaction) TokenOwner(id TokenID) (AccountID, bool) {
	owner, ok := tx.state.owners[id]
	return owner, ok
}

// SetTokenOwner reassigns an existing token.
func (tx *transaction) SetTokenOwner(id TokenID, owner AccountID) error {
	current, ok := tx.state.owners[id]
	if !ok {
		return domain.TokenNotFound(id)
	}
	tx.state.owners[id] = owner
	tx.recordChange(Change{
		Entity: domain.EntityToken,
		Action: domain.ActionUpdate,
		Before: domain.TokenOwnership{TokenID: id, Owner: current},
		After:  domain.TokenOwnership{TokenID: id, Owner: owner},
	})
	return nil
}

// GrantAccess adds delegate to grantor's set, creating the set on first use.
func (tx *transaction) GrantAccess(grantor, delegate AccountHash) {
	set, ok := tx.state.grants[grantor]
	if !ok {
		set = make(map[AccountHash]struct{})
		tx.state.grants[grantor] = set
	}
	if _, exists := set[delegate]; exists {
		return
	}
	set[delegate] = struct{}{}
	tx.recordChange(Change{Entity: domain.EntityAccessGrant, Action: domain.ActionCreate, After: domain.AccessGrant{Grantor: grantor, Delegate: delegate}})
}

// RevokeAccess removes delegate from grantor's set.
func (tx *transaction) RevokeAccess(grantor, delegate AccountHash) error {
	set, ok := tx.state.grants[grantor]
	if !ok {
		return fmt.Errorf("%w: no access grants for %s", domain.ErrNotFound, grantor)
	}
	if _, member := set[delegate]; !member {
		return fmt.Errorf("%w: %s is not a delegate of %s", domain.ErrNotFound, delegate, grantor)
	}
	delete(set, delegate)
	tx.recordChange(Change{Entity: domain.EntityAccessGrant, Action: domain.ActionDelete, Before: domain.AccessGrant{Grantor: grantor, Delegate: delegate}})
	return nil
}

func (tx *transaction) HasAccess(grantor, delegate AccountHash) bool {
	_, ok := tx.state.grants[grantor][delegate]
	return ok
}

// GetVeggie retrieves a veggie from committed state.
func (s *Store) GetVeggie(id TokenID) (Veggie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state.veggies[id]
	return v, ok
}

// ListVeggies returns all veggies from committed state in creation order.
func (s *Store) ListVeggies() []Veggie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListVeggies()
}

// GetSeed retrieves a seed from committed state.
func (s *Store) GetSeed(id SeedID) (Seed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seed, ok := s.state.seeds[id]
	return seed, ok
}

// ListSeeds returns all seeds from committed state in creation order.
func (s *Store) ListSeeds() []Seed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListSeeds()
}
