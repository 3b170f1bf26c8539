// Package domain defines the core ledger records, value types, and
// rule evaluation primitives used by plantary.
package domain

import (
	"fmt"
	"strings"
)

// EntityType identifies the type of record stored in the ledger.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityVeggie identifies a minted plant or harvest record.
	EntityVeggie EntityType = "veggie"
	// EntitySeed identifies a catalog seed template.
	EntitySeed EntityType = "seed"
	// EntityToken identifies an ownership record in the token ledger.
	EntityToken EntityType = "token"
	// EntityAccessGrant identifies a delegated-access record.
	EntityAccessGrant EntityType = "access_grant"
)

// TokenID is the 64-bit identifier shared 1:1 by a veggie and its token.
type TokenID uint64

// SeedID identifies a seed template in the catalog.
type SeedID uint64

// NoParent marks a veggie without a parent. Zero is never issued as an id.
const NoParent TokenID = 0

// AccountID is a plaintext account identity as supplied by the host.
type AccountID string

// Balance is an attached deposit or price, in the smallest currency unit.
type Balance uint64

// Kind is the closed veggie type tag.
type Kind uint8

// Veggie kinds. KindAny is only meaningful as a query wildcard.
const (
	KindAny     Kind = 0
	KindPlant   Kind = 1
	KindHarvest Kind = 2
)

// Kinds lists the concrete kinds in declaration order.
var Kinds = []Kind{KindPlant, KindHarvest}

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindPlant:
		return "plant"
	case KindHarvest:
		return "harvest"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind resolves a kind from its name or numeric form.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plant", "1":
		return KindPlant, nil
	case "harvest", "2":
		return KindHarvest, nil
	case "any", "0", "":
		return KindAny, nil
	}
	return 0, fmt.Errorf("%w: unknown veggie type %q", ErrInvalidType, s)
}

// Category scopes seed pools within a kind.
type Category uint8

// Veggie categories. Numeric values are part of the wire format.
const (
	CategoryOracle     Category = 1
	CategoryPortrait   Category = 2
	CategoryMoney      Category = 3
	CategoryCompliment Category = 4
	CategoryInsult     Category = 5
	CategorySeed       Category = 6
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryOracle,
	CategoryPortrait,
	CategoryMoney,
	CategoryCompliment,
	CategoryInsult,
	CategorySeed,
}

var categoryNames = map[Category]string{
	CategoryOracle:     "oracle",
	CategoryPortrait:   "portrait",
	CategoryMoney:      "money",
	CategoryCompliment: "compliment",
	CategoryInsult:     "insult",
	CategorySeed:       "seed",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ParseCategory resolves a category from its name or numeric form.
func ParseCategory(s string) (Category, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for c, name := range categoryNames {
		if needle == name || needle == fmt.Sprintf("%d", uint8(c)) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown category %q", ErrInvalidType, s)
}

// SeedState is a seed's publication state. Numeric values are part of the wire format.
type SeedState uint8

// Seed states.
const (
	SeedLive    SeedState = 0
	SeedWaiting SeedState = 1
)

func (s SeedState) String() string {
	switch s {
	case SeedLive:
		return "live"
	case SeedWaiting:
		return "waiting"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Rarity bounds enforced on seed create and update.
const (
	MinRarity = 1.0
	MaxRarity = 10.0
)

// Veggie is a minted plant or harvest. Its ID is also its token id.
type Veggie struct {
	ID         TokenID  `json:"id"`
	Kind       Kind     `json:"kind"`
	Category   Category `json:"category"`
	Parent     TokenID  `json:"parent"`
	DNA        uint64   `json:"dna"`
	Descriptor string   `json:"descriptor"`
}

// IsPlant reports whether the veggie can be harvested.
func (v Veggie) IsPlant() bool { return v.Kind == KindPlant }

// Seed is an admin-curated template veggies are minted from.
type Seed struct {
	ID         SeedID    `json:"id"`
	Kind       Kind      `json:"kind"`
	Category   Category  `json:"category"`
	Descriptor string    `json:"descriptor"`
	Rarity     float64   `json:"rarity"`
	Edition    uint32    `json:"edition"`
	State      SeedState `json:"state"`
}

// TokenOwnership is a single row of the ownership map.
type TokenOwnership struct {
	TokenID TokenID   `json:"token_id"`
	Owner   AccountID `json:"owner"`
}

// AccessGrant records that Grantor allowed Delegate to move its tokens.
// Both sides are stored as digests only.
type AccessGrant struct {
	Grantor  AccountHash `json:"grantor"`
	Delegate AccountHash `json:"delegate"`
}

// Change describes a single mutation captured inside a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return "transaction blocked by rules: " + v.Message
		}
	}
	return "transaction blocked by rules"
}
