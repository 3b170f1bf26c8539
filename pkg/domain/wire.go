package domain

import (
	"fmt"
	"strconv"
)

// FormatID renders a 64-bit identifier as a decimal string for clients whose
// native number type cannot hold it losslessly.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// ParseID parses a decimal identifier produced by FormatID.
func ParseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse id %q: %w", s, err)
	}
	return id, nil
}

// WireVeggie is the string-safe external form of a Veggie.
type WireVeggie struct {
	ID         string   `json:"id"`
	Kind       Kind     `json:"vtype"`
	Category   Category `json:"vsubtype"`
	Parent     string   `json:"parent"`
	DNA        string   `json:"dna"`
	Descriptor string   `json:"meta_url"`
}

// ToWire converts a veggie to its external form.
func (v Veggie) ToWire() WireVeggie {
	return WireVeggie{
		ID:         FormatID(uint64(v.ID)),
		Kind:       v.Kind,
		Category:   v.Category,
		Parent:     FormatID(uint64(v.Parent)),
		DNA:        FormatID(v.DNA),
		Descriptor: v.Descriptor,
	}
}

// FromWire converts the external form back to a Veggie.
func (w WireVeggie) FromWire() (Veggie, error) {
	id, err := ParseID(w.ID)
	if err != nil {
		return Veggie{}, err
	}
	parent, err := ParseID(w.Parent)
	if err != nil {
		return Veggie{}, err
	}
	dna, err := ParseID(w.DNA)
	if err != nil {
		return Veggie{}, err
	}
	return Veggie{
		ID:         TokenID(id),
		Kind:       w.Kind,
		Category:   w.Category,
		Parent:     TokenID(parent),
		DNA:        dna,
		Descriptor: w.Descriptor,
	}, nil
}

// WireSeed is the string-safe external form of a Seed.
type WireSeed struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"vtype"`
	Category   Category  `json:"vsubtype"`
	Descriptor string    `json:"meta_url"`
	Rarity     float64   `json:"rarity"`
	Edition    uint32    `json:"edition"`
	State      SeedState `json:"state"`
}

// ToWire converts a seed to its external form.
func (s Seed) ToWire() WireSeed {
	return WireSeed{
		ID:         FormatID(uint64(s.ID)),
		Kind:       s.Kind,
		Category:   s.Category,
		Descriptor: s.Descriptor,
		Rarity:     s.Rarity,
		Edition:    s.Edition,
		State:      s.State,
	}
}

// WireVeggies converts a slice of veggies.
func WireVeggies(vs []Veggie) []WireVeggie {
	out := make([]WireVeggie, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.ToWire())
	}
	return out
}

// WireSeeds converts a slice of seeds.
func WireSeeds(ss []Seed) []WireSeed {
	out := make([]WireSeed, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.ToWire())
	}
	return out
}
