// Package catalogfile reads and writes seed catalog bootstrap files.
//
// A catalog file lists seed templates per kind and category:
//
//	[[seed]]
//	kind = "plant"
//	category = "oracle"
//	descriptor = "https://arweave.net/VoJ1Wx6xTflalopLxOuj7TpO8pC0urYB-vLiZ1FxYno"
//	rarity = 1.0
//	edition = 1
package catalogfile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"plantary/internal/core"
	"plantary/pkg/domain"

	toml "github.com/pelletier/go-toml/v2"
)

// DefaultPath is the conventional location of the catalog file.
const DefaultPath = "catalog.toml"

// File is the decoded catalog document.
type File struct {
	Seeds []Entry `toml:"seed"`
}

// Entry is one seed template. Kind and category accept names or numbers.
type Entry struct {
	Kind       string  `toml:"kind"`
	Category   string  `toml:"category"`
	Descriptor string  `toml:"descriptor"`
	Rarity     float64 `toml:"rarity"`
	Edition    uint32  `toml:"edition,omitempty"`
}

// SeedCreator is the catalog write surface Import needs.
type SeedCreator interface {
	CreateSeed(ctx context.Context, input core.SeedInput) (domain.Seed, domain.Result, error)
}

// Load reads a catalog file from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes catalog TOML. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Save writes f to path, creating parent directories as needed.
func Save(path string, f *File) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Inputs validates every entry and converts it to a SeedInput. Entries with
// no edition default to 1.
func (f *File) Inputs() ([]core.SeedInput, error) {
	inputs := make([]core.SeedInput, 0, len(f.Seeds))
	for i, e := range f.Seeds {
		input, err := e.input()
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", i+1, err)
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

func (e Entry) input() (core.SeedInput, error) {
	kind, err := domain.ParseKind(e.Kind)
	if err != nil {
		return core.SeedInput{}, err
	}
	if err := domain.ValidateKind(kind); err != nil {
		return core.SeedInput{}, err
	}
	category, err := domain.ParseCategory(e.Category)
	if err != nil {
		return core.SeedInput{}, err
	}
	if err := domain.ValidateRarity(e.Rarity); err != nil {
		return core.SeedInput{}, err
	}
	if e.Descriptor == "" {
		return core.SeedInput{}, fmt.Errorf("descriptor required")
	}
	edition := e.Edition
	if edition == 0 {
		edition = 1
	}
	return core.SeedInput{
		Kind:       kind,
		Category:   category,
		Descriptor: e.Descriptor,
		Rarity:     e.Rarity,
		Edition:    edition,
	}, nil
}

// Import creates every seed in f through svc. The whole file is validated
// before the first seed is created; creation stops at the first failure and
// returns the seeds created so far.
func Import(ctx context.Context, svc SeedCreator, f *File) ([]domain.Seed, error) {
	inputs, err := f.Inputs()
	if err != nil {
		return nil, err
	}
	created := make([]domain.Seed, 0, len(inputs))
	for i, input := range inputs {
		seed, _, err := svc.CreateSeed(ctx, input)
		if err != nil {
			return created, fmt.Errorf("create seed %d: %w", i+1, err)
		}
		created = append(created, seed)
	}
	return created, nil
}

// Export renders seeds as a catalog document.
func Export(seeds []domain.Seed) *File {
	f := &File{Seeds: make([]Entry, 0, len(seeds))}
	for _, s := range seeds {
		f.Seeds = append(f.Seeds, Entry{
			Kind:       s.Kind.String(),
			Category:   s.Category.String(),
			Descriptor: s.Descriptor,
			Rarity:     s.Rarity,
			Edition:    s.Edition,
		})
	}
	return f
}
