package core

import (
	"context"
	cryptorand "crypto/rand"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
)

// EntropySource supplies fresh bytes once per external call.
type EntropySource interface {
	Entropy(ctx context.Context) ([]byte, error)
}

const entropySize = 32

// CryptoEntropy reads from the operating system CSPRNG.
type CryptoEntropy struct{}

// Entropy implements EntropySource.
func (CryptoEntropy) Entropy(context.Context) ([]byte, error) {
	buf := make([]byte, entropySize)
	if _, err := cryptorand.Read(buf); err != nil {
		return nil, fmt.Errorf("read entropy: %w", err)
	}
	return buf, nil
}

// FixedEntropy returns the same bytes on every call, so every call draws the
// same id, seed index and dna sequence.
type FixedEntropy []byte

// Entropy implements EntropySource.
func (f FixedEntropy) Entropy(context.Context) ([]byte, error) {
	return append([]byte(nil), f...), nil
}

// CountingEntropy derives distinct bytes per call from a base seed and a call
// counter, so repeated calls in tests differ but replay identically.
type CountingEntropy struct {
	Seed  []byte
	calls atomic.Uint64
}

// Entropy implements EntropySource.
func (c *CountingEntropy) Entropy(context.Context) ([]byte, error) {
	n := c.calls.Add(1)
	buf := make([]byte, 0, len(c.Seed)+8)
	buf = append(buf, c.Seed...)
	for i := 0; i < 8; i++ {
		buf = append(buf, byte(n>>(8*i)))
	}
	return buf, nil
}

// newCallRNG seeds a ChaCha8 generator with the blake2b-256 digest of the
// call's entropy. All draws in one call share the returned generator.
func newCallRNG(entropy []byte) *rand.Rand {
	seed := blake2b.Sum256(entropy)
	return rand.New(rand.NewChaCha8(seed))
}

func (s *Service) callRNG(ctx context.Context) (*rand.Rand, error) {
	entropy, err := s.entropy.Entropy(ctx)
	if err != nil {
		return nil, err
	}
	return newCallRNG(entropy), nil
}
