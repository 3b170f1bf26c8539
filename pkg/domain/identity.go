package domain

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// AccountHashSize is the digest length of an AccountHash.
const AccountHashSize = blake2b.Size256

// AccountHash is the one-way digest used to key delegated-access records so
// account strings are never stored in that index.
type AccountHash [AccountHashSize]byte

// HashAccount digests an account identity.
func HashAccount(id AccountID) AccountHash {
	return AccountHash(blake2b.Sum256([]byte(id)))
}

func (h AccountHash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText encodes the digest as lowercase hex so it can key JSON maps.
func (h AccountHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a hex digest.
func (h *AccountHash) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("decode account hash: %w", err)
	}
	if len(decoded) != AccountHashSize {
		return fmt.Errorf("decode account hash: want %d bytes, got %d", AccountHashSize, len(decoded))
	}
	copy(h[:], decoded)
	return nil
}
