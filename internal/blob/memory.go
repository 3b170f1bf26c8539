package blob

import (
	memorystore "plantary/internal/infra/blob/memory"
)

// NewMemory returns an empty in-process Store.
func NewMemory() Store { return memorystore.New() }
