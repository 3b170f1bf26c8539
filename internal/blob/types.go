// Package blob is the entry point for seed artwork, metadata documents and
// ledger backups. It re-exports the storage contract and wraps the backends
// so callers never import infra packages directly.
package blob

import (
	"plantary/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
)

var (
	// ErrUnsupported indicates an operation isn't supported by a driver.
	ErrUnsupported = core.ErrUnsupported
	// ErrNotFound matches missing keys on every driver.
	ErrNotFound = core.ErrNotFound
	// ErrExists matches create-only Put collisions on every driver.
	ErrExists = core.ErrExists
	// ErrInvalidKey matches rejected keys on every driver.
	ErrInvalidKey = core.ErrInvalidKey
)
