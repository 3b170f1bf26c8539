package core

import (
	"plantary/internal/infra/persistence/sqlite"
	"plantary/pkg/domain"
)

// NewSQLiteStore constructs a SQLite-backed ledger store at path (empty for
// the default file) guarded by engine.
func NewSQLiteStore(path string, engine *domain.RulesEngine) (*sqlite.Store, error) {
	return sqlite.NewStore(path, engine)
}
