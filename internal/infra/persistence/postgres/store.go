// Package postgres provides a Postgres-backed ledger store that mirrors the
// in-memory semantics while keeping one normalized table per record type.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"plantary/internal/infra/persistence/memory"
	"plantary/pkg/domain"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// Default DSN keeps parity with OpenPersistentStore defaults while allowing overrides via env.
	defaultDSN = "postgres://localhost/plantary?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Ids are stored as decimal text because BIGINT cannot hold the upper half of the uint64 range.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS seeds (
		position BIGINT PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		kind SMALLINT NOT NULL,
		category SMALLINT NOT NULL,
		descriptor TEXT NOT NULL,
		rarity DOUBLE PRECISION NOT NULL,
		edition BIGINT NOT NULL,
		state SMALLINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tokens (
		position BIGINT PRIMARY KEY,
		token_id TEXT NOT NULL UNIQUE,
		owner TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS veggies (
		position BIGINT PRIMARY KEY,
		id TEXT NOT NULL UNIQUE REFERENCES tokens(token_id) DEFERRABLE INITIALLY DEFERRED,
		kind SMALLINT NOT NULL,
		category SMALLINT NOT NULL,
		parent TEXT NOT NULL,
		dna TEXT NOT NULL,
		descriptor TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS access_grants (
		grantor TEXT NOT NULL,
		delegate TEXT NOT NULL,
		PRIMARY KEY (grantor, delegate)
	)`,
}

// Store persists state to Postgres while reusing the in-memory implementation
// for transactions. Postgres is written before a commit becomes visible.
type Store struct {
	*memory.Store
	db *sql.DB
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back to defaultDSN).
// It ensures the ledger tables exist and hydrates the in-memory store from them.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := applySchema(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	s.Store = memory.NewStore(engine, memory.WithCommitHook(s.persist))
	if err := s.Load(snapshot); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func applySchema(ctx context.Context, db execer) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (domain.Snapshot, error) {
	snapshot := domain.Snapshot{}
	if err := queryRows(ctx, db, `SELECT id, kind, category, descriptor, rarity, edition, state FROM seeds ORDER BY position`, func(rows *sql.Rows) error {
		var (
			seed domain.Seed
			id   string
		)
		if err := rows.Scan(&id, &seed.Kind, &seed.Category, &seed.Descriptor, &seed.Rarity, &seed.Edition, &seed.State); err != nil {
			return err
		}
		parsed, err := domain.ParseID(id)
		if err != nil {
			return err
		}
		seed.ID = domain.SeedID(parsed)
		snapshot.Seeds = append(snapshot.Seeds, seed)
		return nil
	}); err != nil {
		return domain.Snapshot{}, fmt.Errorf("load seeds: %w", err)
	}
	if err := queryRows(ctx, db, `SELECT token_id, owner FROM tokens ORDER BY position`, func(rows *sql.Rows) error {
		var (
			token domain.TokenOwnership
			id    string
		)
		if err := rows.Scan(&id, &token.Owner); err != nil {
			return err
		}
		parsed, err := domain.ParseID(id)
		if err != nil {
			return err
		}
		token.TokenID = domain.TokenID(parsed)
		snapshot.Tokens = append(snapshot.Tokens, token)
		return nil
	}); err != nil {
		return domain.Snapshot{}, fmt.Errorf("load tokens: %w", err)
	}
	if err := queryRows(ctx, db, `SELECT id, kind, category, parent, dna, descriptor FROM veggies ORDER BY position`, func(rows *sql.Rows) error {
		var w domain.WireVeggie
		if err := rows.Scan(&w.ID, &w.Kind, &w.Category, &w.Parent, &w.DNA, &w.Descriptor); err != nil {
			return err
		}
		v, err := w.FromWire()
		if err != nil {
			return err
		}
		snapshot.Veggies = append(snapshot.Veggies, v)
		return nil
	}); err != nil {
		return domain.Snapshot{}, fmt.Errorf("load veggies: %w", err)
	}
	if err := queryRows(ctx, db, `SELECT grantor, delegate FROM access_grants`, func(rows *sql.Rows) error {
		var (
			grantor, delegate string
			g                 domain.AccessGrant
		)
		if err := rows.Scan(&grantor, &delegate); err != nil {
			return err
		}
		if err := g.Grantor.UnmarshalText([]byte(grantor)); err != nil {
			return err
		}
		if err := g.Delegate.UnmarshalText([]byte(delegate)); err != nil {
			return err
		}
		snapshot.Grants = append(snapshot.Grants, g)
		return nil
	}); err != nil {
		return domain.Snapshot{}, fmt.Errorf("load access grants: %w", err)
	}
	return snapshot, nil
}

func queryRows(ctx context.Context, db *sql.DB, query string, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// persist runs as the memory store's commit hook, so the store lock is held.
func (s *Store) persist(ctx context.Context, snapshot domain.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := writeSnapshot(ctx, tx, snapshot); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

func writeSnapshot(ctx context.Context, tx execer, snapshot domain.Snapshot) error {
	if _, err := tx.ExecContext(ctx, `TRUNCATE TABLE veggies, tokens, seeds, access_grants`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	for i, seed := range snapshot.Seeds {
		if _, err := tx.ExecContext(ctx, `INSERT INTO seeds (position, id, kind, category, descriptor, rarity, edition, state) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			int64(i), domain.FormatID(uint64(seed.ID)), int64(seed.Kind), int64(seed.Category), seed.Descriptor, seed.Rarity, int64(seed.Edition), int64(seed.State)); err != nil {
			return fmt.Errorf("insert seed %d: %w", seed.ID, err)
		}
	}
	for i, token := range snapshot.Tokens {
		if _, err := tx.ExecContext(ctx, `INSERT INTO tokens (position, token_id, owner) VALUES ($1,$2,$3)`,
			int64(i), domain.FormatID(uint64(token.TokenID)), string(token.Owner)); err != nil {
			return fmt.Errorf("insert token %d: %w", token.TokenID, err)
		}
	}
	for i, v := range snapshot.Veggies {
		w := v.ToWire()
		if _, err := tx.ExecContext(ctx, `INSERT INTO veggies (position, id, kind, category, parent, dna, descriptor) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			int64(i), w.ID, int64(v.Kind), int64(v.Category), w.Parent, w.DNA, w.Descriptor); err != nil {
			return fmt.Errorf("insert veggie %d: %w", v.ID, err)
		}
	}
	for _, g := range snapshot.Grants {
		if _, err := tx.ExecContext(ctx, `INSERT INTO access_grants (grantor, delegate) VALUES ($1,$2)`,
			g.Grantor.String(), g.Delegate.String()); err != nil {
			return fmt.Errorf("insert access grant: %w", err)
		}
	}
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
