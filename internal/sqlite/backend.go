// Package sqlite implements the key-value store trip records live in. SQLite
// serves as the query engine; store.jsonl in DataDir is the source of truth
// and is reloaded into a fresh database on every Attach.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// dbFile is the throwaway SQLite database inside DataDir.
const dbFile = "wanderplan.db"

// Backend implements types.Backend on SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      zerolog.Logger

	// syncStrategy is the effective strategy; dirty counts writes not yet
	// persisted under on_close.
	syncStrategy string
	dirty        int
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for load and flush events.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds a fresh database and loads
// store.jsonl into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}
	if err := initJSONL(dataDir); err != nil {
		return fmt.Errorf("init %s: %w", storeJSONL, err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	n, err := loadJSONL(db, dataDir)
	if err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.syncStrategy = config.EffectiveSyncStrategy()
	b.dirty = 0
	b.attached = true

	b.log.Debug().
		Str("data_dir", dataDir).
		Str("sync", b.syncStrategy).
		Int("keys", n).
		Msg("store attached")
	return nil
}

// Detach releases all resources held by the backend. Under on_close, pending
// writes are persisted first. After Detach, every operation returns
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.dirty > 0 {
		if err := b.persistLocked(); err != nil {
			return fmt.Errorf("flush pending writes: %w", err)
		}
	}

	if err := b.db.Close(); err != nil {
		return err
	}
	b.db = nil
	b.attached = false
	return nil
}

// afterWriteLocked persists store.jsonl now or defers it to Detach.
// The caller must hold b.mu for writing.
func (b *Backend) afterWriteLocked() error {
	if b.syncStrategy == types.SyncOnClose {
		b.dirty++
		return nil
	}
	return b.persistLocked()
}

// persistLocked rewrites store.jsonl from the kv table.
func (b *Backend) persistLocked() error {
	records, err := dumpJSONL(b.db)
	if err != nil {
		return err
	}
	if err := writeJSONL(filepath.Join(b.config.DataDir, storeJSONL), records); err != nil {
		return err
	}
	if b.dirty > 0 {
		b.log.Debug().Int("writes", b.dirty).Msg("store flushed")
	}
	b.dirty = 0
	return nil
}
