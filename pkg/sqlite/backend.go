// Package sqlite provides the public factory for the SQLite trip store,
// keeping implementation details internal.
package sqlite

import (
	"github.com/rs/zerolog"

	"github.com/TomasRacil/WanderPlan-sub000/internal/sqlite"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend(zerolog.Nop())
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".wanderplan-db",
//	})
//	defer backend.Detach()
func NewBackend(log zerolog.Logger) types.Backend {
	return sqlite.NewBackend(sqlite.WithLogger(log))
}
