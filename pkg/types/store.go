package types

import (
	"context"
	"errors"
)

// Store is the key-value persistence primitive trip records live in.
// Values are opaque JSON documents; the store never interprets them.
type Store interface {
	// Get returns the value stored under key.
	// Returns ErrNotFound if nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set creates or replaces the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key that starts with prefix, in ascending order.
	// An empty prefix lists every key.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Well-known store keys.
const (
	// RecordPrefix prefixes every trip record key.
	RecordPrefix = "trip_"
	// PendingPrefix prefixes the persisted pending change set of a trip.
	PendingPrefix = "pending_"
	// IndexKey holds the trip metadata index.
	IndexKey = "trips_index"
	// LegacyCurrentKey holds the single trip of the pre-index layout.
	LegacyCurrentKey = "current_trip"
)

// RecordKey returns the store key of trip id.
func RecordKey(id string) string { return RecordPrefix + id }

// PendingKey returns the store key of trip id's pending change set.
func PendingKey(id string) string { return PendingPrefix + id }

// Backend is a Store with a lifecycle. Attach opens the store described by
// a Config; Detach flushes and releases it.
type Backend interface {
	Store
	Attach(config Config) error
	Detach() error
}

// Storage errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrIndexCorrupt    = errors.New("trip index is corrupt")
)

// Change-set errors.
var (
	ErrChangeSetPending = errors.New("a change set is already pending")
	ErrNoChangeSet      = errors.New("no change set is pending")
	ErrInvalidArea      = errors.New("invalid target area")
	ErrInvalidMode      = errors.New("invalid AI mode")
	ErrInvalidSection   = errors.New("invalid change-set section")
)

// Archive errors.
var (
	ErrArchiveMissingData = errors.New("archive does not contain trip_data.json")
	ErrArchiveInvalidJSON = errors.New("archive contains invalid JSON")
)
