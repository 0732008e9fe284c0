// Package trip is the application service over a trip store. It loads records
// through migration, persists them with their metadata index entry, and
// drives the change-set lifecycle: one proposal at a time, reviewed with
// toggles, then committed or discarded.
package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/TomasRacil/WanderPlan-sub000/internal/ids"
	"github.com/TomasRacil/WanderPlan-sub000/internal/migrate"
	"github.com/TomasRacil/WanderPlan-sub000/internal/repair"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// Defaults applied to trips created without them.
const (
	DefaultCurrency = "EUR"
	DefaultLanguage = "en"
)

// Service reads and writes trips in a Store. A Service serializes its own
// load-modify-save cycles; it assumes no other writer shares the store.
type Service struct {
	mu       sync.Mutex
	store    types.Store
	ids      types.IDGenerator
	log      zerolog.Logger
	now      func() time.Time
	currency string
	language string
}

// Option configures a Service.
type Option func(*Service)

// WithIDs sets the id generator. Defaults to UUID v7.
func WithIDs(gen types.IDGenerator) Option {
	return func(s *Service) { s.ids = gen }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDefaults sets the home currency and language given to new trips.
// Empty values keep the built-in defaults.
func WithDefaults(currency, language string) Option {
	return func(s *Service) {
		if currency != "" {
			s.currency = currency
		}
		if language != "" {
			s.language = language
		}
	}
}

// New returns a Service over store.
func New(store types.Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		ids:      ids.UUID{},
		log:      zerolog.Nop(),
		now:      time.Now,
		currency: DefaultCurrency,
		language: DefaultLanguage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new, empty trip for core and returns it. The id is always
// generated; a missing currency gets the home currency.
func (s *Service) Create(ctx context.Context, core types.TripCore) (types.TripRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	core.ID = s.ids.NewID()
	if core.Currency == "" {
		core.Currency = s.currency
	}
	st := types.TripState{Record: types.TripRecord{
		Trip: core,
		Resources: types.Resources{
			Documents: map[string]types.Document{},
			Tasks:     []types.Task{},
		},
		Itinerary: types.Itinerary{Items: []types.ItineraryItem{}},
		Packing:   types.Packing{List: []types.PackingCategory{}, Bags: []types.Bag{}},
		UI:        types.UIPrefs{Language: s.language},
	}}
	saved, err := s.saveLocked(ctx, st)
	if err != nil {
		return types.TripRecord{}, err
	}
	s.log.Info().Str("trip", core.ID).Str("destination", core.Destination).Msg("trip created")
	return saved.Record, nil
}

// Load returns trip id in canonical form together with its pending change
// set, if any. Records in an older shape are migrated in memory only; the
// next Save writes the canonical form.
// Returns ErrNotFound if the trip does not exist.
func (s *Service) Load(ctx context.Context, id string) (types.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx, id)
}

// Save stamps st's record with the current schema version and time, writes
// it and its pending change set, and updates its index entry.
func (s *Service) Save(ctx context.Context, st types.TripState) (types.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.Record.Trip.ID == "" {
		return st, types.ErrInvalidID
	}
	return s.saveLocked(ctx, st)
}

// List repairs the store and returns the metadata index, newest first.
func (s *Service) List(ctx context.Context) ([]types.TripMeta, error) {
	index, _, err := s.Repair(ctx)
	return index, err
}

// Delete removes trip id, its pending change set and its index entry.
// Returns ErrNotFound if the trip does not exist.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Get(ctx, types.RecordKey(id)); err != nil {
		return s.notFound(id, err)
	}
	for _, key := range []string{types.RecordKey(id), types.PendingKey(id)} {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("deleting %s: %w", key, err)
		}
	}
	index, err := s.index(ctx)
	if err != nil {
		return err
	}
	if err := repair.SaveIndex(ctx, s.store, repair.Remove(index, id)); err != nil {
		return err
	}
	s.log.Info().Str("trip", id).Msg("trip deleted")
	return nil
}

// Repair runs the repair pass and returns the corrected index.
func (s *Service) Repair(ctx context.Context) ([]types.TripMeta, repair.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pass().Run(ctx)
}

// RebuildIndex discards the metadata index and rebuilds it from the records.
func (s *Service) RebuildIndex(ctx context.Context) ([]types.TripMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, types.IndexKey); err != nil {
		return nil, fmt.Errorf("clearing index: %w", err)
	}
	index, report, err := s.pass().Run(ctx)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("trips", len(index)).Int("repaired", len(report.Repaired)).Msg("index rebuilt")
	return index, nil
}

func (s *Service) pass() *repair.Pass {
	return &repair.Pass{Store: s.store, IDs: s.ids, Log: s.log, Now: s.now}
}

func (s *Service) loadLocked(ctx context.Context, id string) (types.TripState, error) {
	data, err := s.store.Get(ctx, types.RecordKey(id))
	if err != nil {
		return types.TripState{}, s.notFound(id, err)
	}
	rec, err := migrate.MigrateJSON(data, s.ids)
	if err != nil {
		return types.TripState{}, fmt.Errorf("trip %s: %w", id, err)
	}
	if rec == nil {
		return types.TripState{}, fmt.Errorf("trip %s: %w", id, types.ErrNotFound)
	}
	rec.Trip.ID = id
	st := types.TripState{Record: *rec}

	pending, err := s.store.Get(ctx, types.PendingKey(id))
	switch {
	case errors.Is(err, types.ErrNotFound):
	case err != nil:
		return types.TripState{}, fmt.Errorf("reading pending changes of %s: %w", id, err)
	default:
		var cs types.ChangeSet
		if err := json.Unmarshal(pending, &cs); err != nil {
			s.log.Warn().Err(err).Str("trip", id).Msg("discarding unreadable pending change set")
		} else {
			st.Pending = &cs
		}
	}
	return st, nil
}

func (s *Service) saveLocked(ctx context.Context, st types.TripState) (types.TripState, error) {
	id := st.Record.Trip.ID
	stamp := s.now().UTC()

	out := st.Clone()
	out.Record.Version = types.SchemaVersion
	out.Record.Timestamp = stamp.Format(time.RFC3339)

	data, err := json.Marshal(out.Record)
	if err != nil {
		return st, fmt.Errorf("encoding trip %s: %w", id, err)
	}
	if err := s.store.Set(ctx, types.RecordKey(id), data); err != nil {
		return st, fmt.Errorf("writing trip %s: %w", id, err)
	}

	if out.Pending == nil {
		err = s.store.Delete(ctx, types.PendingKey(id))
	} else {
		var pending []byte
		if pending, err = json.Marshal(out.Pending); err == nil {
			err = s.store.Set(ctx, types.PendingKey(id), pending)
		}
	}
	if err != nil {
		return st, fmt.Errorf("writing pending changes of %s: %w", id, err)
	}

	index, err := s.index(ctx)
	if err != nil {
		return st, err
	}
	index = repair.Upsert(index, types.MetaFromRecord(id, out.Record, stamp))
	if err := repair.SaveIndex(ctx, s.store, index); err != nil {
		return st, err
	}
	s.log.Debug().Str("trip", id).Bool("pending", out.Pending != nil).Msg("trip saved")
	return out, nil
}

// index loads the metadata index; a corrupt one is replaced on the next
// write and rebuilt by the next repair.
func (s *Service) index(ctx context.Context) ([]types.TripMeta, error) {
	index, err := repair.LoadIndex(ctx, s.store)
	if errors.Is(err, types.ErrIndexCorrupt) {
		s.log.Warn().Err(err).Msg("ignoring corrupt index")
		return []types.TripMeta{}, nil
	}
	return index, err
}

func (s *Service) notFound(id string, err error) error {
	if errors.Is(err, types.ErrNotFound) {
		return fmt.Errorf("trip %s: %w", id, types.ErrNotFound)
	}
	return fmt.Errorf("reading trip %s: %w", id, err)
}
