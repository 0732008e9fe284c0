// Package repair reconciles stored trip records with the metadata index.
//
// The pass runs when trips are listed. It bootstraps the legacy single-trip
// key, re-migrates records still in a legacy or partially migrated shape,
// drops index entries whose record is gone, re-adds records the index lost,
// and recomputes every display field from the record it describes.
package repair

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TomasRacil/WanderPlan-sub000/internal/migrate"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// Report lists the trip ids each step touched.
type Report struct {
	// Repaired records were re-migrated and written back.
	Repaired []string
	// Dropped index entries had no readable record behind them.
	Dropped []string
	// Recovered records were in the store but missing from the index.
	Recovered []string
	// Bootstrapped records came from the legacy single-trip key.
	Bootstrapped []string
}

// Changed reports whether the pass did anything beyond recomputing fields.
func (r Report) Changed() bool {
	return len(r.Repaired)+len(r.Dropped)+len(r.Recovered)+len(r.Bootstrapped) > 0
}

// Pass is one configured repair run.
type Pass struct {
	Store types.Store
	IDs   types.IDGenerator
	Log   zerolog.Logger
	// Now stamps records that carry no timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Run repairs the store and returns the corrected index, which it has also
// persisted. Only store failures are returned as errors; records that cannot
// be read are logged and left out of the index.
func (p *Pass) Run(ctx context.Context) ([]types.TripMeta, Report, error) {
	var report Report
	now := p.Now
	if now == nil {
		now = time.Now
	}

	index, err := LoadIndex(ctx, p.Store)
	if errors.Is(err, types.ErrIndexCorrupt) {
		p.Log.Warn().Err(err).Msg("rebuilding trip index from records")
		index = []types.TripMeta{}
	} else if err != nil {
		return nil, report, err
	}
	original := append([]types.TripMeta(nil), index...)

	boot, err := p.bootstrap(ctx, now)
	if err != nil {
		return nil, report, err
	}
	if boot != nil {
		index = append(index, *boot)
		report.Bootstrapped = append(report.Bootstrapped, boot.ID)
	}

	keys, err := p.Store.Keys(ctx, types.RecordPrefix)
	if err != nil {
		return nil, report, fmt.Errorf("listing records: %w", err)
	}
	indexed := make(map[string]bool, len(index))
	for _, m := range index {
		indexed[m.ID] = true
	}
	for _, k := range keys {
		id := strings.TrimPrefix(k, types.RecordPrefix)
		if id == "" || indexed[id] {
			continue
		}
		index = append(index, types.TripMeta{ID: id})
		indexed[id] = true
		report.Recovered = append(report.Recovered, id)
	}

	checked := make(map[string]*types.TripRecord, len(index))
	out := make([]types.TripMeta, 0, len(index))
	for _, entry := range index {
		rec, seen := checked[entry.ID]
		if !seen {
			var repaired bool
			rec, repaired, err = p.check(ctx, entry.ID, now)
			if err != nil {
				return nil, report, err
			}
			checked[entry.ID] = rec
			if repaired {
				report.Repaired = append(report.Repaired, entry.ID)
			}
			if rec == nil {
				report.Dropped = append(report.Dropped, entry.ID)
			}
		}
		if rec == nil {
			continue
		}
		updated := entry.UpdatedAt
		if updated.IsZero() {
			updated = recordTime(*rec)
		}
		out = append(out, types.MetaFromRecord(entry.ID, *rec, updated))
	}
	out = Normalize(out)

	if report.Changed() || !sameIndex(original, out) {
		if err := SaveIndex(ctx, p.Store, out); err != nil {
			return nil, report, err
		}
	}

	if report.Changed() {
		p.Log.Info().
			Strs("repaired", report.Repaired).
			Strs("dropped", report.Dropped).
			Strs("recovered", report.Recovered).
			Strs("bootstrapped", report.Bootstrapped).
			Msg("trip store repaired")
	}
	return out, report, nil
}

// check loads the record behind id and re-migrates it when it is not in
// canonical shape. It returns nil when the record is missing or unreadable.
func (p *Pass) check(ctx context.Context, id string, now func() time.Time) (*types.TripRecord, bool, error) {
	log := p.Log.With().Str("trip", id).Logger()

	data, err := p.Store.Get(ctx, types.RecordKey(id))
	if errors.Is(err, types.ErrNotFound) {
		log.Warn().Msg("dropping index entry without record")
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading trip %s: %w", id, err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		log.Warn().Err(err).Msg("skipping unreadable record")
		return nil, false, nil
	}

	mixed := migrate.IsMixed(raw)
	schema := migrate.DetectSchema(raw)
	if !mixed && schema == migrate.SchemaCanonical {
		log.Debug().Msg("record is canonical")
		rec := migrate.Migrate(raw, p.IDs)
		rec.Trip.ID = id
		return rec, false, nil
	}

	if mixed {
		raw = migrate.StripIncompleteTrip(raw)
	}
	rec := migrate.Migrate(raw, p.IDs)
	rec.Trip.ID = id
	if rec.Timestamp == "" {
		rec.Timestamp = now().UTC().Format(time.RFC3339)
	}
	if err := p.put(ctx, id, *rec); err != nil {
		return nil, false, err
	}
	log.Debug().Bool("mixed", mixed).Str("schema", schema.String()).Msg("record re-migrated")
	return rec, true, nil
}

// bootstrap moves the legacy current_trip record into the keyed layout and
// deletes the legacy key. A record already stored under the same id is kept.
func (p *Pass) bootstrap(ctx context.Context, now func() time.Time) (*types.TripMeta, error) {
	data, err := p.Store.Get(ctx, types.LegacyCurrentKey)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading legacy trip: %w", err)
	}

	rec, err := migrate.MigrateJSON(data, p.IDs)
	if err != nil {
		p.Log.Warn().Err(err).Msg("legacy trip is unreadable; leaving it in place")
		return nil, nil
	}
	if rec == nil {
		return nil, p.Store.Delete(ctx, types.LegacyCurrentKey)
	}

	if rec.Trip.ID == "" {
		rec.Trip.ID = p.IDs.NewID()
	}
	id := rec.Trip.ID
	stamp := now().UTC()
	if rec.Timestamp == "" {
		rec.Timestamp = stamp.Format(time.RFC3339)
	}

	if _, err := p.Store.Get(ctx, types.RecordKey(id)); errors.Is(err, types.ErrNotFound) {
		if err := p.put(ctx, id, *rec); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("reading trip %s: %w", id, err)
	}

	if err := p.Store.Delete(ctx, types.LegacyCurrentKey); err != nil {
		return nil, fmt.Errorf("removing legacy trip: %w", err)
	}
	p.Log.Info().Str("trip", id).Msg("legacy trip bootstrapped")

	meta := types.MetaFromRecord(id, *rec, stamp)
	return &meta, nil
}

func (p *Pass) put(ctx context.Context, id string, rec types.TripRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := p.Store.Set(ctx, types.RecordKey(id), data); err != nil {
		return fmt.Errorf("writing trip %s: %w", id, err)
	}
	return nil
}

// recordTime is the record's own timestamp, or the zero time.
func recordTime(rec types.TripRecord) time.Time {
	return parseTime(rec.Timestamp)
}

func sameIndex(a, b []types.TripMeta) bool {
	if len(a) != len(b) {
		return false
	}
	x, err1 := json.Marshal(a)
	y, err2 := json.Marshal(b)
	return err1 == nil && err2 == nil && string(x) == string(y)
}
