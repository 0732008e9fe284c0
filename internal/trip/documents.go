package trip

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/TomasRacil/WanderPlan-sub000/internal/archive"
	"github.com/TomasRacil/WanderPlan-sub000/internal/docstore"
	"github.com/TomasRacil/WanderPlan-sub000/internal/migrate"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// DeleteDocument removes document docID from trip id and every reference to
// it. Returns ErrNotFound if the trip or the document does not exist.
func (s *Service) DeleteDocument(ctx context.Context, id, docID string) (types.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked(ctx, id)
	if err != nil {
		return st, err
	}
	if _, ok := st.Record.Resources.Documents[docID]; !ok {
		return st, fmt.Errorf("document %s: %w", docID, types.ErrNotFound)
	}
	st.Record = docstore.DeleteDocument(st.Record, docID)
	s.log.Info().Str("trip", id).Str("document", docID).Msg("document deleted")
	return s.saveLocked(ctx, st)
}

// CollectGarbage deletes the documents of trip id that nothing references
// and returns their ids. The trip is only rewritten when something was
// removed.
func (s *Service) CollectGarbage(ctx context.Context, id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	st, removed := docstore.CollectGarbage(st)
	if len(removed) == 0 {
		return removed, nil
	}
	if _, err := s.saveLocked(ctx, st); err != nil {
		return nil, err
	}
	s.log.Info().Str("trip", id).Int("removed", len(removed)).Msg("documents collected")
	return removed, nil
}

// Import reads an export archive or a bare JSON file of any schema
// generation, migrates it and stores it. The record keeps its own id unless
// it has none or that id is taken, in which case it gets a new one.
func (s *Service) Import(ctx context.Context, data []byte) (types.TripRecord, error) {
	raw, err := archive.Read(data)
	if err != nil {
		return types.TripRecord{}, err
	}
	rec := migrate.Migrate(raw, s.ids)
	if rec == nil {
		return types.TripRecord{}, fmt.Errorf("%w: empty record", types.ErrArchiveInvalidJSON)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.Trip.ID != "" {
		if _, err := s.store.Get(ctx, types.RecordKey(rec.Trip.ID)); err == nil {
			s.log.Debug().Str("trip", rec.Trip.ID).Msg("imported id is taken")
			rec.Trip.ID = ""
		}
	}
	if rec.Trip.ID == "" {
		rec.Trip.ID = s.ids.NewID()
	}

	st, err := s.saveLocked(ctx, types.TripState{Record: *rec})
	if err != nil {
		return types.TripRecord{}, err
	}
	s.log.Info().
		Str("trip", rec.Trip.ID).
		Str("schema", migrate.DetectSchema(raw).String()).
		Bool("zip", archive.IsZip(data)).
		Msg("trip imported")
	return st.Record, nil
}

// ImportFrom reads r fully and imports it.
func (s *Service) ImportFrom(ctx context.Context, r io.Reader) (types.TripRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return types.TripRecord{}, err
	}
	return s.Import(ctx, data)
}

// Export writes trip id as a zip archive to w. The pending change set is
// not exported.
func (s *Service) Export(ctx context.Context, id string, w io.Writer) error {
	st, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := archive.Write(&buf, st.Record); err != nil {
		return fmt.Errorf("exporting trip %s: %w", id, err)
	}
	_, err = buf.WriteTo(w)
	return err
}
