package trip

import (
	"context"

	"github.com/TomasRacil/WanderPlan-sub000/internal/changeset"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// Propose turns a collaborator response into the pending change set of trip
// id. Distilled document summaries in resp are saved immediately.
// Returns ErrChangeSetPending if the trip already has one.
func (s *Service) Propose(ctx context.Context, id string, area types.Area, mode types.Mode, resp types.Response) (types.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.loadLocked(ctx, id)
	if err != nil {
		return st, err
	}
	if st.Pending != nil {
		return st, types.ErrChangeSetPending
	}

	rec, cs, err := changeset.FromResponse(st.Record, area, mode, resp)
	if err != nil {
		return st, err
	}
	st.Record = rec
	st.Pending = &cs

	stats := changeset.Summarize(cs)
	s.log.Info().
		Str("trip", id).
		Str("area", string(area)).
		Str("mode", string(mode)).
		Int("adds", stats.Adds).
		Int("updates", stats.Updates).
		Int("deletes", stats.Deletes).
		Int("distilled", len(resp.NewDistilledData)).
		Msg("change set proposed")
	return s.saveLocked(ctx, st)
}

// Toggle flips one entry of trip id's pending change set.
// Returns ErrNoChangeSet if nothing is pending.
func (s *Service) Toggle(ctx context.Context, id string, section types.Section, target string) (types.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.pendingLocked(ctx, id)
	if err != nil {
		return st, err
	}
	cs, err := changeset.Toggle(*st.Pending, section, target)
	if err != nil {
		return st, err
	}
	st.Pending = &cs
	return s.saveLocked(ctx, st)
}

// Commit applies the accepted entries of trip id's pending change set.
// Returns ErrNoChangeSet if nothing is pending.
func (s *Service) Commit(ctx context.Context, id string) (types.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.pendingLocked(ctx, id)
	if err != nil {
		return st, err
	}
	stats := changeset.Summarize(*st.Pending)
	st = changeset.Commit(st, s.ids)
	s.log.Info().
		Str("trip", id).
		Int("entries", stats.Adds+stats.Updates+stats.Deletes).
		Int("ignored", stats.Ignored).
		Msg("change set committed")
	return s.saveLocked(ctx, st)
}

// Discard drops trip id's pending change set.
// Returns ErrNoChangeSet if nothing is pending.
func (s *Service) Discard(ctx context.Context, id string) (types.TripState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.pendingLocked(ctx, id)
	if err != nil {
		return st, err
	}
	s.log.Info().Str("trip", id).Msg("change set discarded")
	return s.saveLocked(ctx, changeset.Discard(st))
}

func (s *Service) pendingLocked(ctx context.Context, id string) (types.TripState, error) {
	st, err := s.loadLocked(ctx, id)
	if err != nil {
		return st, err
	}
	if st.Pending == nil {
		return st, types.ErrNoChangeSet
	}
	return st, nil
}
