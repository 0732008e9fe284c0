// Package changeset models a pending batch of AI-proposed edits: building it
// from a collaborator response, toggling entries during review, and
// committing the accepted subset to the live collections.
//
// Every function takes its inputs by value and returns new values; nothing
// here performs I/O.
package changeset

import (
	"fmt"

	"github.com/TomasRacil/WanderPlan-sub000/internal/docstore"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// FromResponse turns a collaborator response into a change set for area.
// Distilled document summaries in the response are written into rec at once,
// bypassing review, and are not part of the returned change set.
func FromResponse(rec types.TripRecord, area types.Area, mode types.Mode, resp types.Response) (types.TripRecord, types.ChangeSet, error) {
	if !area.Valid() {
		return rec, types.ChangeSet{}, fmt.Errorf("%w: %q", types.ErrInvalidArea, area)
	}
	if !mode.Valid() {
		return rec, types.ChangeSet{}, fmt.Errorf("%w: %q", types.ErrInvalidMode, mode)
	}

	rec = docstore.ApplyDistilled(rec, resp.NewDistilledData)

	cs := types.ChangeSet{
		TargetArea: area,
		AIMode:     mode,
		Data: types.ChangeData{
			Adds:          resp.Adds,
			Updates:       resp.Updates,
			Deletes:       resp.Deletes,
			Phrasebook:    resp.Phrasebook,
			ChangeSummary: resp.ChangeSummary,
		},
	}
	if cs.Data.Adds == nil {
		cs.Data.Adds = []types.AddEntry{}
	}
	if cs.Data.Updates == nil {
		cs.Data.Updates = []types.UpdateEntry{}
	}
	if cs.Data.Deletes.Entries == nil {
		cs.Data.Deletes = types.DeleteIDs()
	}
	return rec, cs.Clone(), nil
}

// Discard drops the pending change set without applying anything.
func Discard(st types.TripState) types.TripState {
	out := st.Clone()
	out.Pending = nil
	return out
}

// Stats summarizes a change set for review.
type Stats struct {
	Adds, Updates, Deletes int
	Ignored                int
	Phrasebook             bool
}

// Summarize counts the entries of cs.
func Summarize(cs types.ChangeSet) Stats {
	s := Stats{
		Adds:       len(cs.Data.Adds),
		Updates:    len(cs.Data.Updates),
		Deletes:    len(cs.Data.Deletes.Entries),
		Phrasebook: cs.Data.Phrasebook != nil,
	}
	for _, a := range cs.Data.Adds {
		if a.Ignored {
			s.Ignored++
		}
	}
	for _, u := range cs.Data.Updates {
		if u.Ignored {
			s.Ignored++
		}
	}
	for _, d := range cs.Data.Deletes.Entries {
		if d.Ignored {
			s.Ignored++
		}
	}
	return s
}
