package changeset

import (
	"fmt"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// Toggle flips the ignored flag of every entry identified by target in
// section. Adds match on their id or, lacking one, on their structural
// fingerprint; updates and deletes match on their id. A target that matches nothing
// leaves the change set as it was. Toggling twice restores the original flag.
//
// The first toggle of a deletes list still in bare-id form converts the whole
// list to {id, ignored} entries, keeping order.
func Toggle(cs types.ChangeSet, section types.Section, target string) (types.ChangeSet, error) {
	out := cs.Clone()
	switch section {
	case types.SectionAdds:
		for i, a := range out.Data.Adds {
			if a.ID() == target || (a.ID() == "" && a.Fingerprint() == target) {
				out.Data.Adds[i].Ignored = !a.Ignored
			}
		}
	case types.SectionUpdates:
		for i, u := range out.Data.Updates {
			if u.ID == target {
				out.Data.Updates[i].Ignored = !u.Ignored
			}
		}
	case types.SectionDeletes:
		out.Data.Deletes.Bare = false
		for i, d := range out.Data.Deletes.Entries {
			if d.ID == target {
				out.Data.Deletes.Entries[i].Ignored = !d.Ignored
			}
		}
	default:
		return cs, fmt.Errorf("%w: %q", types.ErrInvalidSection, section)
	}
	return out, nil
}
