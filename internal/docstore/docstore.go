// Package docstore maintains the trip's central document store: cascading
// document deletion, garbage collection of unreferenced documents, and
// direct summary writes from AI distillation.
package docstore

import (
	"sort"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// DeleteDocument removes document id from the store and strips every
// reference to it from tasks, itinerary items, and packing items. Inline
// legacy attachments with the same id are purged as well.
func DeleteDocument(rec types.TripRecord, id string) types.TripRecord {
	out := rec.Clone()
	delete(out.Resources.Documents, id)

	for i := range out.Resources.Tasks {
		t := &out.Resources.Tasks[i]
		t.AttachmentIDs = without(t.AttachmentIDs, id)
		t.Attachments = withoutInline(t.Attachments, id)
	}
	for i := range out.Itinerary.Items {
		it := &out.Itinerary.Items[i]
		it.AttachmentIDs = without(it.AttachmentIDs, id)
		it.Attachments = withoutInline(it.Attachments, id)
	}
	for i := range out.Packing.List {
		for j := range out.Packing.List[i].Items {
			p := &out.Packing.List[i].Items[j]
			p.AttachmentIDs = without(p.AttachmentIDs, id)
			p.Attachments = withoutInline(p.Attachments, id)
		}
	}
	return out
}

// Reachable returns the set of document ids still referenced: every live
// item's attachmentIds plus those of the pending change set's non-ignored
// adds and updates. Ignored entries do not keep a document alive.
func Reachable(st types.TripState) map[string]bool {
	reach := make(map[string]bool)
	mark := func(ids []string) {
		for _, id := range ids {
			reach[id] = true
		}
	}

	rec := st.Record
	for _, t := range rec.Resources.Tasks {
		mark(t.AttachmentIDs)
	}
	for _, it := range rec.Itinerary.Items {
		mark(it.AttachmentIDs)
	}
	for _, c := range rec.Packing.List {
		for _, p := range c.Items {
			mark(p.AttachmentIDs)
		}
	}

	if st.Pending != nil {
		for _, a := range st.Pending.Data.Adds {
			if !a.Ignored {
				mark(a.AttachmentIDs())
			}
		}
		for _, u := range st.Pending.Data.Updates {
			if !u.Ignored {
				mark(u.AttachmentIDs())
			}
		}
	}
	return reach
}

// CollectGarbage deletes every document outside Reachable(st) and returns the
// new state with the sorted ids it removed. Running it twice removes nothing
// the second time.
func CollectGarbage(st types.TripState) (types.TripState, []string) {
	out := st.Clone()
	reach := Reachable(out)

	var removed []string
	for id := range out.Record.Resources.Documents {
		if !reach[id] {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		delete(out.Record.Resources.Documents, id)
	}
	return out, removed
}

// ApplyDistilled writes AI-extracted summaries straight into the matching
// documents. Ids with no document are skipped; summaries never create one.
func ApplyDistilled(rec types.TripRecord, distilled map[string]types.DistilledInfo) types.TripRecord {
	if len(distilled) == 0 {
		return rec
	}
	out := rec.Clone()
	for id, info := range distilled {
		doc, ok := out.Resources.Documents[id]
		if !ok {
			continue
		}
		doc.Summary = info.ExtractedInfo
		out.Resources.Documents[id] = doc
	}
	return out
}

// Dangling returns the referenced ids with no document, in first-seen order.
// They are tolerated until the next garbage collection or repair.
func Dangling(rec types.TripRecord) []string {
	seen := make(map[string]bool)
	var out []string
	check := func(ids []string) {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, ok := rec.Resources.Documents[id]; !ok {
				out = append(out, id)
			}
		}
	}
	for _, t := range rec.Resources.Tasks {
		check(t.AttachmentIDs)
	}
	for _, it := range rec.Itinerary.Items {
		check(it.AttachmentIDs)
	}
	for _, c := range rec.Packing.List {
		for _, p := range c.Items {
			check(p.AttachmentIDs)
		}
	}
	return out
}

func without(ids []string, id string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func withoutInline(docs []types.Document, id string) []types.Document {
	if len(docs) == 0 {
		return docs
	}
	out := docs[:0:0]
	for _, d := range docs {
		if d.ID != id {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
