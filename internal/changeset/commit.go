package changeset

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// Commit applies the non-ignored entries of the pending change set to the
// live collections and clears it. The result never has a pending change set,
// even when st had none or nothing matched.
//
// Phases run in order adds, updates, deletes. Added items always get fresh
// ids from gen, so later phases never touch them. Update and delete targets
// that are missing from the live collection are skipped silently.
func Commit(st types.TripState, gen types.IDGenerator) types.TripState {
	out := st.Clone()
	cs := out.Pending
	out.Pending = nil
	if cs == nil {
		return out
	}

	adds := activeAdds(cs.Data.Adds)
	updates := activeUpdates(cs.Data.Updates)
	deletes := activeDeletes(cs.Data.Deletes)
	rec := &out.Record
	home := rec.Trip.Currency

	switch cs.TargetArea {
	case types.AreaItinerary:
		rec.Itinerary.Items = commitItinerary(rec.Itinerary.Items, adds, updates, deletes, home, gen)
	case types.AreaTasks:
		rec.Resources.Tasks = commitTasks(rec.Resources.Tasks, adds, updates, deletes, home, gen)
	case types.AreaPacking:
		rec.Packing.List = commitPacking(rec.Packing.List, adds, updates, deletes, gen)
	}

	// The phrasebook is not itemized: when present it replaces the live one.
	if cs.Data.Phrasebook != nil {
		rec.Resources.Phrasebook = cs.Data.Phrasebook
	}
	return out
}

func activeAdds(adds []types.AddEntry) []map[string]any {
	var out []map[string]any
	for _, a := range adds {
		if !a.Ignored {
			out = append(out, a.Fields)
		}
	}
	return out
}

func activeUpdates(updates []types.UpdateEntry) []types.UpdateEntry {
	var out []types.UpdateEntry
	for _, u := range updates {
		if !u.Ignored {
			out = append(out, u)
		}
	}
	return out
}

func activeDeletes(l types.DeleteList) map[string]bool {
	out := make(map[string]bool)
	for _, d := range l.Entries {
		if !d.Ignored && d.ID != "" {
			out[d.ID] = true
		}
	}
	return out
}

// normalizeFields prepares an AI payload for decoding onto an item: the id is
// dropped (identity never changes), numeric strings in cost become numbers,
// and a legacy estimatedCost fills a missing cost.
func normalizeFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	delete(out, "id")
	delete(out, "ignored")
	if _, ok := out["cost"]; !ok {
		if est, ok := out["estimatedCost"]; ok {
			out["cost"] = est
		}
	}
	delete(out, "estimatedCost")
	if s, ok := out["cost"].(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			out["cost"] = f
		} else {
			delete(out, "cost")
		}
	}
	if ids, ok := out["attachmentIds"].([]any); ok {
		strs := make([]string, 0, len(ids))
		for _, v := range ids {
			if s, ok := types.StringValue(v); ok {
				strs = append(strs, s)
			}
		}
		out["attachmentIds"] = strs
	}
	return out
}

// mergeInto shallow-merges fields onto dst: keys present in fields replace
// the corresponding fields of dst, everything else is kept. Values of the
// wrong type are skipped rather than failing the merge.
func mergeInto(dst any, fields map[string]any) {
	b, err := json.Marshal(normalizeFields(fields))
	if err != nil {
		return
	}
	_ = json.Unmarshal(b, dst)
}

func commitItinerary(items []types.ItineraryItem, adds []map[string]any, updates []types.UpdateEntry, deletes map[string]bool, home string, gen types.IDGenerator) []types.ItineraryItem {
	for _, fields := range adds {
		var it types.ItineraryItem
		mergeInto(&it, fields)
		it.ID = gen.NewID()
		if it.Currency == "" {
			it.Currency = home
		}
		if it.AttachmentIDs == nil {
			it.AttachmentIDs = []string{}
		}
		items = append(items, it)
	}

	for _, u := range updates {
		for i := range items {
			if items[i].ID == u.ID {
				mergeInto(&items[i], u.Fields)
				items[i].ID = u.ID
				break
			}
		}
	}

	if len(adds) > 0 || len(updates) > 0 {
		sortItinerary(items)
	}

	if len(deletes) > 0 {
		kept := items[:0]
		for _, it := range items {
			if !deletes[it.ID] {
				kept = append(kept, it)
			}
		}
		items = kept
	}
	return items
}

// sortItinerary orders items by date then time, ascending. Undated items go
// last; the sort is stable so equal keys keep their relative order.
func sortItinerary(items []types.ItineraryItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Date != b.Date {
			if a.Date == "" {
				return false
			}
			if b.Date == "" {
				return true
			}
			return a.Date < b.Date
		}
		return a.Time < b.Time
	})
}

func commitTasks(tasks []types.Task, adds []map[string]any, updates []types.UpdateEntry, deletes map[string]bool, home string, gen types.IDGenerator) []types.Task {
	for _, fields := range adds {
		var t types.Task
		mergeInto(&t, fields)
		t.ID = gen.NewID()
		if t.Currency == "" {
			t.Currency = home
		}
		if t.AttachmentIDs == nil {
			t.AttachmentIDs = []string{}
		}
		tasks = append(tasks, t)
	}

	for _, u := range updates {
		for i := range tasks {
			if tasks[i].ID == u.ID {
				mergeInto(&tasks[i], u.Fields)
				tasks[i].ID = u.ID
				break
			}
		}
	}

	if len(deletes) > 0 {
		kept := tasks[:0]
		for _, t := range tasks {
			if !deletes[t.ID] {
				kept = append(kept, t)
			}
		}
		tasks = kept
	}
	return tasks
}
