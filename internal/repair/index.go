package repair

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// LoadIndex reads the metadata index. A missing index is empty. Entries are
// decoded leniently: numeric ids become strings and epoch-millisecond
// updatedAt values are converted. Entries without an id are skipped.
// Returns types.ErrIndexCorrupt when the stored value is not a JSON list.
func LoadIndex(ctx context.Context, store types.Store) ([]types.TripMeta, error) {
	data, err := store.Get(ctx, types.IndexKey)
	if errors.Is(err, types.ErrNotFound) {
		return []types.TripMeta{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrIndexCorrupt, err)
	}
	out := make([]types.TripMeta, 0, len(raw))
	for _, v := range raw {
		m, ok := v.(map[string]any)
		if !ok {
			continue
		}
		if meta, ok := metaFromRaw(m); ok {
			out = append(out, meta)
		}
	}
	return out, nil
}

// SaveIndex writes the metadata index.
func SaveIndex(ctx context.Context, store types.Store, index []types.TripMeta) error {
	if index == nil {
		index = []types.TripMeta{}
	}
	data, err := json.Marshal(index)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, types.IndexKey, data); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// Normalize de-duplicates entries by id, keeping the most recently updated
// one, and orders the result by update time, newest first. Ties keep their
// input order.
func Normalize(index []types.TripMeta) []types.TripMeta {
	pos := make(map[string]int, len(index))
	out := make([]types.TripMeta, 0, len(index))
	for _, m := range index {
		if i, ok := pos[m.ID]; ok {
			if m.UpdatedAt.After(out[i].UpdatedAt) {
				out[i] = m
			}
			continue
		}
		pos[m.ID] = len(out)
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Upsert replaces the entry with meta's id, or adds it, and normalizes.
func Upsert(index []types.TripMeta, meta types.TripMeta) []types.TripMeta {
	out := make([]types.TripMeta, 0, len(index)+1)
	for _, m := range index {
		if m.ID != meta.ID {
			out = append(out, m)
		}
	}
	return Normalize(append(out, meta))
}

// Remove drops the entry with id.
func Remove(index []types.TripMeta, id string) []types.TripMeta {
	out := make([]types.TripMeta, 0, len(index))
	for _, m := range index {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

func metaFromRaw(m map[string]any) (types.TripMeta, bool) {
	id, ok := types.StringValue(m["id"])
	if !ok {
		return types.TripMeta{}, false
	}
	meta := types.TripMeta{ID: id, UpdatedAt: parseTime(m["updatedAt"])}
	meta.Destination, _ = m["destination"].(string)
	meta.StartDate, _ = m["startDate"].(string)
	meta.EndDate, _ = m["endDate"].(string)
	meta.CoverImage, _ = m["coverImage"].(string)
	meta.Currency, _ = m["currency"].(string)
	meta.Cost, _ = m["cost"].(float64)
	return meta, true
}

// parseTime reads an RFC 3339 string or epoch milliseconds. Anything else is
// the zero time.
func parseTime(v any) time.Time {
	switch x := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t.UTC()
		}
	case float64:
		return time.UnixMilli(int64(x)).UTC()
	}
	return time.Time{}
}
