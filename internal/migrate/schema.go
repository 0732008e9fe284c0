package migrate

import "github.com/TomasRacil/WanderPlan-sub000/pkg/types"

// Schema classifies the shape of a persisted trip record.
type Schema int

// Record shapes, oldest first.
const (
	// SchemaLegacyV1 is the flat shape with no canonical group at all.
	SchemaLegacyV1 Schema = iota + 1
	// SchemaPartialV2 carries some, but not all, canonical groups.
	SchemaPartialV2
	// SchemaCanonical carries all five canonical groups.
	SchemaCanonical
)

func (s Schema) String() string {
	switch s {
	case SchemaLegacyV1:
		return "legacy-v1"
	case SchemaPartialV2:
		return "partial-v2"
	case SchemaCanonical:
		return "canonical"
	}
	return "unknown"
}

// legacyFlatFields are top-level keys only the flat legacy shape uses.
var legacyFlatFields = []string{
	"tripDetails",
	"preTripTasks",
	"itineraryItems",
	"packingList",
	"distilledContext",
	"bags",
}

// DetectSchema classifies raw once, at the boundary. A group counts as present
// only when it is a JSON object; a legacy itinerary array does not count.
func DetectSchema(raw map[string]any) Schema {
	present := 0
	for _, g := range types.CanonicalGroups {
		if object(raw[g]) != nil {
			present++
		}
	}
	switch {
	case present == len(types.CanonicalGroups):
		return SchemaCanonical
	case present > 0:
		return SchemaPartialV2
	default:
		return SchemaLegacyV1
	}
}

// HasLegacyFields reports whether raw carries any flat legacy top-level field.
func HasLegacyFields(raw map[string]any) bool {
	for _, k := range legacyFlatFields {
		if _, ok := raw[k]; ok {
			return true
		}
	}
	_, isArray := raw[types.GroupItinerary].([]any)
	return isArray
}

// IsMixed reports a partially migrated record: legacy flat fields sit next to
// a nested trip group that is empty or lacks a destination.
func IsMixed(raw map[string]any) bool {
	if !HasLegacyFields(raw) {
		return false
	}
	trip := object(raw[types.GroupTrip])
	if trip == nil {
		return false
	}
	return str(trip, "destination") == ""
}

// StripIncompleteTrip returns a shallow copy of raw without the nested trip
// group, so that the legacy fields become authoritative again.
func StripIncompleteTrip(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == types.GroupTrip {
			continue
		}
		out[k] = v
	}
	return out
}
