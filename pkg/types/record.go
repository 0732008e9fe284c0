package types

import "time"

// SchemaVersion is the envelope version written with every canonical record.
const SchemaVersion = 2

// Canonical top-level group names. A record carrying all five is canonical.
const (
	GroupTrip      = "trip"
	GroupResources = "resources"
	GroupItinerary = "itinerary"
	GroupPacking   = "packing"
	GroupUI        = "ui"
)

// CanonicalGroups lists the five top-level groups of a canonical record.
var CanonicalGroups = []string{GroupTrip, GroupResources, GroupItinerary, GroupPacking, GroupUI}

// TripCore holds the trip's headline settings.
type TripCore struct {
	ID          string  `json:"id,omitempty"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"startDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	Budget      float64 `json:"budget"`
	Currency    string  `json:"currency,omitempty"` // home currency
	CoverImage  string  `json:"coverImage,omitempty"`
	Travelers   int     `json:"travelers,omitempty"`
	AIModel     string  `json:"aiModel,omitempty"`
	Notes       string  `json:"notes,omitempty"`

	Extra Extra `json:"-"`
}

// Resources owns the document store and the non-timeline collections.
type Resources struct {
	Documents    map[string]Document `json:"documents"`
	Tasks        []Task              `json:"tasks"`
	Distillation map[string]any      `json:"distillation,omitempty"`
	Phrasebook   map[string]any      `json:"phrasebook,omitempty"`

	Extra Extra `json:"-"`
}

// Itinerary is the trip timeline.
type Itinerary struct {
	Items []ItineraryItem `json:"items"`

	Extra Extra `json:"-"`
}

// Packing holds the packing list and the bags.
type Packing struct {
	List []PackingCategory `json:"list"`
	Bags []Bag             `json:"bags"`

	Extra Extra `json:"-"`
}

// UIPrefs holds presentation preferences stored with the trip.
type UIPrefs struct {
	Language string `json:"language,omitempty"`

	Extra Extra `json:"-"`
}

// TripRecord is the canonical persisted trip: the five groups plus the
// envelope version and timestamp.
type TripRecord struct {
	Version   int       `json:"version"`
	Timestamp string    `json:"timestamp,omitempty"`
	Trip      TripCore  `json:"trip"`
	Resources Resources `json:"resources"`
	Itinerary Itinerary `json:"itinerary"`
	Packing   Packing   `json:"packing"`
	UI        UIPrefs   `json:"ui"`

	Extra Extra `json:"-"`
}

// Clone returns a deep copy of r. Transforms clone their input so callers
// keep an unmodified snapshot.
func (r TripRecord) Clone() TripRecord {
	r.Extra = CloneMap(r.Extra)
	r.Trip.Extra = CloneMap(r.Trip.Extra)
	r.Resources.Extra = CloneMap(r.Resources.Extra)
	r.Itinerary.Extra = CloneMap(r.Itinerary.Extra)
	r.Packing.Extra = CloneMap(r.Packing.Extra)
	r.UI.Extra = CloneMap(r.UI.Extra)
	if r.Resources.Documents != nil {
		docs := make(map[string]Document, len(r.Resources.Documents))
		for id, d := range r.Resources.Documents {
			docs[id] = d.Clone()
		}
		r.Resources.Documents = docs
	}
	if r.Resources.Tasks != nil {
		tasks := make([]Task, len(r.Resources.Tasks))
		for i, t := range r.Resources.Tasks {
			tasks[i] = t.Clone()
		}
		r.Resources.Tasks = tasks
	}
	r.Resources.Distillation = CloneMap(r.Resources.Distillation)
	r.Resources.Phrasebook = CloneMap(r.Resources.Phrasebook)
	if r.Itinerary.Items != nil {
		items := make([]ItineraryItem, len(r.Itinerary.Items))
		for i, it := range r.Itinerary.Items {
			items[i] = it.Clone()
		}
		r.Itinerary.Items = items
	}
	if r.Packing.List != nil {
		list := make([]PackingCategory, len(r.Packing.List))
		for i, c := range r.Packing.List {
			list[i] = c.Clone()
		}
		r.Packing.List = list
	}
	if r.Packing.Bags != nil {
		bags := make([]Bag, len(r.Packing.Bags))
		for i, b := range r.Packing.Bags {
			bags[i] = b.Clone()
		}
		r.Packing.Bags = bags
	}
	return r
}

// CloneMap deep-copies a decoded JSON object.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a decoded JSON value.
func CloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return CloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

// TripMeta is one entry of the trip metadata index: the display fields needed
// to list trips without loading full records. Always derivable from the
// TripRecord it describes.
type TripMeta struct {
	ID          string    `json:"id"`
	Destination string    `json:"destination"`
	StartDate   string    `json:"startDate,omitempty"`
	EndDate     string    `json:"endDate,omitempty"`
	CoverImage  string    `json:"coverImage,omitempty"`
	Cost        float64   `json:"cost"`
	Currency    string    `json:"currency,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MetaFromRecord derives the index entry for rec.
func MetaFromRecord(id string, rec TripRecord, updatedAt time.Time) TripMeta {
	return TripMeta{
		ID:          id,
		Destination: rec.Trip.Destination,
		StartDate:   rec.Trip.StartDate,
		EndDate:     rec.Trip.EndDate,
		CoverImage:  rec.Trip.CoverImage,
		Cost:        rec.Trip.Budget,
		Currency:    rec.Trip.Currency,
		UpdatedAt:   updatedAt,
	}
}

// TripState is the in-memory aggregate every transform works on: the live
// record plus at most one pending change set.
type TripState struct {
	Record  TripRecord
	Pending *ChangeSet
}

// Clone returns a deep copy of s.
func (s TripState) Clone() TripState {
	out := TripState{Record: s.Record.Clone()}
	if s.Pending != nil {
		cs := s.Pending.Clone()
		out.Pending = &cs
	}
	return out
}
