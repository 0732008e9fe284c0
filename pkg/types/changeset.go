package types

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Area names the live collection a change set targets.
type Area string

// Target areas.
const (
	AreaItinerary  Area = "itinerary"
	AreaTasks      Area = "tasks"
	AreaPacking    Area = "packing"
	AreaPhrasebook Area = "phrasebook"
)

// Valid reports whether a is a known target area.
func (a Area) Valid() bool {
	switch a {
	case AreaItinerary, AreaTasks, AreaPacking, AreaPhrasebook:
		return true
	}
	return false
}

// Mode records what kind of suggestion produced a change set.
type Mode string

// AI modes.
const (
	ModeAdd    Mode = "add"
	ModeUpdate Mode = "update"
	ModeFill   Mode = "fill"
	ModeDedupe Mode = "dedupe"
)

// Valid reports whether m is a known AI mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeAdd, ModeUpdate, ModeFill, ModeDedupe:
		return true
	}
	return false
}

// Section names one of the three entry lists of a change set.
type Section string

// Change-set sections.
const (
	SectionAdds    Section = "adds"
	SectionUpdates Section = "updates"
	SectionDeletes Section = "deletes"
)

// Valid reports whether s is a known section.
func (s Section) Valid() bool {
	return s == SectionAdds || s == SectionUpdates || s == SectionDeletes
}

// ChangeSet is one pending batch of proposed edits against a single area.
// It only changes through toggles and ends with a commit or a discard.
type ChangeSet struct {
	TargetArea Area       `json:"targetArea"`
	AIMode     Mode       `json:"aiMode"`
	Data       ChangeData `json:"data"`
}

// ChangeData holds the itemized entries of a change set.
type ChangeData struct {
	Adds          []AddEntry     `json:"adds"`
	Updates       []UpdateEntry  `json:"updates"`
	Deletes       DeleteList     `json:"deletes"`
	Phrasebook    map[string]any `json:"phrasebook,omitempty"`
	ChangeSummary string         `json:"changeSummary,omitempty"`
}

// Clone returns a deep copy of cs.
func (cs ChangeSet) Clone() ChangeSet {
	d := cs.Data
	if d.Adds != nil {
		adds := make([]AddEntry, len(d.Adds))
		for i, a := range d.Adds {
			adds[i] = AddEntry{Fields: CloneMap(a.Fields), Ignored: a.Ignored}
		}
		d.Adds = adds
	}
	if d.Updates != nil {
		ups := make([]UpdateEntry, len(d.Updates))
		for i, u := range d.Updates {
			u.Fields = CloneMap(u.Fields)
			u.NewItems = cloneStrings(u.NewItems)
			u.RemoveItems = cloneStrings(u.RemoveItems)
			ups[i] = u
		}
		d.Updates = ups
	}
	if d.Deletes.Entries != nil {
		dels := make([]DeleteEntry, len(d.Deletes.Entries))
		copy(dels, d.Deletes.Entries)
		d.Deletes.Entries = dels
	}
	d.Phrasebook = CloneMap(d.Phrasebook)
	cs.Data = d
	return cs
}

// AddEntry proposes a new item. Fields is the full item payload as the AI
// produced it; for packing it carries a category name and item texts.
type AddEntry struct {
	Fields  map[string]any
	Ignored bool
}

// ID returns the entry's natural id, or "" when the payload has none.
func (a AddEntry) ID() string {
	id, _ := StringValue(a.Fields["id"])
	return id
}

// Fingerprint returns a stable hash of the payload, ignoring the review flag.
// Structurally equal payloads share a fingerprint.
func (a AddEntry) Fingerprint() string {
	b, err := json.Marshal(a.Fields)
	if err != nil {
		b = []byte(fmt.Sprint(a.Fields))
	}
	return fmt.Sprintf("add-%016x", xxhash.Sum64(b))
}

// Key returns the handle used to toggle the entry: its id when present,
// otherwise its fingerprint.
func (a AddEntry) Key() string {
	if id := a.ID(); id != "" {
		return id
	}
	return a.Fingerprint()
}

// AttachmentIDs returns the document ids the payload references, including
// those on nested packing items.
func (a AddEntry) AttachmentIDs() []string {
	return payloadAttachmentIDs(a.Fields)
}

// MarshalJSON writes the payload fields flat, with "ignored" alongside.
func (a AddEntry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(a.Fields)+1)
	for k, v := range a.Fields {
		m[k] = v
	}
	if a.Ignored {
		m["ignored"] = true
	} else {
		delete(m, "ignored")
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads a flat payload and lifts "ignored" out of it.
func (a *AddEntry) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]any{}
	}
	ignored, _ := m["ignored"].(bool)
	delete(m, "ignored")
	a.Fields = m
	a.Ignored = ignored
	return nil
}

// UpdateEntry proposes a shallow field merge onto an existing item.
// NewItems and RemoveItems only apply to packing categories.
type UpdateEntry struct {
	ID          string         `json:"id"`
	Fields      map[string]any `json:"fields"`
	NewItems    []string       `json:"newItems,omitempty"`
	RemoveItems []string       `json:"removeItems,omitempty"` // item ids or texts
	Ignored     bool           `json:"ignored,omitempty"`
}

// AttachmentIDs returns the document ids the merged fields would reference.
func (u UpdateEntry) AttachmentIDs() []string {
	return payloadAttachmentIDs(u.Fields)
}

// UnmarshalJSON accepts numeric ids in id and removeItems.
func (u *UpdateEntry) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID          any            `json:"id"`
		Fields      map[string]any `json:"fields"`
		NewItems    []any          `json:"newItems"`
		RemoveItems []any          `json:"removeItems"`
		Ignored     bool           `json:"ignored"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	u.ID, _ = StringValue(aux.ID)
	u.Fields = aux.Fields
	u.NewItems = stringList(aux.NewItems)
	u.RemoveItems = stringList(aux.RemoveItems)
	u.Ignored = aux.Ignored
	return nil
}

// DeleteEntry proposes removing the item with ID.
type DeleteEntry struct {
	ID      string `json:"id"`
	Ignored bool   `json:"ignored"`
}

// DeleteList holds delete entries. The wire form is either a list of bare ids
// or a list of {id, ignored} objects; Bare records which one it still is.
// Entries is always populated, whatever the wire form.
type DeleteList struct {
	Entries []DeleteEntry
	Bare    bool
}

// DeleteIDs builds a bare-form list from ids.
func DeleteIDs(ids ...string) DeleteList {
	l := DeleteList{Bare: true, Entries: make([]DeleteEntry, 0, len(ids))}
	for _, id := range ids {
		l.Entries = append(l.Entries, DeleteEntry{ID: id})
	}
	return l
}

// MarshalJSON writes bare ids while the list is in bare form, objects otherwise.
func (l DeleteList) MarshalJSON() ([]byte, error) {
	if l.Bare {
		ids := make([]string, len(l.Entries))
		for i, e := range l.Entries {
			ids[i] = e.ID
		}
		return json.Marshal(ids)
	}
	entries := l.Entries
	if entries == nil {
		entries = []DeleteEntry{}
	}
	return json.Marshal(entries)
}

// UnmarshalJSON accepts bare ids, {id, ignored} objects, or a mix. A list made
// only of bare ids stays in bare form.
func (l *DeleteList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Entries = make([]DeleteEntry, 0, len(raw))
	l.Bare = true
	for _, v := range raw {
		if obj, ok := v.(map[string]any); ok {
			l.Bare = false
			id, _ := StringValue(obj["id"])
			ignored, _ := obj["ignored"].(bool)
			l.Entries = append(l.Entries, DeleteEntry{ID: id, Ignored: ignored})
			continue
		}
		if id, ok := StringValue(v); ok {
			l.Entries = append(l.Entries, DeleteEntry{ID: id})
		}
	}
	return nil
}

// DistilledInfo is one AI-extracted document summary.
type DistilledInfo struct {
	ExtractedInfo string `json:"extractedInfo"`
}

// Response is the AI collaborator's answer. NewDistilledData bypasses review;
// everything else becomes a ChangeSet.
type Response struct {
	Adds             []AddEntry               `json:"adds"`
	Updates          []UpdateEntry            `json:"updates"`
	Deletes          DeleteList               `json:"deletes"`
	Phrasebook       map[string]any           `json:"phrasebook,omitempty"`
	ChangeSummary    string                   `json:"changeSummary,omitempty"`
	NewDistilledData map[string]DistilledInfo `json:"newDistilledData,omitempty"`
}

// StringValue renders a decoded JSON scalar id as a string. Integral numbers
// print without a fraction. Reports false for anything else.
func StringValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

func stringList(vs []any) []string {
	if vs == nil {
		return nil
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := StringValue(v); ok {
			out = append(out, s)
		}
	}
	return out
}

func payloadAttachmentIDs(fields map[string]any) []string {
	var ids []string
	collect := func(v any) {
		list, _ := v.([]any)
		for _, e := range list {
			if id, ok := StringValue(e); ok {
				ids = append(ids, id)
			}
		}
		if strs, ok := v.([]string); ok {
			ids = append(ids, strs...)
		}
	}
	collect(fields["attachmentIds"])
	items, _ := fields["items"].([]any)
	for _, it := range items {
		if obj, ok := it.(map[string]any); ok {
			collect(obj["attachmentIds"])
		}
	}
	return ids
}
