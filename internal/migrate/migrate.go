// Package migrate normalizes persisted trip records of any generation into the
// canonical nested TripRecord.
//
// The pipeline is pure: it performs no I/O and its only nondeterminism is the
// IDGenerator it is handed.
package migrate

import (
	"encoding/json"
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// Migrate returns the canonical form of raw. A nil record migrates to nil.
//
// A mixed record loses its incomplete trip group first. Canonical records
// take the fast path: they are decoded as-is, members the record types do not
// declare are kept, and only documents without a size get one. Everything
// else goes through the full legacy transform. Migrate never fails on shape;
// missing pieces default to empty collections.
func Migrate(raw map[string]any, gen types.IDGenerator) *types.TripRecord {
	if raw == nil {
		return nil
	}
	if IsMixed(raw) {
		raw = StripIncompleteTrip(raw)
	}
	if DetectSchema(raw) == SchemaCanonical {
		if rec, ok := decodeCanonical(raw); ok {
			return rec
		}
	}
	return transformLegacy(raw, gen)
}

// MigrateJSON decodes data and migrates it. It fails only when data is not
// valid JSON or not a JSON object; a JSON null yields a nil record.
func MigrateJSON(data []byte, gen types.IDGenerator) (*types.TripRecord, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrArchiveInvalidJSON, err)
	}
	if v == nil {
		return nil, nil
	}
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", types.ErrArchiveInvalidJSON)
	}
	return Migrate(raw, gen), nil
}

// ToMap converts a canonical record back to its decoded JSON form.
func ToMap(rec types.TripRecord) (map[string]any, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// PayloadSize approximates the decoded byte size of a base64 payload: three
// bytes per four characters after the data-URI header (everything up to the
// first comma).
func PayloadSize(payload string) int64 {
	for i := 0; i < len(payload); i++ {
		if payload[i] == ',' {
			payload = payload[i+1:]
			break
		}
	}
	return int64(utf8.RuneCountInString(payload)) * 3 / 4
}

func decodeCanonical(raw map[string]any) (*types.TripRecord, bool) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, false
	}
	var rec types.TripRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, false
	}
	for id, doc := range rec.Resources.Documents {
		if doc.Size == nil {
			doc.Size = types.Int64(PayloadSize(doc.Data))
			rec.Resources.Documents[id] = doc
		}
	}
	return &rec, true
}

// migrator carries the document store being gathered during one transform.
type migrator struct {
	gen  types.IDGenerator
	docs map[string]types.Document
}

func transformLegacy(raw map[string]any, gen types.IDGenerator) *types.TripRecord {
	resources := object(raw[types.GroupResources])
	itinerary := raw[types.GroupItinerary]
	packing := raw[types.GroupPacking]
	ui := object(raw[types.GroupUI])

	m := &migrator{gen: gen, docs: make(map[string]types.Document)}
	m.seedDocuments(firstFilled(resources["documents"], raw["documents"]))

	tasks := m.tasks(array(firstFilled(resources["tasks"], raw["preTripTasks"], raw["tasks"])))

	var itineraryItems []any
	if items, ok := itinerary.([]any); ok {
		itineraryItems = items
	} else {
		itineraryItems = array(firstFilled(object(itinerary)["items"], raw["itineraryItems"]))
	}
	items := m.itinerary(itineraryItems)

	var packingList []any
	if list, ok := packing.([]any); ok {
		packingList = list
	} else {
		packingList = array(firstFilled(object(packing)["list"], raw["packingList"]))
	}
	categories := m.packing(packingList)
	bags := migrateBags(array(firstFilled(object(packing)["bags"], raw["bags"])))

	m.mergeDistilled(object(firstFilled(raw["distilledContext"], resources["distilledContext"])))

	rec := &types.TripRecord{
		Version:   types.SchemaVersion,
		Timestamp: timestamp(raw["timestamp"]),
		Trip:      tripCore(raw),
		Resources: types.Resources{
			Documents:    m.docs,
			Tasks:        tasks,
			Distillation: types.CloneMap(object(firstFilled(resources["distillation"], raw["distillation"]))),
			Phrasebook:   types.CloneMap(object(firstFilled(resources["phrasebook"], raw["phrasebook"]))),
		},
		Itinerary: types.Itinerary{Items: items},
		Packing:   types.Packing{List: categories, Bags: bags},
		UI:        types.UIPrefs{Language: firstString(str(ui, "language"), str(raw, "language"))},
	}
	return rec
}

func firstString(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// tripCore prefers a non-empty nested trip group over the flat tripDetails.
func tripCore(raw map[string]any) types.TripCore {
	src := object(raw[types.GroupTrip])
	if len(src) == 0 {
		src = object(raw["tripDetails"])
	}
	core := types.TripCore{
		ID:          idOf(src),
		Destination: str(src, "destination"),
		StartDate:   str(src, "startDate"),
		EndDate:     str(src, "endDate"),
		Currency:    str(src, "currency", "homeCurrency"),
		CoverImage:  str(src, "coverImage"),
		AIModel:     str(src, "aiModel", "selectedModel", "model"),
		Notes:       str(src, "notes"),
	}
	core.Budget, _ = num(src, "budget")
	if n, ok := num(src, "travelers"); ok {
		core.Travelers = int(n)
	}
	return core
}

// seedDocuments loads a document store that a partially upgraded record
// already carries, as a map keyed by id or as a list.
func (m *migrator) seedDocuments(v any) {
	add := func(key string, d map[string]any) {
		id := idOf(d)
		if id == "" {
			id = key
		}
		if id == "" {
			return
		}
		doc := documentFrom(id, d)
		if n, ok := num(d, "size"); ok {
			doc.Size = types.Int64(int64(n))
		} else {
			doc.Size = types.Int64(PayloadSize(doc.Data))
		}
		m.docs[id] = doc
	}
	switch docs := v.(type) {
	case map[string]any:
		for key, d := range docs {
			if obj := object(d); obj != nil {
				add(key, obj)
			}
		}
	case []any:
		for _, d := range docs {
			if obj := object(d); obj != nil {
				add("", obj)
			}
		}
	}
}

func documentFrom(id string, a map[string]any) types.Document {
	return types.Document{
		ID:             id,
		Name:           str(a, "name"),
		MimeType:       str(a, "mimeType", "type"),
		Data:           str(a, "data", "payload", "url"),
		Summary:        str(a, "summary"),
		IncludeInPrint: flag(a, "includeInPrint"),
		CreatedAt:      timestamp(a["createdAt"]),
	}
}

// attachments moves an item's inline attachments into the document store and
// returns the item's de-duplicated reference list. References the item
// already held come first.
func (m *migrator) attachments(item map[string]any) []string {
	ids := []string{}
	seen := make(map[string]bool)
	for _, v := range array(item["attachmentIds"]) {
		if id, ok := types.StringValue(v); ok {
			ids = appendUnique(ids, seen, id)
		}
	}
	for _, v := range array(item["attachments"]) {
		a := object(v)
		if a == nil {
			continue
		}
		id := idOf(a)
		if id == "" {
			id = m.gen.NewID()
		}
		if _, exists := m.docs[id]; !exists {
			doc := documentFrom(id, a)
			doc.Size = types.Int64(PayloadSize(doc.Data))
			m.docs[id] = doc
		}
		ids = appendUnique(ids, seen, id)
	}
	return ids
}

func (m *migrator) id(item map[string]any) string {
	if id := idOf(item); id != "" {
		return id
	}
	return m.gen.NewID()
}

// cost resolves cost ?? estimatedCost ?? 0.
func cost(item map[string]any) float64 {
	c, _ := num(item, "cost", "estimatedCost")
	return c
}

func (m *migrator) tasks(list []any) []types.Task {
	out := make([]types.Task, 0, len(list))
	for _, v := range list {
		t := object(v)
		if t == nil {
			if text, ok := v.(string); ok {
				t = map[string]any{"text": text}
			} else {
				continue
			}
		}
		out = append(out, types.Task{
			ID:            m.id(t),
			Text:          str(t, "text", "title", "task"),
			Done:          flag(t, "done", "completed"),
			DueDate:       str(t, "dueDate", "deadline"),
			Category:      str(t, "category"),
			Cost:          cost(t),
			Currency:      str(t, "currency"),
			Paid:          flag(t, "paid", "isPaid"),
			Notes:         str(t, "notes"),
			AttachmentIDs: m.attachments(t),
		})
	}
	return out
}

func (m *migrator) itinerary(list []any) []types.ItineraryItem {
	out := make([]types.ItineraryItem, 0, len(list))
	for _, v := range list {
		it := object(v)
		if it == nil {
			continue
		}
		out = append(out, types.ItineraryItem{
			ID:            m.id(it),
			Title:         str(it, "title", "name", "activity"),
			Type:          str(it, "type", "category"),
			Date:          str(it, "date"),
			Time:          str(it, "time", "startTime"),
			EndDate:       str(it, "endDate"),
			EndTime:       str(it, "endTime"),
			Location:      str(it, "location", "address"),
			Notes:         str(it, "notes", "description"),
			Cost:          cost(it),
			Currency:      str(it, "currency"),
			Paid:          flag(it, "paid", "isPaid"),
			IsEditing:     flag(it, "isEditing"),
			Timezone:      str(it, "timezone", "timeZone"),
			Lat:           floatPtr(it, "lat"),
			Lng:           floatPtr(it, "lng"),
			AttachmentIDs: m.attachments(it),
		})
	}
	return out
}

func (m *migrator) packing(list []any) []types.PackingCategory {
	out := make([]types.PackingCategory, 0, len(list))
	for _, v := range list {
		c := object(v)
		if c == nil {
			continue
		}
		cat := types.PackingCategory{
			ID:       m.id(c),
			Category: str(c, "category", "name"),
			Items:    []types.PackingItem{},
		}
		for _, iv := range array(c["items"]) {
			if item, ok := m.packingItem(iv); ok {
				cat.Items = append(cat.Items, item)
			}
		}
		out = append(out, cat)
	}
	return out
}

// packingItem resolves the text string-or-object variant. An old release
// stored {item, quantity, recommendedBagType} in the text field; the nested
// values are hoisted unless the item already has its own.
func (m *migrator) packingItem(v any) (types.PackingItem, bool) {
	it := object(v)
	if it == nil {
		text, ok := v.(string)
		if !ok {
			return types.PackingItem{}, false
		}
		it = map[string]any{"text": text}
	}

	text := str(it, "text", "item", "name")
	var nested map[string]any
	if obj := object(it["text"]); obj != nil {
		nested = obj
		text = str(obj, "item", "text")
	}

	item := types.PackingItem{
		ID:                 m.id(it),
		Text:               text,
		Packed:             flag(it, "packed", "checked"),
		RecommendedBagType: str(it, "recommendedBagType"),
		BagID:              str(it, "bagId"),
		AttachmentIDs:      m.attachments(it),
	}
	if n, ok := num(it, "quantity"); ok {
		item.Quantity = int(n)
	}
	if nested != nil {
		if _, ok := num(it, "quantity"); !ok {
			if n, ok := num(nested, "quantity"); ok {
				item.Quantity = int(n)
			}
		}
		if item.RecommendedBagType == "" {
			item.RecommendedBagType = str(nested, "recommendedBagType")
		}
	}
	return item, true
}

func migrateBags(list []any) []types.Bag {
	out := make([]types.Bag, 0, len(list))
	for _, v := range list {
		b := object(v)
		if b == nil {
			continue
		}
		out = append(out, types.Bag{
			ID:   idOf(b),
			Name: str(b, "name"),
			Type: str(b, "type"),
		})
	}
	return out
}

// mergeDistilled folds the legacy distilledContext map into document
// summaries. A non-empty summary is never overwritten. Summaries for unknown
// ids become placeholder documents.
func (m *migrator) mergeDistilled(distilled map[string]any) {
	keys := make([]string, 0, len(distilled))
	for k := range distilled {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, id := range keys {
		var info string
		switch v := distilled[id].(type) {
		case string:
			info = v
		case map[string]any:
			info = str(v, "extractedInfo")
		}
		doc, ok := m.docs[id]
		if !ok {
			m.docs[id] = types.Document{
				ID:       id,
				Name:     types.PlaceholderDocumentName,
				MimeType: types.UnknownMimeType,
				Summary:  info,
				Size:     types.Int64(0),
			}
			continue
		}
		if doc.Summary == "" {
			doc.Summary = info
			m.docs[id] = doc
		}
	}
}
