package trip

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomasRacil/WanderPlan-sub000/internal/ids"
	"github.com/TomasRacil/WanderPlan-sub000/internal/repair"
	"github.com/TomasRacil/WanderPlan-sub000/internal/sqlite"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

var base = time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)

// ticking returns a clock that advances one minute per call.
func ticking() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}

func newService(t *testing.T) (*Service, types.Store) {
	t.Helper()
	b := sqlite.NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })
	svc := New(b, WithIDs(ids.NewSequence("t")), WithClock(ticking()), WithDefaults("NOK", ""))
	return svc, b
}

func TestCreateAndLoad(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)

	rec, err := svc.Create(ctx, types.TripCore{Destination: "Bergen", Budget: 500})
	require.NoError(t, err)
	assert.Equal(t, "t-1", rec.Trip.ID)
	assert.Equal(t, "NOK", rec.Trip.Currency)
	assert.Equal(t, DefaultLanguage, rec.UI.Language)
	assert.Equal(t, types.SchemaVersion, rec.Version)
	assert.Equal(t, "2024-04-01T08:01:00Z", rec.Timestamp)

	st, err := svc.Load(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, rec, st.Record)
	assert.Nil(t, st.Pending)

	index, err := repair.LoadIndex(ctx, store)
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Equal(t, "Bergen", index[0].Destination)
	assert.Equal(t, 500.0, index[0].Cost)
}

func TestLoadMissing(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSaveKeepsUndeclaredMembers(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	require.NoError(t, store.Set(ctx, types.RecordKey("x"), []byte(`{
		"version": 2,
		"trip": {"id": "x", "destination": "Tromsø", "budget": 0, "members": ["ana"]},
		"resources": {"documents": {}, "tasks": [{"id": "k1", "text": "Visa", "done": false, "cost": 0, "attachmentIds": [], "priority": "high"}]},
		"itinerary": {"items": [{"id": "i1", "title": "Aurora tour", "cost": 0, "paid": false, "isEditing": false, "attachmentIds": [], "bookingRef": "ABC123"}]},
		"packing": {"list": [], "bags": []},
		"ui": {"theme": "dark"}
	}`)))

	st, err := svc.Load(ctx, "x")
	require.NoError(t, err)
	st.Record.Trip.Budget = 900
	_, err = svc.Save(ctx, st)
	require.NoError(t, err)

	data, err := store.Get(ctx, types.RecordKey("x"))
	require.NoError(t, err)
	var raw struct {
		Trip      map[string]any `json:"trip"`
		Resources struct {
			Tasks []map[string]any `json:"tasks"`
		} `json:"resources"`
		Itinerary struct {
			Items []map[string]any `json:"items"`
		} `json:"itinerary"`
		UI map[string]any `json:"ui"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 900.0, raw.Trip["budget"])
	assert.Equal(t, []any{"ana"}, raw.Trip["members"])
	assert.Equal(t, "high", raw.Resources.Tasks[0]["priority"])
	assert.Equal(t, "ABC123", raw.Itinerary.Items[0]["bookingRef"])
	assert.Equal(t, "dark", raw.UI["theme"])
}

func TestLoadMigratesLegacyRecord(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	require.NoError(t, store.Set(ctx, types.RecordKey("old"), []byte(`{
		"tripDetails": {"destination": "Oslo"},
		"preTripTasks": [{"text": "Passport", "attachments": [{"id": "a1", "name": "scan.png", "data": "data:image/png;base64,AAAA"}]}]
	}`)))

	st, err := svc.Load(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, "old", st.Record.Trip.ID)
	assert.Equal(t, "Oslo", st.Record.Trip.Destination)
	require.Len(t, st.Record.Resources.Tasks, 1)
	assert.Equal(t, []string{"a1"}, st.Record.Resources.Tasks[0].AttachmentIDs)
	assert.Equal(t, int64(3), *st.Record.Resources.Documents["a1"].Size)
}

func TestSaveRequiresID(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Save(context.Background(), types.TripState{})
	assert.ErrorIs(t, err, types.ErrInvalidID)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	rec, err := svc.Create(ctx, types.TripCore{Destination: "Bergen"})
	require.NoError(t, err)
	_, err = svc.Propose(ctx, rec.Trip.ID, types.AreaTasks, types.ModeAdd, types.Response{})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, rec.Trip.ID))

	keys, err := store.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{types.IndexKey}, keys)

	index, err := repair.LoadIndex(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, index)

	assert.ErrorIs(t, svc.Delete(ctx, rec.Trip.ID), types.ErrNotFound)
}

func TestChangeSetLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	rec, err := svc.Create(ctx, types.TripCore{Destination: "Bergen"})
	require.NoError(t, err)
	id := rec.Trip.ID

	var resp types.Response
	require.NoError(t, json.Unmarshal([]byte(`{
		"adds": [{"id": "a1", "text": "Buy rain jacket"}, {"id": "a2", "text": "Buy umbrella"}],
		"changeSummary": "weather prep"
	}`), &resp))

	st, err := svc.Propose(ctx, id, types.AreaTasks, types.ModeAdd, resp)
	require.NoError(t, err)
	require.NotNil(t, st.Pending)

	_, err = store.Get(ctx, types.PendingKey(id))
	require.NoError(t, err, "pending change set is persisted")

	_, err = svc.Propose(ctx, id, types.AreaTasks, types.ModeAdd, resp)
	assert.ErrorIs(t, err, types.ErrChangeSetPending)

	st, err = svc.Toggle(ctx, id, types.SectionAdds, "a2")
	require.NoError(t, err)
	assert.True(t, st.Pending.Data.Adds[1].Ignored)

	loaded, err := svc.Load(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, loaded.Pending)
	assert.True(t, loaded.Pending.Data.Adds[1].Ignored, "toggles survive a reload")

	st, err = svc.Commit(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, st.Pending)
	require.Len(t, st.Record.Resources.Tasks, 1)
	assert.Equal(t, "Buy rain jacket", st.Record.Resources.Tasks[0].Text)
	assert.Equal(t, "NOK", st.Record.Resources.Tasks[0].Currency)

	_, err = store.Get(ctx, types.PendingKey(id))
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = svc.Commit(ctx, id)
	assert.ErrorIs(t, err, types.ErrNoChangeSet)
	_, err = svc.Toggle(ctx, id, types.SectionAdds, "a1")
	assert.ErrorIs(t, err, types.ErrNoChangeSet)
}

func TestProposeAppliesDistilledDataAtOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	rec, err := svc.Create(ctx, types.TripCore{Destination: "Bergen"})
	require.NoError(t, err)
	rec.Resources.Documents["d1"] = types.Document{ID: "d1", Name: "ticket.pdf", Size: types.Int64(1)}
	_, err = svc.Save(ctx, types.TripState{Record: rec})
	require.NoError(t, err)

	resp := types.Response{NewDistilledData: map[string]types.DistilledInfo{"d1": {ExtractedInfo: "Train at 07:58"}}}
	_, err = svc.Propose(ctx, rec.Trip.ID, types.AreaItinerary, types.ModeFill, resp)
	require.NoError(t, err)

	st, err := svc.Discard(ctx, rec.Trip.ID)
	require.NoError(t, err)
	assert.Nil(t, st.Pending)
	assert.Equal(t, "Train at 07:58", st.Record.Resources.Documents["d1"].Summary)

	_, err = svc.Discard(ctx, rec.Trip.ID)
	assert.ErrorIs(t, err, types.ErrNoChangeSet)
}

func TestProposeRejectsUnknownArea(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	rec, err := svc.Create(ctx, types.TripCore{Destination: "Bergen"})
	require.NoError(t, err)

	_, err = svc.Propose(ctx, rec.Trip.ID, types.Area("budget"), types.ModeAdd, types.Response{})
	assert.ErrorIs(t, err, types.ErrInvalidArea)
}

func docs(ids ...string) map[string]types.Document {
	out := make(map[string]types.Document, len(ids))
	for _, id := range ids {
		out[id] = types.Document{ID: id, Name: id + ".pdf", Size: types.Int64(1)}
	}
	return out
}

func TestDocumentsDeleteAndCollect(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	rec, err := svc.Create(ctx, types.TripCore{Destination: "Bergen"})
	require.NoError(t, err)
	id := rec.Trip.ID

	rec.Resources.Documents = docs("d1", "d2", "d3", "d4", "d5")
	rec.Resources.Tasks = []types.Task{{ID: "k1", Text: "Ferry", AttachmentIDs: []string{"d1", "d5"}}}
	_, err = svc.Save(ctx, types.TripState{Record: rec})
	require.NoError(t, err)

	resp := types.Response{Adds: []types.AddEntry{
		{Fields: map[string]any{"id": "a2", "text": "x", "attachmentIds": []any{"d2"}}},
		{Fields: map[string]any{"id": "a3", "text": "y", "attachmentIds": []any{"d3"}}},
	}}
	_, err = svc.Propose(ctx, id, types.AreaTasks, types.ModeAdd, resp)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, id, types.SectionAdds, "a3")
	require.NoError(t, err)

	st, err := svc.DeleteDocument(ctx, id, "d5")
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, st.Record.Resources.Tasks[0].AttachmentIDs)
	assert.NotContains(t, st.Record.Resources.Documents, "d5")
	assert.NotNil(t, st.Pending, "deleting a document keeps the pending change set")

	_, err = svc.DeleteDocument(ctx, id, "d5")
	assert.ErrorIs(t, err, types.ErrNotFound)

	removed, err := svc.CollectGarbage(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"d3", "d4"}, removed)

	removed, err = svc.CollectGarbage(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, removed)

	st, err = svc.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, st.Record.Resources.Documents, 2)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	rec, err := svc.Create(ctx, types.TripCore{Destination: "Bergen"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, rec.Trip.ID, &buf))

	imported, err := svc.Import(ctx, buf.Bytes())
	require.NoError(t, err)
	assert.NotEqual(t, rec.Trip.ID, imported.Trip.ID, "a taken id is replaced")
	assert.Equal(t, "Bergen", imported.Trip.Destination)

	index, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, index, 2)
}

func TestImportLegacyJSON(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	rec, err := svc.ImportFrom(ctx, bytes.NewReader([]byte(`{
		"tripDetails": {"id": "legacy-7", "destination": "Tromso"},
		"packingList": [{"category": "Clothes", "items": ["Wool socks"]}]
	}`)))
	require.NoError(t, err)
	assert.Equal(t, "legacy-7", rec.Trip.ID)
	require.Len(t, rec.Packing.List, 1)
	assert.Equal(t, "Wool socks", rec.Packing.List[0].Items[0].Text)

	_, err = svc.Import(ctx, []byte(`null`))
	assert.ErrorIs(t, err, types.ErrArchiveInvalidJSON)

	_, err = svc.Import(ctx, []byte(`{broken`))
	assert.ErrorIs(t, err, types.ErrArchiveInvalidJSON)
}

func TestListRepairsAndRebuildIndex(t *testing.T) {
	ctx := context.Background()
	svc, store := newService(t)
	a, err := svc.Create(ctx, types.TripCore{Destination: "A"})
	require.NoError(t, err)
	b, err := svc.Create(ctx, types.TripCore{Destination: "B"})
	require.NoError(t, err)

	index, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, index, 2)
	assert.Equal(t, b.Trip.ID, index[0].ID, "newest first")

	require.NoError(t, store.Delete(ctx, types.RecordKey(b.Trip.ID)))
	index, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Equal(t, a.Trip.ID, index[0].ID)

	require.NoError(t, store.Set(ctx, types.IndexKey, []byte(`[]`)))
	index, err = svc.RebuildIndex(ctx)
	require.NoError(t, err)
	require.Len(t, index, 1)
	assert.Equal(t, "A", index[0].Destination)
}
