package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteListWireForms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantBare bool
		want     []DeleteEntry
	}{
		{"bare ids", `["a","b"]`, true, []DeleteEntry{{ID: "a"}, {ID: "b"}}},
		{"numeric ids", `[7, 8]`, true, []DeleteEntry{{ID: "7"}, {ID: "8"}}},
		{"objects", `[{"id":"a","ignored":true}]`, false, []DeleteEntry{{ID: "a", Ignored: true}}},
		{"mixed", `["a",{"id":"b"}]`, false, []DeleteEntry{{ID: "a"}, {ID: "b"}}},
		{"empty", `[]`, true, []DeleteEntry{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l DeleteList
			require.NoError(t, json.Unmarshal([]byte(tt.input), &l))
			assert.Equal(t, tt.wantBare, l.Bare)
			assert.Equal(t, tt.want, l.Entries)
		})
	}
}

func TestDeleteListMarshalFollowsForm(t *testing.T) {
	l := DeleteIDs("a", "b")
	b, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(b))

	l.Bare = false
	b, err = json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"a","ignored":false},{"id":"b","ignored":false}]`, string(b))
}

func TestAddEntryFlatJSON(t *testing.T) {
	var a AddEntry
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x1","title":"Museum","ignored":true}`), &a))
	assert.True(t, a.Ignored)
	assert.Equal(t, map[string]any{"id": "x1", "title": "Museum"}, a.Fields)
	assert.Equal(t, "x1", a.ID())
	assert.Equal(t, "x1", a.Key())

	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x1","title":"Museum","ignored":true}`, string(b))

	a.Ignored = false
	b, err = json.Marshal(a)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x1","title":"Museum"}`, string(b))
}

func TestAddEntryFingerprint(t *testing.T) {
	a := AddEntry{Fields: map[string]any{"text": "Buy yen", "cost": 10.0}}
	b := AddEntry{Fields: map[string]any{"cost": 10.0, "text": "Buy yen"}, Ignored: true}
	c := AddEntry{Fields: map[string]any{"text": "Buy won"}}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Equal(t, a.Fingerprint(), a.Key())
	assert.Regexp(t, `^add-[0-9a-f]{16}$`, a.Fingerprint())
}

func TestAddEntryAttachmentIDs(t *testing.T) {
	a := AddEntry{Fields: map[string]any{
		"attachmentIds": []any{"d1", 2.0},
		"items": []any{
			"plain",
			map[string]any{"text": "passport", "attachmentIds": []any{"d3"}},
		},
	}}
	assert.Equal(t, []string{"d1", "2", "d3"}, a.AttachmentIDs())
}

func TestUpdateEntryNumericIDs(t *testing.T) {
	var u UpdateEntry
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42, "fields": {"done": true}, "removeItems": [3, "hat"]}`), &u))
	assert.Equal(t, "42", u.ID)
	assert.Equal(t, map[string]any{"done": true}, u.Fields)
	assert.Equal(t, []string{"3", "hat"}, u.RemoveItems)
}

func TestChangeSetCloneIsDeep(t *testing.T) {
	cs := ChangeSet{
		TargetArea: AreaTasks,
		Data: ChangeData{
			Adds:       []AddEntry{{Fields: map[string]any{"tags": []any{"a"}}}},
			Updates:    []UpdateEntry{{ID: "u", Fields: map[string]any{"text": "x"}}},
			Deletes:    DeleteIDs("d"),
			Phrasebook: map[string]any{"hi": "hola"},
		},
	}
	c := cs.Clone()
	c.Data.Adds[0].Fields["tags"].([]any)[0] = "b"
	c.Data.Updates[0].Fields["text"] = "y"
	c.Data.Deletes.Entries[0].Ignored = true
	c.Data.Phrasebook["hi"] = "salut"

	assert.Equal(t, "a", cs.Data.Adds[0].Fields["tags"].([]any)[0])
	assert.Equal(t, "x", cs.Data.Updates[0].Fields["text"])
	assert.False(t, cs.Data.Deletes.Entries[0].Ignored)
	assert.Equal(t, "hola", cs.Data.Phrasebook["hi"])
}

func TestEnumsValid(t *testing.T) {
	assert.True(t, AreaPhrasebook.Valid())
	assert.False(t, Area("budget").Valid())
	assert.True(t, ModeDedupe.Valid())
	assert.False(t, Mode("").Valid())
	assert.True(t, SectionDeletes.Valid())
	assert.False(t, Section("ignored").Valid())
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{"abc", "abc", true},
		{"", "", false},
		{3.0, "3", true},
		{2.5, "2.5", true},
		{json.Number("17"), "17", true},
		{nil, "", false},
		{true, "", false},
	}
	for _, tt := range tests {
		got, ok := StringValue(tt.in)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantOK, ok)
	}
}
