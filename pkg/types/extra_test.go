package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskKeepsUndeclaredMembers(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id": "k1", "text": "Visa", "priority": "high", "tags": ["a"]}`), &task))
	assert.Equal(t, "k1", task.ID)
	assert.Equal(t, Extra{"priority": "high", "tags": []any{"a"}}, task.Extra)

	data, err := json.Marshal(task)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "high", out["priority"])
	assert.Equal(t, []any{"a"}, out["tags"])
	assert.Equal(t, "Visa", out["text"])
}

func TestDeclaredMembersAreNotExtra(t *testing.T) {
	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"ID": "k1", "Text": "Visa"}`), &task))
	assert.Equal(t, "k1", task.ID)
	assert.Nil(t, task.Extra)

	task.Extra = Extra{"text": "shadow"}
	data, err := json.Marshal(task)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "Visa", out["text"])
}

func TestUnmarshalMergesOntoExistingValue(t *testing.T) {
	task := Task{ID: "k1", Text: "old", Cost: 4, Extra: Extra{"priority": "low"}}
	require.NoError(t, json.Unmarshal([]byte(`{"text": "new", "tag": "blue"}`), &task))

	assert.Equal(t, "k1", task.ID)
	assert.Equal(t, "new", task.Text)
	assert.Equal(t, 4.0, task.Cost)
	assert.Equal(t, Extra{"priority": "low", "tag": "blue"}, task.Extra)
}

func TestUnmarshalTypeMismatchStillMergesOtherMembers(t *testing.T) {
	task := Task{ID: "k1", Cost: 4}
	err := json.Unmarshal([]byte(`{"cost": "free", "text": "Visa", "done": true}`), &task)

	var typeErr *json.UnmarshalTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, 4.0, task.Cost)
	assert.Equal(t, "Visa", task.Text)
	assert.True(t, task.Done)
}

func TestNestedTypeMismatchDoesNotStopSiblings(t *testing.T) {
	var rec TripRecord
	err := json.Unmarshal([]byte(`{"trip": {"budget": "lots", "destination": "Oslo"}, "ui": {"language": "de"}}`), &rec)

	require.Error(t, err)
	assert.Equal(t, "Oslo", rec.Trip.Destination)
	assert.Equal(t, "de", rec.UI.Language)
}

func TestNullLeavesValueUntouched(t *testing.T) {
	bag := Bag{ID: "b1", Extra: Extra{"volume": 40.0}}
	require.NoError(t, json.Unmarshal([]byte(`null`), &bag))
	assert.Equal(t, Bag{ID: "b1", Extra: Extra{"volume": 40.0}}, bag)
}

func TestCloneCopiesExtra(t *testing.T) {
	rec := TripRecord{
		Trip:      TripCore{Extra: Extra{"members": []any{"ana"}}},
		Resources: Resources{Tasks: []Task{{ID: "k1", Extra: Extra{"priority": "high"}}}},
		Packing:   Packing{Bags: []Bag{{ID: "b1", Extra: Extra{"volume": 40.0}}}},
		Extra:     Extra{"sharedWith": "bo"},
	}

	c := rec.Clone()
	c.Trip.Extra["members"].([]any)[0] = "changed"
	c.Resources.Tasks[0].Extra["priority"] = "low"
	c.Packing.Bags[0].Extra["volume"] = 1.0
	c.Extra["sharedWith"] = "changed"

	assert.Equal(t, "ana", rec.Trip.Extra["members"].([]any)[0])
	assert.Equal(t, "high", rec.Resources.Tasks[0].Extra["priority"])
	assert.Equal(t, 40.0, rec.Packing.Bags[0].Extra["volume"])
	assert.Equal(t, "bo", rec.Extra["sharedWith"])
}
