package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

func attach(t *testing.T, dir, sync string) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir, SyncStrategy: sync}))
	return b
}

func TestBackend_Attach(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	b := attach(t, dir, "")
	defer b.Detach()

	assert.FileExists(t, filepath.Join(dir, dbFile))
	assert.FileExists(t, filepath.Join(dir, storeJSONL))

	err := b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackend_AttachValidatesConfig(t *testing.T) {
	b := NewBackend()
	err := b.Attach(types.Config{Backend: "postgres", DataDir: t.TempDir()})
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
}

func TestBackend_Detach(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir(), "")

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "detach is idempotent")

	_, err := b.Get(ctx, "k")
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Set(ctx, "k", []byte("1")), types.ErrStoreDetached)
	assert.ErrorIs(t, b.Delete(ctx, "k"), types.ErrStoreDetached)
	_, err = b.Keys(ctx, "")
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}

func TestBackend_CRUD(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir(), "")
	defer b.Detach()

	_, err := b.Get(ctx, "trip_1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, b.Set(ctx, "trip_1", []byte(`{"trip":{"destination":"Oslo"}}`)))
	got, err := b.Get(ctx, "trip_1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"trip":{"destination":"Oslo"}}`, string(got))

	require.NoError(t, b.Set(ctx, "trip_1", []byte(`{"v":2}`)))
	got, err = b.Get(ctx, "trip_1")
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(got))

	require.NoError(t, b.Delete(ctx, "trip_1"))
	_, err = b.Get(ctx, "trip_1")
	assert.ErrorIs(t, err, types.ErrNotFound)

	assert.NoError(t, b.Delete(ctx, "trip_1"), "deleting a missing key is not an error")
	assert.ErrorIs(t, b.Set(ctx, "", []byte("x")), types.ErrInvalidID)
}

func TestBackend_Keys(t *testing.T) {
	ctx := context.Background()
	b := attach(t, t.TempDir(), "")
	defer b.Detach()

	for _, k := range []string{"trip_b", "trips_index", "trip_a", "current_trip", "pending_a"} {
		require.NoError(t, b.Set(ctx, k, []byte("{}")))
	}

	tests := []struct {
		prefix string
		want   []string
	}{
		{"trip_", []string{"trip_a", "trip_b"}},
		{"trips", []string{"trips_index"}},
		{"pending_", []string{"pending_a"}},
		{"nothing", []string{}},
		{"", []string{"current_trip", "pending_a", "trip_a", "trip_b", "trips_index"}},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := b.Keys(ctx, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBackend_OpaqueValuesRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := attach(t, dir, "")

	corrupt := []byte("{not json\n\x00")
	require.NoError(t, b.Set(ctx, "trips_index", corrupt))
	require.NoError(t, b.Detach())

	b = attach(t, dir, "")
	defer b.Detach()
	got, err := b.Get(ctx, "trips_index")
	require.NoError(t, err)
	assert.Equal(t, corrupt, got)
}

func TestBackend_SyncImmediate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	b := attach(t, dir, types.SyncImmediate)
	defer b.Detach()

	require.NoError(t, b.Set(ctx, "trip_1", []byte(`{}`)))

	data, err := os.ReadFile(filepath.Join(dir, storeJSONL))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"key":"trip_1"`)
}

func TestBackend_SyncOnClose(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, storeJSONL)
	b := attach(t, dir, types.SyncOnClose)

	require.NoError(t, b.Set(ctx, "trip_1", []byte(`{}`)))
	require.NoError(t, b.Set(ctx, "trip_2", []byte(`{}`)))
	require.NoError(t, b.Delete(ctx, "trip_2"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data, "nothing persisted before Detach")

	require.NoError(t, b.Detach())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"key":"trip_1"`)
}

func TestBackend_ReloadsFromJSONL(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := attach(t, dir, "")
	require.NoError(t, b.Set(ctx, "trip_1", []byte(`{"a":1}`)))
	require.NoError(t, b.Set(ctx, "current_trip", []byte(`{"b":2}`)))
	require.NoError(t, b.Detach())

	b = attach(t, dir, "")
	defer b.Detach()

	keys, err := b.Keys(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"current_trip", "trip_1"}, keys)

	got, err := b.Get(ctx, "trip_1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))
}
