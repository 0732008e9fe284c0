package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"HOME_CURRENCY", "LANGUAGE", "LOG_LEVEL", "SYNC_STRATEGY"} {
		t.Setenv(EnvPrefix+"_"+k, "")
		os.Unsetenv(EnvPrefix + "_" + k)
	}
}

func TestLoadCreatesDefaults(t *testing.T) {
	clearEnv(t)
	dir := filepath.Join(t.TempDir(), "cfg")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "home_currency: EUR")
	assert.NotContains(t, string(data), "data_dir")
}

func TestLoadReadsFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(
		"backend: sqlite\ndata_dir: /trips\nsync_strategy: on_close\nhome_currency: nok\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/trips", cfg.DataDir)
	assert.Equal(t, types.SyncOnClose, cfg.SyncStrategy)
	assert.Equal(t, "NOK", cfg.HomeCurrency)
	assert.Equal(t, "en", cfg.Language, "missing keys keep their defaults")

	assert.Equal(t, types.Config{Backend: "sqlite", DataDir: "/data", SyncStrategy: types.SyncOnClose}, cfg.Store("/data"))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("language: en\nlog_level: info\n"), 0o644))
	t.Setenv("WANDERPLAN_LANGUAGE", "cs")
	t.Setenv("WANDERPLAN_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "cs", cfg.Language)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"unknown backend", "backend: mongo\n", types.ErrBackendUnknown},
		{"unknown sync strategy", "sync_strategy: hourly\n", types.ErrSyncStrategyUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(tt.yaml), 0o644))
			_, err := Load(dir)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSetDataDir(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("home_currency: CZK\n"), 0o644))

	require.NoError(t, SetDataDir(dir, "/srv/trips"))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/trips", cfg.DataDir)
	assert.Equal(t, "CZK", cfg.HomeCurrency)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("WANDERPLAN_HOME_CURRENCY=JPY\n"), 0o644))

	require.NoError(t, LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("WANDERPLAN_HOME_CURRENCY") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "JPY", cfg.HomeCurrency)

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")), "a missing file is fine")
}
