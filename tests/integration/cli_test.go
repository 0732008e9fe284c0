package integration

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain builds the wanderplan binary once before running tests.
func TestMain(m *testing.M) {
	projectRoot, err := FindProjectRoot()
	if err != nil {
		buildErr = err
		os.Exit(1)
	}

	tmpDir, err := os.MkdirTemp("", "wanderplan-test-*")
	if err != nil {
		buildErr = err
		os.Exit(1)
	}
	wanderplanBin = filepath.Join(tmpDir, "wanderplan")

	cmd := exec.Command("go", "build", "-o", wanderplanBin, "./cmd/wanderplan")
	cmd.Dir = projectRoot
	if output, err := cmd.CombinedOutput(); err != nil {
		buildErr = &BuildError{Err: err, Output: string(output)}
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

type tripMeta struct {
	ID          string  `json:"id"`
	Destination string  `json:"destination"`
	Cost        float64 `json:"cost"`
	Currency    string  `json:"currency"`
}

type record struct {
	Trip struct {
		ID          string `json:"id"`
		Destination string `json:"destination"`
	} `json:"trip"`
	Resources struct {
		Tasks []struct {
			ID   string `json:"id"`
			Text string `json:"text"`
		} `json:"tasks"`
	} `json:"resources"`
}

func TestInitAndVersion(t *testing.T) {
	env := NewTestEnv(t)

	result := env.MustRun("init")
	assert.Contains(t, result.Stdout, "wanderplan initialized")
	assert.FileExists(t, filepath.Join(env.Config, "config.yaml"))
	assert.FileExists(t, filepath.Join(env.DataDir, "store.jsonl"))

	result = env.MustRun("version")
	assert.True(t, strings.HasPrefix(result.Stdout, "wanderplan v"))
}

func TestTripLifecycle(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("init")

	created := ParseJSON[record](t, env.MustRun("--json", "create", "--destination", "Lisbon", "--budget", "900", "--currency", "eur").Stdout)
	id := created.Trip.ID
	require.NotEmpty(t, id)

	list := ParseJSON[[]tripMeta](t, env.MustRun("--json", "list").Stdout)
	require.Len(t, list, 1)
	assert.Equal(t, "Lisbon", list[0].Destination)
	assert.Equal(t, 900.0, list[0].Cost)
	assert.Equal(t, "EUR", list[0].Currency)

	resp := env.WriteFile("resp.json", `{"adds":[{"text":"Buy tram pass"},{"text":"Book fado show"}]}`)
	review := env.MustRun("suggest", id, resp, "--area", "tasks")
	assert.Contains(t, review.Stdout, "tasks (add): 2 adds")

	second := env.Run("suggest", id, resp, "--area", "tasks")
	assert.Equal(t, 1, second.ExitCode)

	// Ignore the second proposal by its review key.
	var key string
	for _, line := range strings.Split(review.Stdout, "\n") {
		if strings.Contains(line, "Book fado show") {
			fields := strings.Fields(line)
			key = fields[2]
		}
	}
	require.NotEmpty(t, key)
	env.MustRun("toggle", id, "adds", key)
	env.MustRun("commit", id)

	shown := ParseJSON[struct {
		Record record `json:"record"`
	}](t, env.MustRun("--json", "show", id).Stdout)
	require.Len(t, shown.Record.Resources.Tasks, 1)
	assert.Equal(t, "Buy tram pass", shown.Record.Resources.Tasks[0].Text)

	assert.Equal(t, 1, env.Run("commit", id).ExitCode)

	archive := filepath.Join(env.TempDir, "trip.zip")
	env.MustRun("export", id, archive)
	env.MustRun("delete", id)
	assert.Equal(t, 1, env.Run("show", id).ExitCode)

	imported := ParseJSON[record](t, env.MustRun("--json", "import", archive).Stdout)
	assert.Equal(t, id, imported.Trip.ID)
	assert.Equal(t, "Lisbon", imported.Trip.Destination)

	lines := ReadJSONLFile[KVLine](t, filepath.Join(env.DataDir, "store.jsonl"))
	keys := make([]string, 0, len(lines))
	for _, l := range lines {
		keys = append(keys, l.Key)
	}
	assert.Equal(t, []string{"trip_" + id, "trips_index"}, keys)
}

func TestLegacyImport(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("init")

	legacy := env.WriteFile("old.json", `{"tripDetails":{"destination":"Oslo","budget":300},"tasks":[{"id":1,"text":"Passport"}]}`)
	rec := ParseJSON[record](t, env.MustRun("--json", "import", legacy).Stdout)
	assert.Equal(t, "Oslo", rec.Trip.Destination)
	require.Len(t, rec.Resources.Tasks, 1)
	assert.Equal(t, "1", rec.Resources.Tasks[0].ID)
}

func TestUserErrorsExitOne(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("init")

	for _, args := range [][]string{
		{"show", "nope"},
		{"create"},
		{"unknown-command"},
		{"toggle", "nope", "adds", "x"},
	} {
		result := env.Run(args...)
		assert.Equal(t, 1, result.ExitCode, "args %v: %s", args, result.Stderr)
	}
}
