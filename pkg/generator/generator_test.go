package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirany1/bench-report/pkg/config"
	"github.com/lirany1/bench-report/pkg/storage"
)

const taskJSON = `{
  "uuid": "task-1",
  "title": "nightly",
  "subtasks": [{
    "title": "sleep",
    "workloads": [{
      "name": "Dummy.sleep",
      "runner": {"type": "constant", "times": 2},
      "pass_sla": true,
      "start_time": 1000,
      "load_duration": 2,
      "full_duration": 3,
      "data": [
        {"timestamp": 1000, "duration": 1.5, "idle_duration": 0, "error": [], "atomic_actions": []},
        {"timestamp": 1001, "duration": 1.7, "idle_duration": 0, "error": [], "atomic_actions": []}
      ]
    }]
  }]
}`

func setup(t *testing.T) (*Generator, *storage.Database, string) {
	t.Helper()
	dir := t.TempDir()

	assets := filepath.Join(dir, "assets")
	require.NoError(t, os.MkdirAll(assets, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "d3.min.js"), []byte("d3"), 0644))

	db, err := storage.NewDatabase(filepath.Join(dir, "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.NewConfig()
	cfg.AssetsDir = assets
	cfg.ExportFormats = []string{"html", "json"}

	g, err := NewGenerator(cfg, "0.1.0", db)
	require.NoError(t, err)

	taskFile := filepath.Join(dir, "task.json")
	require.NoError(t, os.WriteFile(taskFile, []byte(taskJSON), 0644))
	return g, db, taskFile
}

func TestImport(t *testing.T) {
	g, db, taskFile := setup(t)

	tasks, err := g.Import([]string{taskFile})
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	stored, err := db.GetTask("task-1")
	require.NoError(t, err)
	assert.Equal(t, "nightly", stored.Title)
}

func TestImport_NoStore(t *testing.T) {
	g, err := NewGenerator(config.NewConfig(), "0.1.0", nil)
	require.NoError(t, err)
	_, err = g.Import([]string{"task.json"})
	assert.Error(t, err)
}

func TestResolveTasks(t *testing.T) {
	g, _, taskFile := setup(t)

	_, err := g.ResolveTasks([]string{"task-1"})
	assert.ErrorIs(t, err, storage.ErrTaskNotFound)

	_, err = g.Import([]string{taskFile})
	require.NoError(t, err)

	tasks, err := g.ResolveTasks([]string{taskFile, "task-1"})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "task-1", tasks[1].UUID)

	_, err = g.ResolveTasks(nil)
	assert.Error(t, err)
}

func TestGenerateReport(t *testing.T) {
	g, _, taskFile := setup(t)
	tasks, err := g.ResolveTasks([]string{taskFile})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "out")
	path, err := g.GenerateReport(tasks, out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, ReportFile), path)

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Benchmark Task Report")
	assert.Contains(t, string(html), `"cls":"Dummy"`)

	assert.FileExists(t, filepath.Join(out, "report.json"))
	assert.FileExists(t, filepath.Join(out, LibsDir, "d3.min.js"))
}

func TestGenerateTrends(t *testing.T) {
	g, _, taskFile := setup(t)
	tasks, err := g.ResolveTasks([]string{taskFile, taskFile})
	require.NoError(t, err)

	out := t.TempDir()
	path, err := g.GenerateTrends(tasks, out)
	require.NoError(t, err)

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Benchmark Trends Report")
	assert.Contains(t, string(html), `"length":2`)
}

func TestExport(t *testing.T) {
	g, _, taskFile := setup(t)
	tasks, err := g.ResolveTasks([]string{taskFile})
	require.NoError(t, err)

	path, err := g.Export(tasks, t.TempDir(), "yaml")
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = g.Export(tasks, t.TempDir(), "pdf")
	assert.Error(t, err)
}
