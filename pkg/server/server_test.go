package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirany1/bench-report/pkg/models"
	"github.com/lirany1/bench-report/pkg/plot"
	"github.com/lirany1/bench-report/pkg/storage"
)

type stubRenderer struct {
	pages []string
}

func (r *stubRenderer) Render(name string, page plot.Page) (string, error) {
	r.pages = append(r.pages, name)
	return "<html>" + name + "</html>", nil
}

func testTask(uuid, createdAt string) *models.Task {
	w := &models.Workload{
		Name:                "Dummy.sleep",
		Runner:              map[string]interface{}{"type": "constant", "times": 2},
		PassSLA:             true,
		TotalIterationCount: 2,
		StartTime:           1000,
		LoadDuration:        2,
		FullDuration:        3,
	}
	for i := 0; i < 2; i++ {
		w.Data = append(w.Data, models.Iteration{
			Timestamp: float64(1000 + i),
			Duration:  1.5,
		})
	}
	return &models.Task{
		UUID:      uuid,
		Title:     "task " + uuid,
		CreatedAt: createdAt,
		Subtasks:  []*models.Subtask{{Title: "sub", Workloads: []*models.Workload{w}}},
	}
}

func newTestServer(t *testing.T) (*Server, *stubRenderer) {
	t.Helper()
	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.SaveTask(testTask("t1", "2024-01-01T00:00:00Z")))
	require.NoError(t, db.SaveTask(testTask("t2", "2024-01-02T00:00:00Z")))

	reports := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(reports, "report.html"), []byte("static"), 0644))

	r := &stubRenderer{}
	f := &plot.Formatter{Version: "test", Renderer: r}
	s := NewServer(&Config{ReportsDir: reports, HistoryLimit: 10}, db, f)
	return s, r
}

func do(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestListTasks(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "GET", "/api/tasks")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Tasks []storage.TaskRecord `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 2)
	assert.Equal(t, "t2", body.Tasks[0].UUID)

	rec = do(s, "GET", "/api/tasks?limit=1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Tasks, 1)

	rec = do(s, "GET", "/api/tasks?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTask(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "GET", "/api/tasks/t1")
	require.Equal(t, http.StatusOK, rec.Code)
	var task models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, "task t1", task.Title)

	rec = do(s, "GET", "/api/tasks/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteTask(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "DELETE", "/api/tasks/t1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(s, "GET", "/api/tasks/t1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(s, "DELETE", "/api/tasks/t1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportData(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "GET", "/api/tasks/t1/report")
	require.Equal(t, http.StatusOK, rec.Code)

	var report plot.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "test", report.Version)
	require.Len(t, report.Workloads, 1)
	assert.Equal(t, "Dummy", report.Workloads[0].Class)
	assert.Equal(t, "sleep", report.Workloads[0].Method)
	assert.Contains(t, report.Source, `"title": "task t1"`)
}

func TestTrendsData(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "GET", "/api/trends")
	require.Equal(t, http.StatusOK, rec.Code)
	var series []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	require.Len(t, series, 1)
	assert.Equal(t, float64(2), series[0]["length"])

	rec = do(s, "GET", "/api/trends?task=t1")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &series))
	assert.Equal(t, float64(1), series[0]["length"])

	rec = do(s, "GET", "/api/trends?task=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPages(t *testing.T) {
	s, r := newTestServer(t)

	rec := do(s, "GET", "/tasks/t1/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<html>task/report.html</html>", rec.Body.String())

	rec = do(s, "GET", "/trends")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>task/trends.html</html>", rec.Body.String())

	assert.Equal(t, []string{plot.ReportTemplate, plot.TrendsTemplate}, r.pages)
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.ReportsRendered.WithLabelValues("report")))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.ReportsRendered.WithLabelValues("trends")))
}

func TestStaticFiles(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(s, "GET", "/report.html")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "static", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	do(s, "GET", "/api/tasks")
	do(s, "GET", "/api/tasks/missing")

	assert.Equal(t, float64(1), testutil.ToFloat64(
		s.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/tasks", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		s.metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/tasks/{uuid}", "404")))

	rec := do(s, "GET", "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bench_report_http_requests_total"))
}
