package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/lirany1/bench-report/pkg/logger"
	"github.com/lirany1/bench-report/pkg/models"
	"github.com/lirany1/bench-report/pkg/plot"
	"github.com/lirany1/bench-report/pkg/storage"
)

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	ReportsDir   string
	HistoryLimit int
}

// Store is the task history the server reads from
type Store interface {
	ListTasks(limit int) ([]storage.TaskRecord, error)
	GetTask(uuid string) (*models.Task, error)
	GetTasks(uuids []string) ([]*models.Task, error)
	DeleteTask(uuid string) error
}

// Server provides live report viewing over the task history
type Server struct {
	config    *Config
	store     Store
	formatter *plot.Formatter
	metrics   *Metrics
	router    *mux.Router
}

// NewServer creates a new report server
func NewServer(cfg *Config, store Store, formatter *plot.Formatter) *Server {
	s := &Server{
		config:    cfg,
		store:     store,
		formatter: formatter,
		metrics:   NewMetrics(),
		router:    mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// Handler returns the server's HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server running at http://%s", addr)
		logger.Infof("Press Ctrl+C to stop")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) setupRoutes() {
	s.router.Use(s.metrics.Middleware)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	// API endpoints
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tasks", s.handleListTasks).Methods("GET")
	api.HandleFunc("/tasks/{uuid}", s.handleGetTask).Methods("GET")
	api.HandleFunc("/tasks/{uuid}", s.handleDeleteTask).Methods("DELETE")
	api.HandleFunc("/tasks/{uuid}/report", s.handleReportData).Methods("GET")
	api.HandleFunc("/trends", s.handleTrendsData).Methods("GET")

	// Rendered pages
	s.router.HandleFunc("/tasks/{uuid}/report", s.handleReportPage).Methods("GET")
	s.router.HandleFunc("/trends", s.handleTrendsPage).Methods("GET")

	// Generated report files
	if s.config.ReportsDir != "" {
		fs := http.FileServer(http.Dir(s.config.ReportsDir))
		s.router.PathPrefix("/").Handler(fs)
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit := s.config.HistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	tasks, err := s.store.ListTasks(limit)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tasks": tasks})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(mux.Vars(r)["uuid"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]
	if err := s.store.DeleteTask(uuid); err != nil {
		s.storeError(w, err)
		return
	}
	logger.Infof("Deleted task %s", uuid)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReportData(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(mux.Vars(r)["uuid"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	report, err := s.formatter.BuildReport([]*models.Task{task})
	if err != nil {
		s.renderError(w, "report", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTrendsData(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.trendTasks(r)
	if err != nil {
		s.storeError(w, err)
		return
	}
	series, err := s.formatter.BuildTrends(tasks)
	if err != nil {
		s.renderError(w, "trends", err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleReportPage(w http.ResponseWriter, r *http.Request) {
	task, err := s.store.GetTask(mux.Vars(r)["uuid"])
	if err != nil {
		s.storeError(w, err)
		return
	}
	html, err := s.formatter.Plot([]*models.Task{task}, false)
	if err != nil {
		s.renderError(w, "report", err)
		return
	}
	s.metrics.ReportsRendered.WithLabelValues("report").Inc()
	writeHTML(w, html)
}

func (s *Server) handleTrendsPage(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.trendTasks(r)
	if err != nil {
		s.storeError(w, err)
		return
	}
	html, err := s.formatter.Trends(tasks)
	if err != nil {
		s.renderError(w, "trends", err)
		return
	}
	s.metrics.ReportsRendered.WithLabelValues("trends").Inc()
	writeHTML(w, html)
}

// trendTasks loads the tasks named by ?task= or the recent history
func (s *Server) trendTasks(r *http.Request) ([]*models.Task, error) {
	uuids := r.URL.Query()["task"]
	if len(uuids) == 0 {
		records, err := s.store.ListTasks(s.config.HistoryLimit)
		if err != nil {
			return nil, err
		}
		// oldest first
		for i := len(records) - 1; i >= 0; i-- {
			uuids = append(uuids, records[i].UUID)
		}
	}
	return s.store.GetTasks(uuids)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	logger.Errorf("Store error: %v", err)
	writeError(w, http.StatusInternalServerError, err)
}

func (s *Server) renderError(w http.ResponseWriter, kind string, err error) {
	s.metrics.RenderFailures.WithLabelValues(kind).Inc()
	logger.Errorf("Failed to render %s: %v", kind, err)
	writeError(w, http.StatusInternalServerError, err)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warnf("Failed to write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}
