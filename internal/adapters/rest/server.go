// Package rest exposes a small operational surface for the scraper
// worker: health, run status, and manual run triggering.
package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Robertosoftware/rentify-nl/internal/contextkeys"
	"github.com/Robertosoftware/rentify-nl/internal/core/port"
	"github.com/Robertosoftware/rentify-nl/internal/core/usecase"
)

// RunState tracks whether a pipeline run is in flight and remembers the
// last summary. At most one run executes at a time.
type RunState struct {
	mu      sync.Mutex
	running bool
	last    *usecase.RunSummary
	lastErr error
}

// TryStart claims the run slot. Returns false when a run is in flight.
func (s *RunState) TryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

// Finish releases the run slot and records the outcome.
func (s *RunState) Finish(summary usecase.RunSummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.last = &summary
	s.lastErr = err
}

func (s *RunState) snapshot() (bool, *usecase.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running, s.last, s.lastErr
}

type Server struct {
	httpServer *http.Server
	logger     port.LoggerPort

	pipeline *usecase.RunPipelineUseCase
	state    *RunState
}

func NewServer(
	addr string,
	pipeline *usecase.RunPipelineUseCase,
	state *RunState,
	baseLogger port.LoggerPort,
) *Server {
	s := &Server{
		logger:   baseLogger,
		pipeline: pipeline,
		state:    state,
	}

	r := chi.NewRouter()
	r.Use(LoggerMiddleware(baseLogger), middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/status", s.handleStatus)
	r.Post("/runs", s.handleTriggerRun)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}
	return s
}

func (s *Server) Start() error {
	s.logger.Info("Starting REST server", port.Fields{"address": s.httpServer.Addr})
	return s.httpServer.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST server...", nil)
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Running    bool                `json:"running"`
	LastRun    *usecase.RunSummary `json:"last_run,omitempty"`
	LastRunErr string              `json:"last_run_error,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	running, last, lastErr := s.state.snapshot()
	resp := statusResponse{Running: running, LastRun: last}
	if lastErr != nil {
		resp.LastRunErr = lastErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTriggerRun kicks off a pipeline run in the background. A second
// trigger while one is running answers 409.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if !s.state.TryStart() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}

	logger := contextkeys.LoggerFromContext(r.Context())
	runCtx := contextkeys.ContextWithLogger(context.Background(), logger)

	go func() {
		summary, err := s.pipeline.Execute(runCtx)
		s.state.Finish(summary, err)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":    "started",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
