package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Robertosoftware/rentify-nl/internal/core/port"
	"github.com/Robertosoftware/rentify-nl/internal/core/usecase"
)

type noopPortLogger struct{}

func (noopPortLogger) Info(msg string, fields port.Fields)             {}
func (noopPortLogger) Warn(msg string, fields port.Fields)             {}
func (noopPortLogger) Error(msg string, err error, fields port.Fields) {}
func (noopPortLogger) Debug(msg string, fields port.Fields)            {}
func (noopPortLogger) WithFields(fields port.Fields) port.LoggerPort   { return noopPortLogger{} }

func newTestServer(state *RunState) *Server {
	pipeline := usecase.NewRunPipelineUseCase(
		nil, nil, 1,
		usecase.NewIngestListingsUseCase(nil),
		nil, nil, nil,
	)
	return NewServer(":0", pipeline, state, noopPortLogger{})
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&RunState{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStatusReportsLastRun(t *testing.T) {
	state := &RunState{}
	state.Finish(usecase.RunSummary{PairsTotal: 4, MatchesCreated: 2}, nil)

	srv := newTestServer(state)
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	var resp statusResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Running {
		t.Error("no run should be in flight")
	}
	if resp.LastRun == nil || resp.LastRun.PairsTotal != 4 {
		t.Fatalf("last run missing: %+v", resp)
	}
}

func TestTriggerRunConflictsWhileRunning(t *testing.T) {
	state := &RunState{}
	if !state.TryStart() {
		t.Fatal("fresh state must allow a run")
	}

	srv := newTestServer(state)
	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestTriggerRunStartsPipeline(t *testing.T) {
	state := &RunState{}
	srv := newTestServer(state)

	req := httptest.NewRequest(http.MethodPost, "/runs", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	// An empty pipeline finishes almost immediately.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if running, last, _ := state.snapshot(); !running && last != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("run never finished")
}
