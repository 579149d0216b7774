package api

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Sanchay-T/NER/internal/report"
)

type startBatchRequest struct {
	Root      string `json:"root"`
	OutputDir string `json:"output_dir,omitempty"`
}

func (s *Server) handleStartBatch(w http.ResponseWriter, r *http.Request) {
	var req startBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Root == "" {
		jsonError(w, "root is required", http.StatusBadRequest)
		return
	}
	info, err := os.Stat(req.Root)
	if err != nil || !info.IsDir() {
		jsonError(w, "root is not a readable directory", http.StatusBadRequest)
		return
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = s.cfg.OutputDir
	}

	now := time.Now()
	run := &Run{
		ID:        uuid.NewString(),
		Root:      req.Root,
		Status:    RunQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.runs.Put(run)

	go s.executeRun(run, outputDir)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":   run.ID,
		"status":   run.Status,
		"poll_url": "/api/batch/" + run.ID,
	})
}

// executeRun drives one batch in the background. The HTTP request that
// started it has already returned; outcomes land on the run record.
func (s *Server) executeRun(run *Run, outputDir string) {
	run.SetStatus(RunRunning)

	result, err := s.orchestrator.Run(context.Background(), run.Root)
	if err != nil {
		s.log.Error("batch run failed", "run_id", run.ID, "error", err)
		run.Fail(err.Error())
		return
	}

	summary := report.Summarize(result.Documents, result.Skipped)
	if outputDir != "" {
		dir := filepath.Join(outputDir, run.ID)
		if err := report.WriteAll(dir, result, summary); err != nil {
			s.log.Error("artifact write failed", "run_id", run.ID, "dir", dir, "error", err)
			run.Fail("write artifacts: " + err.Error())
			return
		}
	}
	run.Complete(summary)
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run := s.runs.Get(runID)
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}

func (s *Server) handleLLMStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "llm stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"model": s.cfg.OpenAIModel,
		"stats": s.stats.Snapshot(),
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
