package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"content_repurposer/generator"
	"content_repurposer/logger"
	"content_repurposer/publisher"
	"content_repurposer/workflow"
)

const maxBodyBytes = 4 << 20

// Runner executes one workflow run. *workflow.Engine implements it.
type Runner interface {
	Run(ctx context.Context, transcript string, metadata map[string]any) (workflow.Bundle, error)
}

type Server struct {
	runner     Runner
	pub        *publisher.Publisher
	store      *runStore
	runTimeout time.Duration
	log        *logger.Logger
}

// runStore keeps finished runs in memory; nothing is persisted.
type runStore struct {
	mu   sync.Mutex
	runs map[string]runResp
}

func newStore() *runStore {
	return &runStore{runs: make(map[string]runResp)}
}

func (s *runStore) set(id string, run runResp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[id] = run
}

func (s *runStore) get(id string) (runResp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	return run, ok
}

func New(runner Runner, pub *publisher.Publisher, runTimeout time.Duration, log *logger.Logger) (*Server, error) {
	if runner == nil {
		return nil, errors.New("workflow runner required")
	}
	if pub == nil {
		pub = publisher.New(log)
	}
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		runner:     runner,
		pub:        pub,
		store:      newStore(),
		runTimeout: runTimeout,
		log:        log.With("component", "server"),
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.handleRunCreate)
	mux.HandleFunc("/api/runs/", s.handleRunByID)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return s.logMiddleware(mux)
}

// --- Handlers ---

type runCreateReq struct {
	Transcript string         `json:"transcript"`
	Metadata   map[string]any `json:"metadata"`
}

type runResp struct {
	RunID    string              `json:"run_id"`
	Status   string              `json:"status"`
	Failed   []string            `json:"failed,omitempty"`
	Bundle   workflow.Bundle     `json:"bundle"`
	Payloads []publisher.Payload `json:"payloads"`
}

type errorResp struct {
	Error string `json:"error"`
}

func (s *Server) handleRunCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResp{Error: "method not allowed"})
		return
	}
	var req runCreateReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	if strings.TrimSpace(req.Transcript) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp{Error: "transcript is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.runTimeout)
	defer cancel()
	bundle, err := s.runner.Run(ctx, req.Transcript, req.Metadata)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, generator.ErrUpstream) {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, errorResp{Error: err.Error()})
		return
	}
	payloads, err := s.pub.Render(bundle)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}

	resp := runResp{RunID: bundle.RunID, Status: "complete", Bundle: bundle, Payloads: payloads}
	if !bundle.Complete() {
		resp.Status = "partial"
		for _, p := range bundle.Failed() {
			resp.Failed = append(resp.Failed, p.String())
		}
	}
	s.store.set(bundle.RunID, resp)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleRunByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if id == "" {
		writeJSON(w, http.StatusNotFound, errorResp{Error: "run id required"})
		return
	}
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorResp{Error: "method not allowed"})
		return
	}
	run, ok := s.store.get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResp{Error: "run not found"})
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		path := r.URL.Path
		if path == "" {
			path = "/"
		}
		s.log.Info("http_request",
			"method", r.Method,
			"path", path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
