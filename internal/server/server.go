// Package server exposes the search engine over HTTP: submit a search,
// poll or stream its progress, and cancel it.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/copyleftdev/KILN/internal/config"
	"github.com/copyleftdev/KILN/internal/logging"
	"github.com/copyleftdev/KILN/internal/metrics"
	"github.com/copyleftdev/KILN/internal/optimization"
	"github.com/copyleftdev/KILN/internal/optimization/anneal"
	"github.com/copyleftdev/KILN/internal/optimization/multistart"
	"github.com/copyleftdev/KILN/internal/optimization/restart"
)

// Logger is the logging interface the server depends on. It keeps the
// server decoupled from a concrete logger implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// Job statuses. A job moves from running to exactly one terminal status.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// searchJob tracks one submitted search. Mutable fields are protected by
// the server's jobs mutex.
type searchJob struct {
	id        string
	status    string
	problem   string
	startTime time.Time
	endTime   *time.Time

	search  *multistart.TimedParallelMultistarter[RealVector]
	tracker *optimization.ProgressTracker[RealVector]

	result *optimization.ResultPair[RealVector]
	err    error
}

// Server manages search jobs behind the HTTP API.
type Server struct {
	cfg    *config.Config
	logger Logger
	engine *metrics.Engine

	upgrader websocket.Upgrader

	jobsMu sync.RWMutex
	jobs   map[string]*searchJob
}

// NewServer creates a server. engine may be nil to disable metrics.
func NewServer(cfg *config.Config, logger Logger, engine *metrics.Engine) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		jobs: make(map[string]*searchJob),
	}
}

// RegisterRoutes mounts the API on the given router.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
		r.Get("/watch/{id}", s.handleWatch)
	})
}

// optimizeRequest is the body of POST /api/v1/optimize.
type optimizeRequest struct {
	// Problem selects the benchmark objective: "sphere" or "rastrigin".
	Problem string `json:"problem"`
	// Dimensions is the candidate vector length. Defaults to 10.
	Dimensions int `json:"dimensions"`
	// TimeUnits is the search budget in configured time units.
	TimeUnits int `json:"time_units"`
	// Workers overrides the configured parallel worker count when positive.
	Workers int `json:"workers"`
	// Sigma is the Gaussian mutation scale. Defaults to 0.5.
	Sigma float64 `json:"sigma"`
}

func (s *Server) buildProblem(name string) (optimization.Problem[RealVector], error) {
	switch name {
	case "sphere", "":
		return SphereProblem{}, nil
	case "rastrigin":
		return RastriginProblem{}, nil
	default:
		return nil, fmt.Errorf("unknown problem %q", name)
	}
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	problem, err := s.buildProblem(req.Problem)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Dimensions <= 0 {
		req.Dimensions = 10
	}
	if req.Sigma <= 0 {
		req.Sigma = 0.5
	}
	if req.TimeUnits <= 0 {
		req.TimeUnits = 1
	}
	if req.TimeUnits > s.cfg.Search.MaxTimeUnits {
		s.respondError(w, http.StatusBadRequest,
			fmt.Sprintf("time_units exceeds maximum %d", s.cfg.Search.MaxTimeUnits))
		return
	}
	workers := req.Workers
	if workers <= 0 {
		workers = s.cfg.Search.Workers
	}

	annealer, err := anneal.New(anneal.Config[RealVector]{
		Problem:     problem,
		Mutator:     NewGaussianMutator(req.Sigma),
		Initializer: NewUniformInitializer(req.Dimensions, -5.12, 5.12),
	})
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lengths, err := restart.NewParallelVariableAnnealingLength(s.cfg.Search.RestartBase, workers)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := []multistart.Option[RealVector]{}
	if l, ok := s.logger.(*logging.Logger); ok {
		opts = append(opts, multistart.WithLogger[RealVector](l))
	}
	if s.engine != nil {
		opts = append(opts, multistart.WithMetrics[RealVector](s.engine))
	}
	search, err := multistart.NewTimedParallelWithSchedules[RealVector](
		annealer, lengths, s.cfg.Search.TimeUnit, opts...)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	job := &searchJob{
		id:        fmt.Sprintf("search_%d", time.Now().UnixNano()),
		status:    StatusRunning,
		problem:   req.Problem,
		startTime: time.Now(),
		search:    search,
		tracker:   search.Tracker(),
	}
	if job.problem == "" {
		job.problem = "sphere"
	}

	s.jobsMu.Lock()
	s.jobs[job.id] = job
	s.jobsMu.Unlock()

	s.logger.Info("search started", map[string]interface{}{
		"search_id":  job.id,
		"problem":    job.problem,
		"dimensions": req.Dimensions,
		"time_units": req.TimeUnits,
		"workers":    workers,
	})

	go s.runSearch(job, req.TimeUnits)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"search_id": job.id,
		"status":    job.status,
	})
}

// runSearch drives the timed search to completion and records the outcome.
func (s *Server) runSearch(job *searchJob, timeUnits int) {
	result, err := job.search.Optimize(timeUnits)
	_ = job.search.Close()

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	now := time.Now()
	job.endTime = &now
	job.result = result
	job.err = err

	switch {
	case job.status == StatusCancelled:
		// Cancellation already recorded; keep the terminal status.
	case err != nil:
		job.status = StatusFailed
		s.logger.Error("search failed", map[string]interface{}{
			"search_id": job.id,
			"error":     err.Error(),
		})
	default:
		job.status = StatusCompleted
		fields := map[string]interface{}{
			"search_id": job.id,
			"restarts":  job.search.Restarts(),
		}
		if result != nil {
			fields["best_cost"] = result.Cost()
			fields["optimal"] = result.Optimal()
		}
		s.logger.Info("search completed", fields)
	}
}

// jobSnapshot is the JSON view of a job returned by status and watch.
type jobSnapshot struct {
	SearchID   string     `json:"search_id"`
	Status     string     `json:"status"`
	Problem    string     `json:"problem"`
	StartTime  time.Time  `json:"start_time"`
	EndTime    *time.Time `json:"end_time,omitempty"`
	ElapsedMS  int64      `json:"elapsed_ms"`
	BestCost   *float64   `json:"best_cost,omitempty"`
	Best       RealVector `json:"best,omitempty"`
	Optimal    bool       `json:"optimal"`
	Snapshots  int        `json:"snapshots"`
	Iterations int        `json:"iterations"`
	Error      string     `json:"error,omitempty"`
}

func (s *Server) snapshot(job *searchJob) jobSnapshot {
	snap := jobSnapshot{
		SearchID:  job.id,
		Status:    job.status,
		Problem:   job.problem,
		StartTime: job.startTime,
		EndTime:   job.endTime,
		ElapsedMS: job.tracker.Elapsed().Milliseconds(),
		Optimal:   job.tracker.FoundOptimal(),
		Snapshots: len(job.search.SearchHistory()),
	}
	if best := job.tracker.Best(); best != nil {
		cost := best.Cost()
		snap.BestCost = &cost
		snap.Best = best.Candidate()
	}
	if job.status != StatusRunning {
		snap.Iterations = job.search.TotalRunLength()
	}
	if job.err != nil {
		snap.Error = job.err.Error()
	}
	return snap
}

func (s *Server) lookup(id string) (*searchJob, bool) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	job, ok := s.jobs[id]
	return job, ok
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.lookup(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "search not found")
		return
	}

	s.jobsMu.RLock()
	snap := s.snapshot(job)
	s.jobsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(snap)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.lookup(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "search not found")
		return
	}

	s.jobsMu.Lock()
	if job.status != StatusRunning {
		status := job.status
		s.jobsMu.Unlock()
		s.respondError(w, http.StatusConflict,
			fmt.Sprintf("cannot cancel search with status %s", status))
		return
	}
	job.status = StatusCancelled
	s.jobsMu.Unlock()

	// The running workers observe the stop flag cooperatively; runSearch
	// records the final result without overwriting the cancelled status.
	job.tracker.RequestStop()

	s.logger.Info("search cancelled", map[string]interface{}{"search_id": id})

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"search_id": id,
		"status":    StatusCancelled,
	})
}

// handleWatch streams job snapshots over a websocket, one per time unit,
// until the job reaches a terminal status or the client disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.lookup(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "search not found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", map[string]interface{}{
			"search_id": id,
			"error":     err.Error(),
		})
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.cfg.Search.TimeUnit)
	defer ticker.Stop()

	for {
		s.jobsMu.RLock()
		snap := s.snapshot(job)
		s.jobsMu.RUnlock()

		if err := conn.WriteJSON(snap); err != nil {
			return
		}
		if snap.Status != StatusRunning {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, snap.Status))
			return
		}
		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Error("request error", map[string]interface{}{
		"status":  status,
		"message": message,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Close stops all running searches. It does not wait for workers to finish.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	for _, job := range s.jobs {
		if job.status == StatusRunning {
			job.status = StatusCancelled
			job.tracker.RequestStop()
		}
	}
	return nil
}
