package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/valve"
	"go.uber.org/zap"

	"github.com/vaultops/backup-janitor/pkg/janitor"
)

// ErrUnknownJob indicates a trigger for a job name that was never registered.
var ErrUnknownJob = errors.New("unknown job")

// JobFunc runs one lifecycle job to completion.
type JobFunc func(ctx context.Context) (*janitor.Summary, error)

// RunStatus is the recorded outcome of a job's most recent run.
type RunStatus struct {
	Name       string           `json:"name"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Error      string           `json:"error,omitempty"`
	Summary    *janitor.Summary `json:"summary,omitempty"`
}

// Server defines parameters for running the backup-janitor status HTTP server.
// It exposes the registered jobs, their last run outcomes and a manual
// trigger endpoint.
type Server struct {
	Addr        string
	router      *chi.Mux
	useUnixSock bool

	jobs map[string]JobFunc

	mu       sync.RWMutex
	lastRuns map[string]RunStatus

	// signal chan use for testing.
	testSignalCh chan os.Signal

	logger *zap.Logger
}

// New creates new server instance.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		jobs:     make(map[string]JobFunc),
		lastRuns: make(map[string]RunStatus),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.router = chi.NewRouter()

	if s.logger == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		s.logger = l
	}

	s.setupRoutes()
	s.useUnixSock = strings.HasPrefix(s.Addr, "unix://")
	s.Addr = strings.TrimPrefix(s.Addr, "unix://")

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.Healthz)

	s.router.Route("/jobs", func(r chi.Router) {
		r.Get("/", s.ListJobs)
		r.Post("/{name}/run", s.TriggerJob)
	})
}

// RunJob runs a registered job by name and records its outcome.
func (s *Server) RunJob(ctx context.Context, name string) (*janitor.Summary, error) {
	job, ok := s.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownJob)
	}

	status := RunStatus{Name: name, StartedAt: time.Now().UTC()}
	sum, err := job(ctx)
	status.FinishedAt = time.Now().UTC()
	status.Summary = sum
	if err != nil {
		status.Error = err.Error()
		s.logger.Error("job run failed", zap.String("job", name), zap.Error(err))
	}

	s.mu.Lock()
	s.lastRuns[name] = status
	s.mu.Unlock()

	return sum, err
}

// Healthz reports liveness.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ListJobs returns every registered job with its last run outcome, if any.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	s.mu.RLock()
	out := make([]RunStatus, 0, len(names))
	for _, name := range names {
		status, ok := s.lastRuns[name]
		if !ok {
			status = RunStatus{Name: name}
		}
		out = append(out, status)
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		s.logger.Error("failed to encode job list", zap.Error(err))
	}
}

// TriggerJob runs one job immediately and returns its recorded outcome.
func (s *Server) TriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	_, err := s.RunJob(r.Context(), name)
	if errors.Is(err, ErrUnknownJob) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.mu.RLock()
	status := s.lastRuns[name]
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("failed to encode run status", zap.Error(err))
	}
}

func (s *Server) Run() error {
	// Graceful valve shut-off package to manage code preemption and shutdown signaling.
	valv := valve.New()
	baseCtx := valv.Context()

	srv := http.Server{Handler: chi.ServerBaseContext(baseCtx, s.router)}

	c := make(chan os.Signal, 1)
	if s.testSignalCh != nil {
		c = s.testSignalCh
	}
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-c
		s.logger.Info("shutting down...")

		if err := valv.Shutdown(20 * time.Second); err != nil {
			s.logger.Error("failed to shutdown valv")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown http server")
		}

		select {
		case <-time.After(21 * time.Second):
			s.logger.Error("not all connections done")
		case <-ctx.Done():
		}
	}()

	if s.useUnixSock {
		unixListener, err := net.Listen("unix", s.Addr)
		if err != nil {
			return err
		}
		return srv.Serve(unixListener)
	}

	srv.Addr = s.Addr
	return srv.ListenAndServe()
}
