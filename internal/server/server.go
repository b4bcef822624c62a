// Package server exposes canvas hosts over HTTP. Each mounted canvas is a
// session: clients post pointer, wheel and toolbar events to it and fetch
// renders of its current state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/msalah0e/flowcanvas/internal/canvas"
	"github.com/msalah0e/flowcanvas/internal/library"
	"github.com/msalah0e/flowcanvas/internal/render"
	"github.com/msalah0e/flowcanvas/internal/workflow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Library is the subset of the workflow library the server needs.
type Library interface {
	Get(ctx context.Context, id string) (workflow.Workflow, error)
	Put(ctx context.Context, w workflow.Workflow, source string) error
	List(ctx context.Context) ([]library.Entry, error)
}

// Options configure a Server.
type Options struct {
	Addr       string
	SessionTTL time.Duration
	// Canvas is the template for new sessions. Mount requests may override
	// ReadOnly, Interaction, Router and HideLabels.
	Canvas canvas.Options
	Render render.Options
	// Padding is used by fit requests that do not send their own.
	Padding float64
	// Library is optional. Without it, sessions mount inline workflows or
	// the demo only.
	Library Library
	Logger  *zap.Logger
}

// Server is the canvas HTTP server.
type Server struct {
	http.Server

	opts     Options
	log      *zap.Logger
	sessions *sessions
	started  time.Time
	requests atomic.Int64
}

// New builds a server and its routes. It does not listen.
func New(opts Options) *Server {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	if opts.Padding <= 0 {
		opts.Padding = 40
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		Server:   http.Server{Addr: opts.Addr, ReadHeaderTimeout: 10 * time.Second},
		opts:     opts,
		log:      log,
		sessions: newSessions(opts.SessionTTL),
		started:  time.Now(),
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)

	api.HandleFunc("/workflows", s.handleListWorkflows).Methods(http.MethodGet)
	api.HandleFunc("/workflows", s.handleImportWorkflow).Methods(http.MethodPost)
	api.HandleFunc("/workflows/{id}", s.handleExportWorkflow).Methods(http.MethodGet)

	api.HandleFunc("/sessions", s.handleMount).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}", s.handleSnapshot).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", s.handleUnmount).Methods(http.MethodDelete)
	api.HandleFunc("/sessions/{id}/pointer", s.handlePointer).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/wheel", s.handleWheel).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/zoom", s.handleZoom).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/pan", s.handlePan).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/fit", s.handleFit).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/batch", s.handleBatch).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/select", s.handleSelect).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/move", s.handleMove).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/connect", s.handleConnect).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/save", s.handleSave).Methods(http.MethodPost)
	api.HandleFunc("/sessions/{id}/workflow", s.handleSessionWorkflow).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/workflow", s.handleReplaceWorkflow).Methods(http.MethodPut)
	api.HandleFunc("/sessions/{id}/render", s.handleRender).Methods(http.MethodGet)

	router.HandleFunc("/view/{id}", s.handleView).Methods(http.MethodGet)
	router.Use(s.loggingMiddleware)
	s.Handler = router
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("canvas server listening", zap.String("addr", s.Addr))
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return s.Stop()
	})
	return g.Wait()
}

// Stop shuts the server down, waiting briefly for in-flight requests.
func (s *Server) Stop() error {
	s.log.Info("stopping canvas server")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		s.log.Error("error shutting down canvas server", zap.Error(err))
		return err
	}
	return nil
}

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		s.requests.Add(1)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithErr maps domain errors onto status codes.
func respondWithErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, canvas.ErrReadOnly):
		code = http.StatusForbidden
	case errors.Is(err, canvas.ErrUnknownNode), errors.Is(err, library.ErrNotFound), errors.Is(err, errNoSession):
		code = http.StatusNotFound
	case errors.Is(err, render.ErrUnsupportedFormat), errors.Is(err, workflow.ErrUnknownFormat), errors.Is(err, errBadRequest):
		code = http.StatusBadRequest
	}
	respondWithError(w, code, err.Error())
}
