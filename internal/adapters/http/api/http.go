// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	service "github.com/okian/srim/internal/app"
	"github.com/okian/srim/internal/domain/histogram"
	"github.com/okian/srim/internal/domain/layers"
	"github.com/okian/srim/internal/domain/model"
	"github.com/okian/srim/internal/domain/parser"
)

// DefaultMaxUploadBytes caps POST /process bodies unless overridden.
const DefaultMaxUploadBytes int64 = 256 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ProcessDependencies
	RunDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	processHandler *ProcessHandler
	runsHandler    *RunsHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	maxUploadBytes int64
}

// WithMaxUploadBytes caps the size of uploaded collision logs.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxUploadBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	o := serverOptions{maxUploadBytes: DefaultMaxUploadBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(deps),
		processHandler: NewProcessHandler(deps, o.maxUploadBytes),
		runsHandler:    NewRunsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/process", MetricsMiddleware(s.processHandler.HandleProcess, "process"))
	mux.HandleFunc("/runs/", MetricsMiddleware(s.runsHandler.HandleRuns, "runs"))
}

// ProcessDependencies defines what POST /process needs.
type ProcessDependencies interface {
	ProcessReader(ctx context.Context, source string, r io.Reader) (model.Run, error)
}

// RunDependencies defines the read operations over stored runs.
type RunDependencies interface {
	Run(ctx context.Context, id string) (model.Run, error)
	Latest(ctx context.Context) (model.Run, error)
	Histogram(ctx context.Context, id string, layerIndex, bins int) (histogram.Histogram, error)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain errors onto status codes.
func writeFailure(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, histogram.ErrInvalidBins):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrPayloadTooLarge), errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err)
	case errors.Is(err, service.ErrRunNotFound), errors.Is(err, service.ErrLayerNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, parser.ErrMalformedRecord):
		writeError(w, http.StatusUnprocessableEntity, "malformed_record", err)
	case errors.Is(err, parser.ErrFileAccess):
		writeError(w, http.StatusInternalServerError, "file_access", err)
	case errors.Is(err, layers.ErrInternalInvariant):
		writeError(w, http.StatusInternalServerError, "internal_invariant", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
