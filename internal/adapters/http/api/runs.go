package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/srim/internal/domain/histogram"
)

// RunsHandler serves stored runs and their layer histograms.
type RunsHandler struct {
	deps RunDependencies
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(deps RunDependencies) *RunsHandler {
	return &RunsHandler{deps: deps}
}

// HandleRuns handles
//
//	GET /runs/latest
//	GET /runs/{id}
//	GET /runs/{id}/layers/{index}/histogram?bins=N
func (h *RunsHandler) HandleRuns(w http.ResponseWriter, r *http.Request) {
	const op = "api.runs"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/runs/"), "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "":
		writeFailure(w, NewKind(op, ErrBadRequest))
	case len(parts) == 1 && parts[0] == "latest":
		run, err := h.deps.Latest(r.Context())
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, run)
	case len(parts) == 1:
		run, err := h.deps.Run(r.Context(), parts[0])
		if err != nil {
			writeFailure(w, Wrap(op, err))
			return
		}
		writeJSON(w, http.StatusOK, run)
	case len(parts) == 4 && parts[1] == "layers" && parts[3] == "histogram":
		h.handleHistogram(w, r, parts[0], parts[2])
	default:
		http.NotFound(w, r)
	}
}

func (h *RunsHandler) handleHistogram(w http.ResponseWriter, r *http.Request, id, rawIndex string) {
	const op = "api.histogram"
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("layer index must be an integer")))
		return
	}
	bins := 0
	if raw := r.URL.Query().Get("bins"); raw != "" {
		bins, err = strconv.Atoi(raw)
		if err != nil || bins < 1 || bins > histogram.MaxBins {
			writeFailure(w, WrapKind(op, ErrBadRequest, errors.New("bins must be between 1 and "+strconv.Itoa(histogram.MaxBins))))
			return
		}
	}

	hist, err := h.deps.Histogram(r.Context(), id, index, bins)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, hist)
}
