package api

import (
	"errors"
	"net/http"
	"strings"
)

const defaultSourceName = "upload"

// ProcessHandler handles collision log uploads.
type ProcessHandler struct {
	deps     ProcessDependencies
	maxBytes int64
}

// NewProcessHandler creates a new process handler.
func NewProcessHandler(deps ProcessDependencies, maxBytes int64) *ProcessHandler {
	return &ProcessHandler{deps: deps, maxBytes: maxBytes}
}

// HandleProcess handles POST /process requests. The body is the raw
// collision log; ?name= labels the run.
func (h *ProcessHandler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	const op = "api.process"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = defaultSourceName
	}

	body := http.MaxBytesReader(w, r.Body, h.maxBytes)
	defer func() { _ = body.Close() }()

	run, err := h.deps.ProcessReader(r.Context(), name, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}
