package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	service "github.com/okian/beeline/internal/app"
)

// SelectionDependencies defines what the selection endpoint drives.
type SelectionDependencies interface {
	Select(ctx context.Context, year int) (Frame, error)
}

// SelectionHandler turns slider moves into controller selections.
type SelectionHandler struct {
	deps    SelectionDependencies
	timeout time.Duration
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(deps SelectionDependencies, timeout time.Duration) *SelectionHandler {
	return &SelectionHandler{deps: deps, timeout: timeout}
}

// maxSelectionBody caps the request body of POST /api/selection.
const maxSelectionBody = 1 << 10

// selectionRequest mirrors the OpenAPI schema for POST /api/selection.
type selectionRequest struct {
	Year *int `json:"year"`
}

func (s selectionRequest) validate() error {
	if s.Year == nil {
		return errors.New("missing year")
	}
	return nil
}

// HandlePostSelection handles POST /api/selection requests. It answers with
// a frame for the requested year.
func (h *SelectionHandler) HandlePostSelection(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_selection"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxSelectionBody)
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	f, err := h.deps.Select(ctx, *req.Year)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, f)
	case errors.Is(err, service.ErrUnknownYear):
		writeError(w, http.StatusBadRequest, "unknown_year", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "timeout", WrapKind(op, ErrTimeout, err))
	case errors.Is(err, service.ErrNotStarted), errors.Is(err, service.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	case errors.Is(err, service.ErrCycleFailed):
		writeError(w, http.StatusInternalServerError, "cycle_failed", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
