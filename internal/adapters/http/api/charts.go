package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	service "github.com/okian/beeline/internal/app"
	"github.com/okian/beeline/internal/domain/chart"
)

// Slot names accepted by GET /api/charts/{slot}.svg.
const (
	SlotMap    = "map"
	SlotYearly = "yearly"
	SlotStates = "states"
	SlotCauses = "causes"
)

// ChartsDependencies defines what the chart endpoints read.
type ChartsDependencies interface {
	Current() (Frame, bool)
	FrameFor(year int) (Frame, error)
	LastError() *service.CycleError
}

// ChartsHandler serves the published frame as JSON or SVG.
type ChartsHandler struct {
	deps     ChartsDependencies
	renderer ChartRenderer
}

// NewChartsHandler creates a new charts handler.
func NewChartsHandler(deps ChartsDependencies, renderer ChartRenderer) *ChartsHandler {
	return &ChartsHandler{deps: deps, renderer: renderer}
}

type cycleErrorResponse struct {
	Seq     uint64    `json:"seq"`
	Year    int       `json:"year"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type chartsResponse struct {
	Frame
	Error *cycleErrorResponse `json:"error,omitempty"`
}

// HandleGetCharts handles GET /api/charts requests. With ?year=Y the frame
// shows Y and nothing is published; without it the published frame is
// returned. A failed cycle newer than the frame is reported next to it.
func (h *ChartsHandler) HandleGetCharts(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_charts"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if raw := r.URL.Query().Get("year"); raw != "" {
		h.frameForYear(w, op, raw)
		return
	}
	f, ok := h.deps.Current()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "not_ready", NewKind(op, ErrNotReady))
		return
	}
	resp := chartsResponse{Frame: f}
	if ce := h.deps.LastError(); ce != nil && ce.Seq > f.Version {
		resp.Error = &cycleErrorResponse{Seq: ce.Seq, Year: ce.Year, Message: ce.Error(), At: ce.At}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ChartsHandler) frameForYear(w http.ResponseWriter, op, raw string) {
	year, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, fmt.Errorf("invalid year %q", raw)))
		return
	}
	f, err := h.deps.FrameFor(year)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, chartsResponse{Frame: f})
	case errors.Is(err, service.ErrUnknownYear):
		writeError(w, http.StatusBadRequest, "unknown_year", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// HandleGetChartSVG handles GET /api/charts/{slot}.svg requests.
func (h *ChartsHandler) HandleGetChartSVG(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_chart_svg"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/charts/")
	slot, ok := strings.CutSuffix(name, ".svg")
	if !ok || slot == "" || strings.Contains(slot, "/") {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}

	f, ok := h.deps.Current()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "not_ready", NewKind(op, ErrNotReady))
		return
	}
	spec, ok := slotSpec(f, slot)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
		return
	}
	if !h.renderer.Supports(spec.Kind) {
		writeError(w, http.StatusNotImplemented, "unsupported", WrapKind(op, ErrUnsupported, fmt.Errorf("kind %q", spec.Kind)))
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, spec); err != nil {
		writeError(w, http.StatusInternalServerError, "render_failed", Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func slotSpec(f Frame, slot string) (chart.Spec, bool) { //nolint:gocritic // hugeParam: frames are values
	switch slot {
	case SlotMap:
		return f.Map, true
	case SlotYearly:
		return f.Yearly, true
	case SlotStates:
		return f.States, true
	case SlotCauses:
		return f.Causes, true
	default:
		return chart.Spec{}, false
	}
}
