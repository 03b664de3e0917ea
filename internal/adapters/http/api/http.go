// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/okian/beeline/internal/adapters/render/svg"
	service "github.com/okian/beeline/internal/app"
	"github.com/okian/beeline/internal/domain/chart"
)

const defaultSelectionTimeout = 5 * time.Second

// Frame mirrors the published chart frame.
type Frame = service.Frame

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the controller implementation.
type Dependencies interface {
	// Years returns the slider stops; DefaultYear the initial one.
	Years() []int
	DefaultYear() int

	// Current returns the published frame, false before the first render.
	Current() (Frame, bool)
	// FrameFor returns a frame for year without publishing it.
	FrameFor(year int) (Frame, error)
	// LastError returns the most recent failed cycle, if any.
	LastError() *service.CycleError

	// Select submits a year and waits for the frame that covers it.
	Select(ctx context.Context, year int) (Frame, error)
	// Views computes the aggregated tables behind a year's charts.
	Views(year int) (service.Views, error)
}

// ChartRenderer draws chart specs on the server.
type ChartRenderer interface {
	Supports(kind chart.Kind) bool
	Render(w io.Writer, spec chart.Spec) error
}

// Server wires HTTP routes for the dashboard API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	yearsHandler     *YearsHandler
	chartsHandler    *ChartsHandler
	selectionHandler *SelectionHandler
	exportHandler    *ExportHandler
}

type serverOptions struct {
	selectionTimeout time.Duration
	renderer         ChartRenderer
}

// Option configures the Server.
type Option func(*serverOptions)

// WithSelectionTimeout bounds how long POST /api/selection waits for its frame.
func WithSelectionTimeout(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.selectionTimeout = d
		}
	}
}

// WithRenderer replaces the server-side chart renderer.
func WithRenderer(r ChartRenderer) Option {
	return func(o *serverOptions) {
		if r != nil {
			o.renderer = r
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{selectionTimeout: defaultSelectionTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.renderer == nil {
		o.renderer = svg.New()
	}

	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		yearsHandler:     NewYearsHandler(deps),
		chartsHandler:    NewChartsHandler(deps, o.renderer),
		selectionHandler: NewSelectionHandler(deps, o.selectionTimeout),
		exportHandler:    NewExportHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/years", MetricsMiddleware(s.yearsHandler.HandleGetYears, "years"))
	mux.HandleFunc("/api/charts", MetricsMiddleware(s.chartsHandler.HandleGetCharts, "charts"))
	mux.HandleFunc("/api/charts/", MetricsMiddleware(s.chartsHandler.HandleGetChartSVG, "chart_svg"))
	mux.HandleFunc("/api/selection", MetricsMiddleware(s.selectionHandler.HandlePostSelection, "selection"))
	mux.HandleFunc("/api/export.xlsx", MetricsMiddleware(s.exportHandler.HandleGetExport, "export"))
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
