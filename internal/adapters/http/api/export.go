package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/beeline/internal/adapters/export"
	service "github.com/okian/beeline/internal/app"
	"github.com/okian/beeline/pkg/metrics"
)

// ExportDependencies defines what the export endpoint reads.
type ExportDependencies interface {
	Current() (Frame, bool)
	DefaultYear() int
	Views(year int) (service.Views, error)
}

// ExportHandler serves the aggregated views of a year as a workbook.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleGetExport handles GET /api/export.xlsx?year=Y requests. Without a
// year the currently displayed one is exported.
func (h *ExportHandler) HandleGetExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_export"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	year, err := h.year(r)
	if err != nil {
		metrics.RecordExport("rejected")
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	v, err := h.deps.Views(year)
	if errors.Is(err, service.ErrUnknownYear) {
		metrics.RecordExport("rejected")
		writeError(w, http.StatusBadRequest, "unknown_year", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err != nil {
		metrics.RecordExport("error")
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, export.Views{
		Year:   v.Year,
		Slice:  v.Slice,
		Yearly: v.Yearly,
		States: v.States,
		Causes: v.Causes,
	}); err != nil {
		metrics.RecordExport("error")
		writeError(w, http.StatusInternalServerError, "export_failed", Wrap(op, err))
		return
	}

	metrics.RecordExport("ok")
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="beeline-%d.xlsx"`, year))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = w.Write(buf.Bytes())
}

func (h *ExportHandler) year(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		if f, ok := h.deps.Current(); ok {
			return f.Year, nil
		}
		return h.deps.DefaultYear(), nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid year %q", raw)
	}
	return year, nil
}
