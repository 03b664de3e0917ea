package api

import (
	"net/http"
)

// YearsDependencies defines what the slider endpoint reads.
type YearsDependencies interface {
	Years() []int
	DefaultYear() int
	Current() (Frame, bool)
}

// YearsHandler serves the slider stops.
type YearsHandler struct {
	deps YearsDependencies
}

// NewYearsHandler creates a new years handler.
func NewYearsHandler(deps YearsDependencies) *YearsHandler {
	return &YearsHandler{deps: deps}
}

type yearsResponse struct {
	Years    []int `json:"years"`
	Default  int   `json:"default"`
	Selected *int  `json:"selected,omitempty"`
}

// HandleGetYears handles GET /api/years requests.
func (h *YearsHandler) HandleGetYears(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	resp := yearsResponse{Years: h.deps.Years(), Default: h.deps.DefaultYear()}
	if f, ok := h.deps.Current(); ok {
		resp.Selected = &f.Year
	}
	writeJSON(w, http.StatusOK, resp)
}
