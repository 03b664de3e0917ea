// Package site serves the dashboard page: header, year slider and the four
// chart regions. Charts are drawn in the browser from /api specs.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/okian/beeline/pkg/logger"
)

// Error constants
var (
	ErrRender = errors.New("page render failed")
)

// Chart region ids, shared with static/app.js.
const (
	GraphMap    = "graph-with-slider"
	GraphYearly = "yearly-bar-distribution"
	GraphStates = "state-pie-with-slider"
	GraphCauses = "cause-pie-with-slider"
)

// YearsProvider supplies the slider stops.
type YearsProvider interface {
	Years() []int
	DefaultYear() int
}

var page = template.Must(template.New("index").Funcs(template.FuncMap{
	"itoa": strconv.Itoa,
}).Parse(indexTemplate))

type pageData struct {
	Title       string
	Lead        string
	Description string
	Years       []int
	DefaultIdx  int
	MaxIdx      int
	Graphs      []string
}

// RootHandler renders the dashboard page.
type RootHandler struct {
	years YearsProvider
}

// NewRootHandler creates a new root handler.
func NewRootHandler(years YearsProvider) *RootHandler {
	return &RootHandler{years: years}
}

// Register attaches the page and its assets to mux.
func Register(_ context.Context, mux *http.ServeMux, years YearsProvider) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(FS())))
	mux.HandleFunc("/", NewRootHandler(years).HandleRoot)
}

// HandleRoot handles GET / requests. Every other unmatched path is a 404.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		http.NotFound(w, r)
		return
	}

	years := h.years.Years()
	data := pageData{
		Title:       "BeeLine Distribution",
		Lead:        "A dashboard providing the distribution and insights of bees effected across United States",
		Description: "Wild life is essential for a healthy society. Lets start preserving nature with a step towards helping beeline revival",
		Years:       years,
		DefaultIdx:  indexOf(years, h.years.DefaultYear()),
		MaxIdx:      len(years) - 1,
		Graphs:      []string{GraphMap, GraphYearly, GraphStates, GraphCauses},
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		logger.Get().Named("site").Error(r.Context(), "render page", logger.Error(err))
		http.Error(w, fmt.Errorf("%w: %w", ErrRender, err).Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func indexOf(years []int, year int) int {
	for i, y := range years {
		if y == year {
			return i
		}
	}
	return 0
}
