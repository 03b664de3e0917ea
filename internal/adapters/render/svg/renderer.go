// Package svg renders bar and pie chart specs to SVG on the server with
// go-chart. Choropleth maps need a geo backend and are left to the browser.
package svg

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"
	"time"

	"github.com/okian/beeline/internal/domain/chart"
	"github.com/okian/beeline/pkg/metrics"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	backend       = "svg"
	defaultWidth  = 550
	defaultHeight = 550
	headroom      = 1.1
)

// ContentType is the media type written by Render.
const ContentType = "image/svg+xml"

// Renderer turns chart specs into SVG documents.
type Renderer struct {
	width, height int
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the canvas size used when a spec does not carry one.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{width: defaultWidth, height: defaultHeight}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Supports reports whether kind can be rendered.
func (r *Renderer) Supports(kind chart.Kind) bool {
	return kind == chart.KindBar || kind == chart.KindPie
}

// Render writes spec to w as SVG. Specs without drawable values render a
// titled placeholder instead of failing.
func (r *Renderer) Render(w io.Writer, spec chart.Spec) error { //nolint:gocritic // hugeParam: specs are values
	if !r.Supports(spec.Kind) {
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, spec.Kind)
	}

	start := time.Now()
	defer func() {
		metrics.RecordRenderDuration(backend, string(spec.Kind), float64(time.Since(start).Milliseconds()))
	}()

	width, height := r.size(spec)
	if !drawable(spec.Points) {
		return placeholder(w, spec.Title, width, height)
	}

	var err error
	switch spec.Kind {
	case chart.KindBar:
		err = r.bar(spec, width, height).Render(gochart.SVG, w)
	case chart.KindPie:
		err = r.pie(spec, width, height).Render(gochart.SVG, w)
	}
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrRender, spec.Kind, err)
	}
	return nil
}

func (r *Renderer) size(spec chart.Spec) (int, int) { //nolint:gocritic // hugeParam: specs are values
	if spec.Width > 0 && spec.Height > 0 {
		return spec.Width, spec.Height
	}
	return r.width, r.height
}

func (r *Renderer) bar(spec chart.Spec, width, height int) gochart.BarChart { //nolint:gocritic // hugeParam: specs are values
	lo, hi := bounds(spec.Points)
	bars := make([]gochart.Value, len(spec.Points))
	for i, p := range spec.Points {
		bars[i] = gochart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: gochart.Style{
				FillColor:   scaleColor(spec.Encoding.ColorScale, p.Value, lo, hi),
				StrokeColor: scaleColor(spec.Encoding.ColorScale, p.Value, lo, hi),
			},
		}
	}

	return gochart.BarChart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth(width, len(bars)),
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		YAxis: gochart.YAxis{
			Name:  spec.Encoding.ValueTitle,
			Range: &gochart.ContinuousRange{Min: 0, Max: math.Max(hi*headroom, 1)},
		},
		Bars: bars,
	}
}

func (r *Renderer) pie(spec chart.Spec, width, height int) gochart.PieChart { //nolint:gocritic // hugeParam: specs are values
	values := make([]gochart.Value, 0, len(spec.Points))
	for i, p := range spec.Points {
		if p.Value <= 0 {
			continue
		}
		color := paletteColor(spec.Encoding.Palette, i)
		values = append(values, gochart.Value{
			Label: fmt.Sprintf("%s %.2f", p.Label, p.Value),
			Value: p.Value,
			Style: gochart.Style{FillColor: color, StrokeColor: drawing.ColorWhite},
		})
	}

	return gochart.PieChart{
		Title:  spec.Title,
		Width:  width,
		Height: height,
		Values: values,
	}
}

// drawable reports whether go-chart can lay out points: it needs at least
// one strictly positive value.
func drawable(points []chart.Point) bool {
	for _, p := range points {
		if p.Value > 0 && !math.IsInf(p.Value, 0) {
			return true
		}
	}
	return false
}

func bounds(points []chart.Point) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, p := range points {
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	return lo, hi
}

func barWidth(width, n int) int {
	if n == 0 {
		return 0
	}
	return max(8, (width-80)/(n*2))
}

// scaleColor maps v onto a continuous scale, low to high.
func scaleColor(scale []string, v, lo, hi float64) drawing.Color {
	if len(scale) == 0 {
		return gochart.ColorBlue
	}
	idx := 0
	if hi > lo {
		idx = int(math.Round((v - lo) / (hi - lo) * float64(len(scale)-1)))
	}
	return hexColor(scale[idx])
}

func paletteColor(palette []string, i int) drawing.Color {
	if len(palette) == 0 {
		return gochart.GetDefaultColor(i)
	}
	return hexColor(palette[i%len(palette)])
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func placeholder(w io.Writer, title string, width, height int) error {
	_, err := fmt.Fprintf(w,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
			`<text x="%d" y="24" text-anchor="middle" font-family="sans-serif" font-size="15">%s</text>`+
			`<text x="%d" y="%d" text-anchor="middle" font-family="sans-serif" font-size="13" fill="#888">No data</text>`+
			`</svg>`,
		width, height, width, height,
		width/2, html.EscapeString(title),
		width/2, height/2,
	)
	return err
}
