// Package chart maps aggregated views to renderer-agnostic chart specs.
//
// A Spec describes what to draw (kind, points, encodings and styling), never
// how. The browser shell draws specs with Plotly and the svg adapter renders
// bar and pie specs server-side; neither is known to this package.
package chart

// Kind tags a Spec with the chart family it describes.
type Kind string

// Supported chart kinds.
const (
	KindChoropleth Kind = "choropleth"
	KindBar        Kind = "bar"
	KindPie        Kind = "pie"
)

// Field names an Observation field a pie chart can be sliced by.
type Field string

// Pie label fields.
const (
	FieldState      Field = "state"
	FieldAffectedBy Field = "affected_by"
)

// Spec is an immutable declarative chart description.
type Spec struct {
	Kind     Kind     `json:"kind"`
	Title    string   `json:"title"`
	Width    int      `json:"width,omitempty"`
	Height   int      `json:"height,omitempty"`
	Points   []Point  `json:"points"`
	Encoding Encoding `json:"encoding"`
}

// Point is one region, bar or slice.
type Point struct {
	// Key locates the point: a postal code, a year or a slice label.
	Key string `json:"key"`
	// Label is the human readable name shown on hover.
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Encoding carries the visual channels of a Spec.
type Encoding struct {
	KeyTitle   string `json:"keyTitle"`
	ValueTitle string `json:"valueTitle"`

	// ColorScale is a continuous scale mapped over Value, low to high.
	ColorScale []string `json:"colorScale,omitempty"`
	// Palette assigns discrete colors to points in order.
	Palette []string `json:"palette,omitempty"`

	// Map projection, choropleth only.
	LocationMode string `json:"locationMode,omitempty"`
	Scope        string `json:"scope,omitempty"`

	// HoverFields lists what the tooltip shows.
	HoverFields []string `json:"hoverFields,omitempty"`

	// ShowValues draws values on the marks using ValueFormat (d3 syntax).
	ShowValues    bool   `json:"showValues"`
	ValueFormat   string `json:"valueFormat,omitempty"`
	ValuePosition string `json:"valuePosition,omitempty"`
}

// Mint and Darkmint are the sequential scales used by the dashboard.
var (
	Mint     = []string{"#e4f1e1", "#b4d9cc", "#89c0b6", "#63a6a0", "#448c8a", "#287274", "#0d585f"}
	Darkmint = []string{"#d2fbd4", "#a5dbc2", "#7bbcb0", "#559c9e", "#3a7c89", "#235d72", "#123f5a"}
)

// Titles shared with the controller.
const (
	TitleChoropleth = "Percentage of Bees Effected Across USA"
	TitleYearlyBar  = "Yearly Percentage Decrease in Bee Line Colonies Across USA"
	TitleStates     = "States With Most Effected Bee Population"
	TitleCauses     = "Causes of Decline in Bee Line Distribution"

	valueTitle = "Bee Colonies Percentage"
)
