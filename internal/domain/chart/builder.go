package chart

import (
	"strconv"

	"github.com/okian/beeline/internal/domain/model"
)

// BuildChoropleth colors every state of view by its impacted percentage.
func BuildChoropleth(view []model.Observation) Spec {
	points := make([]Point, 0, len(view))
	for _, o := range view {
		points = append(points, Point{Key: o.StateCode, Label: o.State, Value: o.PctColoniesImpacted})
	}
	return Spec{
		Kind:   KindChoropleth,
		Title:  TitleChoropleth,
		Width:  700,
		Height: 600,
		Points: points,
		Encoding: Encoding{
			KeyTitle:     "state_code",
			ValueTitle:   valueTitle,
			ColorScale:   cloneColors(Mint),
			LocationMode: "USA-states",
			Scope:        "usa",
			HoverFields:  []string{"State", valueTitle},
		},
	}
}

// BuildYearlyBar draws one labelled bar per year of view.
func BuildYearlyBar(view []model.Observation) Spec {
	points := make([]Point, 0, len(view))
	for _, o := range view {
		year := strconv.Itoa(o.Year)
		points = append(points, Point{Key: year, Label: year, Value: o.PctColoniesImpacted})
	}
	return Spec{
		Kind:   KindBar,
		Title:  TitleYearlyBar,
		Width:  550,
		Height: 550,
		Points: points,
		Encoding: Encoding{
			KeyTitle:      "Year",
			ValueTitle:    "Pct of Colonies Impacted",
			ColorScale:    cloneColors(Darkmint),
			ShowValues:    true,
			ValueFormat:   ".3s",
			ValuePosition: "outside",
		},
	}
}

// BuildPie draws one slice per row of view, labelled by labelField.
func BuildPie(view []model.Observation, labelField Field, title string) Spec {
	points := make([]Point, 0, len(view))
	for _, o := range view {
		label := labelOf(o, labelField)
		points = append(points, Point{Key: label, Label: label, Value: o.PctColoniesImpacted})
	}
	return Spec{
		Kind:   KindPie,
		Title:  title,
		Points: points,
		Encoding: Encoding{
			KeyTitle:   keyTitle(labelField),
			ValueTitle: "Pct of Colonies Impacted",
			Palette:    cloneColors(Mint),
		},
	}
}

func labelOf(o model.Observation, f Field) string {
	switch f {
	case FieldAffectedBy:
		return o.AffectedBy
	default:
		return o.State
	}
}

func keyTitle(f Field) string {
	if f == FieldAffectedBy {
		return "Affected by"
	}
	return "State"
}

// cloneColors keeps the package-level scales out of reach of spec consumers.
func cloneColors(c []string) []string {
	out := make([]string, len(c))
	copy(out, c)
	return out
}
