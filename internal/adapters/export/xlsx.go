// Package export writes the aggregated views of one year to a spreadsheet.
package export

import (
	"fmt"
	"io"

	"github.com/okian/beeline/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of the workbook written by WriteXLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names, in workbook order.
const (
	SheetSlice  = "Year"
	SheetYearly = "Yearly"
	SheetStates = "Top States"
	SheetCauses = "Top Causes"
)

// Views are the tables exported for one selected year.
type Views struct {
	Year   int
	Slice  []model.Observation
	Yearly []model.Observation
	States []model.Observation
	Causes []model.Observation
}

type column struct {
	title string
	value func(model.Observation) any
	width float64
}

var (
	colState = column{"State", func(o model.Observation) any { return o.State }, 20}
	colANSI  = column{"ANSI", func(o model.Observation) any { return o.StateANSI }, 8}
	colCause = column{"Affected by", func(o model.Observation) any { return o.AffectedBy }, 20}
	colYear  = column{"Year", func(o model.Observation) any { return o.Year }, 8}
	colCode  = column{"state_code", func(o model.Observation) any { return o.StateCode }, 11}
	colPct   = column{"Pct of Colonies Impacted", func(o model.Observation) any { return o.PctColoniesImpacted }, 26}
)

// WriteXLSX writes one sheet per view to w.
func WriteXLSX(w io.Writer, v Views) error { //nolint:gocritic // hugeParam: read-only
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export style: %w", err)
	}

	sheets := []struct {
		name string
		cols []column
		rows []model.Observation
	}{
		{SheetSlice, []column{colState, colANSI, colCause, colYear, colCode, colPct}, v.Slice},
		{SheetYearly, []column{colYear, colPct}, v.Yearly},
		{SheetStates, []column{colState, colPct}, v.States},
		{SheetCauses, []column{colCause, colPct}, v.Causes},
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("export sheet %q: %w", s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("export sheet %q: %w", s.name, err)
		}
		if err := writeSheet(f, s.name, s.cols, s.rows, bold); err != nil {
			return fmt.Errorf("export sheet %q: %w", s.name, err)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       fmt.Sprintf("BeeLine Distribution %d", v.Year),
		Description: "Bee colonies impacted, aggregated for the selected year",
	}); err != nil {
		return fmt.Errorf("export properties: %w", err)
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export write: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, cols []column, rows []model.Observation, headerStyle int) error {
	for c, col := range cols {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col.title); err != nil {
			return err
		}
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, col.width); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, o := range rows {
		for c, col := range cols {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, col.value(o)); err != nil {
				return err
			}
		}
	}
	return nil
}
