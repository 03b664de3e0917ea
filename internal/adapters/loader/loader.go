// Package loader reads the bee colony CSV into the base table.
package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/beeline/internal/domain/dataset"
	"github.com/okian/beeline/internal/domain/model"
	"github.com/okian/beeline/pkg/logger"
	"github.com/okian/beeline/pkg/metrics"
	"github.com/okian/beeline/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Required column headers, matched after trimming surrounding whitespace.
const (
	ColState     = "State"
	ColANSI      = "ANSI"
	ColAffected  = "Affected by"
	ColYear      = "Year"
	ColStateCode = "state_code"
	ColPct       = "Pct of Colonies Impacted"
)

var requiredColumns = []string{ColState, ColANSI, ColAffected, ColYear, ColStateCode, ColPct}

// columns maps each required header to its index in a record.
type columns struct {
	state, ansi, affected, year, code, pct int
}

// Load reads path and returns the normalized table. Failures are *LoadError.
func Load(ctx context.Context, path string) (*dataset.Table, error) {
	ctx, span := tracing.Tracer("loader").Start(ctx, "loader.load")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	log := logger.Get().Named("loader")
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fail(span, openError(path, err))
	}
	defer func() { _ = f.Close() }()

	table, err := Read(f, path)
	if err != nil {
		return nil, fail(span, err)
	}

	took := time.Since(start)
	metrics.UpdateRowsLoaded(table.Len())
	metrics.RecordLoadDuration(float64(took.Milliseconds()))
	span.SetAttributes(attribute.Int("rows", table.Len()), attribute.Int("years", len(table.Years())))
	log.Info(ctx, "table loaded",
		logger.String("path", path),
		logger.Int("rows", table.Len()),
		logger.Int("years", len(table.Years())),
		logger.Duration("took", took),
	)
	return table, nil
}

// Read parses CSV from r. name is only used in error messages.
func Read(r io.Reader, name string) (*dataset.Table, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &LoadError{Path: name, Line: 1, Kind: ErrMalformed, Msg: "missing header row"}
	}
	if err != nil {
		return nil, readError(name, err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, &LoadError{Path: name, Line: 1, Kind: ErrMissingColumn, Msg: err.Error()}
	}

	var raw []model.RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(name, err)
		}
		line, _ := cr.FieldPos(0)

		row, ok, err := parseRow(rec, cols)
		if err != nil {
			return nil, &LoadError{Path: name, Line: line, Kind: ErrMalformed, Err: err}
		}
		if ok {
			raw = append(raw, row)
		}
	}

	table, err := dataset.New(raw)
	if errors.Is(err, dataset.ErrEmptyTable) {
		return nil, &LoadError{Path: name, Kind: ErrEmptyTable}
	}
	if err != nil {
		return nil, &LoadError{Path: name, Kind: ErrMalformed, Err: err}
	}
	return table, nil
}

func mapColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			missing = append(missing, strconv.Quote(name))
		}
	}
	if len(missing) > 0 {
		return columns{}, errors.New(strings.Join(missing, ", "))
	}

	return columns{
		state:    index[ColState],
		ansi:     index[ColANSI],
		affected: index[ColAffected],
		year:     index[ColYear],
		code:     index[ColStateCode],
		pct:      index[ColPct],
	}, nil
}

// parseRow reports ok=false for rows with an empty key cell; those rows
// belong to no group.
func parseRow(rec []string, c columns) (row model.RawRow, ok bool, err error) {
	key := model.Key{
		State:      strings.TrimSpace(rec[c.state]),
		StateANSI:  strings.TrimSpace(rec[c.ansi]),
		AffectedBy: strings.TrimSpace(rec[c.affected]),
		StateCode:  strings.TrimSpace(rec[c.code]),
	}
	yearCell := strings.TrimSpace(rec[c.year])
	if key.State == "" || key.StateANSI == "" || key.AffectedBy == "" || key.StateCode == "" || yearCell == "" {
		return model.RawRow{}, false, nil
	}
	if key.Year, err = parseYear(yearCell); err != nil {
		return model.RawRow{}, false, err
	}
	row.Key = key

	cell := strings.TrimSpace(rec[c.pct])
	if cell == "" {
		return row, true, nil
	}
	pct, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return model.RawRow{}, false, &cellError{Column: ColPct, Value: cell}
	}
	row.Pct = &pct
	return row, true, nil
}

// parseYear accepts integers and integral floats such as "2015.0".
func parseYear(cell string) (int, error) {
	cell = strings.TrimSpace(cell)
	if y, err := strconv.Atoi(cell); err == nil {
		return y, nil
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || f != float64(int(f)) {
		return 0, &cellError{Column: ColYear, Value: cell}
	}
	return int(f), nil
}

type cellError struct {
	Column string
	Value  string
}

func (e *cellError) Error() string {
	return "column " + strconv.Quote(e.Column) + ": cannot parse " + strconv.Quote(e.Value)
}

func openError(path string, err error) *LoadError {
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Path: path, Kind: ErrMissingFile, Err: err}
	}
	return &LoadError{Path: path, Kind: ErrUnreadable, Err: err}
}

func readError(name string, err error) *LoadError {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &LoadError{Path: name, Line: pe.Line, Kind: ErrMalformed, Err: pe.Err}
	}
	return &LoadError{Path: name, Kind: ErrUnreadable, Err: err}
}

func fail(span trace.Span, err error) error {
	metrics.RecordLoadError(kindName(Kind(err)))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
