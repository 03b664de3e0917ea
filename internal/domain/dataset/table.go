// Package dataset holds the normalized, read-only base table.
package dataset

import (
	"sort"

	"github.com/okian/beeline/internal/domain/model"
)

// Table is the base table: one observation per grouping key, ordered by key.
// It is never mutated after New returns and is safe for concurrent readers.
type Table struct {
	rows  []model.Observation
	years []int
}

// group accumulates the non-missing values of one key.
type group struct {
	key   model.Key
	sum   float64
	count int
}

// New normalizes raw rows: rows sharing a key are collapsed into one
// observation whose pct is the mean of the non-missing values. Keys whose
// values are all missing are dropped. Returns ErrEmptyTable when nothing is left.
func New(raw []model.RawRow) (*Table, error) {
	index := make(map[model.Key]int, len(raw))
	groups := make([]group, 0, len(raw))
	for _, r := range raw {
		i, ok := index[r.Key]
		if !ok {
			i = len(groups)
			index[r.Key] = i
			groups = append(groups, group{key: r.Key})
		}
		if r.Pct != nil {
			groups[i].sum += *r.Pct
			groups[i].count++
		}
	}

	rows := make([]model.Observation, 0, len(groups))
	seenYear := make(map[int]struct{})
	years := make([]int, 0)
	for _, g := range groups {
		if g.count == 0 {
			continue
		}
		rows = append(rows, model.Observation{
			State:               g.key.State,
			StateANSI:           g.key.StateANSI,
			AffectedBy:          g.key.AffectedBy,
			Year:                g.key.Year,
			StateCode:           g.key.StateCode,
			PctColoniesImpacted: g.sum / float64(g.count),
		})
		if _, ok := seenYear[g.key.Year]; !ok {
			seenYear[g.key.Year] = struct{}{}
			years = append(years, g.key.Year)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Key().Less(rows[j].Key()) })
	sort.Ints(years)

	return &Table{rows: rows, years: years}, nil
}

// FromObservations builds a table from already typed observations, applying
// the same normalization as New.
func FromObservations(obs []model.Observation) (*Table, error) {
	raw := make([]model.RawRow, len(obs))
	for i, o := range obs {
		pct := o.PctColoniesImpacted
		raw[i] = model.RawRow{Key: o.Key(), Pct: &pct}
	}
	return New(raw)
}

// Len returns the number of observations.
func (t *Table) Len() int { return len(t.rows) }

// At returns the i-th observation in key order.
func (t *Table) At(i int) model.Observation { return t.rows[i] }

// Rows returns a copy of all observations in key order.
func (t *Table) Rows() []model.Observation {
	out := make([]model.Observation, len(t.rows))
	copy(out, t.rows)
	return out
}

// Years returns the distinct years, ascending. These are the slider stops.
func (t *Table) Years() []int {
	out := make([]int, len(t.years))
	copy(out, t.years)
	return out
}

// HasYear reports whether year is one of the table's years.
func (t *Table) HasYear(year int) bool {
	i := sort.SearchInts(t.years, year)
	return i < len(t.years) && t.years[i] == year
}

// MinYear returns the earliest year, the controller's initial selection.
func (t *Table) MinYear() int { return t.years[0] }

// MaxYear returns the latest year.
func (t *Table) MaxYear() int { return t.years[len(t.years)-1] }
