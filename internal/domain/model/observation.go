package model

import "strconv"

// Observation is one row of the base table, or of a view derived from it.
// Views may leave fields they do not group on at their zero value.
type Observation struct {
	State               string  `json:"state,omitempty"`
	StateANSI           string  `json:"ansi,omitempty"`
	AffectedBy          string  `json:"affected_by,omitempty"`
	Year                int     `json:"year,omitempty"`
	StateCode           string  `json:"state_code,omitempty"`
	PctColoniesImpacted float64 `json:"pct_colonies_impacted"`
}

// Key identifies an observation in the base table.
type Key struct {
	State      string
	StateANSI  string
	AffectedBy string
	Year       int
	StateCode  string
}

// Key returns the grouping key of o.
func (o Observation) Key() Key {
	return Key{
		State:      o.State,
		StateANSI:  o.StateANSI,
		AffectedBy: o.AffectedBy,
		Year:       o.Year,
		StateCode:  o.StateCode,
	}
}

// Less orders keys by state, ANSI code, cause, year and postal code.
func (k Key) Less(other Key) bool {
	switch {
	case k.State != other.State:
		return k.State < other.State
	case k.StateANSI != other.StateANSI:
		return codeLess(k.StateANSI, other.StateANSI)
	case k.AffectedBy != other.AffectedBy:
		return k.AffectedBy < other.AffectedBy
	case k.Year != other.Year:
		return k.Year < other.Year
	default:
		return k.StateCode < other.StateCode
	}
}

// codeLess compares ANSI codes numerically when both are integers, so "2"
// sorts before "10"; anything else falls back to string order.
func codeLess(a, b string) bool {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil && ai != bi {
		return ai < bi
	}
	return a < b
}

// RawRow is one parsed line of the source file before normalization.
// Pct is nil when the cell was empty.
type RawRow struct {
	Key
	Pct *float64
}
