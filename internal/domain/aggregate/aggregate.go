// Package aggregate computes the derived views the dashboard charts are
// built from. Every function is pure: it reads the base table and returns
// a freshly allocated slice that the caller owns.
package aggregate

import (
	"math"
	"sort"

	"github.com/okian/beeline/internal/domain/dataset"
	"github.com/okian/beeline/internal/domain/model"
)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// YearSlice returns the observations of year with pct rounded to two
// decimals, in table order. An absent year yields an empty slice.
func YearSlice(year int, t *dataset.Table) []model.Observation {
	out := make([]model.Observation, 0)
	for i := 0; i < t.Len(); i++ {
		o := t.At(i)
		if o.Year != year {
			continue
		}
		o.PctColoniesImpacted = Round2(o.PctColoniesImpacted)
		out = append(out, o)
	}
	return out
}

// YearlySummary returns the mean pct of every year across all states and
// causes, ascending by year.
func YearlySummary(t *dataset.Table) []model.Observation {
	groups := groupMean(t, func(model.Observation) bool { return true }, func(o model.Observation) groupKey {
		return groupKey{year: o.Year}
	})
	out := make([]model.Observation, len(groups))
	for i, g := range groups {
		out[i] = model.Observation{Year: g.key.year, PctColoniesImpacted: Round2(g.mean())}
	}
	return out
}

// TopStates returns at most n states of year ordered by their mean pct
// across causes, highest first.
func TopStates(year int, t *dataset.Table, n int) []model.Observation {
	return top(year, t, n, func(o model.Observation) groupKey {
		return groupKey{label: o.State}
	}, func(k groupKey, v float64) model.Observation {
		return model.Observation{State: k.label, Year: year, PctColoniesImpacted: v}
	})
}

// TopCauses returns at most n causes of year ordered by their mean pct
// across states, highest first.
func TopCauses(year int, t *dataset.Table, n int) []model.Observation {
	return top(year, t, n, func(o model.Observation) groupKey {
		return groupKey{label: o.AffectedBy}
	}, func(k groupKey, v float64) model.Observation {
		return model.Observation{AffectedBy: k.label, Year: year, PctColoniesImpacted: v}
	})
}

func top(year int, t *dataset.Table, n int, keyOf func(model.Observation) groupKey,
	build func(groupKey, float64) model.Observation) []model.Observation {
	if n <= 0 {
		return make([]model.Observation, 0)
	}
	groups := groupMean(t, func(o model.Observation) bool { return o.Year == year }, keyOf)

	// Groups arrive in ascending key order; the stable sort keeps that order
	// among equal means. Ordering uses the unrounded mean.
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].mean() > groups[j].mean() })

	if len(groups) > n {
		groups = groups[:n]
	}
	out := make([]model.Observation, len(groups))
	for i, g := range groups {
		out[i] = build(g.key, Round2(g.mean()))
	}
	return out
}

type groupKey struct {
	label string
	year  int
}

func (k groupKey) less(other groupKey) bool {
	if k.label != other.label {
		return k.label < other.label
	}
	return k.year < other.year
}

type meanGroup struct {
	key   groupKey
	sum   float64
	count int
}

func (g meanGroup) mean() float64 { return g.sum / float64(g.count) }

// groupMean groups the rows accepted by keep and returns the groups sorted
// ascending by key.
func groupMean(t *dataset.Table, keep func(model.Observation) bool, keyOf func(model.Observation) groupKey) []meanGroup {
	index := make(map[groupKey]int)
	groups := make([]meanGroup, 0)
	for i := 0; i < t.Len(); i++ {
		o := t.At(i)
		if !keep(o) {
			continue
		}
		k := keyOf(o)
		gi, ok := index[k]
		if !ok {
			gi = len(groups)
			index[k] = gi
			groups = append(groups, meanGroup{key: k})
		}
		groups[gi].sum += o.PctColoniesImpacted
		groups[gi].count++
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].key.less(groups[j].key) })
	return groups
}
