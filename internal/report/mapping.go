package report

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nconklindev/jinreport/internal/types"
)

// SkipMarker in a config cell excludes that template column from aggregation.
const SkipMarker = "-1"

type RefKind int

const (
	ByIndex RefKind = iota
	ByName
)

// ColumnRef points at a source column, either by 1-based position or by
// header name.
type ColumnRef struct {
	Kind  RefKind
	Index int
	Name  string
}

// ParseColumnRef classifies a raw config value. Integers are positions,
// everything else is a header name.
func ParseColumnRef(raw string) ColumnRef {
	trimmed := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(trimmed); err == nil {
		return ColumnRef{Kind: ByIndex, Index: n}
	}
	return ColumnRef{Kind: ByName, Name: raw}
}

func (r ColumnRef) String() string {
	if r.Kind == ByIndex {
		return "#" + strconv.Itoa(r.Index)
	}
	return strconv.Quote(r.Name)
}

// Resolve returns the zero-based column of t that r refers to. Names match
// exactly first, then case-insensitively.
func (r ColumnRef) Resolve(t *types.SourceTable) (int, bool) {
	if r.Kind == ByIndex {
		if r.Index < 1 {
			return -1, false
		}
		width := len(t.Headers)
		for _, row := range t.Rows {
			if len(row) > width {
				width = len(row)
			}
		}
		if r.Index > width {
			return -1, false
		}
		return r.Index - 1, true
	}

	for i, h := range t.Headers {
		if h == r.Name {
			return i, true
		}
	}
	for i, h := range t.Headers {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(r.Name)) {
			return i, true
		}
	}
	return -1, false
}

// Mapping maps template columns to source column references.
type Mapping map[int]ColumnRef

// Columns returns the mapped template columns in ascending order.
func (m Mapping) Columns() []int {
	cols := make([]int, 0, len(m))
	for c := range m {
		cols = append(cols, c)
	}
	sort.Ints(cols)
	return cols
}

// SkipSet holds template columns excluded from every read and write of one
// Process call.
type SkipSet map[int]struct{}

func (s SkipSet) Has(col int) bool {
	_, ok := s[col]
	return ok
}

func (s SkipSet) Union(other SkipSet) SkipSet {
	out := make(SkipSet, len(s)+len(other))
	for c := range s {
		out[c] = struct{}{}
	}
	for c := range other {
		out[c] = struct{}{}
	}
	return out
}

// ResolveMapping reads config row `row` of g from column `start` onward.
// Every non-empty cell becomes a mapping entry; cells equal to SkipMarker are
// also added to the skip set.
func ResolveMapping(g *types.Grid, row, start int) (Mapping, SkipSet) {
	mapping := make(Mapping)
	skip := make(SkipSet)

	for col := start; col < g.Cols(); col++ {
		raw := g.Text(row, col)
		if raw == "" {
			continue
		}
		mapping[col] = ParseColumnRef(raw)
		if raw == SkipMarker {
			skip[col] = struct{}{}
		}
	}

	return mapping, skip
}
