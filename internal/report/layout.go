package report

import (
	"errors"
	"fmt"

	"github.com/nconklindev/jinreport/internal/types"
)

// Marker in column 0 delimits the template regions. A template has exactly
// three marker rows below the two header rows.
const Marker = "[Split]"

const (
	configRow     = 1
	dataStartRow  = 2
	nameCodeCol   = 0
	nameCol       = 1
	firstValueCol = 2
)

var ErrMissingMarker = errors.New("template marker not found")

// MarkerError names the first marker (1, 2 or 3) that could not be found.
type MarkerError struct {
	Ordinal int
}

func (e *MarkerError) Error() string {
	return fmt.Sprintf("%s: %s %q marker missing", ErrMissingMarker, ordinal(e.Ordinal), Marker)
}

func (e *MarkerError) Unwrap() error { return ErrMissingMarker }

func ordinal(n int) string {
	switch n {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	}
	return fmt.Sprintf("%dth", n)
}

// Span is an inclusive row range. End < Start means empty.
type Span struct {
	Start, End int
}

func (s Span) Empty() bool { return s.End < s.Start }

// Len returns the number of rows in the span.
func (s Span) Len() int {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start + 1
}

// Layout holds the region boundaries derived from the three marker rows.
type Layout struct {
	Markers          [3]int
	ProductData      Span
	ProductSumRow    int
	CountrySearch    Span
	CountrySumRow    int
	CountryConfigRow int
}

// ParseLayout finds the first three marker rows at or below row 2 and derives
// the template regions from them. It never modifies g. A missing marker is
// the only error; regions that collapse or cross a marker are reported by the
// Has* methods and skipped by the processor.
func ParseLayout(g *types.Grid) (Layout, error) {
	var markers [3]int
	found := 0
	for row := dataStartRow; row < g.Rows() && found < len(markers); row++ {
		if g.Text(row, 0) == Marker {
			markers[found] = row
			found++
		}
	}
	if found < len(markers) {
		return Layout{}, &MarkerError{Ordinal: found + 1}
	}

	m1, m2, m3 := markers[0], markers[1], markers[2]
	l := Layout{
		Markers:          markers,
		ProductData:      Span{Start: dataStartRow, End: m1 - 2},
		ProductSumRow:    m1 + 1,
		CountrySearch:    Span{Start: m2 + 1, End: m3 - 3},
		CountrySumRow:    m3 - 2,
		CountryConfigRow: m3 - 1,
	}

	return l, nil
}

// HasProductSum reports whether the product sum row lies strictly between
// the 1st and 2nd markers. Closely packed markers push it onto or past the
// 2nd marker, and the row is then left alone.
func (l Layout) HasProductSum() bool {
	return l.ProductSumRow < l.Markers[1]
}

// HasCountrySum reports whether the country sum row lies strictly between
// the 2nd and 3rd markers.
func (l Layout) HasCountrySum() bool {
	return l.CountrySumRow > l.Markers[1]
}

// HasCountryConfig reports whether the country config row lies strictly
// between the 2nd and 3rd markers.
func (l Layout) HasCountryConfig() bool {
	return l.CountryConfigRow > l.Markers[1]
}
