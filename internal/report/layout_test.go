package report

import (
	"errors"
	"testing"

	"github.com/nconklindev/jinreport/internal/types"
)

// gridWithMarkers builds a three-column grid of n rows with the marker in
// column 0 of each given row.
func gridWithMarkers(n int, markers ...int) *types.Grid {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{"", "", ""}
	}
	for _, m := range markers {
		rows[m][0] = Marker
	}
	return types.NewGrid(rows)
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout(gridWithMarkers(13, 5, 8, 12))
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}

	expected := Layout{
		Markers:          [3]int{5, 8, 12},
		ProductData:      Span{Start: 2, End: 3},
		ProductSumRow:    6,
		CountrySearch:    Span{Start: 9, End: 9},
		CountrySumRow:    10,
		CountryConfigRow: 11,
	}
	if l != expected {
		t.Errorf("ParseLayout() = %+v; want %+v", l, expected)
	}
}

func TestParseLayoutIsDeterministic(t *testing.T) {
	g := gridWithMarkers(20, 6, 10, 16)
	first, err := ParseLayout(g)
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseLayout(g)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("layout changed between runs: %+v vs %+v", first, second)
	}
	if len(g.Changed()) != 0 {
		t.Errorf("ParseLayout modified the grid")
	}
}

func TestParseLayoutMissingMarkers(t *testing.T) {
	tests := []struct {
		name    string
		grid    *types.Grid
		ordinal int
	}{
		{"No markers", gridWithMarkers(10), 1},
		{"One marker", gridWithMarkers(10, 4), 2},
		{"Two markers", gridWithMarkers(10, 4, 7), 3},
		{"Markers above data rows ignored", gridWithMarkers(10, 0, 1, 5), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout(tt.grid)
			var me *MarkerError
			if !errors.As(err, &me) {
				t.Fatalf("expected MarkerError, got %v", err)
			}
			if me.Ordinal != tt.ordinal {
				t.Errorf("missing ordinal = %d; want %d", me.Ordinal, tt.ordinal)
			}
			if !errors.Is(err, ErrMissingMarker) {
				t.Errorf("error should wrap ErrMissingMarker")
			}
		})
	}
}

func TestParseLayoutExtraMarkersIgnored(t *testing.T) {
	l, err := ParseLayout(gridWithMarkers(20, 5, 8, 12, 15))
	if err != nil {
		t.Fatal(err)
	}
	if l.Markers != [3]int{5, 8, 12} {
		t.Errorf("markers = %v; want first three", l.Markers)
	}
}

func TestParseLayoutDegenerateRegions(t *testing.T) {
	// Product data ends before it starts and the country search range is
	// empty; both are no-ops, not errors.
	l, err := ParseLayout(gridWithMarkers(10, 2, 4, 7))
	if err != nil {
		t.Fatalf("ParseLayout failed: %v", err)
	}
	if !l.ProductData.Empty() {
		t.Errorf("product data %+v should be empty", l.ProductData)
	}
	if !l.CountrySearch.Empty() {
		t.Errorf("country search %+v should be empty", l.CountrySearch)
	}
}

func TestParseLayoutTightMarkers(t *testing.T) {
	tests := []struct {
		name          string
		markers       []int
		productSum    bool
		countrySum    bool
		countryConfig bool
	}{
		{"Regular", []int{5, 8, 12}, true, true, true},
		{"Adjacent first and second", []int{4, 5, 9}, false, true, true},
		{"Country sum on second marker", []int{3, 5, 7}, true, false, true},
		{"Adjacent second and third", []int{3, 5, 6}, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := ParseLayout(gridWithMarkers(14, tt.markers...))
			if err != nil {
				t.Fatalf("tight markers should not fail: %v", err)
			}
			if l.HasProductSum() != tt.productSum {
				t.Errorf("HasProductSum() = %v; want %v", l.HasProductSum(), tt.productSum)
			}
			if l.HasCountrySum() != tt.countrySum {
				t.Errorf("HasCountrySum() = %v; want %v", l.HasCountrySum(), tt.countrySum)
			}
			if l.HasCountryConfig() != tt.countryConfig {
				t.Errorf("HasCountryConfig() = %v; want %v", l.HasCountryConfig(), tt.countryConfig)
			}
		})
	}
}
