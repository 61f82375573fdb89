package report

import (
	"testing"

	"github.com/nconklindev/jinreport/internal/types"
)

func TestParseColumnRef(t *testing.T) {
	tests := []struct {
		raw      string
		expected ColumnRef
	}{
		{"3", ColumnRef{Kind: ByIndex, Index: 3}},
		{" 12 ", ColumnRef{Kind: ByIndex, Index: 12}},
		{"-1", ColumnRef{Kind: ByIndex, Index: -1}},
		{"Qty", ColumnRef{Kind: ByName, Name: "Qty"}},
		{"销售额", ColumnRef{Kind: ByName, Name: "销售额"}},
		{"3a", ColumnRef{Kind: ByName, Name: "3a"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseColumnRef(tt.raw); got != tt.expected {
				t.Errorf("ParseColumnRef(%q) = %+v; want %+v", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestColumnRefResolve(t *testing.T) {
	table := &types.SourceTable{
		Headers: []string{"商品名", "Qty", "Amount"},
		Rows: [][]string{
			{"Widget", "1", "2", "extra"},
		},
	}

	tests := []struct {
		name   string
		ref    ColumnRef
		col    int
		exists bool
	}{
		{"First position", ColumnRef{Kind: ByIndex, Index: 1}, 0, true},
		{"Position past headers within row", ColumnRef{Kind: ByIndex, Index: 4}, 3, true},
		{"Position out of range", ColumnRef{Kind: ByIndex, Index: 5}, -1, false},
		{"Zero position", ColumnRef{Kind: ByIndex, Index: 0}, -1, false},
		{"Negative position", ColumnRef{Kind: ByIndex, Index: -1}, -1, false},
		{"Exact name", ColumnRef{Kind: ByName, Name: "Amount"}, 2, true},
		{"Case-insensitive name", ColumnRef{Kind: ByName, Name: "qty"}, 1, true},
		{"Unknown name", ColumnRef{Kind: ByName, Name: "Price"}, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, ok := tt.ref.Resolve(table)
			if ok != tt.exists || col != tt.col {
				t.Errorf("Resolve() = (%d, %v); want (%d, %v)", col, ok, tt.col, tt.exists)
			}
		})
	}
}

func TestResolveMapping(t *testing.T) {
	g := types.NewGrid([][]string{
		{"code", "name", "a", "b", "c", "d"},
		{"", "商品名", "Qty", "", "-1", "2"},
	})

	mapping, skip := ResolveMapping(g, 1, 1)

	if len(mapping) != 4 {
		t.Fatalf("expected 4 mapped columns, got %d: %v", len(mapping), mapping)
	}
	if _, ok := mapping[3]; ok {
		t.Errorf("empty config cell should not be mapped")
	}
	if got := mapping[2]; got.Kind != ByName || got.Name != "Qty" {
		t.Errorf("column 2 = %+v; want name Qty", got)
	}
	if got := mapping[5]; got.Kind != ByIndex || got.Index != 2 {
		t.Errorf("column 5 = %+v; want index 2", got)
	}
	if _, ok := mapping[4]; !ok {
		t.Errorf("skip column should still be mapped")
	}
	if !skip.Has(4) || len(skip) != 1 {
		t.Errorf("skip set = %v; want only column 4", skip)
	}

	cols := mapping.Columns()
	want := []int{1, 2, 4, 5}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("Columns() = %v; want %v", cols, want)
		}
	}
}

func TestResolveMappingIsFreshEachCall(t *testing.T) {
	g := types.NewGrid([][]string{
		{"", "", ""},
		{"", "", "-1"},
	})

	_, first := ResolveMapping(g, 1, 1)
	if err := g.Set(1, 2, "Qty"); err != nil {
		t.Fatal(err)
	}
	_, second := ResolveMapping(g, 1, 1)

	if !first.Has(2) {
		t.Errorf("first call should skip column 2")
	}
	if second.Has(2) {
		t.Errorf("second call should not inherit skip state")
	}
}
