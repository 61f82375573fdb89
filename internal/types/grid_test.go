package types

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewGridPadsRows(t *testing.T) {
	g := NewGrid([][]string{
		{"a"},
		{"b", "c", "d"},
		{},
	})

	if g.Rows() != 3 || g.Cols() != 3 {
		t.Fatalf("size = %dx%d; want 3x3", g.Rows(), g.Cols())
	}
	if got := g.Get(0, 2); got != "" {
		t.Errorf("padded cell = %#v; want empty string", got)
	}
	if got := g.Get(3, 0); got != nil {
		t.Errorf("out of bounds = %#v; want nil", got)
	}
	if !g.IsBlank(2, 1) {
		t.Errorf("empty row should be blank")
	}
}

func TestGridText(t *testing.T) {
	g := NewGrid([][]string{{"x", "", ""}})
	if err := g.Set(0, 1, decimal.RequireFromString("1020.50")); err != nil {
		t.Fatal(err)
	}
	if err := g.Set(0, 2, 7); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		col      int
		expected string
	}{
		{0, "x"},
		{1, "1020.5"},
		{2, "7"},
		{5, ""},
	}
	for _, tt := range tests {
		if got := g.Text(0, tt.col); got != tt.expected {
			t.Errorf("Text(0, %d) = %q; want %q", tt.col, got, tt.expected)
		}
	}
}

func TestGridSetAndChanged(t *testing.T) {
	g := NewGrid([][]string{{"", ""}, {"", ""}})

	for _, c := range []Coord{{1, 1}, {0, 1}, {1, 0}, {0, 1}} {
		if err := g.Set(c.Row, c.Col, "v"); err != nil {
			t.Fatalf("Set(%v): %v", c, err)
		}
	}
	if err := g.Set(2, 0, "v"); err == nil {
		t.Errorf("expected error outside grid")
	}

	want := []Coord{{0, 1}, {1, 0}, {1, 1}}
	if got := g.Changed(); !reflect.DeepEqual(got, want) {
		t.Errorf("Changed() = %v; want %v", got, want)
	}
}
