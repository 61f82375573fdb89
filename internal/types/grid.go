package types

import (
	"fmt"
	"sort"
	"strings"
)

// Grid is a rectangular, mutable table of template cells addressed by
// zero-based (row, col). Cells hold strings as read from the workbook or
// values written back by the report engine.
type Grid struct {
	cells [][]any
	cols  int
	dirty map[Coord]struct{}
}

type Coord struct {
	Row, Col int
}

// NewGrid builds a grid from ragged string rows, padding every row to the
// widest one.
func NewGrid(rows [][]string) *Grid {
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}

	cells := make([][]any, len(rows))
	for i, r := range rows {
		cells[i] = make([]any, cols)
		for j := range cols {
			if j < len(r) {
				cells[i][j] = r[j]
			} else {
				cells[i][j] = ""
			}
		}
	}

	return &Grid{cells: cells, cols: cols, dirty: make(map[Coord]struct{})}
}

func (g *Grid) Rows() int { return len(g.cells) }

func (g *Grid) Cols() int { return g.cols }

func (g *Grid) inBounds(row, col int) bool {
	return row >= 0 && row < len(g.cells) && col >= 0 && col < g.cols
}

// Get returns the cell value, or nil outside the grid.
func (g *Grid) Get(row, col int) any {
	if !g.inBounds(row, col) {
		return nil
	}
	return g.cells[row][col]
}

// Text returns the cell rendered as a string.
func (g *Grid) Text(row, col int) string {
	switch v := g.Get(row, col).(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// IsBlank reports whether the cell is empty or whitespace.
func (g *Grid) IsBlank(row, col int) bool {
	return strings.TrimSpace(g.Text(row, col)) == ""
}

// Set writes a value and marks the cell as changed. Writes outside the grid
// return an error and leave it untouched.
func (g *Grid) Set(row, col int, v any) error {
	if !g.inBounds(row, col) {
		return fmt.Errorf("cell (%d,%d) outside %dx%d grid", row, col, len(g.cells), g.cols)
	}
	g.cells[row][col] = v
	g.dirty[Coord{Row: row, Col: col}] = struct{}{}
	return nil
}

// Changed lists the cells written through Set, in row-major order.
func (g *Grid) Changed() []Coord {
	out := make([]Coord, 0, len(g.dirty))
	for c := range g.dirty {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}
