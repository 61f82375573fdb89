package types

import "time"

// SourceTable is a raw dataset read from a CSV or XLSX file. Rows may be ragged.
type SourceTable struct {
	Path      string
	Headers   []string
	Rows      [][]string
	HeaderRow int
}

// Value returns the cell at (row, col), or "" when the row is shorter.
func (t *SourceTable) Value(row, col int) string {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][col]
}

type TemplateInfo struct {
	Name      string
	SheetName string
}

type DataSource struct {
	Template    string `yaml:"template" toml:"template"`
	CountryPath string `yaml:"country" toml:"country"`
	ProductPath string `yaml:"product" toml:"product"`
}

type ReportRequest struct {
	TemplatePath string
	OutputPath   string
	Sources      []DataSource
}

type SheetResult struct {
	Template  string
	SheetName string
	Stats     Stats
}

type Stats struct {
	ProductRows    int
	CountryRows    int
	MatchedRows    int
	ZeroFallbacks  int
	UnresolvedRefs int
}

// Add accumulates s2 into s.
func (s *Stats) Add(s2 Stats) {
	s.ProductRows += s2.ProductRows
	s.CountryRows += s2.CountryRows
	s.MatchedRows += s2.MatchedRows
	s.ZeroFallbacks += s2.ZeroFallbacks
	s.UnresolvedRefs += s2.UnresolvedRefs
}

type ReportResult struct {
	RunID        string
	TemplatePath string
	OutputFile   string
	Sheets       []SheetResult
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Totals sums the stats of every generated sheet.
func (r *ReportResult) Totals() Stats {
	var total Stats
	for _, s := range r.Sheets {
		total.Add(s.Stats)
	}
	return total
}
