package workbook

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadSourceCSV(t *testing.T) {
	tmpDir := t.TempDir()
	input := writeFile(t, tmpDir, "product.csv",
		"Product export\n"+
			"Generated 2026-10-01\n"+
			"商品名\t Qty \t\n"+
			"\n"+
			"Widget large\t 1,200 \tx\n"+
			"Gadget\t\"5\"\n")

	table, err := ReadSource(input, DefaultReadOptions())
	if err != nil {
		t.Fatalf("ReadSource failed: %v", err)
	}

	expectedHeaders := []string{"商品名", "Qty", "Column3"}
	if !slices.Equal(table.Headers, expectedHeaders) {
		t.Errorf("Headers = %q; want %q", table.Headers, expectedHeaders)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d: %q", len(table.Rows), table.Rows)
	}
	if got := table.Value(0, 1); got != "1,200" {
		t.Errorf("Expected trimmed 1,200, got %q", got)
	}
	if got := table.Value(1, 1); got != "5" {
		t.Errorf("Expected 5, got %q", got)
	}
	if got := table.Value(1, 2); got != "" {
		t.Errorf("Expected missing field to read empty, got %q", got)
	}
	if table.HeaderRow != 2 {
		t.Errorf("HeaderRow = %d; want 2", table.HeaderRow)
	}
}

func TestReadSourceCSVComma(t *testing.T) {
	input := writeFile(t, t.TempDir(), "country.csv", "name,Qty\nAlpha,3\n")

	opts := DefaultReadOptions()
	opts.Delimiter = ','
	opts.HeaderRow = 0

	table, err := ReadSource(input, opts)
	if err != nil {
		t.Fatalf("ReadSource failed: %v", err)
	}
	if table.Value(0, 0) != "Alpha" || table.Value(0, 1) != "3" {
		t.Errorf("Unexpected rows: %q", table.Rows)
	}
}

func TestReadSourceCSVEncoding(t *testing.T) {
	encoded, err := simplifiedchinese.GBK.NewEncoder().String("商品名\t数量\n小米手机\t7\n")
	if err != nil {
		t.Fatal(err)
	}
	input := writeFile(t, t.TempDir(), "gbk.csv", encoded)

	opts := DefaultReadOptions()
	opts.HeaderRow = 0
	opts.Encoding = "gbk"

	table, err := ReadSource(input, opts)
	if err != nil {
		t.Fatalf("ReadSource failed: %v", err)
	}
	if table.Headers[0] != "商品名" || table.Value(0, 0) != "小米手机" {
		t.Errorf("GBK not decoded: headers %q rows %q", table.Headers, table.Rows)
	}
}

func TestReadSourceCSVByteOrderMark(t *testing.T) {
	input := writeFile(t, t.TempDir(), "bom.csv", "\ufeffname\tQty\nA\t1\n")

	opts := DefaultReadOptions()
	opts.HeaderRow = 0
	opts.Encoding = "gbk"

	table, err := ReadSource(input, opts)
	if err != nil {
		t.Fatalf("ReadSource failed: %v", err)
	}
	if table.Headers[0] != "name" {
		t.Errorf("BOM should select UTF-8 and be stripped, got %q", table.Headers[0])
	}
}

func TestReadSourceErrors(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		path string
		opts ReadOptions
	}{
		{"Unsupported extension", writeFile(t, tmpDir, "legacy.xls", "x"), DefaultReadOptions()},
		{"Empty CSV", writeFile(t, tmpDir, "empty.csv", ""), DefaultReadOptions()},
		{"Header row past end", writeFile(t, tmpDir, "short.csv", "a\tb\n"), DefaultReadOptions()},
		{"Unknown encoding", writeFile(t, tmpDir, "enc.csv", "a\tb\n"), ReadOptions{Delimiter: '\t', Encoding: "klingon"}},
		{"Missing file", filepath.Join(tmpDir, "nope.csv"), DefaultReadOptions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadSource(tt.path, tt.opts); err == nil {
				t.Errorf("Expected error for %s", tt.path)
			}
		})
	}
}

func TestReadSourceXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "product.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{"Sales by product"},
		{},
		{"商品名", "Qty", "Amount"},
		{"Widget", 3, 4.5},
		{"Gadget", 2, 1},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	table, err := ReadSource(path, DefaultReadOptions())
	if err != nil {
		t.Fatalf("ReadSource failed: %v", err)
	}
	if table.HeaderRow != 2 {
		t.Errorf("HeaderRow = %d; want 2", table.HeaderRow)
	}
	if !slices.Equal(table.Headers, []string{"商品名", "Qty", "Amount"}) {
		t.Errorf("Headers = %q", table.Headers)
	}
	if len(table.Rows) != 2 || table.Value(0, 2) != "4.5" {
		t.Errorf("Rows = %q", table.Rows)
	}
}

func TestFindHeaderRow(t *testing.T) {
	tests := []struct {
		name     string
		rows     [][]string
		expected int
	}{
		{
			name:     "Title above header",
			rows:     [][]string{{"Report"}, {"Name", "Qty"}, {"A", "1"}},
			expected: 1,
		},
		{
			name:     "CJK header",
			rows:     [][]string{{"商品名", "数量"}, {"1", "2"}},
			expected: 0,
		},
		{
			name:     "Numbers only",
			rows:     [][]string{{"1", "2"}, {"3", "4"}},
			expected: -1,
		},
		{
			name:     "Widest text row wins",
			rows:     [][]string{{"Name", "Qty"}, {"Name", "Qty", "Amount"}},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findHeaderRow(tt.rows); got != tt.expected {
				t.Errorf("findHeaderRow() = %d; want %d", got, tt.expected)
			}
		})
	}
}
