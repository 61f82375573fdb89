package workbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/nconklindev/jinreport/internal/types"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/htmlindex"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const RowDetectionLimit = 10

type ReadOptions struct {
	Delimiter rune
	// HeaderRow is the zero-based CSV row holding column names. Rows above
	// it are report titles and are ignored.
	HeaderRow int
	Encoding  string
}

func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		Delimiter: '\t',
		HeaderRow: 2,
		Encoding:  "utf-8",
	}
}

// ReadSource reads a product or country dataset from a CSV or XLSX file
func ReadSource(filePath string, opts ReadOptions) (*types.SourceTable, error) {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case ".csv":
		return readCSVData(filePath, opts)
	case ".xlsx":
		return readXLSXData(filePath)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func readCSVData(filePath string, opts ReadOptions) (*types.SourceTable, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoded, err := decodingReader(file, opts.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(filePath), err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("empty file: %s", filepath.Base(filePath))
	}
	if opts.HeaderRow >= len(records) {
		return nil, fmt.Errorf("%s: header row %d not found, file has %d rows", filepath.Base(filePath), opts.HeaderRow+1, len(records))
	}

	headers := make([]string, len(records[opts.HeaderRow]))
	for i, h := range records[opts.HeaderRow] {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column%d", i+1)
		}
		headers[i] = h
	}

	rows := records[opts.HeaderRow+1:]
	for _, row := range rows {
		for i := range row {
			row[i] = strings.TrimSpace(row[i])
		}
	}

	return &types.SourceTable{
		Path:      filePath,
		Headers:   headers,
		Rows:      rows,
		HeaderRow: opts.HeaderRow,
	}, nil
}

// decodingReader wraps r so it yields UTF-8. A byte order mark takes
// precedence over the configured encoding.
func decodingReader(r io.Reader, label string) (io.Reader, error) {
	if label == "" {
		label = "utf-8"
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown source encoding %q: %w", label, err)
	}
	return transform.NewReader(r, xunicode.BOMOverride(enc.NewDecoder())), nil
}

func readXLSXData(filePath string) (*types.SourceTable, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file: %s", filepath.Base(filePath))
	}

	// Find the header row (first row with multiple non-empty cells)
	headerRowIdx := findHeaderRow(rows)
	if headerRowIdx == -1 {
		return nil, fmt.Errorf("could not find header row in %s", filepath.Base(filePath))
	}

	headers := make([]string, len(rows[headerRowIdx]))
	for i, h := range rows[headerRowIdx] {
		headers[i] = strings.TrimSpace(h)
	}

	return &types.SourceTable{
		Path:      filePath,
		Headers:   headers,
		Rows:      rows[headerRowIdx+1:],
		HeaderRow: headerRowIdx,
	}, nil
}

// findHeaderRow locates the first row that appears to be a header
// by finding the row with the most non-empty text cells
func findHeaderRow(rows [][]string) int {
	maxNonEmpty := 0
	headerIdx := -1

	// Look at first 20 rows max
	searchLimit := len(rows)
	if searchLimit > RowDetectionLimit*2 {
		searchLimit = RowDetectionLimit * 2
	}

	for i := 0; i < searchLimit; i++ {
		nonEmptyCount := 0
		hasText := false

		for _, cell := range rows[i] {
			trimmed := strings.TrimSpace(cell)
			if trimmed != "" {
				nonEmptyCount++
				if containsLetters(trimmed) {
					hasText = true
				}
			}
		}

		// Header should have multiple columns AND contain text
		if nonEmptyCount >= 2 && hasText && nonEmptyCount > maxNonEmpty {
			maxNonEmpty = nonEmptyCount
			headerIdx = i
		}
	}

	return headerIdx
}

// containsLetters checks if a string contains any letter, CJK included
func containsLetters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
