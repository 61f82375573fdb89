package workbook

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nconklindev/jinreport/internal/types"

	"github.com/xuri/excelize/v2"
)

// DefaultTemplatePrefix marks the sheets of a template workbook that are
// report templates.
const DefaultTemplatePrefix = "模板_"

const maxSheetNameLen = 31

// DetectTemplates lists the template sheets of the workbook at path
func DetectTemplates(path, prefix string) ([]types.TemplateInfo, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return templatesIn(f, prefix), nil
}

func templatesIn(f *excelize.File, prefix string) []types.TemplateInfo {
	if prefix == "" {
		prefix = DefaultTemplatePrefix
	}

	var templates []types.TemplateInfo
	for _, sheet := range f.GetSheetList() {
		name, ok := strings.CutPrefix(sheet, prefix)
		if !ok || name == "" {
			continue
		}
		templates = append(templates, types.TemplateInfo{Name: name, SheetName: sheet})
	}
	return templates
}

// readGrid loads a sheet's displayed cell text into a grid
func readGrid(f *excelize.File, sheet string) (*types.Grid, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	return types.NewGrid(rows), nil
}

// uniqueSheetName returns base, or base with a numeric suffix, such that it
// collides with no existing sheet and fits Excel's name length limit.
func uniqueSheetName(existing []string, base string) string {
	taken := func(name string) bool {
		for _, s := range existing {
			if strings.EqualFold(s, name) {
				return true
			}
		}
		return false
	}

	name := truncateRunes(base, maxSheetNameLen)
	for n := 1; taken(name); n++ {
		suffix := "_" + strconv.Itoa(n)
		name = truncateRunes(base, maxSheetNameLen-utf8.RuneCountInString(suffix)) + suffix
	}
	return name
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// OutputPath returns the timestamped report path for a template. An empty
// dir means the template's own directory.
func OutputPath(templatePath, dir string, now time.Time) string {
	if dir == "" {
		dir = filepath.Dir(templatePath)
	}
	return filepath.Join(dir, fmt.Sprintf("Report_%s.xlsx", now.Format("20060102_150405")))
}
