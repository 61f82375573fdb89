package workbook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nconklindev/jinreport/internal/report"
	"github.com/nconklindev/jinreport/internal/types"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type BuildOptions struct {
	TemplatePrefix string
	Read           ReadOptions
	Processor      *report.Processor
	Logger         *slog.Logger
}

// Build fills one copy of a template sheet per data source and saves the
// copies, and nothing else, to outputPath.
func Build(ctx context.Context, templatePath, outputPath string, sources []types.DataSource, opts BuildOptions, progressChan chan<- float64) (*types.ReportResult, error) {
	if len(sources) == 0 {
		return nil, errors.New("no data sources configured")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Processor == nil {
		opts.Processor = report.NewProcessor(report.Options{Logger: opts.Logger})
	}
	if opts.TemplatePrefix == "" {
		opts.TemplatePrefix = DefaultTemplatePrefix
	}

	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := make(map[string]string)
	for _, t := range templatesIn(f, opts.TemplatePrefix) {
		sheets[t.Name] = t.SheetName
	}

	// Helper to report progress
	reportProgress := func(current int) {
		if progressChan != nil {
			select {
			case progressChan <- float64(current) / float64(len(sources)):
			default:
			}
		}
	}

	result := &types.ReportResult{
		TemplatePath: templatePath,
		OutputFile:   outputPath,
	}

	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reportProgress(i)

		templateSheet, ok := sheets[src.Template]
		if !ok {
			return nil, fmt.Errorf("template %q: no sheet named %q", src.Template, opts.TemplatePrefix+src.Template)
		}

		sheet, err := fillSheet(f, templateSheet, src, opts)
		if err != nil {
			return nil, fmt.Errorf("template %q: %w", src.Template, err)
		}
		result.Sheets = append(result.Sheets, sheet)
	}
	reportProgress(len(sources))

	keep := make(map[string]bool, len(result.Sheets))
	for _, s := range result.Sheets {
		keep[s.SheetName] = true
	}
	for _, name := range f.GetSheetList() {
		if keep[name] {
			continue
		}
		if err := f.DeleteSheet(name); err != nil {
			return nil, fmt.Errorf("remove sheet %q: %w", name, err)
		}
	}
	if idx, err := f.GetSheetIndex(result.Sheets[0].SheetName); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return nil, err
	}

	return result, nil
}

func fillSheet(f *excelize.File, templateSheet string, src types.DataSource, opts BuildOptions) (types.SheetResult, error) {
	logger := opts.Logger.With("template", src.Template)

	country, err := ReadSource(src.CountryPath, opts.Read)
	if err != nil {
		return types.SheetResult{}, fmt.Errorf("country data: %w", err)
	}
	product, err := ReadSource(src.ProductPath, opts.Read)
	if err != nil {
		return types.SheetResult{}, fmt.Errorf("product data: %w", err)
	}
	logger.Debug("sources loaded", "country_rows", len(country.Rows), "product_rows", len(product.Rows))

	// Copy the template so styles, merges and formulas carry over
	sheetName := uniqueSheetName(f.GetSheetList(), src.Template)
	to, err := f.NewSheet(sheetName)
	if err != nil {
		return types.SheetResult{}, err
	}
	from, err := f.GetSheetIndex(templateSheet)
	if err != nil {
		return types.SheetResult{}, err
	}
	if err := f.CopySheet(from, to); err != nil {
		return types.SheetResult{}, fmt.Errorf("copy %q: %w", templateSheet, err)
	}

	grid, err := readGrid(f, sheetName)
	if err != nil {
		return types.SheetResult{}, err
	}

	stats, err := opts.Processor.Process(country, product, grid)
	if err != nil {
		return types.SheetResult{}, err
	}

	written, err := writeBack(f, sheetName, grid)
	if err != nil {
		return types.SheetResult{}, err
	}
	logger.Info("sheet filled",
		"sheet", sheetName,
		"cells_written", written,
		"matched_rows", stats.MatchedRows,
		"zero_fallbacks", stats.ZeroFallbacks,
	)

	return types.SheetResult{Template: src.Template, SheetName: sheetName, Stats: stats}, nil
}

// writeBack copies changed grid cells into the sheet. Cells holding a
// formula, columns configured as skipped and empty values are left alone.
func writeBack(f *excelize.File, sheet string, grid *types.Grid) (int, error) {
	written := 0
	for _, c := range grid.Changed() {
		if grid.Text(1, c.Col) == report.SkipMarker {
			continue
		}

		cell, err := excelize.CoordinatesToCellName(c.Col+1, c.Row+1)
		if err != nil {
			return written, err
		}
		formula, err := f.GetCellFormula(sheet, cell)
		if err != nil {
			return written, err
		}
		if formula != "" {
			continue
		}

		var value any
		switch v := grid.Get(c.Row, c.Col).(type) {
		case decimal.Decimal:
			value = v.InexactFloat64()
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			value = v
		case nil:
			continue
		default:
			value = v
		}

		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
