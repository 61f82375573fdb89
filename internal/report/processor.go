// Package report fills marker-delimited template grids with sums drawn from
// product and country datasets.
package report

import (
	"fmt"
	"log/slog"

	"github.com/nconklindev/jinreport/internal/types"

	"github.com/shopspring/decimal"
)

// DefaultNameColumn is the source header matched against template names when
// the config row does not name one.
const DefaultNameColumn = "商品名"

type Options struct {
	ProductNameColumn string
	CountryNameColumn string
	Logger            *slog.Logger
}

// Processor fills a template grid from a product and a country dataset.
// It holds no per-call state and may be shared across goroutines, as long
// as each call gets its own grid.
type Processor struct {
	productName ColumnRef
	countryName ColumnRef
	logger      *slog.Logger
}

func NewProcessor(opts Options) *Processor {
	if opts.ProductNameColumn == "" {
		opts.ProductNameColumn = DefaultNameColumn
	}
	if opts.CountryNameColumn == "" {
		opts.CountryNameColumn = DefaultNameColumn
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Processor{
		productName: ParseColumnRef(opts.ProductNameColumn),
		countryName: ParseColumnRef(opts.CountryNameColumn),
		logger:      opts.Logger,
	}
}

// pass carries the state of one Process call.
type pass struct {
	grid   *types.Grid
	layout Layout
	skip   SkipSet
	stats  types.Stats
	logger *slog.Logger
}

// Process aggregates product and country data into tmpl in place.
//
// The template layout is parsed first; a missing marker aborts before any
// cell changes. After that cells are written as each step completes, so a
// later failure leaves tmpl partially filled.
func (p *Processor) Process(country, product *types.SourceTable, tmpl *types.Grid) (types.Stats, error) {
	layout, err := ParseLayout(tmpl)
	if err != nil {
		return types.Stats{}, err
	}

	productMap, productSkip := ResolveMapping(tmpl, configRow, nameCol)
	countryMap, countrySkip := Mapping{}, SkipSet{}
	if layout.HasCountryConfig() {
		countryMap, countrySkip = ResolveMapping(tmpl, layout.CountryConfigRow, nameCol)
	} else {
		p.logger.Warn("country config row falls on the 2nd marker, country columns unmapped", "markers", layout.Markers)
	}

	run := &pass{
		grid:   tmpl,
		layout: layout,
		skip:   productSkip.Union(countrySkip),
		logger: p.logger,
	}
	run.logger.Debug("template layout parsed",
		"markers", layout.Markers,
		"product_rows", layout.ProductData.Len(),
		"country_search_rows", layout.CountrySearch.Len(),
		"skip_columns", len(run.skip),
	)

	productRows, err := run.aggregateRows("product", product, layout.ProductData, productMap, p.nameRefs(productMap, p.productName))
	if err != nil {
		return run.stats, err
	}
	run.stats.ProductRows = productRows

	if layout.HasProductSum() {
		if err := run.productTotals(); err != nil {
			return run.stats, err
		}
	} else {
		run.logger.Warn("product sum row falls on or past the 2nd marker, not written",
			"row", layout.ProductSumRow, "markers", layout.Markers)
	}

	if layout.HasCountrySum() {
		if err := run.countryTotals(country, countryMap); err != nil {
			return run.stats, err
		}
	} else {
		run.logger.Warn("country sum row falls on or above the 2nd marker, not written",
			"row", layout.CountrySumRow, "markers", layout.Markers)
	}

	countryRows, err := run.aggregateRows("country", country, layout.CountrySearch, countryMap, p.nameRefs(countryMap, p.countryName))
	if err != nil {
		return run.stats, err
	}
	run.stats.CountryRows = countryRows

	return run.stats, nil
}

// nameRefs lists the source name columns to try in order: the one given in
// the config row's name column, then the processor default. A config cell
// that is only a label and not a source header falls through to the default.
func (p *Processor) nameRefs(m Mapping, fallback ColumnRef) []ColumnRef {
	if ref, ok := m[nameCol]; ok && ref != fallback {
		return []ColumnRef{ref, fallback}
	}
	return []ColumnRef{fallback}
}

type target struct {
	col int
	src int
	ok  bool
}

// targets resolves each mapped value column once for the whole region.
func (r *pass) targets(region string, src *types.SourceTable, m Mapping) []target {
	var out []target
	for _, col := range m.Columns() {
		if col < firstValueCol || r.skip.Has(col) {
			continue
		}
		ref := m[col]
		idx, ok := ref.Resolve(src)
		if !ok {
			r.unresolved(region, col, ref, src)
		}
		out = append(out, target{col: col, src: idx, ok: ok})
	}
	return out
}

func (r *pass) unresolved(region string, col int, ref ColumnRef, src *types.SourceTable) {
	r.stats.UnresolvedRefs++
	r.logger.Warn("source column not found, counting as zero",
		"region", region,
		"template_col", col,
		"ref", ref.String(),
		"source", src.Path,
	)
}

func (r *pass) coerce(v any, attrs ...any) decimal.Decimal {
	d, ok := parseDecimal(v)
	if !ok {
		r.stats.ZeroFallbacks++
		r.logger.Debug("non-numeric value counted as zero", append([]any{"value", v}, attrs...)...)
	}
	return d
}

// aggregateRows writes, for every non-blank template row in span, the sum of
// each mapped source column over the source rows matching the row's name.
func (r *pass) aggregateRows(region string, src *types.SourceTable, span Span, m Mapping, nameRefs []ColumnRef) (int, error) {
	if span.Empty() {
		return 0, nil
	}

	nameIdx := -1
	for i, ref := range nameRefs {
		idx, ok := ref.Resolve(src)
		if !ok {
			continue
		}
		if i > 0 {
			r.logger.Debug("config name column not in source, using default",
				"region", region, "ref", nameRefs[0].String(), "default", ref.String())
		}
		nameIdx = idx
		break
	}
	if nameIdx < 0 {
		r.unresolved(region, nameCol, nameRefs[0], src)
	}
	targets := r.targets(region, src, m)

	rows := 0
	for row := span.Start; row <= span.End; row++ {
		if r.grid.IsBlank(row, nameCodeCol) && r.grid.IsBlank(row, nameCol) {
			continue
		}

		sums := make([]decimal.Decimal, len(targets))
		for i := range MatchRows(NameTokens(r.grid.Text(row, nameCol)), src, nameIdx) {
			r.stats.MatchedRows++
			for j, t := range targets {
				if t.ok {
					sums[j] = sums[j].Add(r.coerce(src.Value(i, t.src), "source", src.Path, "row", i, "col", t.src))
				}
			}
		}

		for j, t := range targets {
			if err := r.grid.Set(row, t.col, sums[j]); err != nil {
				return rows, fmt.Errorf("%s row %d: %w", region, row, err)
			}
		}
		rows++
	}

	return rows, nil
}

// productTotals sums every value column over the product data region.
func (r *pass) productTotals() error {
	span := r.layout.ProductData
	for col := firstValueCol; col < r.grid.Cols(); col++ {
		if r.skip.Has(col) {
			continue
		}
		total := decimal.Zero
		for row := span.Start; row <= span.End; row++ {
			total = total.Add(r.coerce(r.grid.Get(row, col), "template_row", row, "col", col))
		}
		if err := r.grid.Set(r.layout.ProductSumRow, col, total); err != nil {
			return fmt.Errorf("product sum: %w", err)
		}
	}
	return nil
}

// countryTotals sums every country source row, unfiltered, into the country
// sum row.
func (r *pass) countryTotals(src *types.SourceTable, m Mapping) error {
	for col := firstValueCol; col < r.grid.Cols(); col++ {
		if r.skip.Has(col) {
			continue
		}

		total := decimal.Zero
		if ref, ok := m[col]; ok {
			idx, ok := ref.Resolve(src)
			if ok {
				for i := range src.Rows {
					total = total.Add(r.coerce(src.Value(i, idx), "source", src.Path, "row", i, "col", idx))
				}
			} else {
				r.unresolved("country total", col, ref, src)
			}
		}

		if err := r.grid.Set(r.layout.CountrySumRow, col, total); err != nil {
			return fmt.Errorf("country sum: %w", err)
		}
	}
	return nil
}
