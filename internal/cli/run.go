package cli

import (
	"errors"
	"fmt"

	"github.com/nconklindev/jinreport/internal/jobfile"
	"github.com/nconklindev/jinreport/internal/types"

	"github.com/spf13/cobra"
)

type runOptions struct {
	template string
	job      string
	name     string
	country  string
	product  string
	output   string
}

func newRunCommand() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a report without the interactive UI",
		Long: `Generate a report from a template workbook.

Either describe the sources in a YAML or TOML job file, or fill a single
template sheet with --name, --country and --product.`,
		Example: `  jinreport run --job weekly.yaml
  jinreport run --template weekly.xlsx --name UK --country uk_country.csv --product uk_product.csv
  jinreport run --template weekly.xlsx --job weekly.toml --output out/report.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}

			e, err := newEnv(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := e.app.Generate(cmd.Context(), req, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			totals := result.Totals()
			fmt.Fprintf(out, "Report written to %s\n", result.OutputFile)
			for _, s := range result.Sheets {
				fmt.Fprintf(out, "  %-20s matched %d source rows\n", s.SheetName, s.Stats.MatchedRows)
			}
			if totals.UnresolvedRefs > 0 || totals.ZeroFallbacks > 0 {
				fmt.Fprintf(out, "Warnings: %d unresolved columns, %d non-numeric values counted as zero\n",
					totals.UnresolvedRefs, totals.ZeroFallbacks)
			}
			fmt.Fprintf(out, "Run ID: %s\n", result.RunID)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.template, "template", "t", "", "template workbook (.xlsx); overrides the job file's template")
	flags.StringVarP(&opts.job, "job", "j", "", "job file (.yaml, .yml or .toml)")
	flags.StringVarP(&opts.name, "name", "n", "", "template name (sheet name without prefix)")
	flags.StringVar(&opts.country, "country", "", "country data file (.csv or .xlsx)")
	flags.StringVar(&opts.product, "product", "", "product data file (.csv or .xlsx)")
	flags.StringVarP(&opts.output, "output", "o", "", "output workbook (default Report_<timestamp>.xlsx next to the template)")

	cmd.MarkFlagsMutuallyExclusive("job", "name")
	cmd.MarkFlagsMutuallyExclusive("job", "country")
	cmd.MarkFlagsMutuallyExclusive("job", "product")
	cmd.MarkFlagsRequiredTogether("name", "country", "product")

	return cmd
}

// request builds a ReportRequest from either the job file or the single
// source flags.
func (o runOptions) request() (types.ReportRequest, error) {
	var req types.ReportRequest

	switch {
	case o.job != "":
		var err error
		req, err = jobfile.Load(o.job)
		if err != nil {
			return req, err
		}
	case o.name != "":
		req.Sources = []types.DataSource{{
			Template:    o.name,
			CountryPath: o.country,
			ProductPath: o.product,
		}}
	default:
		return req, errors.New("either --job or --name with --country and --product is required")
	}

	if o.template != "" {
		req.TemplatePath = o.template
	}
	if req.TemplatePath == "" {
		return req, errors.New("--template is required")
	}
	if o.output != "" {
		req.OutputPath = o.output
	}
	return req, nil
}
