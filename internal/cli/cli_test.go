package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nconklindev/jinreport/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	rows := [][]any{
		{"Code", "Name", "Qty"},
		{"", "name", "Qty"},
		{"P1", "A"},
		{},
		{report.Marker},
		{"", "Total"},
		{report.Marker},
		{"C1", "a"},
		{"", "Country total"},
		{"", "", "Qty"},
		{report.Marker},
	}

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "模板_UK"))
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("模板_UK", cell, &row))
	}
	path := filepath.Join(dir, "template.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc", Date: "today"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("JINREPORT_HISTORY_DB", filepath.Join(dir, "history.db"))
	t.Setenv("JINREPORT_CSV_HEADER_ROW", "0")
	t.Setenv("JINREPORT_LOG_LEVEL", "error")
	return dir
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "jinreport 1.2.3\ncommit: abc\nbuilt: today\n", out)
}

func TestRunAndHistory(t *testing.T) {
	dir := testEnv(t)
	template := writeWorkbook(t, dir)
	country := writeText(t, dir, "country.csv", "商品名\tQty\nalpha\t2\n")
	product := writeText(t, dir, "product.csv", "name\tQty\nApple\t4\n")
	output := filepath.Join(dir, "out", "report.xlsx")

	out, err := execute(t, "run",
		"--template", template,
		"--name", "UK",
		"--country", country,
		"--product", product,
		"--output", output)
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to "+output)
	assert.FileExists(t, output)

	_, err = execute(t, "run",
		"--template", template,
		"--name", "FR",
		"--country", country,
		"--product", product,
		"--output", output)
	assert.ErrorContains(t, err, "FR")

	out, err = execute(t, "history", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "succeeded")
	assert.Contains(t, out, "failed")
}

func TestRunWithJobFile(t *testing.T) {
	dir := testEnv(t)
	writeWorkbook(t, dir)
	writeText(t, dir, "country.csv", "商品名\tQty\nalpha\t2\n")
	writeText(t, dir, "product.csv", "name\tQty\nApple\t4\n")
	job := writeText(t, dir, "job.yaml", `template: template.xlsx
output: report.xlsx
sources:
  - template: UK
    country: country.csv
    product: product.csv
`)

	_, err := execute(t, "run", "--job", job)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "report.xlsx"))
}

func TestTemplates(t *testing.T) {
	dir := testEnv(t)
	template := writeWorkbook(t, dir)

	out, err := execute(t, "templates", template)
	require.NoError(t, err)
	assert.Contains(t, out, "模板_UK")
}

func TestRunOptionsRequest(t *testing.T) {
	tests := []struct {
		name    string
		opts    runOptions
		wantErr string
	}{
		{"Nothing", runOptions{}, "--job or --name"},
		{"No template", runOptions{name: "UK", country: "c.csv", product: "p.csv"}, "--template is required"},
		{"Single source", runOptions{template: "t.xlsx", name: "UK", country: "c.csv", product: "p.csv"}, ""},
		{"Missing job", runOptions{job: "missing.yaml"}, "job file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.opts.request()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "t.xlsx", req.TemplatePath)
			require.Len(t, req.Sources, 1)
			assert.Equal(t, "UK", req.Sources[0].Template)
		})
	}
}
