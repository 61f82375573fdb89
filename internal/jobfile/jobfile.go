// Package jobfile reads batch report definitions from YAML or TOML files.
//
// A job file names one template workbook and the data sources for each
// template sheet:
//
//	template: templates/weekly.xlsx
//	output: out/weekly.xlsx
//	sources:
//	  - template: UK
//	    country: exports/uk_country.csv
//	    product: exports/uk_product.csv
//
// Relative paths resolve against the job file's directory.
package jobfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/jinreport/internal/types"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Job is the on-disk shape of a job file.
type Job struct {
	Template string             `yaml:"template" toml:"template"`
	Output   string             `yaml:"output,omitempty" toml:"output,omitempty"`
	Sources  []types.DataSource `yaml:"sources" toml:"sources"`
}

var ErrNoSources = errors.New("job has no sources")

// Load parses the job file at path and returns it as a ReportRequest with
// absolute-ready paths.
func Load(path string) (types.ReportRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.ReportRequest{}, fmt.Errorf("failed to read job file: %w", err)
	}

	job, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return types.ReportRequest{}, fmt.Errorf("job file %s: %w", filepath.Base(path), err)
	}
	return job.Request(filepath.Dir(path)), nil
}

// Parse decodes data according to ext (".yaml", ".yml" or ".toml") and
// validates the result.
func Parse(data []byte, ext string) (*Job, error) {
	var job Job
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&job); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&job); err != nil {
			return nil, fmt.Errorf("invalid toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported job file type: %s", ext)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

func (j *Job) Validate() error {
	if strings.TrimSpace(j.Template) == "" {
		return errors.New("template is required")
	}
	if len(j.Sources) == 0 {
		return ErrNoSources
	}
	for i, s := range j.Sources {
		switch {
		case strings.TrimSpace(s.Template) == "":
			return fmt.Errorf("source %d: template name is required", i+1)
		case strings.TrimSpace(s.CountryPath) == "":
			return fmt.Errorf("source %d (%s): country file is required", i+1, s.Template)
		case strings.TrimSpace(s.ProductPath) == "":
			return fmt.Errorf("source %d (%s): product file is required", i+1, s.Template)
		}
	}
	return nil
}

// Request converts the job to a ReportRequest, resolving relative paths
// against baseDir.
func (j *Job) Request(baseDir string) types.ReportRequest {
	req := types.ReportRequest{
		TemplatePath: resolve(baseDir, j.Template),
		Sources:      make([]types.DataSource, len(j.Sources)),
	}
	if j.Output != "" {
		req.OutputPath = resolve(baseDir, j.Output)
	}
	for i, s := range j.Sources {
		req.Sources[i] = types.DataSource{
			Template:    strings.TrimSpace(s.Template),
			CountryPath: resolve(baseDir, s.CountryPath),
			ProductPath: resolve(baseDir, s.ProductPath),
		}
	}
	return req
}

func resolve(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
