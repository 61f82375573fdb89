// Package app ties configuration, the workbook builder and run history into
// the report generation use case shared by the CLI and the TUI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/nconklindev/jinreport/internal/config"
	"github.com/nconklindev/jinreport/internal/history"
	"github.com/nconklindev/jinreport/internal/logging"
	"github.com/nconklindev/jinreport/internal/report"
	"github.com/nconklindev/jinreport/internal/types"
	"github.com/nconklindev/jinreport/internal/workbook"

	"github.com/google/uuid"
)

// Recorder persists finished runs. A nil Recorder disables history.
type Recorder interface {
	Record(ctx context.Context, run history.Run) error
}

type App struct {
	cfg    *config.Config
	store  Recorder
	logger *slog.Logger

	now   func() time.Time
	newID func() string
}

func New(cfg *config.Config, store Recorder, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:    cfg,
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Templates lists the template sheets of the workbook at path.
func (a *App) Templates(path string) ([]types.TemplateInfo, error) {
	return workbook.DetectTemplates(path, a.cfg.Report.TemplatePrefix)
}

// Generate builds the report described by req. Every attempt that gets past
// request validation is recorded in the run history; a history failure is
// logged and does not fail the run.
func (a *App) Generate(ctx context.Context, req types.ReportRequest, progress chan<- float64) (*types.ReportResult, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	runID := a.newID()
	logger := logging.WithRun(a.logger, runID)
	started := a.now()

	if req.OutputPath == "" {
		req.OutputPath = workbook.OutputPath(req.TemplatePath, a.cfg.Report.OutputDir, started)
	}
	logger.Info("report started",
		"template", req.TemplatePath,
		"output", req.OutputPath,
		"sources", len(req.Sources))

	result, err := a.build(ctx, req, logger, progress)
	finished := a.now()

	run := history.Run{
		ID:           runID,
		StartedAt:    started,
		FinishedAt:   finished,
		TemplatePath: req.TemplatePath,
		Status:       history.StatusSucceeded,
	}
	for _, s := range req.Sources {
		run.Templates = append(run.Templates, s.Template)
	}

	if err != nil {
		run.Status = history.StatusFailed
		run.Error = err.Error()
		logger.Error("report failed", "error", err)
	} else {
		result.RunID = runID
		result.StartedAt = started
		result.FinishedAt = finished
		run.OutputPath = result.OutputFile
		run.Stats = result.Totals()
		logger.Info("report finished",
			"output", result.OutputFile,
			"sheets", len(result.Sheets),
			"duration", finished.Sub(started))
	}

	if a.store != nil {
		if herr := a.store.Record(ctx, run); herr != nil {
			logger.Warn("failed to record run history", "error", herr)
		}
	}

	return result, err
}

func (a *App) build(ctx context.Context, req types.ReportRequest, logger *slog.Logger, progress chan<- float64) (*types.ReportResult, error) {
	comma, err := a.cfg.Source.Comma()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	opts := workbook.BuildOptions{
		TemplatePrefix: a.cfg.Report.TemplatePrefix,
		Read: workbook.ReadOptions{
			Delimiter: comma,
			HeaderRow: a.cfg.Source.HeaderRow,
			Encoding:  a.cfg.Source.Encoding,
		},
		Processor: report.NewProcessor(report.Options{
			ProductNameColumn: a.cfg.Report.ProductNameColumn,
			CountryNameColumn: a.cfg.Report.CountryNameColumn,
			Logger:            logger,
		}),
		Logger: logger,
	}
	return workbook.Build(ctx, req.TemplatePath, req.OutputPath, req.Sources, opts, progress)
}

func validate(req types.ReportRequest) error {
	if req.TemplatePath == "" {
		return errors.New("template file is required")
	}
	if err := fileExists(req.TemplatePath); err != nil {
		return fmt.Errorf("template file: %w", err)
	}
	if len(req.Sources) == 0 {
		return errors.New("at least one data source is required")
	}
	for _, s := range req.Sources {
		if s.Template == "" {
			return errors.New("data source without template name")
		}
		if err := fileExists(s.CountryPath); err != nil {
			return fmt.Errorf("%s country data: %w", s.Template, err)
		}
		if err := fileExists(s.ProductPath); err != nil {
			return fmt.Errorf("%s product data: %w", s.Template, err)
		}
	}
	return nil
}

func fileExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
