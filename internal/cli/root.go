// Package cli provides the jinreport command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/nconklindev/jinreport/internal/app"
	"github.com/nconklindev/jinreport/internal/config"
	"github.com/nconklindev/jinreport/internal/history"
	"github.com/nconklindev/jinreport/internal/logging"
	"github.com/nconklindev/jinreport/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute(info BuildInfo) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCommand(info).ExecuteContext(ctx)
}

// NewRootCommand returns the jinreport command. Without a subcommand it
// starts the interactive UI.
func NewRootCommand(info BuildInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jinreport",
		Short: "Fill Excel report templates from product and country exports",
		Long: `jinreport copies each template sheet of a workbook, fills it from a
product export and a country export, and saves the filled sheets as a new
report workbook.

Run without arguments for the interactive picker.`,
		Version:       info.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd.Context(), cmd.ErrOrStderr())
		},
	}
	cmd.SetVersionTemplate(fmt.Sprintf("jinreport {{.Version}}\ncommit: %s\nbuilt: %s\n", info.Commit, info.Date))

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newTemplatesCommand())
	cmd.AddCommand(newHistoryCommand())

	return cmd
}

// env is the per-invocation wiring shared by every command.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *history.Store
	app    *app.App

	closers []io.Closer
}

// newEnv loads configuration, sets up logging and opens the run history.
// Command-line runs log to stderr. Interactive runs keep log lines off the
// alternate screen: they go to the configured log file, or nowhere.
// A history database that cannot be opened is logged and skipped.
func newEnv(stderr io.Writer, interactive bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg}

	logOut := stderr
	if interactive {
		logOut = io.Discard
		if cfg.Logging.File != "" {
			f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			logOut = f
			e.closers = append(e.closers, f)
		}
	}
	e.logger = logging.Setup(cfg.Logging.Level, cfg.Logging.Format, logOut)

	var rec app.Recorder
	if !cfg.History.Disabled {
		if store, err := openHistory(cfg); err != nil {
			e.logger.Warn("run history unavailable", "error", err)
		} else {
			e.store = store
			e.closers = append(e.closers, store)
			rec = store
		}
	}

	e.app = app.New(cfg, rec, e.logger)
	return e, nil
}

func openHistory(cfg *config.Config) (*history.Store, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i].Close(); err != nil {
			e.logger.Warn("close failed", "error", err)
		}
	}
}

func runInteractive(ctx context.Context, stderr io.Writer) error {
	e, err := newEnv(stderr, true)
	if err != nil {
		return err
	}
	defer e.Close()

	p := tea.NewProgram(ui.InitialModel(ctx, e.app), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("interactive ui: %w", err)
	}
	return nil
}
