package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent report runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			if e.store == nil {
				return errors.New("run history is disabled or unavailable")
			}

			runs, err := e.store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("STARTED", "STATUS", "TEMPLATES", "MATCHED", "OUTPUT / ERROR")
			for _, run := range runs {
				detail := run.OutputPath
				if run.Error != "" {
					detail = run.Error
				}
				t.Row(
					run.StartedAt.Local().Format(time.DateTime),
					string(run.Status),
					strings.Join(run.Templates, ", "),
					strconv.Itoa(run.Stats.MatchedRows),
					detail,
				)
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "number of runs to show")
	return cmd
}
