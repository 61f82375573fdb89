package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newTemplatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates <workbook.xlsx>",
		Short: "List the template sheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer e.Close()

			templates, err := e.app.Templates(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(templates) == 0 {
				fmt.Fprintf(out, "No sheets named %s<name> in %s\n", e.cfg.Report.TemplatePrefix, args[0])
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("NAME", "SHEET")
			for _, tmpl := range templates {
				t.Row(tmpl.Name, tmpl.SheetName)
			}
			fmt.Fprintln(out, t.String())
			return nil
		},
	}
}
