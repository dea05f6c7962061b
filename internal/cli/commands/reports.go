package commands

import (
	"fmt"
	"slices"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
	"github.com/authdeck/authdeck/internal/cli/client"
	"github.com/authdeck/authdeck/internal/guard"
)

// reportTypes are the report kinds the API can generate
var reportTypes = []string{"user-analytics", "performance-report"}

// NewReportsCmd creates the reports command group
func NewReportsCmd(load app.Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List, generate and view reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your recent reports",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(load, func(a *app.App) error {
				return runListReports(cmd, a)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:       "generate <type>",
		Short:     "Generate a report (user-analytics, performance-report)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: reportTypes,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(reportTypes, args[0]) {
				return fmt.Errorf("unknown report type %q (expected one of %v)", args[0], reportTypes)
			}
			return withReports(load, func(a *app.App) error {
				report, err := a.API.GenerateReport(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", a.T("reports.generate"), report.ID, a.T("reports.status."+report.Status))
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReports(load, func(a *app.App) error {
				report, err := a.API.GetReport(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printReport(cmd, a, report)
				return nil
			})
		},
	})

	return cmd
}

func withReports(load app.Loader, fn func(a *app.App) error) error {
	return withApp(load, func(a *app.App) error {
		if _, err := a.Open(guard.Reports); err != nil {
			return err
		}
		return fn(a)
	})
}

func runListReports(cmd *cobra.Command, a *app.App) error {
	out := cmd.OutOrStdout()

	reports, err := a.API.ListReports(cmd.Context())
	if err != nil {
		return err
	}

	heading(out, a.T("reports.recent-reports"))
	if len(reports) == 0 {
		fmt.Fprintln(out, a.T("reports.empty"))
		fmt.Fprintln(out, "\nGenerate one with: authdeck reports generate <type>")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tCREATED AT")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			r.ID,
			a.T("reports."+r.Type),
			a.T("reports.status."+r.Status),
			r.CreatedAt.Local().Format(time.DateTime),
		)
	}
	return w.Flush()
}

func printReport(cmd *cobra.Command, a *app.App, r *client.Report) {
	out := cmd.OutOrStdout()

	heading(out, a.T("reports."+r.Type))
	fmt.Fprintf(out, "%s  %s\n", r.ID, a.T("reports.status."+r.Status))
	if r.Error != "" {
		fmt.Fprintln(out, r.Error)
	}
	if r.Content == nil {
		return
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range r.Content.Rows {
		fmt.Fprintf(w, "%s\t%s\n", row.Label, row.Value)
	}
	w.Flush()
}
