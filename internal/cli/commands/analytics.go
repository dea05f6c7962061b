package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/authdeck/authdeck/internal/cli/app"
	"github.com/authdeck/authdeck/internal/guard"
)

// NewAnalyticsCmd creates the analytics command
func NewAnalyticsCmd(load app.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show the analytics dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(load, func(a *app.App) error {
				if _, err := a.Open(guard.Analytics); err != nil {
					return err
				}

				summary, err := a.API.Analytics(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				heading(out, a.T("analytics.dashboard.title"))
				fmt.Fprintf(out, "%s: %s\n\n", a.T("analytics.dashboard.last-updated"), summary.CapturedAt.Local().Format(time.DateTime))

				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintf(w, "%s\t%d\n", a.T("analytics.dashboard.total-users"), summary.TotalUsers)
				fmt.Fprintf(w, "%s\t%d\n", a.T("analytics.dashboard.active-users"), summary.ActiveUsers)
				fmt.Fprintf(w, "%s\t%d\n", a.T("analytics.dashboard.new-users"), summary.NewUsers)
				fmt.Fprintf(w, "%s\t%.1f%%\n", a.T("analytics.dashboard.conversion-rate"), summary.ConversionRate)
				if err := w.Flush(); err != nil {
					return err
				}

				fmt.Fprintln(out)
				fmt.Fprintln(out, a.T("analytics.dashboard.user-growth"))

				var peak int64
				for _, p := range summary.UserGrowth {
					peak = max(peak, p.Count)
				}
				for _, p := range summary.UserGrowth {
					bar := ""
					if peak > 0 {
						bar = strings.Repeat("█", int(p.Count*20/peak))
					}
					fmt.Fprintf(out, "  %s  %-20s %d\n", p.Date, bar, p.Count)
				}
				return nil
			})
		},
	}
}
