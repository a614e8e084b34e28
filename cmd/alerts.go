package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/impactlens/esg-cli/internal/alerts"
	"github.com/impactlens/esg-cli/internal/model"
	"github.com/impactlens/esg-cli/internal/store"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Inspect and resolve risk alerts",
}

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List alerts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		company, _ := cmd.Flags().GetString("company")
		severity, _ := cmd.Flags().GetString("severity")
		all, _ := cmd.Flags().GetBool("all")
		limit, _ := cmd.Flags().GetInt("limit")

		listed, err := alerts.NewDeriver(st).List(ctx, store.AlertFilter{
			Company:         company,
			Severity:        model.AlertSeverity(severity),
			IncludeResolved: all,
			Limit:           limit,
		})
		if err != nil {
			return err
		}
		if len(listed) == 0 {
			fmt.Fprintln(os.Stderr, "No alerts found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tCOMPANY\tSEVERITY\tRESOLVED\tMESSAGE")
		for _, a := range listed {
			msg := truncate(a.Message, 70)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
				a.ID, a.CreatedAt.Format(time.RFC3339), a.Company, a.Severity, a.Resolved, msg)
		}
		return w.Flush()
	},
}

var alertsResolveCmd = &cobra.Command{
	Use:   "resolve <alert-id>",
	Short: "Mark an alert resolved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := alerts.NewDeriver(st).Resolve(ctx, args[0]); err != nil {
			return err
		}
		zap.L().Info("alert resolved", zap.String("id", args[0]))
		return nil
	},
}

func init() {
	alertsListCmd.Flags().String("company", "", "filter by company")
	alertsListCmd.Flags().String("severity", "", "filter by severity (info, warning, critical)")
	alertsListCmd.Flags().Bool("all", false, "include resolved alerts")
	alertsListCmd.Flags().Int("limit", 50, "max alerts to display")

	alertsCmd.AddCommand(alertsListCmd)
	alertsCmd.AddCommand(alertsResolveCmd)
	rootCmd.AddCommand(alertsCmd)
}
