package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/outreach-api/internal/monitoring"
)

var (
	monitorLookback int
	monitorAlert    bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Collect a one-shot health snapshot",
	Long:  "Gathers job, contact, and outreach metrics over the lookback window. With --alert, evaluates thresholds and posts to the configured webhook.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		lookback := monitorLookback
		if lookback <= 0 {
			lookback = cfg.Monitor.LookbackHours
		}

		collector := monitoring.NewCollector(st, cfg.Monitor.StallThreshold())
		snap, err := collector.Collect(ctx, lookback)
		if err != nil {
			return eris.Wrap(err, "monitor")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return eris.Wrap(err, "monitor: encode snapshot")
		}

		if !monitorAlert {
			return nil
		}

		alerter := monitoring.NewAlerter(cfg.Monitor)
		alerts := alerter.Evaluate(snap)
		if len(alerts) == 0 {
			fmt.Fprintln(os.Stderr, "No alerts triggered.")
			return nil
		}

		sent := alerter.SendAlerts(ctx, alerts)
		fmt.Fprintf(os.Stderr, "%d alert(s) triggered, %d sent.\n", len(alerts), sent)
		return nil
	},
}

func init() {
	monitorCmd.Flags().IntVar(&monitorLookback, "lookback", 0, "lookback window in hours (default from config)")
	monitorCmd.Flags().BoolVar(&monitorAlert, "alert", false, "evaluate thresholds and post alerts to the webhook")
	rootCmd.AddCommand(monitorCmd)
}
