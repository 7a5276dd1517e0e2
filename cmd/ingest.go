package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	ingestUserID string
	ingestWait   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <connections.csv>",
	Short: "Ingest a LinkedIn connections export and enrich the contacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrap(err, "open csv")
		}
		defer f.Close() //nolint:errcheck

		result, err := env.Gateway.Upload(ctx, ingestUserID, f)
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		fmt.Printf("Job %s dispatched: %d contacts (%d skipped)\n",
			result.JobID, result.Total, result.Skipped)
		if result.Truncated {
			fmt.Println("Upload exceeded the contact cap; extra rows were dropped.")
		}

		if !ingestWait {
			return nil
		}

		drainCtx, cancel := context.WithTimeout(ctx, cfg.Pipeline.RunTimeout())
		defer cancel()
		if err := env.Runner.Drain(drainCtx); err != nil {
			zap.L().Warn("enrichment drain timed out", zap.Error(err))
		}

		job, err := env.Store.GetJob(ctx, result.JobID)
		if err != nil {
			return eris.Wrap(err, "load job")
		}
		if job == nil {
			return eris.Errorf("job %s disappeared", result.JobID)
		}

		fmt.Printf("Job %s %s: %d processed, %d failed of %d\n",
			job.ID, job.Status, job.ProcessedCount, job.FailedCount, job.TotalContacts)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestUserID, "user", "", "user ID owning the contacts (required)")
	ingestCmd.Flags().BoolVar(&ingestWait, "wait", true, "block until the enrichment run finishes")
	_ = ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
}
