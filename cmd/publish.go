package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localpulse/listings-cli/internal/syncer"
)

var (
	publishAgencyID   string
	publishLocationID string
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish one location to the listings provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		sy := initSyncer(st)

		attempt, err := sy.Publish(ctx, publishAgencyID, publishLocationID)
		if err != nil {
			return eris.Wrap(err, "publish")
		}

		if err := st.LogAttempt(ctx, *attempt); err != nil {
			zap.L().Warn("attempt log write failed", zap.Error(err))
		}

		report := syncer.Normalize(attempt)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return eris.Wrap(err, "encode report")
		}

		// Errors exit non-zero through Execute so the deferred store close
		// still runs.
		return publishExitError(report)
	},
}

// publishExitError turns a failed report into a command error so scripts can
// branch on the exit code.
func publishExitError(report syncer.Report) error {
	if report.Success {
		return nil
	}
	return eris.Errorf("publish failed: %s", report.Message)
}

func init() {
	publishCmd.Flags().StringVar(&publishAgencyID, "agency", "", "agency id (required)")
	publishCmd.Flags().StringVar(&publishLocationID, "location", "", "location id (required)")
	_ = publishCmd.MarkFlagRequired("agency")
	_ = publishCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(publishCmd)
}
