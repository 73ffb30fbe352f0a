package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localpulse/listings-cli/internal/resilience"
	"github.com/localpulse/listings-cli/internal/syncer"
)

var (
	reconcileAgencyID    string
	reconcileConcurrency int
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Poll the provider and reconcile local sync statuses",
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

		retry := resilience.DefaultRetryConfig()
		if cfg.Reconcile.MaxRetries > 0 {
			retry.MaxAttempts = cfg.Reconcile.MaxRetries
		}

		concurrency := reconcileConcurrency
		if concurrency == 0 {
			concurrency = cfg.Reconcile.Concurrency
		}

		res, err := sy.Reconcile(ctx, syncer.SweepOptions{
			AgencyID:    reconcileAgencyID,
			Concurrency: concurrency,
			Retry:       retry,
		})
		if err != nil {
			return eris.Wrap(err, "reconcile")
		}

		zap.L().Info("reconcile complete",
			zap.Int("checked", res.Checked),
			zap.Int("updated", res.Updated),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
		)
		return nil
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileAgencyID, "agency", "", "restrict the sweep to one agency")
	reconcileCmd.Flags().IntVar(&reconcileConcurrency, "concurrency", 0, "parallel provider polls (default from config)")
	rootCmd.AddCommand(reconcileCmd)
}
