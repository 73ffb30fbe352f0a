package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/localpulse/listings-cli/internal/syncer"
)

var testAgencyID string

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test provider connectivity for an agency",
	Long:  "Performs a read-only connectivity probe against the listings provider. Never changes any location's sync status.",
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
		res := sy.Probe(ctx, testAgencyID)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return eris.Wrap(err, "encode probe result")
		}

		return probeExitError(res)
	},
}

// probeExitError turns an unhealthy probe into a command error so scripts can
// branch on the exit code.
func probeExitError(res *syncer.ProbeResult) error {
	if res.Reachable && res.Authorized {
		return nil
	}
	return eris.Errorf("connectivity check failed: %s", res.Message)
}

func init() {
	testCmd.Flags().StringVar(&testAgencyID, "agency", "", "agency id (required)")
	_ = testCmd.MarkFlagRequired("agency")
	rootCmd.AddCommand(testCmd)
}
