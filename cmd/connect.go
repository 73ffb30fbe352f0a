package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localpulse/listings-cli/internal/model"
)

var (
	connectAgencyID string
	connectToken    string
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Store provider credentials for an agency",
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

		if err := st.UpsertCredentials(ctx, model.Credentials{
			AgencyID: connectAgencyID,
			Token:    connectToken,
		}); err != nil {
			return eris.Wrap(err, "store credentials")
		}

		// The token itself is never logged.
		zap.L().Info("credentials stored", zap.String("agency_id", connectAgencyID))
		return nil
	},
}

func init() {
	connectCmd.Flags().StringVar(&connectAgencyID, "agency", "", "agency id (required)")
	connectCmd.Flags().StringVar(&connectToken, "token", "", "provider API token (required)")
	_ = connectCmd.MarkFlagRequired("agency")
	_ = connectCmd.MarkFlagRequired("token")
	rootCmd.AddCommand(connectCmd)
}
