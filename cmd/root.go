package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/localpulse/listings-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "listings-cli",
	Short: "Synchronize agency locations with the listings provider",
	Long:  "Publishes local business locations to the external listings provider, tracks their sync status, and reconciles local state against the provider.",
	// Runtime failures are reported as JSON on stdout; usage help on top of
	// that is noise.
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
