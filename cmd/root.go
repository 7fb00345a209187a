package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lotline/property-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "property-cli",
	Short: "Property fact reconciliation and layout synthesis",
	Long:  "Fetches property facts from listing APIs, county assessor rolls, and AI-grounded search, reconciles them into a unified record, and synthesizes heuristic room layouts.",
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
