package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terra35/vanillacost/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "vanillacost",
	Short: "Supplier cost data ingestion and quality assurance pipeline",
	Long:  "Collects supplier cost observations from research files and catalog pages, attaches standardized citations, validates data quality, and persists the results with a full audit trail.",
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
