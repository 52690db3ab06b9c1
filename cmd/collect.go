package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terra35/vanillacost/internal/collector"
	"github.com/terra35/vanillacost/internal/model"
)

var (
	collectDryRun    bool
	collectReportDir string
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run a collection session",
}

var collectFilesCmd = &cobra.Command{
	Use:   "files [dir]",
	Short: "Ingest manual research payload files",
	Long:  "Reads YAML/JSON research payloads (reports, quotes, phone research) and pushes them through citation, validation, and persistence.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Collect.ResearchDir
		if len(args) == 1 {
			dir = args[0]
		}
		return runSession(cmd, collector.NewFileCollector(dir, ""))
	},
}

var (
	catalogSupplier string
	catalogOrg      string
)

var collectCatalogCmd = &cobra.Command{
	Use:   "catalog URL...",
	Short: "Collect product pages from a supplier catalog",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if catalogSupplier == "" {
			return eris.New("--supplier is required")
		}
		org := catalogOrg
		if org == "" {
			org = catalogSupplier
		}
		return runSession(cmd, collector.NewCatalogCollector(catalogSupplier, org, args))
	},
}

func runSession(cmd *cobra.Command, col collector.Collector) error {
	env, err := initEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer env.Close()

	report, err := collector.Run(cmd.Context(), env.collectorContext(), col, collector.RunOptions{
		DryRun:   collectDryRun,
		Progress: true,
	})
	if err != nil {
		return err
	}

	if !collectDryRun {
		if path, err := writeReport(report); err != nil {
			zap.L().Warn("report write failed", zap.Error(err))
		} else {
			fmt.Printf("Report written to %s\n", path)
		}
	}

	fmt.Printf("Session %s: %d collected, %d persisted, %d errors, %d warnings\n",
		report.SessionID, len(report.Records), report.Persisted,
		len(report.Errors), len(report.Warnings))
	for _, msg := range report.Errors {
		fmt.Printf("  error: %s\n", msg)
	}
	return nil
}

func writeReport(report *model.SessionReport) (string, error) {
	if err := os.MkdirAll(collectReportDir, 0o755); err != nil {
		return "", eris.Wrapf(err, "create report dir %s", collectReportDir)
	}
	path := filepath.Join(collectReportDir, report.SessionID+".json")

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", eris.Wrapf(err, "write report %s", path)
	}
	return path, nil
}

func init() {
	collectCmd.PersistentFlags().BoolVar(&collectDryRun, "dry-run", false, "validate without persisting")
	collectCmd.PersistentFlags().StringVar(&collectReportDir, "report-dir", "data/reports", "directory for session report files")
	collectCatalogCmd.Flags().StringVar(&catalogSupplier, "supplier", "", "supplier key for item ids")
	collectCatalogCmd.Flags().StringVar(&catalogOrg, "organization", "", "organization name for citations (defaults to supplier)")
	collectCmd.AddCommand(collectFilesCmd, collectCatalogCmd)
	rootCmd.AddCommand(collectCmd)
}
