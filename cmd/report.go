package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/terra35/vanillacost/internal/model"
)

var reportCmd = &cobra.Command{
	Use:   "report FILE",
	Short: "Summarize a session report file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := readReport(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Session    %s\n", report.SessionID)
		fmt.Printf("Supplier   %s\n", report.Supplier)
		fmt.Printf("Started    %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Duration   %s\n", report.Duration().Round(0))
		fmt.Printf("Collected  %d\n", len(report.Records))
		fmt.Printf("Persisted  %d\n", report.Persisted)
		fmt.Printf("Requests   %d (%d served from cache)\n", report.RequestsMade, report.CacheHits)

		if len(report.Errors) > 0 {
			fmt.Printf("\nErrors (%d):\n", len(report.Errors))
			for _, msg := range report.Errors {
				fmt.Printf("  %s\n", msg)
			}
		}
		if len(report.Warnings) > 0 {
			fmt.Printf("\nWarnings (%d):\n", len(report.Warnings))
			for _, msg := range report.Warnings {
				fmt.Printf("  %s\n", msg)
			}
		}

		tiers := map[model.ConfidenceTier]int{}
		for _, rec := range report.Records {
			tiers[rec.Confidence]++
		}
		fmt.Printf("\nConfidence tiers:\n")
		for _, tier := range []model.ConfidenceTier{model.TierVerified, model.TierHigh, model.TierMedium, model.TierLow} {
			if n := tiers[tier]; n > 0 {
				fmt.Printf("  %-9s %d\n", tier, n)
			}
		}
		return nil
	},
}

func readReport(path string) (*model.SessionReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read report %s", path)
	}
	var report model.SessionReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, eris.Wrapf(err, "parse report %s", path)
	}
	return &report, nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
