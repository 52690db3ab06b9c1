package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terra35/vanillacost/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export REPORT OUTPUT",
	Short: "Export a session's citations to CSV or XLSX",
	Long:  "Reads a session report file and writes one row per citation for manual source review. The output format follows the file extension (.csv or .xlsx).",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := readReport(args[0])
		if err != nil {
			return err
		}

		rows := export.Flatten(report.Records)
		if err := export.WriteCitations(args[1], rows); err != nil {
			return err
		}

		fmt.Printf("Exported %d citations to %s\n", len(rows), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
