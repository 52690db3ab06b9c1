package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run data integrity checks on the record sink",
	Long:  "Counts records, prices, citations and sessions, and reports integrity issues: records without prices, prices without citations, stale citations, and orphaned audit-log entries. Exits non-zero when issues are found.",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		health, err := env.Sink.Health(cmd.Context())
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(health, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal health report")
		}
		fmt.Println(string(data))

		if !health.Healthy() {
			return eris.New("integrity issues found")
		}
		fmt.Println("No integrity issues found.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
