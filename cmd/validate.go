package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/terra35/vanillacost/internal/collector"
	"github.com/terra35/vanillacost/internal/model"
	"github.com/terra35/vanillacost/internal/validate"
)

var validateVerbose bool

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate research payloads without persisting",
	Long:  "Loads research files, re-derives every citation's confidence from its stored attributes, runs the full rule set, and prints a per-record verdict. Exits non-zero when any record has critical findings.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Collect.ResearchDir
		if len(args) == 1 {
			dir = args[0]
		}

		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		cc := env.collectorContext()
		records, err := collector.NewFileCollector(dir, "").Collect(cmd.Context(), cc)
		if err != nil {
			return err
		}

		// Citation confidence is derived, never trusted input.
		for _, rec := range records {
			for i := range rec.Citations {
				rec.Citations[i].Confidence = env.Citations.Rescore(&rec.Citations[i])
			}
		}

		summaries := env.Validator.ValidateBatch(cmd.Context(), records,
			validate.Lookups{Taxonomy: env.Sink})

		invalid := 0
		for _, s := range summaries {
			verdict := "ok"
			if !s.IsValid() {
				verdict = "REJECTED"
				invalid++
			}
			fmt.Printf("%-30s %-8s score=%.2f tier=%s checks=%d/%d\n",
				s.ItemID, verdict, s.Score, s.Confidence, s.Passed, s.TotalChecks)
			for _, f := range s.Findings {
				if validateVerbose || f.Severity == model.SeverityError || f.Severity == model.SeverityCritical {
					fmt.Printf("    [%s] %s: %s\n", f.Severity, f.Rule, f.Message)
				}
			}
		}

		fmt.Printf("\n%d records, %d rejected\n", len(summaries), invalid)
		if invalid > 0 {
			return eris.Errorf("%d records failed validation", invalid)
		}
		return nil
	},
}

func init() {
	validateCmd.Flags().BoolVarP(&validateVerbose, "verbose", "v", false, "print warnings and info findings too")
	rootCmd.AddCommand(validateCmd)
}
