package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agencymap/agencymap"
	"github.com/agencymap/agencymap/internal/sources"
	"github.com/agencymap/agencymap/pkg/approval"
	"github.com/agencymap/agencymap/pkg/batch"
)

var (
	runNameColumn string
	runYearColumn string
	runYear       string
	runAuto       bool
)

// runCmd drives the checkpointed reconcile pipeline over an input file.
var runCmd = &cobra.Command{
	Use:   "run <input-file>",
	Short: "Reconcile an input file against the registry",
	Long: `Run resolves every observation in the input file, proposes change-sets
for matched records, gates them through the approval provider, and applies
approved changes with backup and atomic replace.

CSV inputs are header-mapped; .txt inputs are treated as extracted budget
lines (org code, name, optional amount). Progress checkpoints into the
checkpoint directory after every N units, so a killed run resumes without
reprocessing recorded units.

Examples:
  agencymap run scraped.csv --year 2024
  agencymap run 3orgstruc.txt --year 2024 --auto`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := args[0]

		var source sources.Source
		if strings.HasSuffix(strings.ToLower(input), ".csv") {
			source = &sources.CSVSource{
				Path:       input,
				NameColumn: runNameColumn,
				YearColumn: runYearColumn,
				Year:       runYear,
			}
		} else {
			source = &sources.TextSource{Path: input, Year: runYear}
		}

		observations, err := source.Observations()
		if err != nil {
			return err
		}

		var approver approval.Provider = approval.NewConsole()
		if runAuto || cfg.AutoApprove {
			approver = &approval.Auto{Threshold: cfg.AutoApproveThreshold}
		}

		client, err := agencymap.New(
			agencymap.WithRegistryPath(cfg.RegistryPath),
			agencymap.WithThreshold(cfg.Threshold),
			agencymap.WithCheckpointDir(cfg.CheckpointDir),
			agencymap.WithCheckpointInterval(cfg.CheckpointInterval),
			agencymap.WithApproval(approver),
			agencymap.WithRetryPolicy(batch.RetryPolicy{
				MaxAttempts: cfg.MaxRetries,
				BaseDelay:   batch.DefaultRetryPolicy().BaseDelay,
				MaxDelay:    batch.DefaultRetryPolicy().MaxDelay,
			}),
		)
		if err != nil {
			return err
		}

		summary, err := client.RunBatch(cmd.Context(), observations)
		fmt.Printf("\n%s\n", summary)
		if err != nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runNameColumn, "name-column", "name", "CSV column holding the agency name")
	runCmd.Flags().StringVar(&runYearColumn, "year-column", "", "CSV column holding the fiscal year")
	runCmd.Flags().StringVar(&runYear, "year", "", "fiscal year applied to rows without one")
	runCmd.Flags().BoolVar(&runAuto, "auto", false, "use the automated approval policy")
}
