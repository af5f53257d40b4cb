package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agencymap/agencymap/pkg/differ"
	"github.com/agencymap/agencymap/pkg/registry"
)

// diffCmd compares two registry files record by record.
var diffCmd = &cobra.Command{
	Use:   "diff <before> <after>",
	Short: "Show field-level differences between two registry files",
	Long: `Diff compares two registry files record by record (keyed by org code or
canonical name) and prints the field-level changes. Records present on only
one side are reported but not expanded.`,
	Args: cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		before, err := registry.Load(args[0])
		if err != nil {
			return err
		}
		after, err := registry.Load(args[1])
		if err != nil {
			return err
		}

		var total int
		for _, rec := range before.Records() {
			updated, err := after.Find(rec.ID())
			if err != nil {
				fmt.Printf("- %s (removed)\n", rec)
				total++
				continue
			}

			changes, err := differ.Diff(rec, updated)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				continue
			}

			cs := &differ.ChangeSet{RecordID: rec.ID(), Changes: changes}
			fmt.Println(cs)
			total += len(changes)
		}

		for _, rec := range after.Records() {
			if _, err := before.Find(rec.ID()); err != nil {
				fmt.Printf("+ %s (added)\n", rec)
				total++
			}
		}

		if total == 0 {
			fmt.Println("no differences")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
