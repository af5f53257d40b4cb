package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agencymap/agencymap/pkg/match"
	"github.com/agencymap/agencymap/pkg/registry"
)

// dedupeCmd scans the registry for likely duplicate records.
var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Scan the registry for likely duplicate records",
	Long: `Dedupe scores every record against every other record with the
normalized-edit-distance scorer. Records with more than one over-threshold
neighbor are reported ambiguous and left for human review; the scan never
picks between candidates.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		reg, err := registry.Load(cfg.RegistryPath)
		if err != nil {
			return err
		}

		resolver := match.NewResolver(reg, match.WithThreshold(cfg.Threshold))

		var duplicates, ambiguous int
		for _, result := range resolver.Dedupe() {
			switch result.Status {
			case match.StatusMatched:
				duplicates++
				fmt.Printf("possible duplicate: %-45s ~ %s\n", result.Name, result.Candidate)
			case match.StatusAmbiguous:
				ambiguous++
				fmt.Printf("ambiguous cluster:  %-45s (%d candidates)\n", result.Name, len(result.Candidates))
				for _, c := range result.Candidates {
					fmt.Printf("    %s\n", c)
				}
			}
		}

		fmt.Printf("\n%d records scanned: %d possible duplicates, %d ambiguous clusters\n",
			reg.Len(), duplicates, ambiguous)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dedupeCmd)
}
