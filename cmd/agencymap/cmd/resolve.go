package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agencymap/agencymap/pkg/match"
	"github.com/agencymap/agencymap/pkg/registry"
	"github.com/agencymap/agencymap/pkg/score"
)

// resolveCmd classifies one or more names against the registry without
// touching it.
var resolveCmd = &cobra.Command{
	Use:   "resolve <name>...",
	Short: "Resolve external names against the registry",
	Long: `Resolve classifies each name through the priority tiers: exact display
name, canonical name, alias, then fuzzy scoring over generated variations.
Nothing is written; this is a read-only classification.

Examples:
  agencymap resolve "CAL FIRE"
  agencymap resolve -r registry.json "Dept. of Motor Vehicles" "CHP"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		reg, err := registry.Load(cfg.RegistryPath)
		if err != nil {
			return err
		}

		resolver := match.NewResolver(reg,
			match.WithThreshold(cfg.Threshold),
			match.WithScorer(score.New()),
		)

		for _, name := range args {
			result := resolver.Resolve(name)
			switch result.Status {
			case match.StatusMatched:
				fmt.Printf("%-45s → %s\n", name, result.Candidate)
			case match.StatusAmbiguous:
				fmt.Printf("%-45s → ambiguous (%d candidates)\n", name, len(result.Candidates))
				for _, c := range result.Candidates {
					fmt.Printf("    %s\n", c)
				}
			default:
				fmt.Printf("%-45s → unmatched (best %.3f)\n", name, result.BestScore)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}
