package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agencymap/agencymap/pkg/registry"
)

// validateCmd checks a registry file against the schema invariants.
var validateCmd = &cobra.Command{
	Use:   "validate [registry-file]",
	Short: "Validate a registry file",
	Long: `Validate loads a registry file and checks every schema invariant:
required fields, org code format, parent references, duplicate canonical
names, and fund-split bucket sums. Loading already validates, so a zero
exit means the file is safe to reconcile against.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		path := cfg.RegistryPath
		if len(args) == 1 {
			path = args[0]
		}

		reg, err := registry.Load(path)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d records, valid\n", path, reg.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
