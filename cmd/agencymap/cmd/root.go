// Package cmd implements the agencymap command tree.
package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agencymap/agencymap/internal/config"
	"github.com/agencymap/agencymap/pkg/logging"
)

var (
	cfgFile      string
	registryPath string
	verbose      bool

	cfg *config.Config
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "agencymap",
	Short: "Reconcile external agency names against the canonical registry",
	Long: `agencymap resolves noisy, human-entered California state agency names
(scraped CSVs, PDF-extracted text) against the canonical registry, and
applies reviewed, validated change-sets with backup and atomic replace.

The registry file is the sole shared mutable resource; runs against the
same registry must be serialized.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
			logging.SetDefault(logging.NewConsole())
		}

		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if registryPath != "" {
			loaded.RegistryPath = registryPath
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default agencymap.yaml)")
	rootCmd.PersistentFlags().StringVarP(&registryPath, "registry", "r", "", "registry JSON file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
