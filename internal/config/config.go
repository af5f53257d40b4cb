// Package config loads engine configuration from flags, environment, and
// an optional config file, in viper's usual precedence order. A .env file
// in the working directory is folded into the environment first.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/errors"
)

// Config holds the engine settings for one run.
type Config struct {
	// RegistryPath is the canonical registry JSON file
	RegistryPath string `mapstructure:"registry"`

	// CheckpointDir is where batch runs persist progress
	CheckpointDir string `mapstructure:"checkpoint_dir"`

	// Threshold is the fuzzy acceptance threshold
	Threshold float64 `mapstructure:"threshold"`

	// AutoApproveThreshold is the automated approval cutoff
	AutoApproveThreshold float64 `mapstructure:"auto_approve_threshold"`

	// CheckpointInterval is units between checkpoint writes
	CheckpointInterval int `mapstructure:"checkpoint_interval"`

	// MaxRetries is the attempt budget for rate-limited units
	MaxRetries int `mapstructure:"max_retries"`

	// AutoApprove switches the approval provider from console prompt to
	// the automated policy
	AutoApprove bool `mapstructure:"auto_approve"`
}

// Load reads configuration with the precedence: explicit config file,
// environment (AGENCYMAP_*), then defaults. cfgFile may be empty, in which
// case agencymap.yaml in the working directory is used when present.
func Load(cfgFile string) (*Config, error) {
	// Fold a .env file into the environment before viper reads it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("registry", "registry.json")
	v.SetDefault("checkpoint_dir", ".checkpoints")
	v.SetDefault("threshold", constants.AcceptThreshold)
	v.SetDefault("auto_approve_threshold", constants.AutoApproveThreshold)
	v.SetDefault("checkpoint_interval", constants.CheckpointInterval)
	v.SetDefault("max_retries", constants.MaxRetryAttempts)
	v.SetDefault("auto_approve", false)

	v.SetEnvPrefix("AGENCYMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &errors.ConfigError{Component: "config", Message: "reading " + cfgFile, Err: err}
		}
	} else {
		v.SetConfigName("agencymap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// A missing default config file is fine; a malformed one is not.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, &errors.ConfigError{Component: "config", Message: "reading agencymap.yaml", Err: err}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &errors.ConfigError{Component: "config", Message: "unmarshaling", Err: err}
	}

	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		return nil, &errors.ConfigError{Component: "config", Message: "threshold must be in (0, 1]"}
	}
	if cfg.AutoApproveThreshold < cfg.Threshold {
		return nil, &errors.ConfigError{Component: "config", Message: "auto_approve_threshold below acceptance threshold"}
	}

	return &cfg, nil
}
