package agencymap

import (
	"github.com/rs/zerolog"

	"github.com/agencymap/agencymap/pkg/approval"
	"github.com/agencymap/agencymap/pkg/batch"
	"github.com/agencymap/agencymap/pkg/constants"
	"github.com/agencymap/agencymap/pkg/match"
	"github.com/agencymap/agencymap/pkg/registry"
)

// Option is a function that configures a Client.
type Option func(*Client) error

// config holds the client settings options write into.
type config struct {
	registryPath       string
	checkpointDir      string
	threshold          float64
	checkpointInterval int
	retry              batch.RetryPolicy
}

// defaultConfig returns the client defaults.
func defaultConfig() *config {
	return &config{
		checkpointDir:      ".checkpoints",
		threshold:          constants.AcceptThreshold,
		checkpointInterval: constants.CheckpointInterval,
		retry:              batch.DefaultRetryPolicy(),
	}
}

// WithRegistryPath loads the registry from a JSON file.
func WithRegistryPath(path string) Option {
	return func(c *Client) error {
		c.config.registryPath = path
		return nil
	}
}

// WithRegistry uses a preloaded registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Client) error {
		c.reg = reg
		return nil
	}
}

// WithThreshold sets the fuzzy acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(c *Client) error {
		c.config.threshold = threshold
		return nil
	}
}

// WithApproval sets the approval provider.
func WithApproval(p approval.Provider) Option {
	return func(c *Client) error {
		c.approver = p
		return nil
	}
}

// WithCheckpointDir sets where batch runs persist progress.
func WithCheckpointDir(dir string) Option {
	return func(c *Client) error {
		c.config.checkpointDir = dir
		return nil
	}
}

// WithCheckpointInterval sets how many units are processed between
// checkpoint writes.
func WithCheckpointInterval(n int) Option {
	return func(c *Client) error {
		c.config.checkpointInterval = n
		return nil
	}
}

// WithRetryPolicy sets the retry policy for rate-limited units.
func WithRetryPolicy(p batch.RetryPolicy) Option {
	return func(c *Client) error {
		c.config.retry = p
		return nil
	}
}

// WithResolver overrides the match resolver entirely.
func WithResolver(r *match.Resolver) Option {
	return func(c *Client) error {
		c.resolver = r
		return nil
	}
}

// WithLogger sets the logger for the whole pipeline.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}
