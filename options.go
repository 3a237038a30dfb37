package anvil

import (
	"log/slog"

	"github.com/hashicorp/go-metrics"
)

type config struct {
	binary     string
	logLevel   string
	configPath string
	workdir    string
	forward    bool
	logHandler slog.Handler
	msink      metrics.MetricSink
}

// Option to pass to `Launch`.
type Option func(*config) error

// WithBinary overrides which runtime binary is started. The default is
// "anvil" resolved through PATH.
func WithBinary(binary string) Option {
	return func(c *config) error {
		if binary != "" {
			c.binary = binary
		}
		return nil
	}
}

// WithLogLevel sets the verbosity flag passed to the runtime binary.
func WithLogLevel(level string) Option {
	return func(c *config) error {
		if level != "" {
			c.logLevel = level
		}
		return nil
	}
}

// WithConfigFile writes the document to an explicit path instead of a
// generated temporary file.
func WithConfigFile(path string) Option {
	return func(c *config) error {
		c.configPath = path
		return nil
	}
}

// WithWorkdir controls where the runtime process runs and where
// generated config files land.
func WithWorkdir(dir string) Option {
	return func(c *config) error {
		if dir != "" {
			c.workdir = dir
		}
		return nil
	}
}

// WithLog specifies which `slog.Handler` the launcher logs through.
func WithLog(handler slog.Handler) Option {
	return func(c *config) error {
		c.logHandler = handler
		return nil
	}
}

// WithMetricSink allows you to choose how to collect the metrics
// emitted around deployments.
func WithMetricSink(ms metrics.MetricSink) Option {
	return func(c *config) error {
		if ms == nil {
			ms = &metrics.BlackholeSink{}
		}
		c.msink = ms
		return nil
	}
}

// WithOutputForwarding connects the runtime's stdout and stderr to the
// parent process instead of discarding them.
func WithOutputForwarding() Option {
	return func(c *config) error {
		c.forward = true
		return nil
	}
}
