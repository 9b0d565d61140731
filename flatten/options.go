package flatten

import (
	"github.com/go-logr/logr"
)

// DefaultSeparator joins path segments unless WithSeparator says otherwise.
const DefaultSeparator = "."

type config struct {
	sep      string
	maxDepth int
	logger   logr.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		sep:    DefaultSeparator,
		logger: logr.Discard(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Option configures a flattening.
type Option func(*config)

// WithSeparator sets the string used to join path segments.
func WithSeparator(sep string) Option {
	return func(c *config) {
		c.sep = sep
	}
}

// WithMaxDepth limits how many containers may be nested. Zero means no limit.
func WithMaxDepth(n int) Option {
	return func(c *config) {
		c.maxDepth = n
	}
}

// WithLogger sets the logger. Overwritten keys are logged at V(1).
func WithLogger(logger logr.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
