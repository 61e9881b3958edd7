package platform

import (
	"log/slog"
	"time"

	"github.com/birdtracker/birdtracker/pkg/config"
	"github.com/birdtracker/birdtracker/pkg/core"
)

// DefaultLockTimeout bounds how long a mutating operation waits for the
// project lock held by another process.
const DefaultLockTimeout = 10 * time.Second

// options holds the internal configuration for a Project.
type options struct {
	logger      *slog.Logger
	now         func() time.Time
	config      *config.Config
	images      core.ImageProcessor
	lockTimeout time.Duration
}

// Option defines a functional option for configuring a Project.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		now:         time.Now,
		lockTimeout: DefaultLockTimeout,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the time source for drawn dates and version timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithConfig uses cfg instead of loading birdtracker.yaml. Relative paths
// are resolved against the project root.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.config = &cfg
	}
}

// WithImageProcessor replaces the WebP processor.
func WithImageProcessor(p core.ImageProcessor) Option {
	return func(o *options) {
		o.images = p
	}
}

// WithLockTimeout sets how long Build and Ship wait for the project lock.
// Zero fails immediately when the lock is held.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}
