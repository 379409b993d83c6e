package bootstrap

import (
	"time"

	"github.com/kbukum/connector/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout time.Duration
	signals         bool
}

// WithLogger sets the application logger instead of initializing the global
// one from config.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout bounds shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = d }
}

// WithoutSignals stops Run and RunTask from listening for SIGINT/SIGTERM;
// only context cancellation ends them.
func WithoutSignals() Option {
	return func(o *appOptions) { o.signals = false }
}
