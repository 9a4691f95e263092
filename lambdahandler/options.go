package lambdahandler

import (
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	defaultFlushTimeout            = 2 * time.Second
	defaultTimeoutWarningThreshold = 500 * time.Millisecond

	operationName   = "serverless.function"
	transactionType = "transaction"
)

type config struct {
	hub                     *sentry.Hub
	invocation              *InvocationContext
	captureTimeoutWarning   bool
	timeoutWarningThreshold time.Duration
	flushTimeout            time.Duration
	logger                  *slog.Logger
	now                     func() time.Time
}

type Option func(*config)

// WithHub reports through hub instead of the one found on the context.
func WithHub(hub *sentry.Hub) Option {
	return func(c *config) {
		c.hub = hub
	}
}

// WithInvocationContext overrides the invocation metadata read from the context.
func WithInvocationContext(ic InvocationContext) Option {
	return func(c *config) {
		ic = ic.withDefaults()
		c.invocation = &ic
	}
}

func WithTimeoutWarning(enabled bool) Option {
	return func(c *config) {
		c.captureTimeoutWarning = enabled
	}
}

// WithTimeoutWarningThreshold sets how long before the deadline the timeout
// warning fires.
func WithTimeoutWarningThreshold(threshold time.Duration) Option {
	return func(c *config) {
		if threshold > 0 {
			c.timeoutWarningThreshold = threshold
		}
	}
}

// WithFlushTimeout bounds the flush done at the end of every invocation.
// Zero disables flushing.
func WithFlushTimeout(timeout time.Duration) Option {
	return func(c *config) {
		if timeout >= 0 {
			c.flushTimeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func newConfig(opts ...Option) *config {
	c := &config{
		timeoutWarningThreshold: defaultTimeoutWarningThreshold,
		flushTimeout:            defaultFlushTimeout,
		logger:                  slog.Default(),
		now:                     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}
