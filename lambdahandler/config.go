package lambdahandler

import (
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
)

// Environment is the Sentry configuration of a Lambda function, read from the
// process environment.
//
//	| Variable                                | Default | Description                                  |
//	|-----------------------------------------|---------|----------------------------------------------|
//	| SENTRY_DSN                              | -       | Project DSN, empty disables reporting        |
//	| SENTRY_ENVIRONMENT                      | -       | Environment name                             |
//	| SENTRY_RELEASE                          | -       | Release identifier                           |
//	| SENTRY_DEBUG                            | false   | Print sentry-go debug output                 |
//	| SENTRY_ENABLE_TRACING                   | false   | Send invocation transactions                 |
//	| SENTRY_TRACES_SAMPLE_RATE               | 0       | Transaction sample rate, between 0 and 1     |
//	| SENTRY_ENABLE_LOGS                      | false   | Send slog records as Sentry logs             |
//	| SENTRY_LAMBDA_FLUSH_TIMEOUT             | 2s      | Flush budget at the end of every invocation  |
//	| SENTRY_LAMBDA_CAPTURE_TIMEOUT_WARNING   | false   | Report invocations close to their deadline   |
//	| SENTRY_LAMBDA_TIMEOUT_WARNING_THRESHOLD | 500ms   | How close to the deadline the warning fires  |
type Environment struct {
	DSN                     string        `env:"SENTRY_DSN" validate:"omitempty,url"`
	Environment             string        `env:"SENTRY_ENVIRONMENT"`
	Release                 string        `env:"SENTRY_RELEASE"`
	Debug                   bool          `env:"SENTRY_DEBUG"`
	EnableTracing           bool          `env:"SENTRY_ENABLE_TRACING"`
	TracesSampleRate        float64       `env:"SENTRY_TRACES_SAMPLE_RATE" envDefault:"0" validate:"gte=0,lte=1"`
	EnableLogs              bool          `env:"SENTRY_ENABLE_LOGS"`
	FlushTimeout            time.Duration `env:"SENTRY_LAMBDA_FLUSH_TIMEOUT" envDefault:"2s" validate:"gte=0"`
	CaptureTimeoutWarning   bool          `env:"SENTRY_LAMBDA_CAPTURE_TIMEOUT_WARNING"`
	TimeoutWarningThreshold time.Duration `env:"SENTRY_LAMBDA_TIMEOUT_WARNING_THRESHOLD" envDefault:"500ms" validate:"gt=0"`
}

// ParseEnvironment reads and validates the Environment.
func ParseEnvironment() (Environment, error) {
	var e Environment
	if err := env.Parse(&e); err != nil {
		return e, errors.Wrap(err, "failed to parse environment")
	}
	if err := validator.New().Struct(e); err != nil {
		return e, errors.Wrap(err, "invalid environment")
	}
	return e, nil
}

// ClientOptions maps the environment onto sentry-go client options.
func (e Environment) ClientOptions() sentry.ClientOptions {
	serverName := lambdacontext.FunctionName
	if serverName == "" {
		serverName = notAvailable
	}

	return sentry.ClientOptions{
		Dsn:              e.DSN,
		Environment:      e.Environment,
		Release:          e.Release,
		Debug:            e.Debug,
		EnableTracing:    e.EnableTracing,
		TracesSampleRate: e.TracesSampleRate,
		EnableLogs:       e.EnableLogs,
		ServerName:       serverName,
	}
}

// Options are the wrapper options matching the environment.
func (e Environment) Options() []Option {
	return []Option{
		WithFlushTimeout(e.FlushTimeout),
		WithTimeoutWarning(e.CaptureTimeoutWarning),
		WithTimeoutWarningThreshold(e.TimeoutWarningThreshold),
	}
}

// Init initializes the global Sentry hub from the environment. Without a DSN
// nothing is initialized and wrapped handlers run uninstrumented.
func Init(e Environment) error {
	if e.DSN == "" {
		return nil
	}
	if err := sentry.Init(e.ClientOptions()); err != nil {
		return NewReportingError("init", err)
	}
	return nil
}
