package lambdahandler

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
)

// HandlerFunc is the unit of work run inside an invocation scope.
type HandlerFunc func(ctx context.Context) (any, error)

// CaptureExceptions runs one invocation inside an isolated Sentry scope,
// reports its failures and traces it as a transaction.
type CaptureExceptions struct {
	event      Event
	invocation InvocationContext
	config     *config
}

func NewCaptureExceptions(event Event, invocation InvocationContext, opts ...Option) *CaptureExceptions {
	return &CaptureExceptions{
		event:      event,
		invocation: invocation.withDefaults(),
		config:     newConfig(opts...),
	}
}

// Call runs handler. The handler's result, error and panics reach the caller
// unchanged; Sentry only observes them.
func (c *CaptureExceptions) Call(ctx context.Context, handler HandlerFunc) (any, error) {
	hub := c.config.resolveHub(ctx)
	if !initialized(hub) {
		return handler(ctx)
	}

	// Warm sandboxes serve many invocations, so each one gets a fresh hub.
	hub = hub.Clone()
	ctx = sentry.SetHubOnContext(NewContext(ctx, c.invocation), hub)

	var result outcome
	hub.WithScope(func(scope *sentry.Scope) {
		result = c.invoke(ctx, hub, scope, handler)
	})

	c.flush(hub)

	if result.panicked {
		panic(result.recovered)
	}
	return result.value, result.err
}

func (c *config) resolveHub(ctx context.Context) *sentry.Hub {
	if c.hub != nil {
		return c.hub
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func initialized(hub *sentry.Hub) bool {
	return hub != nil && hub.Client() != nil
}

func (c *CaptureExceptions) invoke(ctx context.Context, hub *sentry.Hub, scope *sentry.Scope, handler HandlerFunc) outcome {
	start := c.config.now()
	expiration := start.Add(c.invocation.RemainingTime())

	scope.ClearBreadcrumbs()
	scope.AddEventProcessor(c.enrichEvent(start, expiration))

	transaction := c.startTransaction(ctx, c.invocation.FunctionName)
	if transaction != nil {
		scope.SetSpan(transaction)
		ctx = transaction.Context()
	}

	// Logged without ctx: lifecycle lines must not end up as breadcrumbs.
	c.config.logger.Debug("sentry-lambda: invocation started",
		slog.String("function_name", c.invocation.FunctionName),
		slog.String("aws_request_id", c.invocation.AwsRequestID),
	)

	stopTimeoutWarning := c.watchTimeout(ctx, hub, scope)
	result := run(ctx, handler)
	stopTimeoutWarning()

	if result.failed() {
		c.capture(ctx, hub, result)
	}

	statusCode := result.statusCode()
	finishTransaction(transaction, statusCode)

	c.config.logger.Debug("sentry-lambda: invocation finished",
		slog.Int("status_code", statusCode),
		slog.Bool("failed", result.failed()),
	)

	return result
}

func run(ctx context.Context, handler HandlerFunc) (result outcome) {
	defer func() {
		if r := recover(); r != nil {
			result = outcome{recovered: r, panicked: true}
		}
	}()

	value, err := handler(ctx)
	return outcome{value: value, err: err}
}

func (c *CaptureExceptions) capture(ctx context.Context, hub *sentry.Hub, result outcome) {
	// Reporting failures are never reported, that would only loop.
	if IsReportingError(result.cause()) {
		c.config.logger.Debug("sentry-lambda: not reporting a reporting error",
			slog.String("error", result.cause().Error()),
		)
		return
	}

	if result.panicked {
		hub.RecoverWithContext(ctx, result.recovered)
		return
	}
	hub.CaptureException(result.err)
}

func (c *CaptureExceptions) startTransaction(ctx context.Context, name string) *sentry.Span {
	// StartTransaction hands back a transaction already on ctx, which is not
	// ours to finish.
	if parent := sentry.TransactionFromContext(ctx); parent != nil {
		return sentry.StartSpan(ctx, operationName, sentry.WithDescription(name))
	}

	options := []sentry.SpanOption{
		sentry.WithOpName(operationName),
		sentry.WithTransactionSource(sentry.SourceComponent),
	}
	if trace := c.event.SentryTrace(); trace != "" {
		options = append(options, sentry.ContinueFromHeaders(trace, c.event.Baggage()))
	}

	return sentry.StartTransaction(ctx, name, options...)
}

func finishTransaction(transaction *sentry.Span, statusCode int) {
	if transaction == nil {
		return
	}

	transaction.Status = sentry.HTTPtoSpanStatus(statusCode)
	transaction.SetData("http.response.status_code", statusCode)
	transaction.Finish()
}

func (c *CaptureExceptions) enrichEvent(start, expiration time.Time) sentry.EventProcessor {
	ic := c.invocation
	return func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
		eventTime := event.Timestamp
		if eventTime.IsZero() {
			eventTime = c.config.now()
		}

		remaining := expiration.Sub(eventTime)
		if remaining < 0 {
			remaining = 0
		}

		if event.Type != transactionType && event.Transaction == "" {
			event.Transaction = ic.FunctionName
		}

		if event.Extra == nil {
			event.Extra = make(map[string]interface{})
		}
		event.Extra["lambda"] = map[string]interface{}{
			"function_name":                ic.FunctionName,
			"function_version":             ic.FunctionVersion,
			"invoked_function_arn":         ic.InvokedFunctionArn,
			"aws_request_id":               ic.AwsRequestID,
			"execution_duration_in_millis": eventTime.Sub(start).Round(time.Millisecond).Milliseconds(),
			"remaining_time_in_millis":     remaining.Round(time.Millisecond).Milliseconds(),
		}

		return event
	}
}

func (c *CaptureExceptions) flush(hub *sentry.Hub) {
	if c.config.flushTimeout <= 0 {
		return
	}
	if !hub.Flush(c.config.flushTimeout) {
		c.config.logger.Warn("sentry-lambda: flush did not complete",
			slog.Duration("timeout", c.config.flushTimeout),
		)
	}
}
