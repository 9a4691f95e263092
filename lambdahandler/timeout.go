package lambdahandler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
)

// watchTimeout arms the timeout warning for the running invocation. The
// returned function disarms it and waits for an in-flight warning.
func (c *CaptureExceptions) watchTimeout(ctx context.Context, hub *sentry.Hub, scope *sentry.Scope) (stop func()) {
	if !c.config.captureTimeoutWarning {
		return func() {}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		return func() {}
	}

	wait := time.Until(deadline.Add(-c.config.timeoutWarningThreshold))
	if wait < 0 {
		wait = 0
	}

	timer := time.NewTimer(wait)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-done:
		case <-timer.C:
			c.warnTimeout(ctx, hub, scope, deadline)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			timer.Stop()
			close(done)
			wg.Wait()
		})
	}
}

func (c *CaptureExceptions) warnTimeout(ctx context.Context, hub *sentry.Hub, scope *sentry.Scope, deadline time.Time) {
	client := hub.Client()
	if client == nil {
		return
	}

	remaining := time.Until(deadline)
	if remaining < 0 {
		remaining = 0
	}
	warning := &TimeoutWarning{
		FunctionName: c.invocation.FunctionName,
		Remaining:    remaining.Round(time.Millisecond),
	}

	// The invocation scope belongs to the handler goroutine, capture with a copy.
	warningScope := scope.Clone()
	warningScope.SetLevel(sentry.LevelWarning)
	client.CaptureException(warning, &sentry.EventHint{Context: ctx, OriginalException: warning}, warningScope)

	c.config.logger.Warn("sentry-lambda: invocation close to its deadline",
		slog.String("function_name", warning.FunctionName),
		slog.Duration("remaining", warning.Remaining),
	)

	if c.config.flushTimeout > 0 {
		client.Flush(c.config.flushTimeout)
	}
}
