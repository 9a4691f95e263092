package lambdahandler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
)

func TestTimeoutWarning(t *testing.T) {
	t.Run("captures a warning close to the deadline", func(t *testing.T) {
		hub, transport := newTestHub(t, sentry.ClientOptions{})
		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		wrapper := NewCaptureExceptions(nil, testInvocation(),
			WithHub(hub),
			WithTimeoutWarning(true),
			WithTimeoutWarningThreshold(250*time.Millisecond),
		)
		_, err := wrapper.Call(ctx, func(context.Context) (any, error) {
			time.Sleep(150 * time.Millisecond)
			return happyResponse(), nil
		})
		if err != nil {
			t.Fatalf("Call error: %v", err)
		}

		events := transport.errorEvents()
		if len(events) != 1 {
			t.Fatalf("expected 1 warning, got %d", len(events))
		}
		event := events[0]
		if event.Level != sentry.LevelWarning {
			t.Errorf("level = %q, want warning", event.Level)
		}
		if len(event.Exception) == 0 || !strings.Contains(event.Exception[len(event.Exception)-1].Value, "expected to get timed out") {
			t.Errorf("unexpected exception %+v", event.Exception)
		}
		if event.Transaction != "my-function" {
			t.Errorf("transaction = %q, want my-function", event.Transaction)
		}
		if _, ok := event.Extra["lambda"]; !ok {
			t.Error("expected the warning to carry lambda metadata")
		}
	})

	t.Run("disabled by default", func(t *testing.T) {
		hub, transport := newTestHub(t, sentry.ClientOptions{})
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		wrapper := NewCaptureExceptions(nil, testInvocation(), WithHub(hub))
		_, _ = wrapper.Call(ctx, func(context.Context) (any, error) {
			time.Sleep(120 * time.Millisecond)
			return nil, nil
		})

		if got := len(transport.Events()); got != 0 {
			t.Errorf("expected no events, got %d", got)
		}
	})

	t.Run("does not fire when the handler returns in time", func(t *testing.T) {
		hub, transport := newTestHub(t, sentry.ClientOptions{})
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		wrapper := NewCaptureExceptions(nil, testInvocation(), WithHub(hub), WithTimeoutWarning(true))
		_, _ = wrapper.Call(ctx, func(context.Context) (any, error) {
			return nil, nil
		})

		if got := len(transport.Events()); got != 0 {
			t.Errorf("expected no events, got %d", got)
		}
	})

	t.Run("needs a deadline", func(t *testing.T) {
		hub, transport := newTestHub(t, sentry.ClientOptions{})

		wrapper := NewCaptureExceptions(nil, testInvocation(), WithHub(hub), WithTimeoutWarning(true))
		_, _ = wrapper.Call(context.Background(), func(context.Context) (any, error) {
			time.Sleep(10 * time.Millisecond)
			return nil, nil
		})

		if got := len(transport.Events()); got != 0 {
			t.Errorf("expected no events, got %d", got)
		}
	})
}
