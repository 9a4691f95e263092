package lambdahandler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
)

const testDSN = "https://public@sentry.example.com/1"

// recordingTransport keeps every event the client sends.
type recordingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions) {}

func (t *recordingTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *recordingTransport) Flush(time.Duration) bool { return true }

func (t *recordingTransport) FlushWithContext(context.Context) bool { return true }

func (t *recordingTransport) Close() {}

func (t *recordingTransport) Events() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*sentry.Event, len(t.events))
	copy(out, t.events)
	return out
}

func (t *recordingTransport) errorEvents() []*sentry.Event {
	var out []*sentry.Event
	for _, event := range t.Events() {
		if event.Type == "" {
			out = append(out, event)
		}
	}
	return out
}

func (t *recordingTransport) transactions() []*sentry.Event {
	var out []*sentry.Event
	for _, event := range t.Events() {
		if event.Type == "transaction" {
			out = append(out, event)
		}
	}
	return out
}

func (t *recordingTransport) lastEvent() *sentry.Event {
	events := t.errorEvents()
	if len(events) == 0 {
		return nil
	}
	return events[len(events)-1]
}

func newTestHub(t *testing.T, options sentry.ClientOptions) (*sentry.Hub, *recordingTransport) {
	t.Helper()

	transport := &recordingTransport{}
	options.Dsn = testDSN
	options.Transport = transport

	client, err := sentry.NewClient(options)
	if err != nil {
		t.Fatalf("sentry.NewClient error: %v", err)
	}

	return sentry.NewHub(client, sentry.NewScope()), transport
}

func tracingOptions() sentry.ClientOptions {
	return sentry.ClientOptions{
		EnableTracing:    true,
		TracesSampleRate: 1.0,
	}
}

func traceContext(event *sentry.Event) map[string]interface{} {
	if event == nil || event.Contexts == nil {
		return nil
	}
	return event.Contexts["trace"]
}
