package lambdahandler

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/sjson"
)

const testSentryTrace = "d49d9bf66f13450b81f65bc51cf49c03-1e1e9e8c6c9a8d13-1"

func mustSet(t *testing.T, raw []byte, path string, value any) []byte {
	t.Helper()
	out, err := sjson.SetBytes(raw, path, value)
	if err != nil {
		t.Fatalf("sjson.SetBytes(%q) error: %v", path, err)
	}
	return out
}

func TestEvent_SentryTrace(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "empty event",
			event: nil,
			want:  "",
		},
		{
			name:  "invalid json",
			event: Event("{"),
			want:  "",
		},
		{
			name:  "top-level key",
			event: mustSet(t, nil, "HTTP_SENTRY_TRACE", testSentryTrace),
			want:  testSentryTrace,
		},
		{
			name:  "lowercase header",
			event: mustSet(t, nil, "headers.sentry-trace", testSentryTrace),
			want:  testSentryTrace,
		},
		{
			name:  "canonical header",
			event: mustSet(t, nil, "headers.Sentry-Trace", testSentryTrace),
			want:  testSentryTrace,
		},
		{
			name:  "multi value header",
			event: mustSet(t, nil, "multiValueHeaders.sentry-trace", []string{testSentryTrace, "ignored"}),
			want:  testSentryTrace,
		},
		{
			name:  "no header",
			event: mustSet(t, nil, "headers.accept", "application/json"),
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.SentryTrace(); got != tt.want {
				t.Errorf("SentryTrace() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvent_Baggage(t *testing.T) {
	raw := mustSet(t, nil, "headers.Baggage", "sentry-trace_id=d49d9bf66f13450b81f65bc51cf49c03")
	if got := Event(raw).Baggage(); got != "sentry-trace_id=d49d9bf66f13450b81f65bc51cf49c03" {
		t.Errorf("Baggage() = %q", got)
	}

	raw = mustSet(t, nil, "HTTP_BAGGAGE", "sentry-release=1.0")
	if got := Event(raw).Baggage(); got != "sentry-release=1.0" {
		t.Errorf("Baggage() = %q", got)
	}
}

func TestNewEvent(t *testing.T) {
	t.Run("raw payloads are kept", func(t *testing.T) {
		raw := json.RawMessage(`{"a":1}`)
		if got := string(NewEvent(raw)); got != `{"a":1}` {
			t.Errorf("NewEvent = %s", got)
		}
		if got := string(NewEvent(`{"b":2}`)); got != `{"b":2}` {
			t.Errorf("NewEvent = %s", got)
		}
	})

	t.Run("nil is empty", func(t *testing.T) {
		if got := NewEvent(nil); len(got) != 0 {
			t.Errorf("NewEvent(nil) = %s", got)
		}
	})

	t.Run("typed events are encoded", func(t *testing.T) {
		event := NewEvent(events.APIGatewayProxyRequest{
			Resource: "/items",
			Headers:  map[string]string{"sentry-trace": testSentryTrace},
		})
		if got := event.SentryTrace(); got != testSentryTrace {
			t.Errorf("SentryTrace() = %q, want %q", got, testSentryTrace)
		}
		if got := event.Get("resource").String(); got != "/items" {
			t.Errorf("resource = %q", got)
		}
	})

	t.Run("unencodable values are empty", func(t *testing.T) {
		if got := NewEvent(make(chan int)); len(got) != 0 {
			t.Errorf("NewEvent(chan) = %s", got)
		}
	})
}
