package lambdahandler

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	sentryTraceKey = "HTTP_SENTRY_TRACE"
	baggageKey     = "HTTP_BAGGAGE"

	sentryTraceHeader = "sentry-trace"
	baggageHeader     = "baggage"
)

// Event is the raw JSON payload that triggered the invocation.
type Event []byte

// NewEvent turns a handler input into an Event. Byte slices and strings are
// taken as JSON as-is, everything else is encoded.
func NewEvent(v any) Event {
	switch v := v.(type) {
	case nil:
		return nil
	case Event:
		return v
	case json.RawMessage:
		return Event(v)
	case []byte:
		return Event(v)
	case string:
		return Event(v)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}

// Get looks up a gjson path in the payload.
func (e Event) Get(path string) gjson.Result {
	if len(e) == 0 {
		return gjson.Result{}
	}
	return gjson.GetBytes(e, path)
}

// SentryTrace returns the sentry-trace header carried by the event, or "".
func (e Event) SentryTrace() string {
	return e.lookup(sentryTraceKey, sentryTraceHeader)
}

// Baggage returns the baggage header carried by the event, or "".
func (e Event) Baggage() string {
	return e.lookup(baggageKey, baggageHeader)
}

func (e Event) lookup(key, header string) string {
	if len(e) == 0 || !gjson.ValidBytes(e) {
		return ""
	}

	if v := gjson.GetBytes(e, key); v.Type == gjson.String && v.Str != "" {
		return v.Str
	}

	var found string
	gjson.GetBytes(e, "headers").ForEach(func(k, v gjson.Result) bool {
		if strings.EqualFold(k.String(), header) && v.String() != "" {
			found = v.String()
			return false
		}
		return true
	})
	if found != "" {
		return found
	}

	gjson.GetBytes(e, "multiValueHeaders").ForEach(func(k, v gjson.Result) bool {
		if strings.EqualFold(k.String(), header) {
			found = v.Get("0").String()
			return found == ""
		}
		return true
	})
	return found
}
