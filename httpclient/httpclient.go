// Package httpclient traces outgoing requests made while serving an invocation.
// Each request becomes an http.client span under the invocation transaction,
// and the trace continues downstream through sentry-trace and baggage headers.
//
//	client := &http.Client{
//		Transport: httpclient.NewSentryRoundTripper(nil, []string{"api.example.com"}),
//	}
//
//	request, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.example.com/orders", nil)
//	response, err := client.Do(request)
package httpclient

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aldy505/sentry-lambda/lambdahandler"
	"github.com/getsentry/sentry-go"
)

const operationName = "http.client"

type SentryRoundTripTracerOption func(*SentryRoundTripper)

func WithTags(tags map[string]string) SentryRoundTripTracerOption {
	return func(t *SentryRoundTripper) {
		for k, v := range tags {
			t.tags[k] = v
		}
	}
}

func WithTag(key, value string) SentryRoundTripTracerOption {
	return func(t *SentryRoundTripper) {
		t.tags[key] = value
	}
}

// NewSentryRoundTripper wraps originalRoundTripper, http.DefaultTransport when
// nil. Trace headers are only sent to URLs containing one of
// tracePropagationTargets, or to every URL when there are none.
func NewSentryRoundTripper(originalRoundTripper http.RoundTripper, tracePropagationTargets []string, opts ...SentryRoundTripTracerOption) http.RoundTripper {
	if originalRoundTripper == nil {
		originalRoundTripper = http.DefaultTransport
	}

	t := &SentryRoundTripper{
		originalRoundTripper:    originalRoundTripper,
		tracePropagationTargets: tracePropagationTargets,
		tags:                    make(map[string]string),
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

type SentryRoundTripper struct {
	originalRoundTripper    http.RoundTripper
	tracePropagationTargets []string

	tags map[string]string
}

func (s *SentryRoundTripper) propagates(url string) bool {
	if len(s.tracePropagationTargets) == 0 {
		return true
	}
	for _, target := range s.tracePropagationTargets {
		if strings.Contains(url, target) {
			return true
		}
	}
	return false
}

func (s *SentryRoundTripper) RoundTrip(request *http.Request) (*http.Response, error) {
	ctx := request.Context()
	parentSpan := sentry.SpanFromContext(ctx)
	if parentSpan == nil {
		return s.originalRoundTripper.RoundTrip(request)
	}

	span := sentry.StartSpan(ctx, operationName, sentry.WithDescription(fmt.Sprintf("%s %s", request.Method, request.URL.Path)))
	defer span.Finish()

	for k, v := range s.tags {
		span.SetTag(k, v)
	}
	if ic, ok := lambdahandler.FromContext(ctx); ok {
		span.SetTag("faas.invocation_id", ic.AwsRequestID)
	}

	span.SetData("http.request.method", request.Method)
	span.SetData("url.full", request.URL.Redacted())
	if query := request.URL.Query().Encode(); query != "" {
		span.SetData("http.query", query)
	}

	if s.propagates(request.URL.String()) {
		// RoundTrippers must not modify the caller's request.
		request = request.Clone(span.Context())
		request.Header.Set(sentry.SentryTraceHeader, span.ToSentryTrace())
		request.Header.Set(sentry.SentryBaggageHeader, span.ToBaggage())
	}

	response, err := s.originalRoundTripper.RoundTrip(request)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return response, err
	}

	span.Status = sentry.HTTPtoSpanStatus(response.StatusCode)
	span.SetData("http.response.status_code", response.StatusCode)
	if response.ContentLength >= 0 {
		span.SetData("http.response_content_length", response.ContentLength)
	}

	return response, nil
}
