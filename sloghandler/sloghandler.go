// Package sloghandler forwards slog records to Sentry Logs. Records logged with
// a handler context inside a wrapped invocation are stamped with the function
// and request they belong to.
//
// Sentry Logs must be enabled on the client (SENTRY_ENABLE_LOGS) for anything
// to be sent.
package sloghandler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/aldy505/sentry-lambda/lambdahandler"
	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
)

type SentrySlogHandler struct {
	attributes []attribute.Builder
	groups     []string
	level      slog.Level
}

func slogAttrToSentryAttr(prefix string, a slog.Attr) []attribute.Builder {
	key := prefix + a.Key

	switch a.Value.Kind() {
	case slog.KindAny:
		// Does it implements Stringer?
		if s, ok := a.Value.Any().(fmt.Stringer); ok {
			return []attribute.Builder{attribute.String(key, s.String())}
		}

		// Does is implements Error?
		if e, ok := a.Value.Any().(error); ok {
			return []attribute.Builder{attribute.String(key, e.Error())}
		}

		// Does it implement json.Marshaler?
		if m, ok := a.Value.Any().(json.Marshaler); ok {
			out, err := m.MarshalJSON()
			if err == nil {
				return []attribute.Builder{attribute.String(key, string(out))}
			}
		}

		// Anything else goes out the way encoding/json sees it.
		if out, err := json.Marshal(a.Value.Any()); err == nil {
			return []attribute.Builder{attribute.String(key, string(out))}
		}

		return []attribute.Builder{}
	case slog.KindBool:
		return []attribute.Builder{attribute.Bool(key, a.Value.Bool())}
	case slog.KindDuration:
		return []attribute.Builder{attribute.String(key, a.Value.Duration().String())}
	case slog.KindFloat64:
		return []attribute.Builder{attribute.Float64(key, a.Value.Float64())}
	case slog.KindInt64:
		return []attribute.Builder{attribute.Int64(key, a.Value.Int64())}
	case slog.KindString:
		return []attribute.Builder{attribute.String(key, a.Value.String())}
	case slog.KindTime:
		return []attribute.Builder{attribute.String(key, a.Value.Time().Format(time.RFC3339))}
	case slog.KindUint64:
		return []attribute.Builder{attribute.Int64(key, int64(a.Value.Uint64()))}
	case slog.KindGroup:
		nested := prefix
		if a.Key != "" {
			nested = key + "."
		}
		attrs := make([]attribute.Builder, 0)
		for _, attr := range a.Value.Group() {
			attrs = append(attrs, slogAttrToSentryAttr(nested, attr)...)
		}
		return attrs
	case slog.KindLogValuer:
		return slogAttrToSentryAttr(prefix, slog.Attr{Key: a.Key, Value: a.Value.Resolve()})
	}

	return []attribute.Builder{}
}

// invocationAttributes describes the running invocation with the OpenTelemetry
// FaaS semantic conventions.
func invocationAttributes(ctx context.Context) []attribute.Builder {
	ic, ok := lambdahandler.FromContext(ctx)
	if !ok {
		return nil
	}

	return []attribute.Builder{
		attribute.String("faas.name", ic.FunctionName),
		attribute.String("faas.version", ic.FunctionVersion),
		attribute.String("faas.invocation_id", ic.AwsRequestID),
		attribute.String("cloud.resource_id", ic.InvokedFunctionArn),
	}
}

func (s *SentrySlogHandler) prefix() string {
	var prefix string
	for _, group := range s.groups {
		prefix += group + "."
	}
	return prefix
}

// Enabled implements slog.Handler.
func (s *SentrySlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= s.level
}

// Handle implements slog.Handler.
func (s *SentrySlogHandler) Handle(ctx context.Context, record slog.Record) error {
	logger := sentry.NewLogger(ctx)

	sentryAttributes := slices.Clone(s.attributes)
	sentryAttributes = append(sentryAttributes, invocationAttributes(ctx)...)
	prefix := s.prefix()
	record.Attrs(func(a slog.Attr) bool {
		sentryAttributes = append(sentryAttributes, slogAttrToSentryAttr(prefix, a)...)
		return true
	})

	logger.SetAttributes(sentryAttributes...)

	switch {
	case record.Level >= slog.LevelError:
		logger.Error(ctx, record.Message)
	case record.Level >= slog.LevelWarn:
		logger.Warn(ctx, record.Message)
	case record.Level >= slog.LevelInfo:
		logger.Info(ctx, record.Message)
	default:
		logger.Debug(ctx, record.Message)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (s *SentrySlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := s.prefix()
	attributes := slices.Clip(s.attributes)
	for _, attr := range attrs {
		attributes = append(attributes, slogAttrToSentryAttr(prefix, attr)...)
	}

	return &SentrySlogHandler{
		attributes: attributes,
		groups:     s.groups,
		level:      s.level,
	}
}

// WithGroup implements slog.Handler.
func (s *SentrySlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}

	return &SentrySlogHandler{
		attributes: s.attributes,
		groups:     append(slices.Clip(s.groups), name),
		level:      s.level,
	}
}

var _ slog.Handler = (*SentrySlogHandler)(nil)

func NewSentrySlogHandler(logLevel slog.Level) slog.Handler {
	return &SentrySlogHandler{
		attributes: make([]attribute.Builder, 0),
		level:      logLevel,
	}
}
