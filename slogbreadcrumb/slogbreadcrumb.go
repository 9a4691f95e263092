// slogbreadcrumb records everything emitted to slog as Sentry breadcrumbs on the
// hub of the running invocation, rather than as Sentry events (or errors). A
// report sent later in the same invocation carries the log trail with it.
//
// Best used in conjunction with "github.com/samber/slog-multi" package.
//
// Example usage:
//
//	package main
//
//	import "log/slog"
//	import slogmulti "github.com/samber/slog-multi"
//	import slogbreadcrumb "github.com/aldy505/sentry-lambda/slogbreadcrumb"
//
//	func main() {
//		slog.SetDefault(slog.New(slogmulti.Fanout(
//			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
//			&slogbreadcrumb.Handler{Enable: true, Level: slog.LevelDebug},
//		)))
//	}
//
// Records must be logged with the handler context (slog.InfoContext and
// friends), otherwise there is no hub to attach the breadcrumb to.
package slogbreadcrumb

import (
	"context"
	"log/slog"
	"slices"

	"github.com/aldy505/sentry-lambda/lambdahandler"
	"github.com/getsentry/sentry-go"
)

const category = "log"

type Handler struct {
	Enable     bool
	Level      slog.Level
	attributes []prefixedAttr
	groups     []string
}

// prefixedAttr is an attribute added through WithAttrs, along with the groups
// that were open at that point.
type prefixedAttr struct {
	prefix string
	attr   slog.Attr
}

func toSentryLevel(level slog.Level) sentry.Level {
	switch {
	case level >= slog.LevelError:
		return sentry.LevelError
	case level >= slog.LevelWarn:
		return sentry.LevelWarning
	case level >= slog.LevelInfo:
		return sentry.LevelInfo
	default:
		return sentry.LevelDebug
	}
}

func (s *Handler) Enabled(_ context.Context, level slog.Level) bool {
	if !s.Enable {
		return false
	}

	return level >= s.Level
}

func (s *Handler) Handle(ctx context.Context, record slog.Record) error {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		return nil
	}

	data := make(map[string]any, len(s.attributes)+record.NumAttrs()+1)
	for _, a := range s.attributes {
		addAttr(data, a.prefix, a.attr)
	}
	prefix := groupPrefix(s.groups)
	record.Attrs(func(attr slog.Attr) bool {
		addAttr(data, prefix, attr)
		return true
	})
	if ic, ok := lambdahandler.FromContext(ctx); ok {
		data["aws_request_id"] = ic.AwsRequestID
	}

	hub.AddBreadcrumb(&sentry.Breadcrumb{
		Type:      "log",
		Category:  category,
		Message:   record.Message,
		Data:      data,
		Level:     toSentryLevel(record.Level),
		Timestamp: record.Time,
	}, nil)

	return nil
}

func addAttr(data map[string]any, prefix string, attr slog.Attr) {
	value := attr.Value.Resolve()
	if value.Kind() == slog.KindGroup {
		nested := prefix
		if attr.Key != "" {
			nested = prefix + attr.Key + "."
		}
		for _, a := range value.Group() {
			addAttr(data, nested, a)
		}
		return
	}
	if attr.Key == "" {
		return
	}
	data[prefix+attr.Key] = value.Any()
}

func groupPrefix(groups []string) string {
	var prefix string
	for _, group := range groups {
		prefix += group + "."
	}
	return prefix
}

func (s *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}

	prefix := groupPrefix(s.groups)
	attributes := slices.Clip(s.attributes)
	for _, attr := range attrs {
		attributes = append(attributes, prefixedAttr{prefix: prefix, attr: attr})
	}

	return &Handler{
		Enable:     s.Enable,
		Level:      s.Level,
		attributes: attributes,
		groups:     s.groups,
	}
}

func (s *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}

	return &Handler{
		Enable:     s.Enable,
		Level:      s.Level,
		attributes: s.attributes,
		groups:     append(slices.Clip(s.groups), name),
	}
}

var _ slog.Handler = (*Handler)(nil)
