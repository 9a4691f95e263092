// Package lambdahandler wraps AWS Lambda handlers so that failures are reported
// to Sentry and every invocation is traced as a transaction.
//
// Each invocation runs on its own clone of the hub, so tags and breadcrumbs set
// by one invocation never show up in the next one served by the same sandbox.
// Use the hub on the handler context to enrich reports:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/aldy505/sentry-lambda/lambdahandler"
//		"github.com/aws/aws-lambda-go/events"
//		"github.com/getsentry/sentry-go"
//	)
//
//	func handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
//		sentry.GetHubFromContext(ctx).Scope().SetTag("route", request.Resource)
//		return events.APIGatewayProxyResponse{StatusCode: 200}, nil
//	}
//
//	func main() {
//		environment, err := lambdahandler.ParseEnvironment()
//		if err != nil {
//			log.Fatal(err)
//		}
//		if err := lambdahandler.Init(environment); err != nil {
//			log.Fatal(err)
//		}
//
//		lambdahandler.Start(handle, environment.Options()...)
//	}
//
// When Sentry is not initialized the wrapper calls the handler directly.
package lambdahandler

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
)

// WrapHandler runs handler for a single invocation triggered by event. The
// invocation context is read from ctx unless WithInvocationContext is given.
func WrapHandler[T any](ctx context.Context, event any, handler func(context.Context) (T, error), opts ...Option) (T, error) {
	c := newConfig(opts...)
	if !initialized(c.resolveHub(ctx)) {
		return handler(ctx)
	}

	invocation := InvocationContextFromContext(ctx)
	if c.invocation != nil {
		invocation = *c.invocation
	}

	wrapper := &CaptureExceptions{
		event:      NewEvent(event),
		invocation: invocation,
		config:     c,
	}

	value, err := wrapper.Call(ctx, func(ctx context.Context) (any, error) {
		return handler(ctx)
	})

	result, _ := value.(T)
	return result, err
}

// Wrap turns a typed Lambda handler into one that reports to Sentry. The
// returned function can be passed to lambda.Start.
func Wrap[TIn, TOut any](handler func(context.Context, TIn) (TOut, error), opts ...Option) func(context.Context, TIn) (TOut, error) {
	return func(ctx context.Context, input TIn) (TOut, error) {
		return WrapHandler(ctx, input, func(ctx context.Context) (TOut, error) {
			return handler(ctx, input)
		}, opts...)
	}
}

// Start wraps handler and hands it to the Lambda runtime. It does not return.
func Start[TIn, TOut any](handler func(context.Context, TIn) (TOut, error), opts ...Option) {
	lambda.Start(Wrap(handler, opts...))
}
