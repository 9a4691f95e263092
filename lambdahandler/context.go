package lambdahandler

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
)

// notAvailable is reported for every invocation field the runtime did not supply.
const notAvailable = "n/a"

// InvocationContext is the metadata of a single Lambda invocation.
type InvocationContext struct {
	FunctionName        string
	FunctionVersion     string
	InvokedFunctionArn  string
	AwsRequestID        string
	RemainingTimeMillis int64
}

// DefaultInvocationContext is used when no invocation context is available,
// e.g. when a handler is exercised from a unit test.
func DefaultInvocationContext() InvocationContext {
	return InvocationContext{
		FunctionName:        notAvailable,
		FunctionVersion:     notAvailable,
		InvokedFunctionArn:  notAvailable,
		AwsRequestID:        notAvailable,
		RemainingTimeMillis: 0,
	}
}

// InvocationContextFromContext builds an InvocationContext out of what the
// aws-lambda-go runtime puts on the handler context.
func InvocationContextFromContext(ctx context.Context) InvocationContext {
	ic := InvocationContext{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok && lc != nil {
		ic.InvokedFunctionArn = lc.InvokedFunctionArn
		ic.AwsRequestID = lc.AwsRequestID
	}

	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			ic.RemainingTimeMillis = remaining.Milliseconds()
		}
	}

	return ic.withDefaults()
}

func (ic InvocationContext) withDefaults() InvocationContext {
	if ic.FunctionName == "" {
		ic.FunctionName = notAvailable
	}
	if ic.FunctionVersion == "" {
		ic.FunctionVersion = notAvailable
	}
	if ic.InvokedFunctionArn == "" {
		ic.InvokedFunctionArn = notAvailable
	}
	if ic.AwsRequestID == "" {
		ic.AwsRequestID = notAvailable
	}
	if ic.RemainingTimeMillis < 0 {
		ic.RemainingTimeMillis = 0
	}
	return ic
}

// RemainingTime is RemainingTimeMillis as a duration.
func (ic InvocationContext) RemainingTime() time.Duration {
	return time.Duration(ic.RemainingTimeMillis) * time.Millisecond
}

type invocationContextKey struct{}

// NewContext returns a copy of ctx carrying ic.
func NewContext(ctx context.Context, ic InvocationContext) context.Context {
	return context.WithValue(ctx, invocationContextKey{}, ic)
}

// FromContext returns the InvocationContext stored by the wrapper, if any.
func FromContext(ctx context.Context) (InvocationContext, bool) {
	ic, ok := ctx.Value(invocationContextKey{}).(InvocationContext)
	return ic, ok
}
