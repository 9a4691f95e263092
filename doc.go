// Package sentrylambda reports AWS Lambda invocations to Sentry.
//
// The lambdahandler package wraps a handler so that every invocation runs in
// its own Sentry scope, errors and panics are captured before they reach the
// Lambda runtime, and the invocation is traced as a transaction that continues
// an incoming sentry-trace header. Events are enriched with the function name,
// version, ARN, request id, execution duration and remaining time.
//
// The slogbreadcrumb and sloghandler packages bridge log/slog to Sentry, as
// breadcrumbs attached to the invocation scope or as Sentry Logs.
//
// Why not just use the OpenTelemetry Lambda layer? If you're already using
// Sentry and not depending on OpenTelemetry at all, this keeps the function to
// a single SDK whose sample rate and scope handling behave the way you
// configured them.
package sentrylambda
