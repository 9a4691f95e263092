// Command apigateway is a Lambda function behind API Gateway that reports to
// Sentry. Requests to /fail return an error, requests to /panic panic,
// requests to /upstream are forwarded to UPSTREAM_URL with the trace attached,
// and everything else greets the caller.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aldy505/sentry-lambda/httpclient"
	"github.com/aldy505/sentry-lambda/lambdahandler"
	"github.com/aldy505/sentry-lambda/slogbreadcrumb"
	"github.com/aldy505/sentry-lambda/sloghandler"
	"github.com/aws/aws-lambda-go/events"
	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
)

var errNotImplemented = errors.New("not implemented")

var upstream = &http.Client{
	Transport: httpclient.NewSentryRoundTripper(nil, nil),
	Timeout:   5 * time.Second,
}

func forward(ctx context.Context, url string) (events.APIGatewayProxyResponse, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrap(err, "failed to build upstream request")
	}

	response, err := upstream.Do(request)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrap(err, "upstream request failed")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrap(err, "failed to read upstream response")
	}

	return events.APIGatewayProxyResponse{
		StatusCode: response.StatusCode,
		Headers:    map[string]string{"Content-Type": response.Header.Get("Content-Type")},
		Body:       string(body),
	}, nil
}

func handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.Scope().SetTag("http.route", request.Resource)
	}

	slog.InfoContext(ctx, "handling request",
		slog.String("method", request.HTTPMethod),
		slog.String("path", request.Path),
	)

	switch request.Path {
	case "/fail":
		return events.APIGatewayProxyResponse{}, errors.Wrapf(errNotImplemented, "route %s", request.Path)
	case "/panic":
		panic("unexpected route " + request.Path)
	case "/upstream":
		url := os.Getenv("UPSTREAM_URL")
		if url == "" {
			return events.APIGatewayProxyResponse{}, errors.New("UPSTREAM_URL is not set")
		}
		return forward(ctx, url)
	}

	name := request.QueryStringParameters["name"]
	if name == "" {
		name = "world"
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       fmt.Sprintf("hello, %s", name),
	}, nil
}

func main() {
	environment, err := lambdahandler.ParseEnvironment()
	if err != nil {
		slog.Error("failed to read the environment", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := lambdahandler.Init(environment); err != nil {
		slog.Error("failed to initialize sentry", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		&slogbreadcrumb.Handler{Enable: true, Level: slog.LevelDebug},
		sloghandler.NewSentrySlogHandler(slog.LevelInfo),
	)))

	lambdahandler.Start(handle, environment.Options()...)
}
