package middleware

import (
	"context"
	"io"

	"github.com/aws/aws-lambda-go/events"

	"greetings/internal/logging"
	"greetings/internal/metrics"
)

// Metrics gives each invocation a metrics.Recorder, counts cold starts and
// publishes the recorded metrics to out when the handler returns.
func Metrics(namespace, service string, out io.Writer) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			ctx, cold := coldStart(ctx)
			rec := metrics.NewRecorder(namespace, service)
			if cold {
				if err := rec.Add(metrics.ColdStart, 1); err != nil {
					logging.FromContext(ctx).Warn("failed to record metric", "err", err)
				}
			}

			resp, err := next(metrics.WithRecorder(ctx, rec), req)

			if ferr := rec.Flush(out); ferr != nil {
				logging.FromContext(ctx).Warn("failed to publish metrics", "err", ferr)
			}
			return resp, err
		}
	}
}
