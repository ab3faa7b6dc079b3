package middleware

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"greetings/internal/logging"
)

// Logging attaches a request logger carrying the Lambda context to ctx and
// logs the incoming request.
func Logging(service string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			ctx, cold := coldStart(ctx)

			requestID := ""
			if lc, ok := lambdacontext.FromContext(ctx); ok {
				requestID = lc.AwsRequestID
			}
			if requestID == "" {
				requestID = uuid.NewString()
			}

			l := logging.Logger().With(
				"service", service,
				"function_name", lambdacontext.FunctionName,
				"function_request_id", requestID,
				"cold_start", cold,
			)
			if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
				l = l.With("trace_id", sc.TraceID().String())
			}
			ctx = logging.WithContext(ctx, l)

			l.Info("Lambda invocation event",
				"method", req.HTTPMethod,
				"path", req.Path,
				"path_parameters", req.PathParameters,
			)
			return next(ctx, req)
		}
	}
}
