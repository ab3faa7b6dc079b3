package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"greetings/internal/logging"
	"greetings/internal/observability"
)

// Tracing opens a server span around each invocation and flushes spans
// when it returns.
func Tracing(name string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			ctx, cold := coldStart(ctx)
			ctx = otel.GetTextMapPropagator().Extract(ctx, headerCarrier(req.Headers))

			attrs := []attribute.KeyValue{
				observability.AttrColdStart.Bool(cold),
				observability.AttrFunctionName.String(name),
				observability.AttrHTTPMethod.String(req.HTTPMethod),
				observability.AttrHTTPRoute.String(req.Resource),
			}
			if lc, ok := lambdacontext.FromContext(ctx); ok {
				attrs = append(attrs, observability.AttrInvocationID.String(lc.AwsRequestID))
			}

			ctx, span := observability.StartServerSpan(ctx, "## "+name, attrs...)
			defer func() {
				span.End()
				if err := observability.Flush(ctx); err != nil {
					logging.FromContext(ctx).Warn("failed to flush spans", "err", err)
				}
			}()

			resp, err := next(ctx, req)
			switch {
			case err != nil:
				observability.SetSpanError(span, err)
			case resp.StatusCode >= http.StatusInternalServerError:
				span.SetAttributes(observability.AttrStatusCode.Int(resp.StatusCode))
				span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
			default:
				span.SetAttributes(observability.AttrStatusCode.Int(resp.StatusCode))
				observability.SetSpanOK(span)
			}
			return resp, err
		}
	}
}

// headerCarrier lower-cases header names; propagators look keys up in
// lower case and REST API events keep the client's casing.
func headerCarrier(headers map[string]string) propagation.MapCarrier {
	c := make(propagation.MapCarrier, len(headers))
	for k, v := range headers {
		c[strings.ToLower(k)] = v
	}
	return c
}
