package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"greetings/internal/logging"
)

// FallbackMessage is the body of every response for an unexpected error.
const FallbackMessage = "Unexpected error"

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type publicMessager interface {
	PublicMessage() string
}

// HTTPErrors turns handler errors and panics into plain-text responses.
// Errors with a 4xx status keep their status and public message; anything
// else is logged and becomes a 500 with FallbackMessage.
func HTTPErrors() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp, err = translate(ctx, fmt.Errorf("panic: %v", r)), nil
				}
			}()

			resp, err = next(ctx, req)
			if err != nil {
				return translate(ctx, err), nil
			}
			return resp, nil
		}
	}
}

func translate(ctx context.Context, err error) events.APIGatewayProxyResponse {
	var sc httpStatusCoder
	if errors.As(err, &sc) {
		if status := sc.HTTPStatusCode(); status >= 400 && status < 500 {
			msg := http.StatusText(status)
			var pm publicMessager
			if errors.As(err, &pm) && pm.PublicMessage() != "" {
				msg = pm.PublicMessage()
			}
			return textResponse(status, msg)
		}
	}
	logging.FromContext(ctx).Error("Unexpected error", "err", err)
	return textResponse(http.StatusInternalServerError, FallbackMessage)
}

func textResponse(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       body,
	}
}
