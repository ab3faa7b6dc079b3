// Package middleware composes API Gateway proxy handlers with the stages
// every greeting function runs through.
package middleware

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"github.com/aws/aws-lambda-go/events"
)

// Handler handles one API Gateway proxy request.
type Handler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Middleware wraps a Handler.
type Middleware func(next Handler) Handler

// Chain wraps h so that mws[0] runs first and h runs last.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Options configures Standard.
type Options struct {
	Name      string // function name used for spans
	Service   string
	Namespace string
	// MetricsOut receives EMF documents; os.Stdout when nil.
	MetricsOut io.Writer
}

// Standard wraps h with tracing, logging, metrics and error translation,
// in that order.
func Standard(h Handler, opts Options) Handler {
	out := opts.MetricsOut
	if out == nil {
		out = os.Stdout
	}
	return Chain(h,
		Tracing(opts.Name),
		Logging(opts.Service),
		Metrics(opts.Namespace, opts.Service, out),
		HTTPErrors(),
	)
}

var warm atomic.Bool

// ResetColdStart makes the next invocation count as a cold start.
func ResetColdStart() {
	warm.Store(false)
}

type coldStartKey struct{}

// coldStart reports whether this invocation is the first in the process.
// The answer is decided by the first stage that asks and shared with the
// others through ctx.
func coldStart(ctx context.Context) (context.Context, bool) {
	if v, ok := ctx.Value(coldStartKey{}).(bool); ok {
		return ctx, v
	}
	cold := !warm.Swap(true)
	return context.WithValue(ctx, coldStartKey{}, cold), cold
}
