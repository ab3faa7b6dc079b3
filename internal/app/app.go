// Package app wires configuration, telemetry, storage and the greeting
// service shared by the Lambda binaries and greetctl.
package app

import (
	"context"
	"fmt"
	"io"

	"greetings/handler"
	"greetings/internal/config"
	"greetings/internal/integrations/paramstore"
	"greetings/internal/logging"
	"greetings/internal/middleware"
	"greetings/internal/observability"
	"greetings/internal/repository"
	"greetings/internal/usecase"
)

type App struct {
	Config   config.Config
	Provider *repository.Provider
	Handler  *handler.Handler

	metricsOut io.Writer
}

type Option func(*settings)

type settings struct {
	store      usecase.GreetingStore
	params     usecase.ParamGetter
	lookupEnv  func(string) (string, bool)
	metricsOut io.Writer
}

// WithStore serves greetings from store instead of DynamoDB.
func WithStore(store usecase.GreetingStore) Option {
	return func(s *settings) { s.store = store }
}

// WithParams overrides the SSM client used for DEFAULT_GREETING_PARAM.
func WithParams(p usecase.ParamGetter) Option {
	return func(s *settings) { s.params = p }
}

// WithLookupEnv overrides how TABLE_NAME and ENDPOINT_OVERRIDE are read.
func WithLookupEnv(fn func(string) (string, bool)) Option {
	return func(s *settings) { s.lookupEnv = fn }
}

func WithMetricsOutput(w io.Writer) Option {
	return func(s *settings) { s.metricsOut = w }
}

// New builds an App from cfg. The DynamoDB client itself is created on
// first use, not here.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	logging.SetLevelFromString(cfg.LogLevel)

	if err := observability.Init(ctx, observability.Config{
		Endpoint:    cfg.TraceEndpoint,
		ServiceName: cfg.ServiceName,
		SampleRate:  cfg.TraceSampleRate,
	}); err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	var providerOpts []repository.ProviderOption
	if s.lookupEnv != nil {
		providerOpts = append(providerOpts, repository.WithLookupEnv(s.lookupEnv))
	}
	provider := repository.NewProvider(providerOpts...)

	resolve := StoreResolver(provider)
	if s.store != nil {
		store := s.store
		resolve = func(context.Context) (usecase.GreetingStore, error) { return store, nil }
	}

	var svcOpts []usecase.Option
	if cfg.DefaultGreetingParam != "" {
		params := s.params
		if params == nil {
			client, err := paramstore.Load(ctx)
			if err != nil {
				return nil, fmt.Errorf("create SSM client: %w", err)
			}
			params = client
		}
		svcOpts = append(svcOpts, usecase.WithDefaultGreetingParam(params, cfg.DefaultGreetingParam))
	}

	svc, err := usecase.NewGreetingService(resolve, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("create greeting service: %w", err)
	}
	h, err := handler.NewHandler(svc)
	if err != nil {
		return nil, fmt.Errorf("create handler: %w", err)
	}

	return &App{
		Config:     cfg,
		Provider:   provider,
		Handler:    h,
		metricsOut: s.metricsOut,
	}, nil
}

// StoreResolver adapts p to the usecase resolver signature.
func StoreResolver(p *repository.Provider) usecase.StoreResolver {
	return func(ctx context.Context) (usecase.GreetingStore, error) {
		store, err := p.Store(ctx)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// Wrap applies the standard middleware chain to h under the given
// function name.
func (a *App) Wrap(name string, h middleware.Handler) middleware.Handler {
	return middleware.Standard(h, middleware.Options{
		Name:       name,
		Service:    a.Config.ServiceName,
		Namespace:  a.Config.MetricsNamespace,
		MetricsOut: a.metricsOut,
	})
}

// Close flushes and stops the tracer provider.
func (a *App) Close(ctx context.Context) error {
	return observability.Shutdown(ctx)
}
