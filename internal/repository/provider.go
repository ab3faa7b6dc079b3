package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"greetings/internal/logging"
)

const (
	EnvTableName        = "TABLE_NAME"
	EnvEndpointOverride = "ENDPOINT_OVERRIDE"
)

// ErrMissingTableName is returned when the table is not configured.
var ErrMissingTableName = errors.New("repository: missing " + EnvTableName + " environment variable")

// Provider hands out table clients backed by one DynamoDB client per
// process. The DynamoDB client is built on first use and reused until Reset.
// The table name is read on every call.
type Provider struct {
	lookupEnv func(string) (string, bool)
	newAPI    func(ctx context.Context, endpoint string) (dynamodbAPI, error)

	mu  sync.Mutex
	api dynamodbAPI
}

type ProviderOption func(*Provider)

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(fn func(string) (string, bool)) ProviderOption {
	return func(p *Provider) {
		if fn != nil {
			p.lookupEnv = fn
		}
	}
}

func withAPIFactory(fn func(ctx context.Context, endpoint string) (dynamodbAPI, error)) ProviderOption {
	return func(p *Provider) {
		p.newAPI = fn
	}
}

func NewProvider(opts ...ProviderOption) *Provider {
	p := &Provider{
		lookupEnv: os.LookupEnv,
		newAPI:    newDynamoDBClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Store returns a Client for the configured table.
func (p *Provider) Store(ctx context.Context) (*Client, error) {
	table := p.env(EnvTableName)
	if table == "" {
		return nil, ErrMissingTableName
	}
	api, err := p.client(ctx)
	if err != nil {
		return nil, err
	}
	return New(api, table)
}

// Reset drops the cached DynamoDB client so the next Store builds a new one.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.api = nil
}

func (p *Provider) client(ctx context.Context) (dynamodbAPI, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.api != nil {
		return p.api, nil
	}
	api, err := p.newAPI(ctx, p.env(EnvEndpointOverride))
	if err != nil {
		return nil, fmt.Errorf("repository: create dynamodb client: %w", err)
	}
	p.api = api
	return api, nil
}

func (p *Provider) env(key string) string {
	v, _ := p.lookupEnv(key)
	return strings.TrimSpace(v)
}

func newDynamoDBClient(ctx context.Context, endpoint string) (dynamodbAPI, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if endpoint != "" {
		logging.FromContext(ctx).Info("Overriding DynamoDB Endpoint for local testing", "endpoint", endpoint)
		return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		}), nil
	}
	otelaws.AppendMiddlewares(&cfg.APIOptions)
	return dynamodb.NewFromConfig(cfg), nil
}
