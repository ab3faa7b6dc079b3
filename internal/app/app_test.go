package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"greetings/internal/config"
	"greetings/internal/logging"
	"greetings/internal/repository"
)

type mockParams struct {
	value string
	err   error
	calls int
}

func (m *mockParams) GetParameter(context.Context, string) (string, error) {
	m.calls++
	return m.value, m.err
}

func noEnv(string) (string, bool) { return "", false }

func testConfig() config.Config {
	return config.Load(func(string) string { return "" })
}

func TestNew_MemoryStore(t *testing.T) {
	logging.SetOutput(&bytes.Buffer{})
	var metricsOut bytes.Buffer
	a, err := New(context.Background(), testConfig(),
		WithStore(repository.NewMemory()),
		WithMetricsOutput(&metricsOut),
	)
	require.NoError(t, err)

	put := a.Wrap("put-greeting", a.Handler.PutGreeting)
	resp, err := put(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodPut,
		PathParameters: map[string]string{"country": "Italy"},
		Body:           `{"greeting":"Ciao"}`,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	get := a.Wrap("get-greeting", a.Handler.GetGreeting)
	resp, err = get(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodGet,
		PathParameters: map[string]string{"country": "Italy"},
	})
	require.NoError(t, err)
	require.Equal(t, `{"message":"Ciao"}`, resp.Body)
	require.Contains(t, metricsOut.String(), `"Namespace":"Greetings"`)
	require.NoError(t, a.Close(context.Background()))
}

func TestNew_MissingTableName(t *testing.T) {
	logging.SetOutput(&bytes.Buffer{})
	a, err := New(context.Background(), testConfig(), WithLookupEnv(noEnv), WithMetricsOutput(&bytes.Buffer{}))
	require.NoError(t, err)

	get := a.Wrap("get-greeting", a.Handler.GetGreeting)
	resp, err := get(context.Background(), events.APIGatewayProxyRequest{
		PathParameters: map[string]string{"country": "UK"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "Unexpected error", resp.Body)
}

func TestNew_DefaultGreetingParam(t *testing.T) {
	logging.SetOutput(&bytes.Buffer{})
	cfg := testConfig()
	cfg.DefaultGreetingParam = "/greetings/default"
	params := &mockParams{value: "Kia ora"}

	a, err := New(context.Background(), cfg,
		WithStore(repository.NewMemory()),
		WithParams(params),
		WithMetricsOutput(&bytes.Buffer{}),
	)
	require.NoError(t, err)

	get := a.Wrap("get-greeting", a.Handler.GetGreeting)
	for range 2 {
		resp, err := get(context.Background(), events.APIGatewayProxyRequest{
			PathParameters: map[string]string{"country": "NZ"},
		})
		require.NoError(t, err)
		require.Equal(t, `{"message":"Kia ora"}`, resp.Body)
	}
	require.Equal(t, 1, params.calls)
}

func TestStoreResolver_PropagatesError(t *testing.T) {
	p := repository.NewProvider(repository.WithLookupEnv(noEnv))
	store, err := StoreResolver(p)(context.Background())
	require.True(t, errors.Is(err, repository.ErrMissingTableName))
	require.Nil(t, store)
}
