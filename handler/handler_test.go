package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/stretchr/testify/require"

	"greetings/internal/domain"
	"greetings/internal/logging"
	"greetings/internal/middleware"
	"greetings/internal/repository"
	"greetings/internal/usecase"
)

type stubService struct {
	checkErr error
	getOut   domain.CountryGreeting
	getErr   error
	putErr   error
	putIn    *domain.CountryGreeting
}

func (s *stubService) CheckStore(context.Context) error { return s.checkErr }

func (s *stubService) GetGreeting(_ context.Context, _ string) (domain.CountryGreeting, error) {
	return s.getOut, s.getErr
}

func (s *stubService) PutGreeting(_ context.Context, g domain.CountryGreeting) (domain.CountryGreeting, error) {
	s.putIn = &g
	return g, s.putErr
}

type fixture struct {
	store   *repository.Memory
	handler *Handler
	metrics *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logging.SetOutput(&bytes.Buffer{})
	store := repository.NewMemory()
	svc, err := usecase.NewGreetingService(func(context.Context) (usecase.GreetingStore, error) {
		return store, nil
	})
	require.NoError(t, err)
	h, err := NewHandler(svc)
	require.NoError(t, err)
	return &fixture{store: store, handler: h, metrics: &bytes.Buffer{}}
}

func (f *fixture) wrap(name string, h middleware.Handler) middleware.Handler {
	return middleware.Standard(h, middleware.Options{
		Name: name, Service: "greetings", Namespace: "Greetings", MetricsOut: f.metrics,
	})
}

func invoke(t *testing.T, h middleware.Handler, event events.APIGatewayProxyRequest) events.APIGatewayProxyResponse {
	t.Helper()
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{AwsRequestID: "test-Request-Id"})
	resp, err := h(ctx, event)
	require.NoError(t, err)
	return resp
}

func getEvent(country string) events.APIGatewayProxyRequest {
	ev := events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Resource:   "/greeting/{country}",
		Path:       "/greeting/" + country,
	}
	if country != "" {
		ev.PathParameters = map[string]string{"country": country}
	}
	return ev
}

func putEvent(country, body string) events.APIGatewayProxyRequest {
	ev := getEvent(country)
	ev.HTTPMethod = http.MethodPut
	ev.Body = body
	return ev
}

func decodeBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func plainText(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "text/plain"},
		Body:       body,
	}
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil)
	require.Error(t, err)
}

func TestGetGreeting_StoredGreeting(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.PutCountryGreeting(context.Background(), domain.CountryGreeting{Country: "UK", Greeting: "Wotcha"})
	require.NoError(t, err)

	resp := invoke(t, f.wrap("get-greeting", f.handler.GetGreeting), getEvent("UK"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `{"message":"Wotcha"}`, resp.Body)
	require.Equal(t, "application/json", resp.Headers["Content-Type"])
	require.Contains(t, f.metrics.String(), `"SuccessfulGreetings":1`)
}

func TestGetGreeting_DefaultGreeting(t *testing.T) {
	f := newFixture(t)

	resp := invoke(t, f.wrap("get-greeting", f.handler.GetGreeting), getEvent("Kiribati"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Hello", decodeBody[messageResponse](t, resp.Body).Message)
}

func TestGetGreeting_MissingCountry(t *testing.T) {
	f := newFixture(t)

	resp := invoke(t, f.wrap("get-greeting", f.handler.GetGreeting), getEvent(""))
	require.Equal(t, plainText(http.StatusBadRequest, "Missing country path parameter"), resp)

	ev := getEvent("")
	ev.PathParameters = map[string]string{"country": ""}
	resp = invoke(t, f.wrap("get-greeting", f.handler.GetGreeting), ev)
	require.Equal(t, plainText(http.StatusBadRequest, "Missing country path parameter"), resp)
}

func TestGetGreeting_MissingTableName(t *testing.T) {
	logging.SetOutput(&bytes.Buffer{})
	provider := repository.NewProvider(repository.WithLookupEnv(func(string) (string, bool) { return "", false }))
	svc, err := usecase.NewGreetingService(func(ctx context.Context) (usecase.GreetingStore, error) {
		return provider.Store(ctx)
	})
	require.NoError(t, err)
	h, err := NewHandler(svc)
	require.NoError(t, err)
	f := &fixture{handler: h, metrics: &bytes.Buffer{}}

	resp := invoke(t, f.wrap("get-greeting", h.GetGreeting), getEvent("UK"))
	require.Equal(t, plainText(http.StatusInternalServerError, "Unexpected error"), resp)

	resp = invoke(t, f.wrap("put-greeting", h.PutGreeting), putEvent("UK", `{"greeting":"Wotcha"}`))
	require.Equal(t, plainText(http.StatusInternalServerError, "Unexpected error"), resp)
}

func TestGetGreeting_StoreFailureIsHidden(t *testing.T) {
	f := newFixture(t)
	h, err := NewHandler(&stubService{getErr: errors.New("ProvisionedThroughputExceededException")})
	require.NoError(t, err)

	resp := invoke(t, f.wrap("get-greeting", h.GetGreeting), getEvent("UK"))
	require.Equal(t, plainText(http.StatusInternalServerError, "Unexpected error"), resp)
}

func TestPutGreeting_RoundTrip(t *testing.T) {
	f := newFixture(t)

	resp := invoke(t, f.wrap("put-greeting", f.handler.PutGreeting), putEvent("UK", `{"greeting":"Wotcha"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, domain.CountryGreeting{Country: "UK", Greeting: "Wotcha"}, decodeBody[domain.CountryGreeting](t, resp.Body))

	resp = invoke(t, f.wrap("get-greeting", f.handler.GetGreeting), getEvent("UK"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `{"message":"Wotcha"}`, resp.Body)
}

func TestPutGreeting_Idempotent(t *testing.T) {
	f := newFixture(t)
	h := f.wrap("put-greeting", f.handler.PutGreeting)

	first := invoke(t, h, putEvent("UK", `{"greeting":"Wotcha"}`))
	second := invoke(t, h, putEvent("UK", `{"greeting":"Wotcha"}`))
	require.Equal(t, first, second)
	require.Equal(t, 1, f.store.Len())
}

func TestPutGreeting_Base64Body(t *testing.T) {
	f := newFixture(t)
	ev := putEvent("France", base64.StdEncoding.EncodeToString([]byte(`{"greeting":"Salut"}`)))
	ev.IsBase64Encoded = true

	resp := invoke(t, f.wrap("put-greeting", f.handler.PutGreeting), ev)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	g, err := f.store.GetCountryGreeting(context.Background(), "France")
	require.NoError(t, err)
	require.Equal(t, "Salut", g.Greeting)
}

func TestPutGreeting_ClientErrors(t *testing.T) {
	cases := []struct {
		name  string
		event events.APIGatewayProxyRequest
		want  events.APIGatewayProxyResponse
	}{
		{name: "missing country", event: putEvent("", `{"greeting":"Wotcha"}`), want: plainText(http.StatusBadRequest, "Missing country path parameter")},
		{name: "missing body", event: putEvent("UK", ""), want: plainText(http.StatusBadRequest, "Missing request body")},
		{name: "malformed body", event: putEvent("UK", `not-json`), want: plainText(http.StatusBadRequest, "Invalid request body")},
		{name: "wrong shape", event: putEvent("UK", `{"greeting":42}`), want: plainText(http.StatusBadRequest, "Invalid request body")},
		{name: "empty greeting", event: putEvent("UK", `{}`), want: plainText(http.StatusBadRequest, "Invalid request body")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			resp := invoke(t, f.wrap("put-greeting", f.handler.PutGreeting), tc.event)
			require.Equal(t, tc.want, resp)
			require.Zero(t, f.store.Len())
		})
	}
}

func TestPutGreeting_ChecksStoreBeforeBody(t *testing.T) {
	f := newFixture(t)
	svc := &stubService{checkErr: errors.New("missing TABLE_NAME")}
	h, err := NewHandler(svc)
	require.NoError(t, err)

	resp := invoke(t, f.wrap("put-greeting", h.PutGreeting), putEvent("UK", ""))
	require.Equal(t, plainText(http.StatusInternalServerError, "Unexpected error"), resp)
	require.Nil(t, svc.putIn)
}

func TestPutGreeting_WriteFailure(t *testing.T) {
	f := newFixture(t)
	h, err := NewHandler(&stubService{putErr: errors.New("boom")})
	require.NoError(t, err)

	resp := invoke(t, f.wrap("put-greeting", h.PutGreeting), putEvent("UK", `{"greeting":"Wotcha"}`))
	require.Equal(t, plainText(http.StatusInternalServerError, "Unexpected error"), resp)
}

func TestStaticGreeting(t *testing.T) {
	f := newFixture(t)
	h := f.wrap("static-greeting", StaticGreeting)

	resp := invoke(t, h, getEvent("Australia"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "G'day mate", decodeBody[messageResponse](t, resp.Body).Message)

	resp = invoke(t, h, getEvent("Kiribati"))
	require.Equal(t, "Hello", decodeBody[messageResponse](t, resp.Body).Message)

	resp = invoke(t, h, getEvent(""))
	require.Equal(t, plainText(http.StatusBadRequest, "Missing country path parameter"), resp)
}

func TestHello(t *testing.T) {
	f := newFixture(t)

	resp := invoke(t, f.wrap("hello", Hello), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `{"message":"hello world"}`, resp.Body)
}
