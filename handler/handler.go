package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"greetings/internal/domain"
	"greetings/internal/logging"
	"greetings/internal/metrics"
	"greetings/internal/observability"
	"greetings/internal/usecase"
)

// GreetingService is the use case surface the DB-backed handlers need.
type GreetingService interface {
	CheckStore(ctx context.Context) error
	GetGreeting(ctx context.Context, country string) (domain.CountryGreeting, error)
	PutGreeting(ctx context.Context, greeting domain.CountryGreeting) (domain.CountryGreeting, error)
}

type messageResponse struct {
	Message string `json:"message"`
}

type putGreetingRequest struct {
	Greeting string `json:"greeting"`
}

// Handler serves the DB-backed greeting routes.
type Handler struct {
	svc GreetingService
}

func NewHandler(svc GreetingService) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: greeting service must not be nil")
	}
	return &Handler{svc: svc}, nil
}

// GetGreeting handles GET /greeting/{country}.
func (h *Handler) GetGreeting(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	country, err := countryParam(event)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	greeting, err := h.svc.GetGreeting(ctx, country)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(ctx, event, messageResponse{Message: greeting.Greeting})
}

// PutGreeting handles PUT /greeting/{country}.
func (h *Handler) PutGreeting(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	country, err := countryParam(event)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	if err := h.svc.CheckStore(ctx); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	body, err := parseBody(event)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	stored, err := h.svc.PutGreeting(ctx, domain.CountryGreeting{Country: country, Greeting: body.Greeting})
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(ctx, event, stored)
}

// StaticGreeting handles GET /greeting/{country} from the built-in table.
func StaticGreeting(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	country, err := countryParam(event)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return success(ctx, event, messageResponse{Message: usecase.Lookup(country)})
}

// Hello handles GET /hello.
func Hello(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return success(ctx, event, messageResponse{Message: "hello world"})
}

func countryParam(event events.APIGatewayProxyRequest) (string, error) {
	country := event.PathParameters["country"]
	if country == "" {
		return "", usecase.BadRequest(usecase.ReasonMissingCountry)
	}
	return country, nil
}

func parseBody(event events.APIGatewayProxyRequest) (putGreetingRequest, error) {
	raw := event.Body
	if raw == "" {
		return putGreetingRequest{}, usecase.BadRequest(usecase.ReasonMissingBody)
	}
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return putGreetingRequest{}, usecase.BadRequest(usecase.ReasonInvalidBody)
		}
		raw = string(decoded)
	}

	var req putGreetingRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return putGreetingRequest{}, &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: usecase.ReasonInvalidBody, Err: err}
	}
	return req, nil
}

// success builds a 200 JSON response and records the greeting as
// successful in traces, metrics and logs.
func success(ctx context.Context, event events.APIGatewayProxyRequest, payload any) (events.APIGatewayProxyResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	resp := events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}

	observability.Annotate(ctx, observability.AnnotationSuccessfulGreeting, true)
	log := logging.FromContext(ctx)
	if err := metrics.FromContext(ctx).Add(metrics.SuccessfulGreetings, 1); err != nil {
		log.Warn("failed to record metric", "err", err)
	}
	log.Info("Successful response from API endpoint", "path", event.Path, "body", resp.Body)
	return resp, nil
}
