package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"greetings/handler"
	"greetings/internal/app"
	"greetings/internal/logging"
	"greetings/internal/middleware"
)

// statusError is returned for non-2xx responses so the exit code is set.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.status, http.StatusText(e.status), e.body)
}

func greetingEvent(method, country, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod:     method,
		Resource:       "/greeting/{country}",
		Path:           "/greeting/" + country,
		PathParameters: map[string]string{"country": country},
		Body:           body,
	}
}

func invoke(ctx context.Context, h middleware.Handler, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	ctx = lambdacontext.NewContext(ctx, &lambdacontext.LambdaContext{AwsRequestID: uuid.NewString()})
	resp, err := h(ctx, event)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, &statusError{status: resp.StatusCode, body: resp.Body}
	}
	return resp, nil
}

func closeApp(ctx context.Context, a *app.App) {
	if err := a.Close(ctx); err != nil {
		logging.FromContext(ctx).Warn("failed to shut down tracing", "err", err)
	}
}

func (c *cli) run(cmd *cobra.Command, name string, pick func(a *app.App) middleware.Handler, event events.APIGatewayProxyRequest) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := c.newApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	resp, err := invoke(ctx, a.Wrap(name, pick(a)), event)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Body)
	return nil
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <country>",
		Short: "Get the stored greeting for a country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "get-greeting", func(a *app.App) middleware.Handler { return a.Handler.GetGreeting },
				greetingEvent(http.MethodGet, args[0], ""))
		},
	}
}

func (c *cli) putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <country> <greeting>",
		Short: "Store the greeting for a country",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(map[string]string{"greeting": args[1]})
			if err != nil {
				return err
			}
			return c.run(cmd, "put-greeting", func(a *app.App) middleware.Handler { return a.Handler.PutGreeting },
				greetingEvent(http.MethodPut, args[0], string(body)))
		},
	}
}

func (c *cli) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <country>",
		Short: "Get the built-in greeting for a country",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, "static-greeting", func(*app.App) middleware.Handler { return handler.StaticGreeting },
				greetingEvent(http.MethodGet, args[0], ""))
		},
	}
}

func (c *cli) helloCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Invoke the hello endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, "hello", func(*app.App) middleware.Handler { return handler.Hello },
				events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Resource: "/hello", Path: "/hello"})
		},
	}
}
