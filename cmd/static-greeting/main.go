package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"greetings/handler"
	"greetings/internal/app"
	"greetings/internal/config"
)

func main() {
	ctx := context.Background()

	a, err := app.New(ctx, config.FromEnv())
	if err != nil {
		slog.Error("failed to initialise static-greeting", "err", err)
		os.Exit(1)
	}

	lambda.Start(a.Wrap("static-greeting", handler.StaticGreeting))
}
