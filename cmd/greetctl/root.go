package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"greetings/internal/app"
	"greetings/internal/config"
	"greetings/internal/logging"
	"greetings/internal/repository"
)

type cli struct {
	table    string
	endpoint string
	memory   bool
	logLevel string
	emf      bool

	store *repository.Memory
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "greetctl",
		Short:         "Invoke the greeting handlers locally",
		Long:          "Runs the greeting Lambda handlers in-process against DynamoDB or an in-memory store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&c.table, "table", "", "DynamoDB table name (overrides TABLE_NAME)")
	rootCmd.PersistentFlags().StringVar(&c.endpoint, "endpoint", "", "DynamoDB endpoint (overrides ENDPOINT_OVERRIDE)")
	rootCmd.PersistentFlags().BoolVar(&c.memory, "memory", false, "Use an in-memory store instead of DynamoDB")
	rootCmd.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level")
	rootCmd.PersistentFlags().BoolVar(&c.emf, "emf", false, "Print CloudWatch EMF metrics to stderr")

	rootCmd.AddCommand(
		c.getCmd(),
		c.putCmd(),
		c.lookupCmd(),
		c.helloCmd(),
		c.seedCmd(),
	)
	return rootCmd
}

func (c *cli) lookupEnv(key string) (string, bool) {
	switch key {
	case repository.EnvTableName:
		if c.table != "" {
			return c.table, true
		}
	case repository.EnvEndpointOverride:
		if c.endpoint != "" {
			return c.endpoint, true
		}
	}
	return os.LookupEnv(key)
}

func (c *cli) newApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	logging.SetOutput(cmd.ErrOrStderr())

	cfg := config.FromEnv()
	cfg.LogLevel = c.logLevel

	var metricsOut io.Writer = io.Discard
	if c.emf {
		metricsOut = cmd.ErrOrStderr()
	}
	opts := []app.Option{
		app.WithLookupEnv(c.lookupEnv),
		app.WithMetricsOutput(metricsOut),
	}
	if c.memory {
		if c.store == nil {
			c.store = repository.NewMemory()
		}
		opts = append(opts, app.WithStore(c.store))
	}
	return app.New(ctx, cfg, opts...)
}
