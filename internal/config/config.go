// Package config reads process settings from the environment. The table
// name and endpoint override are read per request by repository.Provider.
package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	EnvLogLevel             = "LOG_LEVEL"
	EnvServiceName          = "POWERTOOLS_SERVICE_NAME"
	EnvMetricsNamespace     = "POWERTOOLS_METRICS_NAMESPACE"
	EnvTraceEndpoint        = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvTraceSampleRate      = "OTEL_TRACES_SAMPLER_ARG"
	EnvDefaultGreetingParam = "DEFAULT_GREETING_PARAM"
)

const (
	defaultServiceName      = "greetings"
	defaultMetricsNamespace = "Greetings"
	defaultLogLevel         = "info"
)

// Config is the set of process-wide settings.
type Config struct {
	ServiceName          string
	MetricsNamespace     string
	LogLevel             string
	TraceEndpoint        string
	TraceSampleRate      float64
	DefaultGreetingParam string
}

// FromEnv reads Config from the process environment.
func FromEnv() Config {
	return Load(os.Getenv)
}

// Load reads Config through getenv, applying defaults for unset values.
func Load(getenv func(string) string) Config {
	return Config{
		ServiceName:          envOr(getenv, EnvServiceName, defaultServiceName),
		MetricsNamespace:     envOr(getenv, EnvMetricsNamespace, defaultMetricsNamespace),
		LogLevel:             envOr(getenv, EnvLogLevel, defaultLogLevel),
		TraceEndpoint:        strings.TrimSpace(getenv(EnvTraceEndpoint)),
		TraceSampleRate:      envFloat(getenv, EnvTraceSampleRate, 1.0),
		DefaultGreetingParam: strings.TrimSpace(getenv(EnvDefaultGreetingParam)),
	}
}

func envOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func envFloat(getenv func(string) string, key string, def float64) float64 {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 || f > 1 {
		return def
	}
	return f
}
