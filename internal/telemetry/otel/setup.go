// Package otel builds the OpenTelemetry tracer, meter and logger providers used by the CRM processes.
package otel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

const defaultMetricInterval = 10 * time.Second

// Options configures NewProviders.
type Options struct {
	// Endpoint is the OTLP gRPC collector (host:port or URL; any path is ignored). Empty disables export.
	Endpoint string
	// ServiceName is the service.name resource attribute (e.g. crm-backend, crm-worker).
	ServiceName string
	// Environment is recorded as deployment.environment.name when set.
	Environment string
	// Insecure forces plaintext even for https endpoints.
	Insecure bool
	// MetricInterval is the metric export period; zero means 10s.
	MetricInterval time.Duration
}

// Providers holds the OpenTelemetry providers and a shutdown function.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *metric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Shutdown       func(context.Context) error
}

// NewProviders creates providers that export via OTLP gRPC. With an empty endpoint the providers
// record nothing beyond the process and Shutdown is a no-op.
func NewProviders(ctx context.Context, opts Options) (*Providers, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return &Providers{
			TracerProvider: sdktrace.NewTracerProvider(),
			MeterProvider:  metric.NewMeterProvider(),
			LoggerProvider: sdklog.NewLoggerProvider(),
			Shutdown:       func(context.Context) error { return nil },
		}, nil
	}

	target, insecure, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	insecure = insecure || opts.Insecure

	res, err := newResource(opts.ServiceName, opts.Environment)
	if err != nil {
		return nil, err
	}

	p := &Providers{}
	var shutdownFns []func(context.Context) error
	cleanup := func() {
		for i := len(shutdownFns) - 1; i >= 0; i-- {
			_ = shutdownFns[i](ctx)
		}
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
	if insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
	}
	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("otel: trace exporter: %w", err)
	}
	p.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
	shutdownFns = append(shutdownFns, p.TracerProvider.Shutdown)

	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(target)}
	if insecure {
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
	}
	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("otel: metric exporter: %w", err)
	}
	interval := opts.MetricInterval
	if interval <= 0 {
		interval = defaultMetricInterval
	}
	p.MeterProvider = metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(metric.NewPeriodicReader(metricExp, metric.WithInterval(interval))),
	)
	shutdownFns = append(shutdownFns, p.MeterProvider.Shutdown)

	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(target)}
	if insecure {
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}
	logExp, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("otel: log exporter: %w", err)
	}
	p.LoggerProvider = sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	shutdownFns = append(shutdownFns, p.LoggerProvider.Shutdown)

	p.Shutdown = func(ctx context.Context) error {
		var errs []error
		for i := len(shutdownFns) - 1; i >= 0; i-- {
			if err := shutdownFns[i](ctx); err != nil {
				log.Printf("telemetry: shutdown: %v", err)
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	return p, nil
}

// parseEndpoint reduces endpoint to the host:port gRPC dial target. Plaintext is used unless the scheme is https.
func parseEndpoint(endpoint string) (target string, insecure bool, err error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: missing host", endpoint)
	}
	return u.Host, u.Scheme != "https", nil
}

func newResource(serviceName, env string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(serviceName)}
	if env != "" {
		attrs = append(attrs, attribute.String("deployment.environment.name", env))
	}
	return resource.Merge(resource.Default(), resource.NewWithAttributes(semconv.SchemaURL, attrs...))
}

// SetGlobal installs the tracer and meter providers globally so otelhttp and the package-level
// meters (events, delivery, campaign dispatch) report through them. The LoggerProvider is passed
// explicitly to the otel event publisher instead.
func (p *Providers) SetGlobal() {
	if p.TracerProvider != nil {
		otel.SetTracerProvider(p.TracerProvider)
	}
	if p.MeterProvider != nil {
		otel.SetMeterProvider(p.MeterProvider)
	}
}
