package macrotrack

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	TracerNameResolver = "macrotrack-resolver"
	TracerNameLookup   = "macrotrack-lookup"
	TracerNameServer   = "macrotrack-server"
)

// OtelConfig is a configuration struct for the OpenTelemetry providers.
// Leaving the endpoint unset keeps telemetry in-process with no exporters.
type OtelConfig struct {
	Endpoint       string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceVersion string `env:"OTEL_SERVICE_VERSION,default=0.1.0"`
	ServiceName    string `env:"OTEL_SERVICE_NAME,default=macrotrack"`
	DeployEnv      string `env:"OTEL_DEPLOY_ENV,default=development"`
}

func (c OtelConfig) resource() *resource.Resource {
	return resource.NewSchemaless(
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.ServiceVersion),
		attribute.String("deployment.environment", c.DeployEnv),
	)
}

type otelShutdown func(ctx context.Context) error

// InitOtel initializes the OpenTelemetry SDK and returns a TracerProvider, MeterProvider, and shutdown function.
func InitOtel(ctx context.Context) (*sdktrace.TracerProvider, *metric.MeterProvider, otelShutdown, error) {
	var cfg OtelConfig
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, nil, nil, err
	}

	var (
		tracerProvider *sdktrace.TracerProvider
		meterProvider  *metric.MeterProvider
	)

	if cfg.Endpoint == "" {
		slog.Info("OTEL: No exporter endpoint configured; telemetry stays local")
		tracerProvider = sdktrace.NewTracerProvider(sdktrace.WithResource(cfg.resource()))
		meterProvider = metric.NewMeterProvider(metric.WithResource(cfg.resource()))
	} else {
		// Exporters read OTEL_EXPORTER_OTLP_* from the environment
		traceExporter, err := otlptrace.New(ctx, otlptracegrpc.NewClient())
		if err != nil {
			return nil, nil, nil, err
		}

		metricExporter, err := otlpmetricgrpc.New(ctx)
		if err != nil {
			return nil, nil, nil, err
		}

		tracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(cfg.resource()),
		)
		meterProvider = metric.NewMeterProvider(
			metric.WithReader(metric.NewPeriodicReader(metricExporter)),
			metric.WithResource(cfg.resource()),
		)
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetMeterProvider(meterProvider)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	shutdown := func(ctx context.Context) error {
		err := errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)

		if err != nil && err.Error() == "gRPC exporter is shutdown" {
			return nil
		}

		return err
	}

	return tracerProvider, meterProvider, shutdown, nil
}
