package tracing

import (
	"context"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/clover/pkg/tracing/exporters"
)

// ProviderConfig configures the tracer provider
type ProviderConfig struct {
	ServiceName string
	// OTLP is used when Endpoint is set; otherwise spans go to the logger
	OTLP exporters.OTLPConfig
}

// Provider owns the SDK tracer provider for the process
type Provider struct {
	config ProviderConfig
	logger ectologger.Logger
	tp     *sdktrace.TracerProvider
}

func NewProvider(config ProviderConfig, logger ectologger.Logger) *Provider {
	return &Provider{
		config: config,
		logger: logger,
	}
}

// GetName implements startup.Dependency
func (p *Provider) GetName() string {
	return "tracing"
}

// DependsOn implements startup.Dependency
func (p *Provider) DependsOn() []string {
	return nil
}

// Start builds the exporter and installs the global tracer
func (p *Provider) Start(ctx context.Context) error {
	var exporter sdktrace.SpanExporter = exporters.NewLogExporter(p.logger)
	if p.config.OTLP.Endpoint != "" {
		otlpExporter, err := exporters.NewOTLPExporter(ctx, p.config.OTLP)
		if err != nil {
			return err
		}
		exporter = otlpExporter
	}

	p.tp = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", p.config.ServiceName),
		)),
	)

	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	SetTracer(p.tp.Tracer(p.config.ServiceName))

	p.logger.WithField("otlp_endpoint", p.config.OTLP.Endpoint).Info("Tracing initialized")
	return nil
}

// Stop flushes pending spans
func (p *Provider) Stop(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	SetTracer(nil)
	return p.tp.Shutdown(ctx)
}
