// Package telemetry wires OpenTelemetry tracing and metrics for the
// orchestration pipeline: build duration, heal-loop iterations,
// tool-call volume, and backend port pool utilization.
//
// Grounded on internal/telemetry/telemetry.go, kept close to verbatim
// for the OTLP exporter/resource/provider setup; only the custom
// metric set changes, from bead/workflow counters to the build-heal
// domain's.
package telemetry

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

var (
	// Tracer is the global tracer set by InitTelemetry. No build, heal or
	// tool-dispatch code in this module starts spans on it.
	Tracer trace.Tracer

	// Meter is the global meter for custom metrics.
	Meter metric.Meter

	// BuildsTotal counts every preview build attempt.
	BuildsTotal metric.Int64Counter
	// BuildDuration records wall-clock build time.
	BuildDuration metric.Float64Histogram
	// HealAttempts counts rounds of the auto-heal loop.
	HealAttempts metric.Int64Counter
	// HealResolved counts error records the heal loop resolved.
	HealResolved metric.Int64Counter
	// ToolCalls counts dispatched tool invocations.
	ToolCalls metric.Int64Counter
	// ToolLoopIterations records how many model round-trips a tool loop took.
	ToolLoopIterations metric.Float64Histogram
	// BackendPortsInUse tracks the live count of allocated backend ports.
	BackendPortsInUse metric.Int64UpDownCounter
)

// InitTelemetry initializes OpenTelemetry tracing and metrics, exporting
// traces via OTLP/gRPC to otelEndpoint.
func InitTelemetry(ctx context.Context, serviceName, otelEndpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	Tracer = otel.Tracer(serviceName)
	Meter = otel.Meter(serviceName)

	if err := initMetrics(); err != nil {
		return nil, err
	}

	log.Printf("[Telemetry] initialized with endpoint %s", otelEndpoint)

	return func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return traceProvider.Shutdown(shutdownCtx)
	}, nil
}

func initMetrics() error {
	var err error

	BuildsTotal, err = Meter.Int64Counter(
		"appgen.builds.total",
		metric.WithDescription("Total number of preview builds attempted"),
	)
	if err != nil {
		return err
	}

	BuildDuration, err = Meter.Float64Histogram(
		"appgen.builds.duration",
		metric.WithDescription("Preview build wall-clock duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	HealAttempts, err = Meter.Int64Counter(
		"appgen.heal.attempts",
		metric.WithDescription("Number of auto-heal loop rounds run"),
	)
	if err != nil {
		return err
	}

	HealResolved, err = Meter.Int64Counter(
		"appgen.heal.resolved",
		metric.WithDescription("Number of error records resolved by the auto-heal loop"),
	)
	if err != nil {
		return err
	}

	ToolCalls, err = Meter.Int64Counter(
		"appgen.tools.calls",
		metric.WithDescription("Number of tool invocations dispatched"),
	)
	if err != nil {
		return err
	}

	ToolLoopIterations, err = Meter.Float64Histogram(
		"appgen.tools.loop_iterations",
		metric.WithDescription("Model round-trips taken per tool loop"),
	)
	if err != nil {
		return err
	}

	BackendPortsInUse, err = Meter.Int64UpDownCounter(
		"appgen.backends.ports_in_use",
		metric.WithDescription("Currently allocated backend process ports"),
	)
	if err != nil {
		return err
	}

	return nil
}
