// Package telemetry wires OpenTelemetry tracing for the server.
package telemetry

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

type Options struct {
	ServiceName string
	// Endpoint is an OTLP/HTTP URL such as http://collector:4318.
	Endpoint string
	// Stdout prints finished spans to Writer (os.Stdout when nil).
	Stdout bool
	Writer io.Writer
}

// Setup installs a global tracer provider.
//
// Tracing is opt-in: with neither an endpoint nor stdout output, Setup
// returns a no-op shutdown function and no global provider is registered.
//
// The returned shutdown function flushes pending spans and should be
// deferred by the caller.
func Setup(ctx context.Context, opts Options) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	if opts.Endpoint == "" && !opts.Stdout {
		return noop, nil
	}

	var tpOpts []sdktrace.TracerProviderOption

	if opts.Endpoint != "" {
		exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(opts.Endpoint))
		if err != nil {
			return noop, err
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	if opts.Stdout {
		w := opts.Writer
		if w == nil {
			w = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return noop, err
		}
		tpOpts = append(tpOpts, sdktrace.WithSyncer(exporter))
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tpOpts = append(tpOpts,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	tp := sdktrace.NewTracerProvider(tpOpts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}
