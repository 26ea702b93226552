// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package otelx

import (
	"context"

	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/loggerx"
	"go.opentelemetry.io/contrib/propagators/b3"
	jaegerprop "go.opentelemetry.io/contrib/propagators/jaeger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
	"go.opentelemetry.io/otel/trace/noop"
)

type Tracer struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
	shutdown   func(context.Context) error
}

// NewNoopTracer returns a tracer recording nothing.
func NewNoopTracer(name string) *Tracer {
	return &Tracer{
		tracer:     noop.NewTracerProvider().Tracer(name),
		propagator: propagation.NewCompositeTextMapPropagator(),
	}
}

// setup constructs the tracer based on the given configuration.
func (t *Tracer) setup(ctx context.Context, l *loggerx.Logger, c *TracerConfig) error {
	switch c.Provider {
	case "otel":
		tp, shutdown, err := SetupOTLPTracerProvider(ctx, c)
		if err != nil {
			return err
		}

		t.tracer = tp.Tracer(c.Name)
		t.shutdown = shutdown
		l.Info(ctx, "OTLP tracer configured",
			attribute.String("server_url", c.Providers.OTLP.ServerURL),
			attribute.String("protocol", c.Providers.OTLP.Protocol),
		)
	case "stdout":
		tp, err := SetupStdoutTracerProvider(c)
		if err != nil {
			return err
		}

		t.tracer = tp.Tracer(c.Name)
		t.shutdown = tp.Shutdown
		l.Info(ctx, "Stdout tracer configured")
	case "":
		l.Debug(ctx, "No tracer configured - skipping tracing setup")
		t.tracer = noop.NewTracerProvider().Tracer(c.Name)
	default:
		return errorx.NewEnumOutOfRangeError(c.Provider, []string{"otel", "stdout", ""}, "tracer provider")
	}

	t.propagator = propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
		jaegerprop.Jaeger{},
		b3.New(b3.WithInjectEncoding(b3.B3MultipleHeader)),
	)
	return nil
}

// IsLoaded returns true if the tracer has been loaded.
func (t *Tracer) IsLoaded() bool {
	if t == nil || t.tracer == nil {
		return false
	}
	return true
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// WithOTLP returns a new tracer with the underlying OpenTelemetry Tracer replaced.
func (t *Tracer) WithOTLP(other trace.Tracer) *Tracer {
	return &Tracer{tracer: other, propagator: t.propagator}
}

// Provider returns a TracerProvider which in turn yields this tracer unmodified.
func (t *Tracer) Provider() trace.TracerProvider {
	return tracerProvider{t: t.Tracer()}
}

type tracerProvider struct {
	embedded.TracerProvider
	t trace.Tracer
}

var _ trace.TracerProvider = tracerProvider{}

// Tracer implements trace.TracerProvider.
func (tp tracerProvider) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	return tp.t
}

// TextMapPropagator returns the underlying OpenTelemetry textMapPropagator.
func (t *Tracer) TextMapPropagator() propagation.TextMapPropagator {
	return t.propagator
}

// Inject sets the trace context from ctx into the carrier.
func (t *Tracer) Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	t.propagator.Inject(ctx, carrier)
}

// Shutdown flushes pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}
