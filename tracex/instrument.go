package tracex

import (
	"context"

	"github.com/clinia/dataapi/loggerx"
	"github.com/clinia/dataapi/otelx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type (
	tracerProvider     func(ctx context.Context) *otelx.Tracer
	loggerNextProvider func() *loggerx.Logger
)

const ComponentNameSeparator = "."

func ComponentName(packageName, structName string) string {
	return packageName + ComponentNameSeparator + structName
}

/*
InstrumentNext starts a span named after the component and returns a logger carrying the span
attributes. `span.End()` must be called once the work is done.

	const myComponentName = "bulkx.Executor"

	func (e *Executor) instrument(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
		return tracex.InstrumentNext(ctx, e.logger, e.tracer, myComponentName, name, opts...)
	}

	func (e *Executor) Execute(ctx context.Context) error {
		ctx, span, l := e.instrument(ctx, "Execute")
		defer span.End()
	}
*/
func InstrumentNext(ctx context.Context, lp loggerNextProvider, tp tracerProvider, componentName string, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	fullComponentName := ComponentName(componentName, name)
	ctx, span := tp(ctx).Tracer().Start(ctx, fullComponentName, opts...)
	l := lp().
		WithSpanStartOptions(opts...).
		WithFields(attribute.Key("component").String(fullComponentName))
	return ctx, span, l
}
