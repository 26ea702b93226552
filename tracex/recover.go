package tracex

import (
	"context"

	internaltracex "github.com/clinia/dataapi/internal/tracex"
	"github.com/clinia/dataapi/loggerx"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// RecoverWithStackTrace recovers from a panic and logs the message with a stack trace.
// It should only be used as a defer statement at the beginning of a function.
// i.e. defer tracex.RecoverWithStackTrace(ctx, l, "panic while writing chunk")
func RecoverWithStackTrace(ctx context.Context, l *loggerx.Logger, msg string) {
	// The recoverer itself must never panic
	defer func() {
		recover()
	}()

	if r := recover(); r != nil {
		if l == nil {
			return
		}
		l.Error(ctx, msg, StackTraceAttrs(r)...)
	}
}

// StackTraceAttrs describes a recovered panic value. The stack starts at the caller of StackTraceAttrs.
func StackTraceAttrs(recovered any) []attribute.KeyValue {
	out := []attribute.KeyValue{}
	if recovered == nil {
		return out
	}
	stackTrace := internaltracex.GetStackTrace(3)
	out = append(out, semconv.ExceptionStacktrace(stackTrace))
	switch v := recovered.(type) {
	case string:
		out = append(out, semconv.ExceptionMessage(v))
	case error:
		out = append(out, semconv.ExceptionMessage(v.Error()))
	default:
		out = append(out, semconv.ExceptionMessage("unknown panic"))
	}

	return out
}

// GetStackTrace returns the stack trace of the caller.
func GetStackTrace() string {
	return internaltracex.GetStackTrace(3)
}
