package loggerx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	internaltracex "github.com/clinia/dataapi/internal/tracex"
	"github.com/clinia/dataapi/slogx"
	slogctx "github.com/veqryn/slog-context"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type Logger struct {
	*slog.Logger
}

type (
	options struct {
		level         slog.Level
		format        string
		out           io.Writer
		serviceName   string
		version       string
		requestIDKey  any
		requestIDAttr string
	}
	Option func(*options)
)

// WithLevel sets the minimum level. Unknown values fall back to info.
func WithLevel(level string) Option {
	return func(o *options) {
		var l slog.Level
		if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err == nil {
			o.level = l
		}
	}
}

// WithFormat selects the "json" or "text" handler.
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

func WithService(name, version string) Option {
	return func(o *options) {
		o.serviceName = name
		o.version = version
	}
}

// WithRequestID adds the value stored under ctxKey to every record logged with that context.
func WithRequestID(ctxKey any, field string) Option {
	return func(o *options) {
		o.requestIDKey = ctxKey
		o.requestIDAttr = field
	}
}

func New(opts ...Option) *Logger {
	o := &options{
		level:  slog.LevelInfo,
		format: "json",
		out:    os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	hopts := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler
	if o.format == "text" {
		h = slog.NewTextHandler(o.out, hopts)
	} else {
		h = slog.NewJSONHandler(o.out, hopts)
	}

	appenders := []slogctx.AttrExtractor{slogctx.ExtractAppended}
	if o.requestIDKey != nil {
		appenders = append(appenders, slogx.NewRequestIDExtractor(o.requestIDKey, o.requestIDAttr))
	}
	h = slogctx.NewHandler(h, &slogctx.HandlerOptions{
		Prependers: []slogctx.AttrExtractor{slogctx.ExtractPrepended},
		Appenders:  appenders,
	})

	l := &Logger{slog.New(h)}
	if o.serviceName != "" {
		l = l.WithFields(semconv.ServiceName(o.serviceName), semconv.ServiceVersion(o.version))
	}
	return l
}

// NewNoop returns a logger discarding every record.
func NewNoop() *Logger {
	return &Logger{slog.New(slog.DiscardHandler)}
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{l.Logger.With(slogx.ErrorAttr(err))}
}

func (l *Logger) Panic(ctx context.Context, msg string, kvs ...attribute.KeyValue) *Logger {
	l.Error(ctx, msg, kvs...)
	panic(msg)
}

func (l *Logger) WithStackTrace() *Logger {
	stackTrace := internaltracex.GetStackTrace(3)
	return l.WithFields(semconv.ExceptionStacktrace(stackTrace))
}

func (l *Logger) Error(ctx context.Context, msg string, kvs ...attribute.KeyValue) {
	l.Logger.LogAttrs(ctx, slog.LevelError, msg, slogx.NewLogFields(kvs...)...)
}

func (l *Logger) Warn(ctx context.Context, msg string, kvs ...attribute.KeyValue) {
	l.Logger.LogAttrs(ctx, slog.LevelWarn, msg, slogx.NewLogFields(kvs...)...)
}

func (l *Logger) Info(ctx context.Context, msg string, kvs ...attribute.KeyValue) {
	l.Logger.LogAttrs(ctx, slog.LevelInfo, msg, slogx.NewLogFields(kvs...)...)
}

func (l *Logger) Debug(ctx context.Context, msg string, kvs ...attribute.KeyValue) {
	l.Logger.LogAttrs(ctx, slog.LevelDebug, msg, slogx.NewLogFields(kvs...)...)
}

func (l *Logger) WithFields(kvs ...attribute.KeyValue) *Logger {
	if len(kvs) == 0 {
		return l
	}
	lfs := slogx.NewLogFields(kvs...)
	// Workaround until slog.Logger gets a WithAttrs method, see https://github.com/golang/go/issues/66937#issuecomment-2730350514
	return &Logger{l.Logger.With("", slog.GroupValue(lfs...))}
}

// WithSpanStartOptions copies the span attributes found in opts onto the logger.
func (l *Logger) WithSpanStartOptions(opts ...trace.SpanStartOption) *Logger {
	cfg := trace.NewSpanStartConfig(opts...)
	return l.WithFields(cfg.Attributes()...)
}
