package dataapix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinia/dataapi/bulkx"
	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/httpx"
	"github.com/clinia/dataapi/loggerx"
	"github.com/clinia/dataapi/mathx"
	"github.com/clinia/dataapi/otelx"
	"github.com/clinia/dataapi/retryx"
	"github.com/clinia/dataapi/tracex"
)

const (
	componentName = "dataapix.Client"
	apiPath       = "api/json/v1"
)

type requestIDContextKey struct{}

// RequestIDContextKey is the context key under which the X-Request-Id of the command being sent
// is stored. Pass it to loggerx.WithRequestID to log it.
var RequestIDContextKey = requestIDContextKey{}

// Client sends commands to the Data API. It is safe for concurrent use.
type Client struct {
	conf     *Config
	http     *httpx.Client
	httpOpts []httpx.Option
	logger   *loggerx.Logger
	tracer   *otelx.Tracer
	meter    *otelx.Meter
	newID    idGenerator
}

type ClientOption func(*Client)

func WithLogger(l *loggerx.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

func WithTracer(t *otelx.Tracer) ClientOption {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithMeter records the bulk engine metrics of InsertMany and BulkWrite.
func WithMeter(m *otelx.Meter) ClientOption {
	return func(c *Client) {
		c.meter = m
	}
}

// WithHTTPOptions configures the underlying HTTP client.
func WithHTTPOptions(opts ...httpx.Option) ClientOption {
	return func(c *Client) {
		c.httpOpts = append(c.httpOpts, opts...)
	}
}

func NewClient(conf *Config, opts ...ClientOption) (*Client, error) {
	if conf == nil {
		return nil, errorx.InvalidArgumentErrorf("config can not be nil")
	}
	cp := *conf
	if err := cp.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		conf:   &cp,
		logger: loggerx.NewNoop(),
		tracer: otelx.NewNoopTracer(componentName),
		meter:  otelx.NewNoopMeter(),
		newID:  newIDGenerator(cp.IDVersion),
	}
	for _, opt := range opts {
		opt(c)
	}

	httpOpts := append([]httpx.Option{
		httpx.WithTimeout(cp.RequestTimeout),
		httpx.WithMiddleware(newLoggingMiddleware(func() *loggerx.Logger { return c.logger })),
		httpx.WithTracerProvider(c.tracer.Provider()),
	}, c.httpOpts...)
	c.http = httpx.NewClientWithOptions(httpOpts...)

	return c, nil
}

// Config returns a copy of the validated config.
func (c *Client) Config() Config {
	return *c.conf
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Collection returns a handle on a collection of the configured keyspace. It does not check
// that the collection exists.
func (c *Client) Collection(name string) *Collection {
	return &Collection{client: c, name: name}
}

func (c *Client) instrument(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span, *loggerx.Logger) {
	return tracex.InstrumentNext(ctx,
		func() *loggerx.Logger { return c.logger },
		func(context.Context) *otelx.Tracer { return c.tracer },
		componentName, name, opts...)
}

func (c *Client) newExecutor(t bulkx.Transport) (*bulkx.Executor, error) {
	return bulkx.NewExecutor(t,
		bulkx.WithLogger(c.logger),
		bulkx.WithTracer(c.tracer),
		bulkx.WithMeter(c.meter),
		bulkx.WithDefaults(bulkx.WithOptions(c.conf.BulkOptions())),
	)
}

// commandResponse holds the parts of a command response body.
type commandResponse struct {
	Status gjson.Result
	Data   gjson.Result
	Errors []*APIError
	// Retried reports that an earlier attempt of the command failed transiently and may have been applied
	Retried bool
}

// Err returns the command errors as one error, or nil.
func (r *commandResponse) Err() error {
	return commandError(r.Errors)
}

func (c *Client) commandURL(collection string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(c.conf.Endpoint, "/"))
	if err != nil {
		return "", errorx.InvalidArgumentErrorf("invalid endpoint %q: %v", c.conf.Endpoint, err)
	}
	return u.JoinPath(apiPath, c.conf.Keyspace, collection).String(), nil
}

// encodeCommand builds the body {"<name>": payload} and enforces the request size limit.
func (c *Client) encodeCommand(name string, payload any) ([]byte, error) {
	body, err := json.Marshal(map[string]any{name: payload})
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("failed to encode %s command: %v", name, err)
	}
	if limit := int(c.conf.MaxRequestBytes); limit > 0 && len(body) > limit {
		return nil, errorx.ContentTooLargeErrorf("%s command of %.2fMB exceeds the %.2fMB request limit",
			name, mathx.BytesToMB(len(body)), mathx.BytesToMB(limit))
	}
	return body, nil
}

// command sends one command, retrying transient failures. Errors reported in the body of a
// successful response are returned in the response, not as an error.
func (c *Client) command(ctx context.Context, collection, name string, payload any) (*commandResponse, error) {
	ctx, span, l := c.instrument(ctx, name, trace.WithAttributes(
		attribute.String("dataapi.keyspace", c.conf.Keyspace),
		attribute.String("dataapi.collection", collection),
		attribute.String("dataapi.command", name),
	))
	defer span.End()

	resp, err := c.send(ctx, l, collection, name, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(resp.Errors) > 0 {
		span.SetAttributes(attribute.Int("dataapi.errors", len(resp.Errors)))
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, l *loggerx.Logger, collection, name string, payload any) (*commandResponse, error) {
	u, err := c.commandURL(collection)
	if err != nil {
		return nil, err
	}
	body, err := c.encodeCommand(name, payload)
	if err != nil {
		return nil, err
	}

	var out *commandResponse
	attempt := 0
	err = retryx.ExponentialRetry(func() error {
		attempt++
		headers := httpx.NewJSONHeaders(c.conf.Token, c.conf.UserAgent)
		requestID, err := httpx.SetRequestID(headers)
		if err != nil {
			return err
		}
		rctx := context.WithValue(ctx, RequestIDContextKey, requestID)
		c.tracer.Inject(rctx, propagation.HeaderCarrier(headers))

		resp, err := c.http.MakeHTTPRequest(rctx, &httpx.Request{
			Method:  http.MethodPost,
			URL:     u,
			Body:    body,
			Headers: headers,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errorx.IsInvalidArgumentError(err) {
				return err
			}
			return errorx.NewRetryableError(errorx.UnavailableErrorf("failed to send %s command: %v", name, err).WithOriginalError(err))
		}

		parsed := parseResponse(resp.Body)
		if !resp.IsSuccess() {
			serr := statusError(resp.StatusCode, parsed.Errors)
			if resp.IsTransient() || resp.StatusCode == http.StatusTooManyRequests {
				return errorx.NewRetryableError(serr)
			}
			return serr
		}
		if !gjson.ValidBytes(resp.Body) {
			return errorx.InternalErrorf("%s command returned an invalid JSON body", name)
		}

		l.Debug(rctx, "command completed",
			attribute.Int("http.status_code", resp.StatusCode),
			attribute.Int64("http.duration_ms", resp.Duration.Milliseconds()),
			attribute.Int("attempt", attempt),
		)
		parsed.Retried = attempt > 1
		out = parsed
		return nil
	},
		retryx.WithContext(ctx),
		retryx.WithRetryCount(c.conf.Retry.Count),
		retryx.WithInterval(c.conf.Retry.Interval),
		retryx.WithMaxInterval(c.conf.Retry.MaxInterval),
		retryx.WithRetryable(retryx.IsRetryable),
		retryx.WithNotify(func(err error, next time.Duration) {
			l.WithError(err).Warn(ctx, "retrying command",
				attribute.Int("attempt", attempt),
				attribute.String("retry.in", next.String()),
			)
		}),
	)
	if re, ok := errorx.IsRetryableError(err); ok {
		err = re.Unwrap()
	}
	return out, err
}

func parseResponse(body []byte) *commandResponse {
	r := gjson.ParseBytes(body)
	return &commandResponse{
		Status: r.Get("status"),
		Data:   r.Get("data"),
		Errors: parseAPIErrors(r.Get("errors")),
	}
}
