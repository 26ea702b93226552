package httpx

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Option is a named func that will help set custom options to the HTTP Client
type Option func(*Client)

// WithTimeout sets a customizable timeout to the http client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithSkipTLSVerification() Option {
	return func(c *Client) {
		c.transport.TLSClientConfig.InsecureSkipVerify = true
	}
}

// WithRoundTripper replaces the default transport, e.g. with an instrumented one.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.roundTripper = rt
	}
}

// WithMiddleware wraps the transport. Middlewares are applied in order, the last one being the outermost.
func WithMiddleware(mw func(http.RoundTripper) http.RoundTripper) Option {
	return func(c *Client) {
		c.middlewares = append(c.middlewares, mw)
	}
}

// WithTracerProvider traces the lifecycle of every request (connection, DNS, headers, body) with tp.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		c.tracerProvider = tp
	}
}
