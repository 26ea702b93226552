package httpx

import (
	"crypto/tls"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Client struct {
	httpClient   *http.Client
	transport    *http.Transport
	roundTripper http.RoundTripper
	middlewares  []func(http.RoundTripper) http.RoundTripper
	// tracerProvider records connection, DNS and send spans of every request when set
	tracerProvider trace.TracerProvider
}

// GetDefaultHTTPClient returns an HTTP client with basic settings
func GetDefaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: httpClientDefaultTimeout,
	}
}

// NewHTTPClient returns a default HTTP client with default options
func NewHTTPClient() *Client {
	return NewClientWithOptions()
}

// NewClientWithOptions creates a configurable HTTP Client
func NewClientWithOptions(options ...Option) *Client {
	client := &Client{
		transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{},
		},
	}

	client.httpClient = GetDefaultHTTPClient()

	for _, opt := range options {
		opt(client)
	}

	var rt http.RoundTripper = client.transport
	if client.roundTripper != nil {
		rt = client.roundTripper
	}
	for _, mw := range client.middlewares {
		rt = mw(rt)
	}
	client.httpClient.Transport = rt

	return client
}

// CloseIdleConnections closes idle keep-alive connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
