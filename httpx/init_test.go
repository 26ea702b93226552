package httpx

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetDefaultHTTPClient(t *testing.T) {
	client := GetDefaultHTTPClient()

	assert.Equal(t, httpClientDefaultTimeout, client.Timeout)
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient()

	assert.Equal(t, httpClientDefaultTimeout, client.httpClient.Timeout)
}

func TestNewClientWithOptions(t *testing.T) {
	t.Run("should apply the options", func(t *testing.T) {
		client := NewClientWithOptions(WithTimeout(30*time.Second), WithSkipTLSVerification())

		assert.Equal(t, true, client.transport.TLSClientConfig.InsecureSkipVerify)
		assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
		assert.Same(t, client.transport, client.httpClient.Transport)
	})

	t.Run("should use the given round tripper", func(t *testing.T) {
		rt := http.DefaultTransport
		client := NewClientWithOptions(WithRoundTripper(rt))

		assert.Equal(t, rt, client.httpClient.Transport)
	})

	t.Run("should wrap the transport with middlewares in order", func(t *testing.T) {
		var calls []string
		mw := func(name string) func(http.RoundTripper) http.RoundTripper {
			return func(next http.RoundTripper) http.RoundTripper {
				return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
					calls = append(calls, name)
					return next.RoundTrip(r)
				})
			}
		}
		base := roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			calls = append(calls, "base")
			return &http.Response{StatusCode: http.StatusNoContent, Body: http.NoBody}, nil
		})

		client := NewClientWithOptions(WithRoundTripper(base), WithMiddleware(mw("inner")), WithMiddleware(mw("outer")))
		req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
		assert.NoError(t, err)

		resp, err := client.httpClient.Do(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Equal(t, []string{"outer", "inner", "base"}, calls)
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
