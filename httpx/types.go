package httpx

import (
	"net/http"
	"net/url"
	"time"

	"github.com/clinia/dataapi/errorx"
)

const httpClientDefaultTimeout = 60 * time.Second

// Request is the input parameters that will need to be sent with an HTTP request.
// A []byte Body is sent as is, any other value is encoded as JSON.
type Request struct {
	Method          string `validate:"required,oneof=GET POST PUT PATCH DELETE"`
	URL             string `validate:"required,url"`
	Body            any
	Headers         http.Header
	QueryParameters url.Values
}

// Validate validates if the struct contains the required entities or not
func (r *Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return errorx.InvalidArgumentErrorf("invalid http request: %v", err)
	}
	return nil
}

// Response struct will contain the entities returned with the HTTP response
type Response struct {
	StatusCode int `validate:"required"`
	Body       []byte
	Headers    http.Header
	Duration   time.Duration
}

// Validate validates if the struct contains the required entities or not
func (r *Response) Validate() error {
	if err := validate.Struct(r); err != nil {
		return errorx.InvalidArgumentErrorf("invalid http response: %v", err)
	}
	return nil
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsTransient reports whether the gateway in front of the server failed, in which case the
// request may succeed when sent again.
func (r *Response) IsTransient() bool {
	switch r.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
