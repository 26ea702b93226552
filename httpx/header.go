package httpx

import (
	"net/http"

	"github.com/clinia/dataapi/errorx"
	"github.com/segmentio/ksuid"
)

const (
	TokenHeaderKey       = "Token"
	RequestIDHeaderKey   = "X-Request-Id"
	UserAgentHeaderKey   = "User-Agent"
	ContentTypeHeaderKey = "Content-Type"
	ContentTypeJSON      = "application/json"
)

// NewJSONHeaders returns the headers sent with every command.
func NewJSONHeaders(token, userAgent string) http.Header {
	h := http.Header{}
	h.Set(ContentTypeHeaderKey, ContentTypeJSON)
	h.Set("Accept", ContentTypeJSON)
	if token != "" {
		h.Set(TokenHeaderKey, token)
	}
	if userAgent != "" {
		h.Set(UserAgentHeaderKey, userAgent)
	}
	return h
}

// SetRequestID sets a new request ID on the headers, unless one is already present, and returns it.
func SetRequestID(h http.Header) (string, error) {
	if h == nil {
		return "", errorx.InternalErrorf("headers can not be nil")
	}
	if id := h.Get(RequestIDHeaderKey); id != "" {
		return id, nil
	}
	id := ksuid.New().String()
	h.Set(RequestIDHeaderKey, id)
	return id, nil
}
