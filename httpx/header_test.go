package httpx

import (
	"net/http"
	"testing"

	"github.com/clinia/dataapi/errorx"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONHeaders(t *testing.T) {
	t.Run("should set every header", func(t *testing.T) {
		h := NewJSONHeaders("secret", "dataapi-go/1.0")
		assert.Equal(t, "secret", h.Get(TokenHeaderKey))
		assert.Equal(t, "dataapi-go/1.0", h.Get(UserAgentHeaderKey))
		assert.Equal(t, ContentTypeJSON, h.Get(ContentTypeHeaderKey))
	})

	t.Run("should skip empty values", func(t *testing.T) {
		h := NewJSONHeaders("", "")
		assert.Empty(t, h.Values(TokenHeaderKey))
		assert.Empty(t, h.Values(UserAgentHeaderKey))
	})
}

func TestSetRequestID(t *testing.T) {
	t.Run("should generate a ksuid", func(t *testing.T) {
		h := http.Header{}
		id, err := SetRequestID(h)
		require.NoError(t, err)
		assert.Equal(t, id, h.Get(RequestIDHeaderKey))
		_, err = ksuid.Parse(id)
		assert.NoError(t, err)
	})

	t.Run("should keep an existing request id", func(t *testing.T) {
		h := http.Header{}
		h.Set(RequestIDHeaderKey, "abc")
		id, err := SetRequestID(h)
		require.NoError(t, err)
		assert.Equal(t, "abc", id)
	})

	t.Run("should return an error on nil headers", func(t *testing.T) {
		_, err := SetRequestID(nil)
		assert.True(t, errorx.IsInternalError(err))
	})
}
