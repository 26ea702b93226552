package slogx

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

var (
	mu                  sync.RWMutex
	sensitiveHeadersMap = map[string]bool{"token": true, "authorization": true}
	redactionText       = "**[REDACTED]**"
)

// ConfigureSensitiveHeaders adds headers that should be redacted in the logs.
// Note that this will be applied globally to all loggers using slogx.
func ConfigureSensitiveHeaders(sensitiveHeaders ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, header := range sensitiveHeaders {
		sensitiveHeadersMap[strings.ToLower(header)] = true
	}
}

// ConfigureRedactionText sets the text that will be used to redact sensitive headers in the logs.
// Default is "**[REDACTED]**"
func ConfigureRedactionText(text string) {
	mu.Lock()
	defer mu.Unlock()
	redactionText = text
}

func RedactHeaders(headers http.Header) slog.Attr {
	mu.RLock()
	defer mu.RUnlock()

	headerMap := make(map[string][]string, len(headers))
	for key, values := range headers {
		if sensitiveHeadersMap[strings.ToLower(key)] {
			headerMap[key] = []string{redactionText}
		} else {
			headerMap[key] = values
		}
	}

	return slog.Any("headers", headerMap)
}

// RequestAttr groups the loggable parts of an outgoing command request.
func RequestAttr(r *http.Request) slog.Attr {
	attrs := []slog.Attr{
		RedactHeaders(r.Header),
		slog.String("method", r.Method),
		slog.String("host", r.URL.Host),
		slog.String("path", r.URL.EscapedPath()),
	}
	if r.ContentLength > 0 {
		attrs = append(attrs, slog.Int64("content_length", r.ContentLength))
	}

	return slog.GroupAttrs("http_request", attrs...)
}
