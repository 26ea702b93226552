package dataapix

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/clinia/dataapi/loggerx"
	"github.com/clinia/dataapi/slogx"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// newLoggingMiddleware logs every outgoing request at debug level, with sensitive headers redacted.
func newLoggingMiddleware(lp func() *loggerx.Logger) func(http.RoundTripper) http.RoundTripper {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			l := lp()
			start := time.Now()
			resp, err := next.RoundTrip(r)
			attrs := []slog.Attr{
				slogx.RequestAttr(r),
				slog.Duration("elapsed", time.Since(start)),
			}
			if err != nil {
				l.Logger.LogAttrs(r.Context(), slog.LevelDebug, "request failed", append(attrs, slogx.ErrorAttr(err))...)
				return nil, err
			}
			l.Logger.LogAttrs(r.Context(), slog.LevelDebug, "request sent", append(attrs, slog.Int("status_code", resp.StatusCode))...)
			return resp, nil
		})
	}
}
