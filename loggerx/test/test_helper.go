package loggerxtest

import (
	"bytes"
	"testing"

	"github.com/clinia/dataapi/loggerx"
)

func NewTestLogger(t testing.TB) *loggerx.Logger {
	t.Helper()
	return loggerx.NewNoop()
}

func NewTestLoggerWithJSONBuffer(t testing.TB) (*loggerx.Logger, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	return loggerx.New(loggerx.WithOutput(buf), loggerx.WithLevel("debug")), buf
}

func NewTestLoggerWithTextBuffer(t testing.TB) (*loggerx.Logger, *bytes.Buffer) {
	t.Helper()
	buf := new(bytes.Buffer)
	return loggerx.New(loggerx.WithOutput(buf), loggerx.WithFormat("text"), loggerx.WithLevel("debug")), buf
}
