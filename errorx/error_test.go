package errorx

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError(t *testing.T) {
	t.Run("should return clinia error from stack", func(t *testing.T) {
		err := AlreadyExistsErrorf("test")
		serr := errors.WithStack(err)

		cErr, ok := IsCliniaError(serr)
		assert.True(t, ok)
		assert.Equal(t, ErrorTypeAlreadyExists, cErr.Type)
	})

	t.Run("should return a clinia error wrapped with fmt", func(t *testing.T) {
		err := fmt.Errorf("chunk [0, 10): %w", UnavailableErrorf("service unavailable"))

		assert.True(t, IsUnavailableError(err))
		assert.False(t, IsInternalError(err))
	})

	t.Run("should not return a clinia error for a plain error", func(t *testing.T) {
		_, ok := IsCliniaError(errors.New("boom"))
		assert.False(t, ok)

		_, ok = IsCliniaError(nil)
		assert.False(t, ok)
	})

	t.Run("should return a clinia error behind several wraps", func(t *testing.T) {
		err := fmt.Errorf("insertMany: %w", errors.Wrap(PermissionDeniedErrorf("no access to keyspace"), "send"))

		cErr, ok := IsCliniaError(err)
		require.True(t, ok)
		assert.Equal(t, ErrorTypePermissionDenied, cErr.Type)
		assert.Equal(t, "no access to keyspace", cErr.Message)
	})

	t.Run("should not return a clinia error without a type", func(t *testing.T) {
		_, ok := IsCliniaError(errors.WithStack(&CliniaError{Message: "untyped"}))
		assert.False(t, ok)
	})

	t.Run("should return is not found from stack", func(t *testing.T) {
		err := errors.WithStack(NotFoundErrorf("test"))
		assert.True(t, IsNotFoundError(err))
	})

	t.Run("should format the error with its type", func(t *testing.T) {
		err := InvalidArgumentErrorf("chunk size must be positive, got %d", 0)
		assert.EqualError(t, err, "[INVALID_ARGUMENT] chunk size must be positive, got 0")
	})

	t.Run("should capture the caller stack", func(t *testing.T) {
		err := InternalErrorf("test")
		frames := err.StackTrace().Frames()
		require.NotEmpty(t, frames)
		assert.Contains(t, frames[0].Function, "TestError")
	})

	t.Run("should append details to existing error", func(t *testing.T) {
		cerr := FailedPreconditionErrorf("test")
		cerr = cerr.WithDetails(NotFoundErrorf("testnotfound"))
		require.Len(t, cerr.Details, 1)
		assert.Equal(t, ErrorTypeNotFound, cerr.Details[0].Type)
		assert.Equal(t, "testnotfound", cerr.Details[0].Message)

		// Append more details
		cerr = cerr.WithDetails(InvalidArgumentErrorf("testinvalid"))
		require.Len(t, cerr.Details, 2)
		assert.Equal(t, ErrorTypeInvalidArgument, cerr.Details[1].Type)
		assert.EqualError(t, cerr, "[FAILED_PRECONDITION] test: [NOT_FOUND] testnotfound; [INVALID_ARGUMENT] testinvalid")
	})

	t.Run("should unwrap the original error", func(t *testing.T) {
		err := DeadlineExceededErrorf("chunk timed out").WithOriginalError(context.DeadlineExceeded)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, IsDeadlineExceededError(err))
	})
}

func TestNewCliniaErrorFromMessage(t *testing.T) {
	t.Run("should parse a formatted error", func(t *testing.T) {
		err, pErr := NewCliniaErrorFromMessage("[NOT_FOUND] collection 'users' does not exist")
		require.NoError(t, pErr)
		assert.Equal(t, ErrorTypeNotFound, err.Type)
		assert.Equal(t, "collection 'users' does not exist", err.Message)
	})

	t.Run("should reject unknown types", func(t *testing.T) {
		_, err := NewCliniaErrorFromMessage("[NOPE] message")
		assert.True(t, IsInvalidArgumentError(err))
	})

	t.Run("should reject unformatted messages", func(t *testing.T) {
		_, err := NewCliniaErrorFromMessage("message")
		assert.Error(t, err)
	})
}

func TestRetryableError(t *testing.T) {
	err := fmt.Errorf("request: %w", NewRetryableError(UnavailableErrorf("503")))

	re, ok := IsRetryableError(err)
	require.True(t, ok)
	assert.EqualError(t, re, "Retryable - [UNAVAILABLE] 503")
	assert.True(t, IsUnavailableError(err))

	_, ok = IsRetryableError(InternalErrorf("boom"))
	assert.False(t, ok)
}
