package elasticx

import (
	"errors"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9/typedapi/types"

	"github.com/clinia/dataapi/errorx"
)

const (
	IndexNotFoundException         = "index_not_found_exception"
	VersionConflictException       = "version_conflict_engine_exception"
	DocumentMissingException       = "document_missing_exception"
	ResourceAlreadyExistsException = "resource_already_exists_exception"
)

func isElasticError(err error) (*types.ElasticsearchError, bool) {
	var eserror *types.ElasticsearchError
	if !errors.As(err, &eserror) {
		return nil, false
	}

	return eserror, true
}

// statusErrorType maps the status of a failed request or bulk item to an error type.
func statusErrorType(status int, cause string) errorx.ErrorType {
	switch {
	case status == http.StatusConflict,
		status == http.StatusBadRequest && cause == ResourceAlreadyExistsException:
		return errorx.ErrorTypeAlreadyExists
	case status == http.StatusNotFound:
		return errorx.ErrorTypeNotFound
	case status == http.StatusUnauthorized:
		return errorx.ErrorTypeUnauthenticated
	case status == http.StatusForbidden:
		return errorx.ErrorTypePermissionDenied
	case status == http.StatusRequestEntityTooLarge:
		return errorx.ErrorTypeContentTooLarge
	case status == http.StatusTooManyRequests, status == http.StatusServiceUnavailable:
		return errorx.ErrorTypeUnavailable
	case status == http.StatusGatewayTimeout:
		return errorx.ErrorTypeDeadlineExceeded
	case status >= 400 && status < 500:
		return errorx.ErrorTypeInvalidArgument
	default:
		return errorx.ErrorTypeInternal
	}
}

func causeError(status int, cause *types.ErrorCause) *errorx.CliniaError {
	if cause == nil {
		return &errorx.CliniaError{
			Type:    statusErrorType(status, ""),
			Message: http.StatusText(status),
		}
	}

	msg := cause.Type
	if cause.Reason != nil {
		msg = cause.Type + ": " + *cause.Reason
	}
	return &errorx.CliniaError{
		Type:    statusErrorType(status, cause.Type),
		Message: msg,
	}
}

// requestError converts the error of a bulk request that got no per item answer.
func requestError(err error) error {
	if eserror, ok := isElasticError(err); ok {
		return causeError(eserror.Status, &eserror.ErrorCause).WithOriginalError(err)
	}
	return errorx.UnavailableErrorf("bulk request failed: %v", err).WithOriginalError(err)
}
