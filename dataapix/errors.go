package dataapix

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/clinia/dataapi/errorx"
)

// APIError is an entry of the "errors" array of a command response.
type APIError struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
	Family    string `json:"family,omitempty"`
	Scope     string `json:"scope,omitempty"`
	Title     string `json:"title,omitempty"`
	ID        string `json:"id,omitempty"`

	// DocumentIDs lists the documents an insertMany error applies to, when the server reports them.
	DocumentIDs []any `json:"documentIds,omitempty"`
}

func (e *APIError) Error() string {
	if e.ErrorCode == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

var errorCodeTypes = map[string]errorx.ErrorType{
	"DOCUMENT_ALREADY_EXISTS":       errorx.ErrorTypeAlreadyExists,
	"COLLECTION_NOT_EXIST":          errorx.ErrorTypeNotFound,
	"KEYSPACE_DOES_NOT_EXIST":       errorx.ErrorTypeNotFound,
	"UNAUTHENTICATED_REQUEST":       errorx.ErrorTypeUnauthenticated,
	"UNAUTHORIZED_REQUEST":          errorx.ErrorTypePermissionDenied,
	"DOCUMENT_REPLACE_DIFFERENT_ID": errorx.ErrorTypeFailedPrecondition,
	"SHRED_DOC_LIMIT_VIOLATION":     errorx.ErrorTypeContentTooLarge,
	"COMMAND_FIELD_INVALID":         errorx.ErrorTypeInvalidArgument,
	"SERVER_READ_TIMEOUT":           errorx.ErrorTypeDeadlineExceeded,
	"SERVER_WRITE_TIMEOUT":          errorx.ErrorTypeDeadlineExceeded,
	"SERVER_UNAVAILABLE":            errorx.ErrorTypeUnavailable,
	"UNSUPPORTED_COMMAND":           errorx.ErrorTypeUnimplemented,
}

// ErrorType maps the error code to the closest error type. Unknown codes fall back on the
// error family: REQUEST errors are the caller's fault, anything else is internal.
func (e *APIError) ErrorType() errorx.ErrorType {
	if t, ok := errorCodeTypes[e.ErrorCode]; ok {
		return t
	}
	if strings.EqualFold(e.Family, "REQUEST") {
		return errorx.ErrorTypeInvalidArgument
	}
	return errorx.ErrorTypeInternal
}

// CliniaError wraps the API error so that errorx predicates and errors.As both work on it.
func (e *APIError) CliniaError() *errorx.CliniaError {
	return (&errorx.CliniaError{Type: e.ErrorType(), Message: e.Error()}).WithOriginalError(e)
}

func parseAPIErrors(errs gjson.Result) []*APIError {
	out := []*APIError{}
	errs.ForEach(func(_, v gjson.Result) bool {
		ids := lo.Map(v.Get("documentIds").Array(), func(id gjson.Result, _ int) any {
			return id.Value()
		})
		out = append(out, &APIError{
			ErrorCode:   v.Get("errorCode").String(),
			Message:     v.Get("message").String(),
			Family:      v.Get("family").String(),
			Scope:       v.Get("scope").String(),
			Title:       v.Get("title").String(),
			ID:          v.Get("id").String(),
			DocumentIDs: ids,
		})
		return true
	})
	return out
}

// commandError turns the errors of a response into one error. Extra errors become details.
func commandError(errs []*APIError) error {
	if len(errs) == 0 {
		return nil
	}
	err := errs[0].CliniaError()
	for _, e := range errs[1:] {
		err = err.WithDetails(e.CliniaError())
	}
	return err
}

// statusError maps a non successful HTTP status to an error, using the API errors of the body when present.
func statusError(status int, errs []*APIError) error {
	var t errorx.ErrorType
	switch {
	case status == http.StatusUnauthorized:
		t = errorx.ErrorTypeUnauthenticated
	case status == http.StatusForbidden:
		t = errorx.ErrorTypePermissionDenied
	case status == http.StatusNotFound:
		t = errorx.ErrorTypeNotFound
	case status == http.StatusRequestEntityTooLarge:
		t = errorx.ErrorTypeContentTooLarge
	case status == http.StatusTooManyRequests,
		status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout:
		t = errorx.ErrorTypeUnavailable
	case status >= 400 && status < 500:
		t = errorx.ErrorTypeInvalidArgument
	default:
		t = errorx.ErrorTypeInternal
	}

	err := &errorx.CliniaError{Type: t, Message: fmt.Sprintf("data api responded with status %d", status)}
	if len(errs) > 0 {
		details := make([]*errorx.CliniaError, len(errs))
		for i, e := range errs {
			details[i] = e.CliniaError()
		}
		err = err.WithDetails(details...).WithOriginalError(errs[0])
	}
	return err
}
