package errorx

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type CliniaError struct {
	Type    ErrorType     `json:"type"`
	Message string        `json:"message"`
	Details []CliniaError `json:"details,omitempty"`

	OriginalError error   `json:"-"` // Not returned to clients
	stack         Callers // Captured by the Xxxf constructors
}

var _ error = (*CliniaError)(nil)

var errorMessagePattern = regexp.MustCompile(`^\[(.*?)\] (.*)$`)

func newWithStack(t ErrorType, msg string) *CliniaError {
	return &CliniaError{
		Type:    t,
		Message: msg,
		stack:   callers(2),
	}
}

func (e *CliniaError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	}

	details := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		details = append(details, d.Error())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type.String(), e.Message, strings.Join(details, "; "))
}

// Unwrap exposes the original error to errors.Is and errors.As.
func (e *CliniaError) Unwrap() error {
	return e.OriginalError
}

// WithDetails returns a copy of the error with the given errors appended to its details.
func (e *CliniaError) WithDetails(details ...*CliniaError) *CliniaError {
	out := *e
	out.Details = make([]CliniaError, 0, len(e.Details)+len(details))
	out.Details = append(out.Details, e.Details...)
	for _, d := range details {
		if d == nil {
			continue
		}
		out.Details = append(out.Details, *d)
	}
	return &out
}

// WithOriginalError returns a copy of the error wrapping err.
func (e *CliniaError) WithOriginalError(err error) *CliniaError {
	out := *e
	out.OriginalError = err
	return &out
}

// StackTrace returns the call stack captured when the error was created.
func (e *CliniaError) StackTrace() Callers {
	return e.stack
}

func NewCliniaErrorFromMessage(msg string) (*CliniaError, error) {
	m := errorMessagePattern.FindStringSubmatch(msg)
	if len(m) < 3 {
		return nil, fmt.Errorf("%q is not a valid error type", msg)
	}

	eT, err := ParseErrorType(m[1])
	if err != nil {
		return nil, err
	}

	return &CliniaError{
		Type:    eT,
		Message: m[2],
	}, nil
}

// IsCliniaError unwraps e until it finds a CliniaError.
func IsCliniaError(e error) (*CliniaError, bool) {
	if e == nil {
		return nil, false
	}

	var cErr *CliniaError
	if !errors.As(e, &cErr) || cErr == nil || cErr.Type == ErrorTypeUnspecified {
		return nil, false
	}

	return cErr, true
}

func isType(e error, t ErrorType) bool {
	cErr, ok := IsCliniaError(e)
	if !ok {
		return false
	}

	return cErr.Type == t
}

func NewEnumOutOfRangeError(actual string, expectedOneOf []string, enumName string) *CliniaError {
	return newWithStack(
		ErrorTypeOutOfRange,
		fmt.Sprintf("%q is not a valid %s. Possible values: [%s]", actual, enumName, strings.Join(expectedOneOf, ", ")),
	)
}
