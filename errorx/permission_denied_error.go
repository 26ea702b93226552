package errorx

import "fmt"

// PermissionDeniedErrorf creates a CliniaError with type ErrorTypePermissionDenied and a formatted message
func PermissionDeniedErrorf(format string, args ...any) *CliniaError {
	return newWithStack(
		ErrorTypePermissionDenied,
		fmt.Sprintf(format, args...),
	)
}

func IsPermissionDeniedError(e error) bool {
	return isType(e, ErrorTypePermissionDenied)
}
