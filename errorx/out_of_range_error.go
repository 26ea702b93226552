package errorx

import "fmt"

// OutOfRangeErrorf creates a CliniaError with type ErrorTypeOutOfRange and a formatted message
func OutOfRangeErrorf(format string, args ...any) *CliniaError {
	return newWithStack(
		ErrorTypeOutOfRange,
		fmt.Sprintf(format, args...),
	)
}

func IsOutOfRangeError(e error) bool {
	return isType(e, ErrorTypeOutOfRange)
}
