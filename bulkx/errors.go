package bulkx

import (
	"fmt"
	"strings"
)

// ItemError is the failure of a single operation.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("operation %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// ChunkTransportError means the chunk failed as a whole: network failure, timeout, malformed
// response or a transport panic. Acknowledged operations, if any, are reported as partial results.
type ChunkTransportError struct {
	Range        IndexRange
	Err          error
	Acknowledged int
}

func (e *ChunkTransportError) Error() string {
	if e.Acknowledged > 0 {
		return fmt.Sprintf("chunk %s failed after %d acknowledged operations: %v", e.Range, e.Acknowledged, e.Err)
	}
	return fmt.Sprintf("chunk %s failed: %v", e.Range, e.Err)
}

func (e *ChunkTransportError) Unwrap() error {
	return e.Err
}

// PartialChunkFailure means the server processed the chunk but rejected some operations.
type PartialChunkFailure struct {
	Range     IndexRange
	Succeeded int
	Errors    []ItemError
}

func (e *PartialChunkFailure) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("chunk %s partially failed", e.Range)
	}
	return fmt.Sprintf("chunk %s: %d operations failed, first: %v", e.Range, len(e.Errors), &e.Errors[0])
}

func (e *PartialChunkFailure) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i := range e.Errors {
		out[i] = &e.Errors[i]
	}
	return out
}

// ChunkError pairs a failed chunk with its error.
type ChunkError struct {
	Range IndexRange
	Err   error
}

// AggregatedBatchError lists every failed chunk of an unordered batch, in chunk order.
type AggregatedBatchError struct {
	Errors []ChunkError
}

func (e *AggregatedBatchError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		parts[i] = fmt.Sprintf("%s: %v", ce.Range, ce.Err)
	}
	return fmt.Sprintf("%d chunks failed: %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *AggregatedBatchError) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, ce := range e.Errors {
		out[i] = ce.Err
	}
	return out
}
