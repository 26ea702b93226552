package slicex

import (
	"iter"

	"github.com/clinia/dataapi/mathx"
)

// Chunk returns a sequence over consecutive sub-slices of v holding at most size elements.
// The last sub-slice holds the remainder. Each yielded slice is a copy so callers may keep it
// after the iteration moves on. The sequence can be ranged more than once.
//
// Chunk panics if size is not positive.
func Chunk[S ~[]E, E any](v S, size int) iter.Seq2[int, S] {
	if size <= 0 {
		panic("slicex: chunk size must be positive")
	}

	return func(yield func(int, S) bool) {
		for offset := 0; offset < len(v); offset += size {
			end := min(offset+size, len(v))
			c := make(S, end-offset)
			copy(c, v[offset:end])
			if !yield(offset, c) {
				return
			}
		}
	}
}

// ChunkCount returns how many chunks Chunk yields for a slice of length n.
func ChunkCount(n, size int) int {
	if size <= 0 {
		return 0
	}
	return mathx.CeilDiv(n, size)
}
