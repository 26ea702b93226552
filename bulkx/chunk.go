package bulkx

import (
	"fmt"
	"iter"

	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/slicex"
)

// DefaultChunkSize is the largest number of documents the server accepts in a single insertMany.
const DefaultChunkSize = 100

// IndexRange is the half-open range [Start, End) of original operation indexes.
type IndexRange struct {
	Start int
	End   int
}

func (r IndexRange) Len() int {
	return r.End - r.Start
}

func (r IndexRange) Contains(i int) bool {
	return i >= r.Start && i < r.End
}

func (r IndexRange) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Chunk is a contiguous run of operations. Offset is the original index of Operations[0].
type Chunk struct {
	Offset     int
	Operations []WriteOperation
}

func (c Chunk) Range() IndexRange {
	return IndexRange{Start: c.Offset, End: c.Offset + len(c.Operations)}
}

func (c Chunk) Len() int {
	return len(c.Operations)
}

// Chunks splits ops into chunks of chunkSize operations, the last one holding the remainder.
// The returned sequence has no side effects and can be ranged over more than once.
func Chunks(ops []WriteOperation, chunkSize int) (iter.Seq[Chunk], error) {
	if chunkSize <= 0 {
		return nil, errorx.InvalidArgumentErrorf("chunk size must be positive, got %d", chunkSize)
	}

	return func(yield func(Chunk) bool) {
		for offset, c := range slicex.Chunk(ops, chunkSize) {
			if !yield(Chunk{Offset: offset, Operations: c}) {
				return
			}
		}
	}, nil
}

// chunkRanges returns the range of every chunk Chunks yields for n operations.
func chunkRanges(n, chunkSize int) []IndexRange {
	out := make([]IndexRange, 0, slicex.ChunkCount(n, chunkSize))
	for start := 0; start < n; start += chunkSize {
		out = append(out, IndexRange{Start: start, End: min(start+chunkSize, n)})
	}
	return out
}
