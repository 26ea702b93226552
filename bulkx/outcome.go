package bulkx

// ItemResult is what the server reported for a successful operation.
type ItemResult struct {
	Index         int
	Kind          OperationKind
	InsertedID    any
	MatchedCount  int64
	ModifiedCount int64
	DeletedCount  int64
	UpsertedID    any
}

// ChunkOutcome is either *ChunkSuccess or *ChunkFailure.
type ChunkOutcome interface {
	Range() IndexRange
	isChunkOutcome()
}

// ChunkSuccess means every operation of the chunk was acknowledged.
type ChunkSuccess struct {
	Chunk   IndexRange
	Results []ItemResult
}

// ChunkFailure means at least one operation of the chunk did not succeed. Partial holds the
// acknowledged results, in attempt order.
type ChunkFailure struct {
	Chunk      IndexRange
	Err        error
	Partial    []ItemResult
	ItemErrors []ItemError
}

var (
	_ ChunkOutcome = (*ChunkSuccess)(nil)
	_ ChunkOutcome = (*ChunkFailure)(nil)
)

func (s *ChunkSuccess) Range() IndexRange { return s.Chunk }
func (f *ChunkFailure) Range() IndexRange { return f.Chunk }

func (*ChunkSuccess) isChunkOutcome() {}
func (*ChunkFailure) isChunkOutcome() {}

// chunkScoped reports whether the failure hit the chunk as a whole, leaving the fate of
// unacknowledged operations unknown.
func (f *ChunkFailure) chunkScoped() bool {
	_, ok := f.Err.(*ChunkTransportError)
	return ok
}
