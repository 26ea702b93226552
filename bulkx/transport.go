package bulkx

import "context"

// ChunkRequest asks a transport to write one chunk.
type ChunkRequest struct {
	Chunk   Chunk
	Ordered bool
}

// ItemResponse acknowledges one attempted operation. Index is the original operation index.
// Exactly one of Result and Err is set.
type ItemResponse struct {
	Index  int
	Result *ItemResult
	Err    error
}

// ChunkResponse lists the attempted operations in attempt order. It must be a prefix of the
// chunk: Items[i] answers Chunk.Operations[i].
type ChunkResponse struct {
	Items []ItemResponse
}

// Transport sends a chunk to the server. Implementations must be safe for concurrent use and
// should return when ctx is done.
//
// A non-nil error means the chunk failed as a whole. The response may still list the
// operations acknowledged before the failure.
type Transport interface {
	Write(ctx context.Context, req *ChunkRequest) (*ChunkResponse, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *ChunkRequest) (*ChunkResponse, error)

func (f TransportFunc) Write(ctx context.Context, req *ChunkRequest) (*ChunkResponse, error) {
	return f(ctx, req)
}
