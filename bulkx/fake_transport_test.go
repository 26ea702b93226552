package bulkx

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samber/lo"
)

type chunkFailure struct {
	err error
	// acknowledged operations reported before the failure
	ack int
}

// fakeTransport acknowledges every operation unless told otherwise.
type fakeTransport struct {
	mu          sync.Mutex
	chunkErrs   map[int]chunkFailure
	itemErrs    map[int]error
	panics      map[int]any
	delay       time.Duration
	block       chan struct{}
	respond     func(req *ChunkRequest) (*ChunkResponse, error)
	offsetsSeen []int

	calls       atomic.Int32
	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		chunkErrs: map[int]chunkFailure{},
		itemErrs:  map[int]error{},
		panics:    map[int]any{},
	}
}

// WithChunkError fails the chunk starting at offset after acknowledging ack operations.
func (f *fakeTransport) WithChunkError(offset int, err error, ack int) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chunkErrs[offset] = chunkFailure{err: err, ack: ack}
	return f
}

// WithItemError rejects the operation at the original index.
func (f *fakeTransport) WithItemError(index int, err error) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.itemErrs[index] = err
	return f
}

func (f *fakeTransport) WithPanic(offset int, v any) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panics[offset] = v
	return f
}

// WithDelay waits before answering, honoring the context.
func (f *fakeTransport) WithDelay(d time.Duration) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

// WithBlock waits for block to be closed, ignoring the context.
func (f *fakeTransport) WithBlock(block chan struct{}) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.block = block
	return f
}

// WithResponder replaces the response entirely.
func (f *fakeTransport) WithResponder(fn func(req *ChunkRequest) (*ChunkResponse, error)) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.respond = fn
	return f
}

func (f *fakeTransport) OffsetsSeen() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.offsetsSeen...)
}

func (f *fakeTransport) Write(ctx context.Context, req *ChunkRequest) (*ChunkResponse, error) {
	f.calls.Add(1)
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		m := f.maxInflight.Load()
		if n <= m || f.maxInflight.CompareAndSwap(m, n) {
			break
		}
	}

	offset := req.Chunk.Offset
	f.mu.Lock()
	f.offsetsSeen = append(f.offsetsSeen, offset)
	cf, failChunk := f.chunkErrs[offset]
	p, shouldPanic := f.panics[offset]
	delay, block, respond := f.delay, f.block, f.respond
	f.mu.Unlock()

	if shouldPanic {
		panic(p)
	}

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if block != nil {
		<-block
	}

	if respond != nil {
		return respond(req)
	}

	items := make([]ItemResponse, 0, req.Chunk.Len())
	for i, op := range req.Chunk.Operations {
		idx := offset + i
		if failChunk && i >= cf.ack {
			return &ChunkResponse{Items: items}, cf.err
		}

		f.mu.Lock()
		itemErr := f.itemErrs[idx]
		f.mu.Unlock()
		if itemErr != nil {
			items = append(items, ItemResponse{Index: idx, Err: itemErr})
			if req.Ordered {
				break
			}
			continue
		}

		items = append(items, ItemResponse{Index: idx, Result: resultFor(idx, op)})
	}

	if failChunk {
		return &ChunkResponse{Items: items}, cf.err
	}
	return &ChunkResponse{Items: items}, nil
}

func resultFor(idx int, op WriteOperation) *ItemResult {
	r := &ItemResult{Index: idx, Kind: op.Kind()}
	switch op.(type) {
	case InsertOperation:
		r.InsertedID = fmt.Sprintf("id-%d", idx)
	case UpdateOperation:
		r.MatchedCount, r.ModifiedCount = 1, 1
	case DeleteOperation:
		r.DeletedCount = 1
	}
	return r
}

func docs(n int) []WriteOperation {
	ops := make([]WriteOperation, n)
	for i := range ops {
		ops[i] = InsertOperation{Document: map[string]any{"n": i}}
	}
	return ops
}

func statuses(res *BulkResult) []ItemStatus {
	out := make([]ItemStatus, len(res.Items))
	for i, it := range res.Items {
		out[i] = it.Status
	}
	return out
}

func repeat(s ItemStatus, n int) []ItemStatus {
	return lo.RepeatBy(n, func(int) ItemStatus { return s })
}

func concat(parts ...[]ItemStatus) []ItemStatus {
	return lo.Flatten(parts)
}
