package bulkx

import (
	"context"
	"iter"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/clinia/dataapi/loggerx"
	"github.com/clinia/dataapi/syncx"
)

// schedule dispatches chunks with at most o.Concurrency of them in flight and returns once every
// dispatched chunk has recorded its outcome.
//
// A chunk records its outcome before releasing its slot, so with a concurrency of 1 a chunk never
// starts before the previous one is recorded. Once an ordered batch records a failure no other
// chunk is dispatched. Chunks left undispatched because ctx is done are recorded as transport
// failures carrying the context error.
func (e *Executor) schedule(ctx context.Context, l *loggerx.Logger, chunks iter.Seq[Chunk], st *batchState, o Options) {
	sem := semaphore.NewWeighted(int64(o.Concurrency))
	inflight := make([]syncx.Waitable, 0, len(st.ranges))

	st.setPhase(phaseDispatching)
	i := -1
	for chunk := range chunks {
		i++
		idx := i

		if err := ctx.Err(); err != nil {
			st.record(idx, transportFailure(chunk.Range(), err, nil))
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			st.record(idx, transportFailure(chunk.Range(), err, nil))
			continue
		}
		if !st.tryDispatch() {
			sem.Release(1)
			l.Debug(ctx, "ordered batch halted, skipping remaining chunks", attribute.Int("chunk.start", chunk.Offset))
			break
		}

		inflight = append(inflight, syncx.Go(func() (struct{}, error) {
			defer sem.Release(1)
			st.record(idx, e.executeChunk(ctx, chunk, o))
			return struct{}{}, nil
		}))
	}

	st.setPhase(phaseDraining)
	<-syncx.Join(inflight...)
	st.setPhase(phaseDone)
}
