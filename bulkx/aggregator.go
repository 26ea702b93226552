package bulkx

import "github.com/clinia/dataapi/errorx"

// aggregate folds the recorded outcomes into a result. It must only run once the batch is done.
func aggregate(st *batchState) (*BulkResult, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	items := make([]ItemOutcome, st.total)
	for i := range items {
		items[i] = ItemOutcome{Index: i, Status: ItemStatusNotAttempted}
	}
	res := &BulkResult{Ordered: st.ordered, Items: items}

	if st.ordered {
		return res, aggregateOrdered(res, st.ranges, st.outcomes)
	}
	return res, aggregateUnordered(res, st.ranges, st.outcomes)
}

func aggregateOrdered(res *BulkResult, ranges []IndexRange, outcomes []ChunkOutcome) error {
	for i, o := range outcomes {
		switch o := o.(type) {
		case *ChunkSuccess:
			markSucceeded(res, o.Results)
		case *ChunkFailure:
			markSucceeded(res, o.Partial)
			markFailed(res, o.ItemErrors)
			// Chunks after the first failure stay not attempted, even if they ran
			if o.chunkScoped() {
				markUnacknowledged(res, o.Chunk, o.Err)
			}
			return o.Err
		case nil:
			// Undispatched chunks can only follow a failure
			return errorx.InternalErrorf("chunk %s has no outcome", ranges[i])
		}
	}
	return nil
}

func aggregateUnordered(res *BulkResult, ranges []IndexRange, outcomes []ChunkOutcome) error {
	var errs []ChunkError
	for i, o := range outcomes {
		switch o := o.(type) {
		case *ChunkSuccess:
			markSucceeded(res, o.Results)
		case *ChunkFailure:
			markSucceeded(res, o.Partial)
			markFailed(res, o.ItemErrors)
			markUnacknowledged(res, o.Chunk, o.Err)
			errs = append(errs, ChunkError{Range: o.Chunk, Err: o.Err})
		case nil:
			err := errorx.InternalErrorf("chunk %s has no outcome", ranges[i])
			markUnacknowledged(res, ranges[i], err)
			errs = append(errs, ChunkError{Range: ranges[i], Err: err})
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &AggregatedBatchError{Errors: errs}
}

func markSucceeded(res *BulkResult, results []ItemResult) {
	for _, r := range results {
		res.Items[r.Index] = ItemOutcome{Index: r.Index, Status: ItemStatusSucceeded, Result: &r}
	}
}

func markFailed(res *BulkResult, errs []ItemError) {
	for _, e := range errs {
		res.Items[e.Index] = ItemOutcome{Index: e.Index, Status: ItemStatusFailed, Err: e.Err}
	}
}

// markUnacknowledged fails every operation of r that holds neither a result nor an error.
func markUnacknowledged(res *BulkResult, r IndexRange, err error) {
	for i := r.Start; i < r.End; i++ {
		if res.Items[i].Status == ItemStatusNotAttempted {
			res.Items[i] = ItemOutcome{Index: i, Status: ItemStatusFailed, Err: err}
		}
	}
}
