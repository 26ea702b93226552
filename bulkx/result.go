package bulkx

import "github.com/samber/lo"

type ItemStatus string

const (
	ItemStatusSucceeded    ItemStatus = "succeeded"
	ItemStatusFailed       ItemStatus = "failed"
	ItemStatusNotAttempted ItemStatus = "not_attempted"
)

// ItemOutcome is the fate of one operation. Result is set when it succeeded, Err when it failed.
type ItemOutcome struct {
	Index  int
	Status ItemStatus
	Result *ItemResult
	Err    error
}

// BulkResult holds one outcome per operation, in original index order.
type BulkResult struct {
	Ordered bool
	Items   []ItemOutcome
}

func (r *BulkResult) Len() int {
	return len(r.Items)
}

func (r *BulkResult) Succeeded() []ItemOutcome {
	return r.withStatus(ItemStatusSucceeded)
}

func (r *BulkResult) Failed() []ItemOutcome {
	return r.withStatus(ItemStatusFailed)
}

func (r *BulkResult) NotAttempted() []ItemOutcome {
	return r.withStatus(ItemStatusNotAttempted)
}

func (r *BulkResult) HasErrors() bool {
	return lo.SomeBy(r.Items, func(it ItemOutcome) bool {
		return it.Status != ItemStatusSucceeded
	})
}

// InsertedIDs returns the ids of the inserted documents, in original index order.
func (r *BulkResult) InsertedIDs() []any {
	return lo.FilterMap(r.Items, func(it ItemOutcome, _ int) (any, bool) {
		if it.Result == nil || it.Result.Kind != OperationKindInsert {
			return nil, false
		}
		return it.Result.InsertedID, true
	})
}

func (r *BulkResult) InsertedCount() int {
	return len(r.InsertedIDs())
}

func (r *BulkResult) MatchedCount() int64 {
	return r.sum(func(res *ItemResult) int64 { return res.MatchedCount })
}

func (r *BulkResult) ModifiedCount() int64 {
	return r.sum(func(res *ItemResult) int64 { return res.ModifiedCount })
}

func (r *BulkResult) DeletedCount() int64 {
	return r.sum(func(res *ItemResult) int64 { return res.DeletedCount })
}

func (r *BulkResult) UpsertedCount() int64 {
	return r.sum(func(res *ItemResult) int64 {
		if res.UpsertedID != nil {
			return 1
		}
		return 0
	})
}

// Errors returns the error of every failed operation.
func (r *BulkResult) Errors() []ItemError {
	return lo.FilterMap(r.Items, func(it ItemOutcome, _ int) (ItemError, bool) {
		return ItemError{Index: it.Index, Err: it.Err}, it.Status == ItemStatusFailed
	})
}

func (r *BulkResult) withStatus(s ItemStatus) []ItemOutcome {
	return lo.Filter(r.Items, func(it ItemOutcome, _ int) bool {
		return it.Status == s
	})
}

func (r *BulkResult) sum(fn func(*ItemResult) int64) int64 {
	return lo.SumBy(r.Items, func(it ItemOutcome) int64 {
		if it.Result == nil {
			return 0
		}
		return fn(it.Result)
	})
}
