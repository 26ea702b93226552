package elasticx

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/typedapi/core/bulk"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types/enums/operationtype"
	"github.com/elastic/go-elasticsearch/v9/typedapi/types/enums/refresh"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/dataapi/bulkx"
	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/loggerx"
)

const (
	resultCreated  = "created"
	resultUpdated  = "updated"
	resultDeleted  = "deleted"
	resultNotFound = "not_found"
	resultNoop     = "noop"
)

// BulkTransport writes chunks to one Elasticsearch index with the _bulk API. Inserts become
// create actions, updates and deletes address a single document by _id.
//
// Elasticsearch applies every action of a request even after a failure, so ordered chunks are
// sent one action per request and stop at the first failure.
type BulkTransport struct {
	es      *elasticsearch.TypedClient
	index   IndexName
	refresh *refresh.Refresh
	logger  *loggerx.Logger
}

var _ bulkx.Transport = (*BulkTransport)(nil)

type BulkTransportOption func(*BulkTransport)

// WithRefresh sets the refresh policy of every bulk request.
func WithRefresh(r refresh.Refresh) BulkTransportOption {
	return func(t *BulkTransport) {
		t.refresh = &r
	}
}

func WithLogger(l *loggerx.Logger) BulkTransportOption {
	return func(t *BulkTransport) {
		t.logger = l
	}
}

// NewClient creates a typed client based on the given config.
func NewClient(config elasticsearch.Config) (*elasticsearch.TypedClient, error) {
	es, err := elasticsearch.NewTypedClient(config)
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("invalid elasticsearch config: %v", err).WithOriginalError(err)
	}
	return es, nil
}

func NewBulkTransport(es *elasticsearch.TypedClient, index IndexName, opts ...BulkTransportOption) (*BulkTransport, error) {
	if es == nil {
		return nil, errorx.InvalidArgumentErrorf("elasticsearch client can not be nil")
	}
	if index == "" {
		return nil, errorx.InvalidArgumentErrorf("index name can not be empty")
	}

	t := &BulkTransport{
		es:     es,
		index:  index,
		logger: loggerx.NewNoop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *BulkTransport) Index() IndexName {
	return t.index
}

func (t *BulkTransport) Write(ctx context.Context, req *bulkx.ChunkRequest) (*bulkx.ChunkResponse, error) {
	if req.Ordered {
		return t.writeOrdered(ctx, req.Chunk)
	}
	return t.writeUnordered(ctx, req.Chunk)
}

func (t *BulkTransport) writeOrdered(ctx context.Context, chunk bulkx.Chunk) (*bulkx.ChunkResponse, error) {
	items := make([]bulkx.ItemResponse, 0, chunk.Len())
	for i, op := range chunk.Operations {
		idx := chunk.Offset + i
		bop, err := newBulkOperation(idx, op)
		if err != nil {
			items = append(items, bulkx.ItemResponse{Index: idx, Err: err})
			return &bulkx.ChunkResponse{Items: items}, nil
		}

		res, err := t.send(ctx, []*bulkOperation{bop})
		if err != nil {
			return &bulkx.ChunkResponse{Items: items}, err
		}
		items = append(items, res...)
		if res[0].Err != nil {
			return &bulkx.ChunkResponse{Items: items}, nil
		}
	}
	return &bulkx.ChunkResponse{Items: items}, nil
}

func (t *BulkTransport) writeUnordered(ctx context.Context, chunk bulkx.Chunk) (*bulkx.ChunkResponse, error) {
	items := make([]bulkx.ItemResponse, chunk.Len())
	ops := make([]*bulkOperation, 0, chunk.Len())
	for i, op := range chunk.Operations {
		idx := chunk.Offset + i
		bop, err := newBulkOperation(idx, op)
		if err != nil {
			items[i] = bulkx.ItemResponse{Index: idx, Err: err}
			continue
		}
		ops = append(ops, bop)
	}

	if len(ops) > 0 {
		res, err := t.send(ctx, ops)
		if err != nil {
			return &bulkx.ChunkResponse{Items: leadingFailures(items)}, err
		}
		for _, r := range res {
			items[r.Index-chunk.Offset] = r
		}
	}
	return &bulkx.ChunkResponse{Items: items}, nil
}

// leadingFailures returns the operations that failed to encode before the first one that was sent.
// Responses must be a prefix of the chunk, later encoding failures fail with the request.
func leadingFailures(items []bulkx.ItemResponse) []bulkx.ItemResponse {
	for i, it := range items {
		if it.Err == nil {
			return items[:i]
		}
	}
	return items
}

// send runs one bulk request and returns an item response per operation.
func (t *BulkTransport) send(ctx context.Context, ops []*bulkOperation) ([]bulkx.ItemResponse, error) {
	req := t.es.Bulk().Index(t.index.String())
	if t.refresh != nil {
		req.Refresh(*t.refresh)
	}

	for _, op := range ops {
		if err := t.add(req, op); err != nil {
			return nil, errorx.InternalErrorf("failed to add operation %d to the bulk request: %v", op.index, err).WithOriginalError(err)
		}
	}

	res, err := req.Do(ctx)
	if err != nil {
		return nil, requestError(err)
	}
	if len(res.Items) != len(ops) {
		return nil, errorx.InternalErrorf("bulk response has %d items for %d operations", len(res.Items), len(ops))
	}

	t.logger.Debug(ctx, "bulk request completed",
		attribute.String("index", t.index.String()),
		attribute.Int("operations", len(ops)),
		attribute.Int64("took_ms", res.Took),
		attribute.Bool("errors", res.Errors),
	)

	out := make([]bulkx.ItemResponse, len(ops))
	for i, op := range ops {
		out[i] = itemResponse(op, responseItem(res.Items[i]))
	}
	return out, nil
}

func (t *BulkTransport) add(req *bulk.Bulk, op *bulkOperation) error {
	id := op.id
	switch op.kind {
	case bulkx.OperationKindInsert:
		return req.CreateOp(types.CreateOperation{Id_: &id}, op.source)
	case bulkx.OperationKindUpdate:
		action := &types.UpdateAction{Doc: op.source}
		if op.upsert {
			upsert := true
			action.DocAsUpsert = &upsert
		}
		return req.UpdateOp(types.UpdateOperation{Id_: &id}, nil, action)
	case bulkx.OperationKindDelete:
		return req.DeleteOp(types.DeleteOperation{Id_: &id})
	default:
		return fmt.Errorf("unsupported operation kind %q", op.kind)
	}
}

// responseItem returns the only entry of a bulk response item, keyed by its action.
func responseItem(m map[operationtype.OperationType]types.ResponseItem) *types.ResponseItem {
	for _, it := range m {
		return &it
	}
	return nil
}

func itemResponse(op *bulkOperation, it *types.ResponseItem) bulkx.ItemResponse {
	if it == nil {
		return bulkx.ItemResponse{Index: op.index, Err: errorx.InternalErrorf("empty bulk response item for operation %d", op.index)}
	}

	result := ""
	if it.Result != nil {
		result = *it.Result
	}

	// A delete of a missing document is not a failure, it deleted nothing
	if it.Error != nil || (it.Status >= 300 && result != resultNotFound) {
		return bulkx.ItemResponse{Index: op.index, Err: causeError(it.Status, it.Error)}
	}

	res := &bulkx.ItemResult{Index: op.index, Kind: op.kind}
	switch op.kind {
	case bulkx.OperationKindInsert:
		res.InsertedID = op.id
	case bulkx.OperationKindUpdate:
		switch result {
		case resultCreated:
			res.UpsertedID = op.id
		case resultUpdated:
			res.MatchedCount, res.ModifiedCount = 1, 1
		case resultNoop:
			res.MatchedCount = 1
		}
	case bulkx.OperationKindDelete:
		if result == resultDeleted {
			res.DeletedCount = 1
		}
	}
	return bulkx.ItemResponse{Index: op.index, Result: res}
}
