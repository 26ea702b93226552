package dataapix

import (
	"context"
	"encoding/json"

	"github.com/clinia/dataapi/bulkx"
	"github.com/clinia/dataapi/errorx"
)

// Collection runs commands against one collection. It is safe for concurrent use.
type Collection struct {
	client *Client
	name   string
}

func (c *Collection) Name() string {
	return c.name
}

type InsertOneResult struct {
	InsertedID any
}

type InsertManyResult struct {
	// InsertedIDs holds the ids of the inserted documents, in input order.
	InsertedIDs []any
	// Result holds the outcome of every document.
	Result *bulkx.BulkResult
}

type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedID    any
}

type DeleteResult struct {
	DeletedCount int64
}

type (
	updateOptions struct {
		upsert bool
	}
	UpdateOption func(*updateOptions)
)

// WithUpsert inserts a document built from the filter and the update when nothing matches.
func WithUpsert() UpdateOption {
	return func(o *updateOptions) {
		o.upsert = true
	}
}

type (
	findOptions struct {
		projection any
	}
	FindOption func(*findOptions)
)

func WithProjection(projection any) FindOption {
	return func(o *findOptions) {
		o.projection = projection
	}
}

func (c *Collection) InsertOne(ctx context.Context, doc any) (*InsertOneResult, error) {
	enc, err := encodeDocument(doc, c.client.newID)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.command(ctx, c.name, "insertOne", map[string]any{"document": enc.raw})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	id := enc.id
	if v := resp.Status.Get("insertedIds.0"); v.Exists() {
		id = v.Value()
	}
	return &InsertOneResult{InsertedID: id}, nil
}

// InsertMany inserts docs in chunks of at most MaxChunkSize documents. The options default to the
// bulk config of the client.
//
// A result is returned whenever the documents were valid, even alongside an error, so that
// callers can tell inserted documents from failed and skipped ones.
func (c *Collection) InsertMany(ctx context.Context, docs []any, opts ...bulkx.Option) (*InsertManyResult, error) {
	opts = append(opts[:len(opts):len(opts)], func(o *bulkx.Options) {
		o.ChunkSize = min(o.ChunkSize, MaxChunkSize)
	})

	res, err := c.BulkWrite(ctx, bulkx.Inserts(docs...), opts...)
	if res == nil {
		return nil, err
	}
	return &InsertManyResult{InsertedIDs: res.InsertedIDs(), Result: res}, err
}

// BulkWrite executes a mix of inserts, updates and deletes. Consecutive inserts of a chunk are
// sent as one insertMany, every other operation as its own command.
func (c *Collection) BulkWrite(ctx context.Context, ops []bulkx.WriteOperation, opts ...bulkx.Option) (*bulkx.BulkResult, error) {
	e, err := c.client.newExecutor(newCommandTransport(c))
	if err != nil {
		return nil, err
	}
	return e.Execute(ctx, ops, opts...)
}

func (c *Collection) UpdateOne(ctx context.Context, filter, update any, opts ...UpdateOption) (*UpdateResult, error) {
	return c.updateResult(c.update(ctx, newUpdateOperation(filter, update, false, opts...)))
}

// UpdateMany updates every matching document, following the server pagination until it reports no more data.
func (c *Collection) UpdateMany(ctx context.Context, filter, update any, opts ...UpdateOption) (*UpdateResult, error) {
	return c.updateResult(c.update(ctx, newUpdateOperation(filter, update, true, opts...)))
}

func (c *Collection) DeleteOne(ctx context.Context, filter any) (*DeleteResult, error) {
	return c.deleteResult(c.delete(ctx, bulkx.DeleteOperation{Filter: filter}))
}

// DeleteMany deletes every matching document, sending the command again while the server reports more data.
func (c *Collection) DeleteMany(ctx context.Context, filter any) (*DeleteResult, error) {
	return c.deleteResult(c.delete(ctx, bulkx.DeleteOperation{Filter: filter, Many: true}))
}

// FindOne decodes the first document matching filter into v. It returns a NOT_FOUND error when
// nothing matches.
func (c *Collection) FindOne(ctx context.Context, filter any, v any, opts ...FindOption) error {
	o := &findOptions{}
	for _, opt := range opts {
		opt(o)
	}

	payload := map[string]any{"filter": filterOrEmpty(filter)}
	if o.projection != nil {
		payload["projection"] = o.projection
	}

	resp, err := c.client.command(ctx, c.name, "findOne", payload)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	doc := resp.Data.Get("document")
	if !doc.Exists() || !doc.IsObject() {
		return errorx.NotFoundErrorf("no document of %s matches the filter", c.name)
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(doc.Raw), v); err != nil {
		return errorx.InternalErrorf("failed to decode document: %v", err).WithOriginalError(err)
	}
	return nil
}

func newUpdateOperation(filter, update any, many bool, opts ...UpdateOption) bulkx.UpdateOperation {
	o := &updateOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return bulkx.UpdateOperation{Filter: filter, Update: update, Upsert: o.upsert, Many: many}
}

func filterOrEmpty(filter any) any {
	if filter == nil {
		return map[string]any{}
	}
	return filter
}

// update runs an update command. opErr is the error the server reported for the operation, err a
// failure to get an answer.
func (c *Collection) update(ctx context.Context, op bulkx.UpdateOperation) (res *UpdateResult, opErr error, err error) {
	if op.Update == nil {
		return nil, errorx.InvalidArgumentErrorf("update can not be nil"), nil
	}

	name := "updateOne"
	if op.Many {
		name = "updateMany"
	}

	res = &UpdateResult{}
	pageState := ""
	for {
		options := map[string]any{}
		if op.Upsert {
			options["upsert"] = true
		}
		if pageState != "" {
			options["pageState"] = pageState
		}
		payload := map[string]any{"filter": filterOrEmpty(op.Filter), "update": op.Update}
		if len(options) > 0 {
			payload["options"] = options
		}

		resp, err := c.client.command(ctx, c.name, name, payload)
		if err != nil {
			return nil, nil, err
		}
		if err := resp.Err(); err != nil {
			return nil, err, nil
		}

		res.MatchedCount += resp.Status.Get("matchedCount").Int()
		res.ModifiedCount += resp.Status.Get("modifiedCount").Int()
		if id := resp.Status.Get("upsertedId"); id.Exists() {
			res.UpsertedID = id.Value()
		}

		next := resp.Status.Get("nextPageState").String()
		if !op.Many || !resp.Status.Get("moreData").Bool() || next == "" || next == pageState {
			return res, nil, nil
		}
		pageState = next
	}
}

func (c *Collection) delete(ctx context.Context, op bulkx.DeleteOperation) (res *DeleteResult, opErr error, err error) {
	name := "deleteOne"
	if op.Many {
		name = "deleteMany"
	}

	res = &DeleteResult{}
	for {
		resp, err := c.client.command(ctx, c.name, name, map[string]any{"filter": filterOrEmpty(op.Filter)})
		if err != nil {
			return nil, nil, err
		}
		if err := resp.Err(); err != nil {
			return nil, err, nil
		}

		deleted := resp.Status.Get("deletedCount").Int()
		res.DeletedCount += deleted
		// A page deleting nothing would loop forever
		if !op.Many || !resp.Status.Get("moreData").Bool() || deleted == 0 {
			return res, nil, nil
		}
	}
}

func (c *Collection) updateResult(res *UpdateResult, opErr, err error) (*UpdateResult, error) {
	if err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}
	return res, nil
}

func (c *Collection) deleteResult(res *DeleteResult, opErr, err error) (*DeleteResult, error) {
	if err != nil {
		return nil, err
	}
	if opErr != nil {
		return nil, opErr
	}
	return res, nil
}
