package dataapix

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"

	"github.com/clinia/dataapi/bulkx"
	"github.com/clinia/dataapi/errorx"
	"github.com/clinia/dataapi/slicex"
)

const (
	documentStatusOK      = "OK"
	documentStatusError   = "ERROR"
	documentStatusSkipped = "SKIPPED"
)

// commandTransport writes a chunk as commands on a collection. Runs of consecutive inserts become
// insertMany commands of at most MaxChunkSize documents; updates and deletes are sent one by one.
type commandTransport struct {
	coll              *Collection
	documentResponses bool
}

var _ bulkx.Transport = (*commandTransport)(nil)

func newCommandTransport(c *Collection) *commandTransport {
	return &commandTransport{coll: c, documentResponses: c.client.conf.DocumentResponses}
}

func (t *commandTransport) Write(ctx context.Context, req *bulkx.ChunkRequest) (*bulkx.ChunkResponse, error) {
	ops := req.Chunk.Operations
	items := make([]bulkx.ItemResponse, 0, len(ops))

	for i := 0; i < len(ops); {
		idx := req.Chunk.Offset + i

		switch op := ops[i].(type) {
		case bulkx.InsertOperation:
			end := i + 1
			for end < len(ops) && ops[end].Kind() == bulkx.OperationKindInsert {
				end++
			}
			run, stop, err := t.insertRun(ctx, req.Ordered, idx, ops[i:end])
			items = append(items, run...)
			if err != nil || stop {
				return &bulkx.ChunkResponse{Items: items}, err
			}
			i = end
			continue

		case bulkx.UpdateOperation:
			res, opErr, err := t.coll.update(ctx, op)
			if err != nil {
				return &bulkx.ChunkResponse{Items: items}, err
			}
			if opErr != nil {
				items = append(items, bulkx.ItemResponse{Index: idx, Err: opErr})
				if req.Ordered {
					return &bulkx.ChunkResponse{Items: items}, nil
				}
				break
			}
			items = append(items, bulkx.ItemResponse{Index: idx, Result: &bulkx.ItemResult{
				Index:         idx,
				Kind:          bulkx.OperationKindUpdate,
				MatchedCount:  res.MatchedCount,
				ModifiedCount: res.ModifiedCount,
				UpsertedID:    res.UpsertedID,
			}})

		case bulkx.DeleteOperation:
			res, opErr, err := t.coll.delete(ctx, op)
			if err != nil {
				return &bulkx.ChunkResponse{Items: items}, err
			}
			if opErr != nil {
				items = append(items, bulkx.ItemResponse{Index: idx, Err: opErr})
				if req.Ordered {
					return &bulkx.ChunkResponse{Items: items}, nil
				}
				break
			}
			items = append(items, bulkx.ItemResponse{Index: idx, Result: &bulkx.ItemResult{
				Index:        idx,
				Kind:         bulkx.OperationKindDelete,
				DeletedCount: res.DeletedCount,
			}})

		default:
			return &bulkx.ChunkResponse{Items: items}, errorx.InvalidArgumentErrorf("unsupported operation %T", op)
		}
		i++
	}

	return &bulkx.ChunkResponse{Items: items}, nil
}

// docOutcome is the fate of one document of an insertMany.
type docOutcome struct {
	acknowledged bool
	id           any
	err          error
}

// insertRun inserts consecutive insert operations starting at original index offset. stop reports
// that an ordered chunk must not go further.
func (t *commandTransport) insertRun(ctx context.Context, ordered bool, offset int, ops []bulkx.WriteOperation) (items []bulkx.ItemResponse, stop bool, err error) {
	encoded := make([]*encodedDocument, len(ops))
	encErrs := make([]error, len(ops))
	for i, op := range ops {
		encoded[i], encErrs[i] = encodeDocument(op.(bulkx.InsertOperation).Document, t.coll.client.newID)
	}

	if ordered {
		return t.insertOrdered(ctx, offset, encoded, encErrs)
	}
	return t.insertUnordered(ctx, offset, encoded, encErrs)
}

// insertOrdered sends the documents in order and stops at the first one that could not be encoded or inserted.
func (t *commandTransport) insertOrdered(ctx context.Context, offset int, encoded []*encodedDocument, encErrs []error) ([]bulkx.ItemResponse, bool, error) {
	items := make([]bulkx.ItemResponse, 0, len(encoded))
	for start := 0; start < len(encoded); {
		end := start
		for end < len(encoded) && end-start < MaxChunkSize && encErrs[end] == nil {
			end++
		}

		if end > start {
			outs, err := t.insertMany(ctx, true, encoded[start:end])
			if err != nil {
				return items, true, err
			}
			for j, o := range outs {
				if !o.acknowledged {
					return items, true, nil
				}
				items = append(items, outcomeItem(offset+start+j, o))
				if o.err != nil {
					return items, true, nil
				}
			}
		}

		if end < len(encoded) && encErrs[end] != nil {
			items = append(items, bulkx.ItemResponse{Index: offset + end, Err: encErrs[end]})
			return items, true, nil
		}
		start = end
	}
	return items, false, nil
}

// insertUnordered sends every valid document. Documents that could not be encoded fail on their own.
func (t *commandTransport) insertUnordered(ctx context.Context, offset int, encoded []*encodedDocument, encErrs []error) ([]bulkx.ItemResponse, bool, error) {
	outcomes := make([]docOutcome, len(encoded))
	valid := make([]int, 0, len(encoded))
	for i, err := range encErrs {
		if err != nil {
			outcomes[i] = docOutcome{acknowledged: true, err: err}
			continue
		}
		valid = append(valid, i)
	}

	var sendErr error
	for _, batch := range slicex.Chunk(valid, MaxChunkSize) {
		docs := lo.Map(batch, func(i int, _ int) *encodedDocument { return encoded[i] })
		outs, err := t.insertMany(ctx, false, docs)
		if err != nil {
			sendErr = err
			break
		}
		for j, i := range batch {
			outcomes[i] = outs[j]
		}
	}

	// Only the acknowledged prefix can be reported, later outcomes are lost with the chunk
	items := make([]bulkx.ItemResponse, 0, len(encoded))
	for i, o := range outcomes {
		if !o.acknowledged {
			break
		}
		items = append(items, outcomeItem(offset+i, o))
	}
	return items, sendErr != nil, sendErr
}

func outcomeItem(idx int, o docOutcome) bulkx.ItemResponse {
	if o.err != nil {
		return bulkx.ItemResponse{Index: idx, Err: o.err}
	}
	return bulkx.ItemResponse{Index: idx, Result: &bulkx.ItemResult{
		Index:      idx,
		Kind:       bulkx.OperationKindInsert,
		InsertedID: o.id,
	}}
}

// insertMany sends one insertMany command and returns one outcome per document.
func (t *commandTransport) insertMany(ctx context.Context, ordered bool, docs []*encodedDocument) ([]docOutcome, error) {
	raws := lo.Map(docs, func(d *encodedDocument, _ int) json.RawMessage { return d.raw })
	resp, err := t.coll.client.command(ctx, t.coll.name, "insertMany", map[string]any{
		"documents": raws,
		"options": map[string]any{
			"ordered":                 ordered,
			"returnDocumentResponses": t.documentResponses,
		},
	})
	if err != nil {
		return nil, err
	}

	var outs []docOutcome
	if dr := resp.Status.Get("documentResponses"); t.documentResponses && dr.IsArray() {
		outs = documentOutcomes(docs, ordered, dr.Array(), resp.Errors)
	} else {
		outs = insertedIDOutcomes(docs, ordered, resp.Status.Get("insertedIds"), resp.Errors)
	}

	if resp.Retried {
		for _, d := range docs {
			d.inDoubt = true
		}
	}
	if !recoverApplied(docs, outs) || !ordered {
		return outs, nil
	}

	// An ordered insert stopped at a recovered document, the documents after it were never tried
	next := slices.IndexFunc(outs, func(o docOutcome) bool { return !o.acknowledged })
	if next < 0 || slices.ContainsFunc(outs[:next], func(o docOutcome) bool { return o.err != nil }) {
		return outs, nil
	}
	rest, err := t.insertMany(ctx, ordered, docs[next:])
	if err != nil {
		return nil, err
	}
	copy(outs[next:], rest)
	return outs, nil
}

// recoverApplied turns the already exists errors of documents written by an earlier attempt
// into successes. Only client assigned ids qualify, another writer can not have used them.
func recoverApplied(docs []*encodedDocument, outs []docOutcome) bool {
	recovered := false
	for i, d := range docs {
		o := outs[i]
		if !d.generated || !d.inDoubt || !o.acknowledged || !errorx.IsAlreadyExistsError(o.err) {
			continue
		}
		outs[i] = docOutcome{acknowledged: true, id: d.id}
		recovered = true
	}
	return recovered
}

// documentOutcomes reads the per document responses, which come in input order.
func documentOutcomes(docs []*encodedDocument, ordered bool, responses []gjson.Result, errs []*APIError) []docOutcome {
	out := make([]docOutcome, len(docs))
	for i, d := range docs {
		if i >= len(responses) {
			if ordered {
				return out
			}
			out[i] = docOutcome{acknowledged: true, err: errorx.InternalErrorf("no response for document %v", d.id)}
			continue
		}

		r := responses[i]
		switch r.Get("status").String() {
		case documentStatusOK:
			id := d.id
			if v := r.Get("_id"); v.Exists() {
				id = v.Value()
			}
			out[i] = docOutcome{acknowledged: true, id: id}
		case documentStatusError:
			out[i] = docOutcome{acknowledged: true, err: documentError(errs, r.Get("errorsIdx"))}
			if ordered {
				return out
			}
		case documentStatusSkipped:
			if ordered {
				return out
			}
			out[i] = docOutcome{acknowledged: true, err: errorx.InternalErrorf("document %v was skipped by an unordered insert", d.id)}
		default:
			out[i] = docOutcome{acknowledged: true, err: errorx.InternalErrorf("unknown status %q for document %v", r.Get("status").String(), d.id)}
			if ordered {
				return out
			}
		}
	}
	return out
}

func documentError(errs []*APIError, idx gjson.Result) error {
	if idx.Exists() {
		if i := int(idx.Int()); i >= 0 && i < len(errs) {
			return errs[i].CliniaError()
		}
	}
	if len(errs) > 0 {
		return commandError(errs)
	}
	return errorx.InternalErrorf("document rejected without an error")
}

// insertedIDOutcomes infers the fate of every document from the inserted ids. A document that
// was not inserted gets the error naming it, or all errors of the response when none does.
func insertedIDOutcomes(docs []*encodedDocument, ordered bool, insertedIDs gjson.Result, errs []*APIError) []docOutcome {
	inserted := map[string]any{}
	insertedIDs.ForEach(func(_, v gjson.Result) bool {
		inserted[idKey(v.Value())] = v.Value()
		return true
	})

	byDocument := map[string]*APIError{}
	for _, e := range errs {
		for _, id := range e.DocumentIDs {
			byDocument[idKey(id)] = e
		}
	}

	out := make([]docOutcome, len(docs))
	for i, d := range docs {
		key := idKey(d.id)
		if id, ok := inserted[key]; ok {
			out[i] = docOutcome{acknowledged: true, id: id}
			continue
		}

		var err error
		switch e, ok := byDocument[key]; {
		case ok:
			err = e.CliniaError()
		case len(errs) > 0:
			err = commandError(errs)
		default:
			err = errorx.InternalErrorf("document %v was not inserted and no error was reported", d.id)
		}
		out[i] = docOutcome{acknowledged: true, err: err}
		if ordered {
			return out
		}
	}
	return out
}
