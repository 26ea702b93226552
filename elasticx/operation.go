package elasticx

import (
	"encoding/json"
	"strings"

	"github.com/segmentio/ksuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/clinia/dataapi/bulkx"
	"github.com/clinia/dataapi/errorx"
)

const (
	idField     = "_id"
	setOperator = "$set"
)

// bulkOperation is a write operation translated to an Elasticsearch bulk action.
type bulkOperation struct {
	index int
	kind  bulkx.OperationKind
	id    string
	// source is the document of a create, or the partial document of an update.
	source json.RawMessage
	upsert bool
}

func marshalJSON(v any) ([]byte, error) {
	switch d := v.(type) {
	case json.RawMessage:
		return d, nil
	case []byte:
		return d, nil
	case string:
		return []byte(d), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errorx.InvalidArgumentErrorf("failed to encode %T: %v", v, err)
	}
	return b, nil
}

// documentID returns the _id of a document or filter as an Elasticsearch id. Non string ids use their
// JSON text so that 7 and "7" address the same document, as they do in Elasticsearch.
func documentID(r gjson.Result) (string, bool) {
	id := r.Get(idField)
	switch {
	case !id.Exists(), id.Type == gjson.Null:
		return "", false
	case id.Type == gjson.String:
		return id.String(), id.String() != ""
	default:
		return id.Raw, true
	}
}

func objectOf(v any, what string) (gjson.Result, []byte, error) {
	raw, err := marshalJSON(v)
	if err != nil {
		return gjson.Result{}, nil, err
	}
	if !gjson.ValidBytes(raw) {
		return gjson.Result{}, nil, errorx.InvalidArgumentErrorf("%s is not valid JSON", what)
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return gjson.Result{}, nil, errorx.InvalidArgumentErrorf("%s must be a JSON object", what)
	}
	return r, raw, nil
}

// newBulkOperation translates op. Inserts without an _id get a ksuid, which Elasticsearch stores
// outside of the source.
func newBulkOperation(index int, op bulkx.WriteOperation) (*bulkOperation, error) {
	switch o := op.(type) {
	case bulkx.InsertOperation:
		doc, raw, err := objectOf(o.Document, "document")
		if err != nil {
			return nil, err
		}
		id, ok := documentID(doc)
		if !ok {
			id = ksuid.New().String()
		}
		if doc.Get(idField).Exists() {
			if raw, err = sjson.DeleteBytes(raw, idField); err != nil {
				return nil, errorx.InternalErrorf("failed to remove document id: %v", err)
			}
		}
		return &bulkOperation{index: index, kind: bulkx.OperationKindInsert, id: id, source: raw}, nil

	case bulkx.UpdateOperation:
		if o.Many {
			return nil, errorx.UnimplementedErrorf("elasticsearch bulk updates target a single _id")
		}
		id, err := filterID(o.Filter)
		if err != nil {
			return nil, err
		}
		if o.Update == nil {
			return nil, errorx.InvalidArgumentErrorf("update can not be nil")
		}
		partial, err := partialDocument(o.Update)
		if err != nil {
			return nil, err
		}
		return &bulkOperation{index: index, kind: bulkx.OperationKindUpdate, id: id, source: partial, upsert: o.Upsert}, nil

	case bulkx.DeleteOperation:
		if o.Many {
			return nil, errorx.UnimplementedErrorf("elasticsearch bulk deletes target a single _id")
		}
		id, err := filterID(o.Filter)
		if err != nil {
			return nil, err
		}
		return &bulkOperation{index: index, kind: bulkx.OperationKindDelete, id: id}, nil

	default:
		return nil, errorx.InvalidArgumentErrorf("unsupported operation %T", op)
	}
}

func filterID(filter any) (string, error) {
	if filter == nil {
		return "", errorx.InvalidArgumentErrorf("filter must select an _id")
	}
	r, _, err := objectOf(filter, "filter")
	if err != nil {
		return "", err
	}
	id, ok := documentID(r)
	if !ok {
		return "", errorx.InvalidArgumentErrorf("filter must select an _id")
	}
	return id, nil
}

// partialDocument accepts either a plain partial document or a {"$set": {...}} update.
func partialDocument(update any) (json.RawMessage, error) {
	r, raw, err := objectOf(update, "update")
	if err != nil {
		return nil, err
	}

	var (
		set       gjson.Result
		operators bool
	)
	r.ForEach(func(key, value gjson.Result) bool {
		if !strings.HasPrefix(key.String(), "$") {
			return true
		}
		operators = true
		if key.String() == setOperator {
			set = value
			return true
		}
		err = errorx.UnimplementedErrorf("update operator %s is not supported", key.String())
		return false
	})
	if err != nil {
		return nil, err
	}
	if !operators {
		return raw, nil
	}
	if !set.IsObject() {
		return nil, errorx.InvalidArgumentErrorf("%s must be an object", setOperator)
	}
	return json.RawMessage(set.Raw), nil
}
