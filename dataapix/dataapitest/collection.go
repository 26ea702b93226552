package dataapitest

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

type apiError struct {
	ErrorCode   string `json:"errorCode"`
	Message     string `json:"message"`
	Family      string `json:"family,omitempty"`
	Scope       string `json:"scope,omitempty"`
	Title       string `json:"title,omitempty"`
	ID          string `json:"id,omitempty"`
	DocumentIDs []any  `json:"documentIds,omitempty"`
}

type response struct {
	Status map[string]any `json:"status,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
	Errors []apiError     `json:"errors,omitempty"`
}

func requestError(code, format string, args ...any) apiError {
	return apiError{
		ErrorCode: code,
		Message:   fmt.Sprintf(format, args...),
		Family:    "REQUEST",
		ID:        uuid.NewString(),
	}
}

func errorResponse(e apiError) response {
	return response{Errors: []apiError{e}}
}

type collection struct {
	docs []map[string]any
}

func (c *collection) run(name string, payload gjson.Result, pageSize int) response {
	switch name {
	case "insertOne":
		return c.insertOne(payload)
	case "insertMany":
		return c.insertMany(payload)
	case "updateOne":
		return c.update(payload, false, pageSize)
	case "updateMany":
		return c.update(payload, true, pageSize)
	case "deleteOne":
		return c.delete(payload, false, pageSize)
	case "deleteMany":
		return c.delete(payload, true, pageSize)
	case "findOne":
		return c.findOne(payload)
	default:
		return errorResponse(requestError("UNSUPPORTED_COMMAND", "command %q is not supported", name))
	}
}

func (c *collection) insertOne(payload gjson.Result) response {
	doc, ok := object(payload.Get("document"))
	if !ok {
		return errorResponse(requestError("COMMAND_FIELD_INVALID", "document must be an object"))
	}
	id := ensureID(doc)
	if c.indexOf(id) >= 0 {
		return errorResponse(alreadyExists(id))
	}
	c.docs = append(c.docs, doc)
	return response{Status: map[string]any{"insertedIds": []any{id}}}
}

func (c *collection) insertMany(payload gjson.Result) response {
	ordered := payload.Get("options.ordered").Bool()
	withResponses := payload.Get("options.returnDocumentResponses").Bool()

	var (
		errs      []apiError
		inserted  = []any{}
		responses = []map[string]any{}
		failed    bool
	)
	for _, d := range payload.Get("documents").Array() {
		doc, ok := object(d)
		if ordered && failed {
			r := map[string]any{"status": "SKIPPED"}
			if ok && doc["_id"] != nil {
				r["_id"] = doc["_id"]
			}
			responses = append(responses, r)
			continue
		}
		if !ok {
			errs = append(errs, requestError("COMMAND_FIELD_INVALID", "document must be an object"))
			responses = append(responses, map[string]any{"status": "ERROR", "errorsIdx": len(errs) - 1})
			failed = true
			continue
		}

		id := ensureID(doc)
		if c.indexOf(id) >= 0 {
			errs = append(errs, alreadyExists(id))
			responses = append(responses, map[string]any{"_id": id, "status": "ERROR", "errorsIdx": len(errs) - 1})
			failed = true
			continue
		}

		c.docs = append(c.docs, doc)
		inserted = append(inserted, id)
		responses = append(responses, map[string]any{"_id": id, "status": "OK"})
	}

	status := map[string]any{}
	if withResponses {
		status["documentResponses"] = responses
	} else {
		status["insertedIds"] = inserted
	}
	return response{Status: status, Errors: errs}
}

func (c *collection) update(payload gjson.Result, many bool, pageSize int) response {
	filter, _ := object(payload.Get("filter"))
	update, ok := object(payload.Get("update"))
	if !ok {
		return errorResponse(requestError("COMMAND_FIELD_INVALID", "update must be an object"))
	}
	upsert := payload.Get("options.upsert").Bool()
	start, _ := strconv.Atoi(payload.Get("options.pageState").String())

	limit := 1
	if many {
		limit = pageSize
	}

	matched, modified := 0, 0
	next := -1
	for i := start; i < len(c.docs); i++ {
		if !matches(c.docs[i], filter) {
			continue
		}
		if matched == limit {
			next = i
			break
		}
		matched++
		if applyUpdate(c.docs[i], update) {
			modified++
		}
	}

	status := map[string]any{"matchedCount": matched, "modifiedCount": modified}
	if matched == 0 && start == 0 && upsert {
		doc := map[string]any{}
		for k, v := range filter {
			doc[k] = v
		}
		applyUpdate(doc, update)
		status["upsertedId"] = ensureID(doc)
		c.docs = append(c.docs, doc)
	}
	if many && next >= 0 {
		status["moreData"] = true
		status["nextPageState"] = strconv.Itoa(next)
	}
	return response{Status: status}
}

func (c *collection) delete(payload gjson.Result, many bool, pageSize int) response {
	filter, _ := object(payload.Get("filter"))

	limit := 1
	if many {
		limit = pageSize
	}

	kept := c.docs[:0]
	deleted := 0
	more := false
	for _, d := range c.docs {
		if matches(d, filter) {
			if deleted < limit {
				deleted++
				continue
			}
			more = true
		}
		kept = append(kept, d)
	}
	c.docs = kept

	status := map[string]any{"deletedCount": deleted}
	if many && more {
		status["moreData"] = true
	}
	return response{Status: status}
}

func (c *collection) findOne(payload gjson.Result) response {
	filter, _ := object(payload.Get("filter"))
	projection, _ := object(payload.Get("projection"))

	for _, d := range c.docs {
		if matches(d, filter) {
			return response{Data: map[string]any{"document": project(d, projection)}}
		}
	}
	return response{Data: map[string]any{"document": nil}}
}

func (c *collection) indexOf(id any) int {
	key := keyOf(id)
	for i, d := range c.docs {
		if v, ok := d["_id"]; ok && keyOf(v) == key {
			return i
		}
	}
	return -1
}

func alreadyExists(id any) apiError {
	e := requestError("DOCUMENT_ALREADY_EXISTS", "Document already exists with the given _id: %v", id)
	e.Scope = "DOCUMENT"
	e.DocumentIDs = []any{id}
	return e
}

func ensureID(doc map[string]any) any {
	if id, ok := doc["_id"]; ok && id != nil {
		return id
	}
	id := uuid.NewString()
	doc["_id"] = id
	return id
}

// matches reports whether every field of filter equals the field of doc.
func matches(doc, filter map[string]any) bool {
	for k, v := range filter {
		if keyOf(doc[k]) != keyOf(v) {
			return false
		}
	}
	return true
}

// applyUpdate supports $set, $unset and $inc, and reports whether doc changed.
func applyUpdate(doc, update map[string]any) bool {
	before := keyOf(doc)
	if set, ok := update["$set"].(map[string]any); ok {
		for k, v := range set {
			doc[k] = v
		}
	}
	if unset, ok := update["$unset"].(map[string]any); ok {
		for k := range unset {
			delete(doc, k)
		}
	}
	if inc, ok := update["$inc"].(map[string]any); ok {
		for k, v := range inc {
			cur, _ := doc[k].(float64)
			by, _ := v.(float64)
			doc[k] = cur + by
		}
	}
	return keyOf(doc) != before
}

func project(doc, projection map[string]any) map[string]any {
	if len(projection) == 0 {
		return clone(doc)
	}
	out := map[string]any{"_id": doc["_id"]}
	for k, v := range projection {
		if include, ok := v.(float64); ok && include == 0 {
			continue
		}
		if b, ok := v.(bool); ok && !b {
			continue
		}
		if fv, ok := doc[k]; ok {
			out[k] = fv
		}
	}
	return out
}

func object(r gjson.Result) (map[string]any, bool) {
	if !r.IsObject() {
		return nil, false
	}
	m, ok := r.Value().(map[string]any)
	return m, ok
}

// keyOf encodes v so that equal JSON values compare equal. Map keys are sorted by encoding/json.
func keyOf(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func normalize(doc map[string]any) map[string]any {
	var out map[string]any
	b, _ := json.Marshal(doc)
	_ = json.Unmarshal(b, &out)
	return out
}

func clone(doc map[string]any) map[string]any {
	return normalize(doc)
}
