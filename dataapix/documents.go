package dataapix

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/clinia/dataapi/errorx"
)

const idField = "_id"

type idGenerator func() (string, error)

func newIDGenerator(version string) idGenerator {
	if version == IDVersion7 {
		return func() (string, error) {
			id, err := uuid.NewV7()
			if err != nil {
				return "", errorx.InternalErrorf("failed to generate document id: %v", err)
			}
			return id.String(), nil
		}
	}
	return func() (string, error) {
		return uuid.NewString(), nil
	}
}

// encodedDocument is a document ready to be sent, with the _id it will be stored under.
type encodedDocument struct {
	raw json.RawMessage
	id  any
	// generated is set when the client assigned the _id
	generated bool
	// inDoubt is set once a command carrying the document was retried, so it may already be stored
	inDoubt bool
}

// encodeDocument encodes doc as a JSON object and gives it an _id when it has none.
// Raw JSON documents may be passed as []byte, json.RawMessage or string.
func encodeDocument(doc any, newID idGenerator) (*encodedDocument, error) {
	var raw json.RawMessage
	switch d := doc.(type) {
	case nil:
		return nil, errorx.InvalidArgumentErrorf("document can not be nil")
	case json.RawMessage:
		raw = d
	case []byte:
		raw = d
	case string:
		raw = json.RawMessage(d)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return nil, errorx.InvalidArgumentErrorf("failed to encode document: %v", err)
		}
		raw = b
	}

	if !gjson.ValidBytes(raw) {
		return nil, errorx.InvalidArgumentErrorf("document is not valid JSON")
	}
	parsed := gjson.ParseBytes(raw)
	if !parsed.IsObject() {
		return nil, errorx.InvalidArgumentErrorf("document must be a JSON object")
	}

	if id := parsed.Get(idField); id.Exists() && id.Type != gjson.Null {
		return &encodedDocument{raw: raw, id: id.Value()}, nil
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	withID, err := sjson.SetBytes(raw, idField, id)
	if err != nil {
		return nil, errorx.InternalErrorf("failed to set document id: %v", err)
	}
	return &encodedDocument{raw: withID, id: id, generated: true}, nil
}

// idKey normalizes an _id so that ids decoded from different payloads compare equal.
func idKey(id any) string {
	b, err := json.Marshal(id)
	if err != nil {
		return ""
	}
	return string(b)
}
