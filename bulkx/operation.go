package bulkx

type OperationKind string

const (
	OperationKindInsert OperationKind = "insert"
	OperationKindUpdate OperationKind = "update"
	OperationKindDelete OperationKind = "delete"
)

func (k OperationKind) String() string {
	return string(k)
}

// WriteOperation is one of InsertOperation, UpdateOperation or DeleteOperation.
type WriteOperation interface {
	Kind() OperationKind
	isWriteOperation()
}

// InsertOperation inserts a single document. Document must be encodable by the transport.
type InsertOperation struct {
	Document any
}

// UpdateOperation applies Update to the document matching Filter, or every matching document when Many is set.
type UpdateOperation struct {
	Filter any
	Update any
	Upsert bool
	Many   bool
}

// DeleteOperation removes the document matching Filter, or every matching document when Many is set.
type DeleteOperation struct {
	Filter any
	Many   bool
}

var (
	_ WriteOperation = InsertOperation{}
	_ WriteOperation = UpdateOperation{}
	_ WriteOperation = DeleteOperation{}
)

func (InsertOperation) Kind() OperationKind { return OperationKindInsert }
func (UpdateOperation) Kind() OperationKind { return OperationKindUpdate }
func (DeleteOperation) Kind() OperationKind { return OperationKindDelete }

func (InsertOperation) isWriteOperation() {}
func (UpdateOperation) isWriteOperation() {}
func (DeleteOperation) isWriteOperation() {}

// Inserts wraps documents into insert operations.
func Inserts[T any](docs ...T) []WriteOperation {
	ops := make([]WriteOperation, len(docs))
	for i, d := range docs {
		ops[i] = InsertOperation{Document: d}
	}
	return ops
}
