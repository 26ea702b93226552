package elasticx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexName(t *testing.T) {
	t.Run("should return a new index name", func(t *testing.T) {
		name := NewIndexName("Clinic", "People")
		assert.Equal(t, "clinic~people", name.String())
		assert.Equal(t, "clinic", name.Keyspace())
		assert.Equal(t, "people", name.Collection())
	})

	t.Run("should keep separators in the collection", func(t *testing.T) {
		name := NewIndexName("ks", "a~b")
		assert.Equal(t, "a~b", name.Collection())
	})

	t.Run("should handle names without a collection", func(t *testing.T) {
		name := IndexName("ks")
		assert.Equal(t, "ks", name.Keyspace())
		assert.Empty(t, name.Collection())
	})
}
