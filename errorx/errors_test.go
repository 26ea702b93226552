package errorx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputErrsMatchInputLength(t *testing.T) {
	assert.NoError(t, OutputErrsMatchInputLength(3, 3))

	err := OutputErrsMatchInputLength(2, 3)
	assert.True(t, IsInternalError(err))
	assert.EqualError(t, err, "[INTERNAL] a different length of errors (2) then the input length (3) was returned")
}
