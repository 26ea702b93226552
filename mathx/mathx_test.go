package mathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	t.Parallel()

	t.Run("should clamp ints", func(t *testing.T) {
		for _, tc := range []struct {
			v, low, high, expected int
		}{
			{v: 5, low: 0, high: 10, expected: 5},
			{v: -5, low: 0, high: 10, expected: 0},
			{v: 15, low: 0, high: 10, expected: 10},
			{v: 100, low: 1, high: 100, expected: 100},
			{v: 500, low: 1, high: 100, expected: 100},
		} {
			assert.Equal(t, tc.expected, Clamp(tc.v, tc.low, tc.high))
		}
	})

	t.Run("should clamp floats", func(t *testing.T) {
		for _, tc := range []struct {
			v, low, high, expected float64
		}{
			{v: 0.5, low: 0, high: 1, expected: 0.5},
			{v: -0.5, low: 0, high: 1, expected: 0},
			{v: 1.000001, low: 1, high: 2, expected: 1.000001},
			{v: 2.000001, low: 1, high: 2, expected: 2},
		} {
			assert.Equal(t, tc.expected, Clamp(tc.v, tc.low, tc.high))
		}
	})
}

func TestCeilDiv(t *testing.T) {
	for _, tc := range []struct {
		a, b, expected int
	}{
		{a: 0, b: 3, expected: 0},
		{a: -1, b: 3, expected: 0},
		{a: 1, b: 3, expected: 1},
		{a: 3, b: 3, expected: 1},
		{a: 7, b: 3, expected: 3},
		{a: 250, b: 100, expected: 3},
	} {
		assert.Equal(t, tc.expected, CeilDiv(tc.a, tc.b), "CeilDiv(%d, %d)", tc.a, tc.b)
	}
}

func TestBytesToMB(t *testing.T) {
	assert.Equal(t, float64(0), BytesToMB(0))
	assert.Equal(t, float64(1), BytesToMB(1048576))
	assert.Equal(t, float64(5), BytesToMB(int64(5242880)))
	assert.Equal(t, 0.5, BytesToMB(uint64(524288)))
}
