package slicex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	collect := func(v []int, size int) ([]int, [][]int) {
		offsets := []int{}
		chunks := [][]int{}
		for offset, c := range Chunk(v, size) {
			offsets = append(offsets, offset)
			chunks = append(chunks, c)
		}
		return offsets, chunks
	}

	for _, tc := range []struct {
		name    string
		input   []int
		size    int
		offsets []int
		chunks  [][]int
	}{
		{
			name:    "should split evenly",
			input:   []int{1, 2, 3, 4},
			size:    2,
			offsets: []int{0, 2},
			chunks:  [][]int{{1, 2}, {3, 4}},
		},
		{
			name:    "should keep the remainder in the last chunk",
			input:   []int{1, 2, 3, 4, 5},
			size:    2,
			offsets: []int{0, 2, 4},
			chunks:  [][]int{{1, 2}, {3, 4}, {5}},
		},
		{
			name:    "should return a single chunk when size exceeds length",
			input:   []int{1, 2, 3},
			size:    10,
			offsets: []int{0},
			chunks:  [][]int{{1, 2, 3}},
		},
		{
			name:    "should yield nothing for an empty slice",
			input:   []int{},
			size:    3,
			offsets: []int{},
			chunks:  [][]int{},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			offsets, chunks := collect(tc.input, tc.size)
			assert.Equal(t, tc.offsets, offsets)
			assert.Equal(t, tc.chunks, chunks)
			assert.Equal(t, len(tc.chunks), ChunkCount(len(tc.input), tc.size))
		})
	}

	t.Run("should be restartable", func(t *testing.T) {
		seq := Chunk([]string{"a", "b", "c"}, 2)
		first := [][]string{}
		for _, c := range seq {
			first = append(first, c)
		}
		second := [][]string{}
		for _, c := range seq {
			second = append(second, c)
		}
		assert.Equal(t, first, second)
	})

	t.Run("should not alias the input", func(t *testing.T) {
		input := []int{1, 2, 3}
		for _, c := range Chunk(input, 2) {
			c[0] = 42
		}
		assert.Equal(t, []int{1, 2, 3}, input)
	})

	t.Run("should stop when the consumer breaks", func(t *testing.T) {
		n := 0
		for range Chunk([]int{1, 2, 3, 4}, 1) {
			n++
			if n == 2 {
				break
			}
		}
		assert.Equal(t, 2, n)
	})

	t.Run("should panic on a non positive size", func(t *testing.T) {
		assert.Panics(t, func() { Chunk([]int{1}, 0) })
	})
}
