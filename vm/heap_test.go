package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapFirstFit(t *testing.T) {
	h := NewHeap()

	a, err := h.Allocate(100)
	require.NoError(t, err)
	b, err := h.Allocate(50)
	require.NoError(t, err)
	c, err := h.Allocate(200)
	require.NoError(t, err)

	assert.Equal(t, HeapBase, a)
	assert.Equal(t, HeapBase+100, b)
	assert.Equal(t, HeapBase+150, c)
}

func TestHeapRejectsZero(t *testing.T) {
	h := NewHeap()
	_, err := h.Allocate(0)
	assert.Error(t, err)
}
