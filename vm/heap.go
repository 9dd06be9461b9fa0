package vm

import "fmt"

// heapBlock is one allocated region; Heap keeps them in a single slice
// sorted by address, so each address and its size move together.
type heapBlock struct {
	addr uint32
	size uint32
}

// Heap is a first-fit bump allocator over the Heap memory section. No free
// operation is exposed, matching the architecture this models.
type Heap struct {
	blocks []heapBlock
}

// NewHeap returns an empty heap allocator.
func NewHeap() *Heap { return &Heap{} }

// Allocate reserves n bytes and returns the address of the first byte. It
// fails if n is zero or if no gap large enough remains before the heap's
// upper bound.
func (h *Heap) Allocate(n uint32) (uint32, error) {
	if n == 0 {
		return 0, fmt.Errorf("vm: cannot allocate zero bytes")
	}

	candidate := HeapBase
	insertAt := len(h.blocks)
	for i, b := range h.blocks {
		if candidate+n <= b.addr {
			insertAt = i
			break
		}
		candidate = b.addr + b.size
	}

	if candidate < HeapBase || uint64(candidate-HeapBase)+uint64(n) > uint64(HeapSize) {
		return 0, fmt.Errorf("vm: heap exhausted allocating %d bytes", n)
	}

	h.blocks = append(h.blocks, heapBlock{})
	copy(h.blocks[insertAt+1:], h.blocks[insertAt:])
	h.blocks[insertAt] = heapBlock{addr: candidate, size: n}
	return candidate, nil
}
