// Package arena provides the allocators behind graph lifecycle helpers.
//
// Heap serves wide-mode graphs from the Go heap. Linear carves allocations
// out of a fixed byte region so that every address stays inside a narrow
// 32-bit address space.
package arena

import (
	"unsafe"

	"github.com/wippyai/assetlayout/errors"
)

const maxAlign = 8

// Heap allocates 8-byte aligned blocks from the Go heap and keeps each block
// reachable until it is freed.
type Heap struct {
	blocks map[uintptr][]uint64
	bytes  uintptr
}

// NewHeap returns an empty heap allocator.
func NewHeap() *Heap {
	return &Heap{blocks: make(map[uintptr][]uint64)}
}

// Alloc returns zeroed storage for size bytes.
func (h *Heap) Alloc(size, align uintptr) (unsafe.Pointer, error) {
	if err := checkAlign(align); err != nil {
		return nil, err
	}
	words := (max(size, 1) + 7) / 8
	block := make([]uint64, words)
	p := unsafe.Pointer(unsafe.SliceData(block))
	h.blocks[uintptr(p)] = block
	h.bytes += words * 8
	return p, nil
}

// Free releases a block obtained from Alloc.
func (h *Heap) Free(p unsafe.Pointer) error {
	block, ok := h.blocks[uintptr(p)]
	if !ok {
		return errors.DoubleFree(errors.PhaseAlloc, uintptr(p))
	}
	delete(h.blocks, uintptr(p))
	h.bytes -= uintptr(len(block)) * 8
	return nil
}

// Owns reports whether p starts a live block.
func (h *Heap) Owns(p unsafe.Pointer) bool {
	_, ok := h.blocks[uintptr(p)]
	return ok
}

// Len returns the number of live blocks.
func (h *Heap) Len() int { return len(h.blocks) }

// Bytes returns the number of bytes held by live blocks.
func (h *Heap) Bytes() uintptr { return h.bytes }

// Reset drops every block.
func (h *Heap) Reset() {
	clear(h.blocks)
	h.bytes = 0
}

func checkAlign(align uintptr) error {
	if align == 0 || align&(align-1) != 0 || align > maxAlign {
		return errors.Unsupported(errors.PhaseAlloc, "alignment must be a power of two up to 8")
	}
	return nil
}
