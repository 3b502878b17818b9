package arena

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/errors"
)

var (
	_ assetlayout.Allocator = (*Heap)(nil)
	_ assetlayout.Allocator = (*Linear)(nil)
)

func TestHeap(t *testing.T) {
	h := NewHeap()

	p, err := h.Alloc(12, 4)
	require.NoError(t, err)
	assert.Zero(t, uintptr(p)%8)
	assert.True(t, h.Owns(p))
	assert.Equal(t, 1, h.Len())
	assert.Equal(t, uintptr(16), h.Bytes())

	b := unsafe.Slice((*byte)(p), 12)
	for _, v := range b {
		assert.Zero(t, v)
	}

	require.NoError(t, h.Free(p))
	assert.False(t, h.Owns(p))
	assert.ErrorIs(t, h.Free(p), errors.ErrDoubleFree)
	assert.Zero(t, h.Bytes())
}

func TestHeap_Align(t *testing.T) {
	h := NewHeap()
	_, err := h.Alloc(8, 16)
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindUnsupported})
	_, err = h.Alloc(8, 3)
	assert.Error(t, err)
}

func TestLinear_Alloc(t *testing.T) {
	mem := make([]byte, 128)
	l := NewLinear(mem, 0)
	base := uintptr(unsafe.Pointer(&mem[0]))

	p, err := l.Alloc(3, 1)
	require.NoError(t, err)
	assert.Equal(t, uintptr(Reserved), uintptr(p)-base)

	q, err := l.Alloc(8, 8)
	require.NoError(t, err)
	assert.Zero(t, (uintptr(q)-base)%8)
	assert.Greater(t, uintptr(q), uintptr(p))

	assert.True(t, l.Owns(p))
	assert.False(t, l.Owns(unsafe.Pointer(&mem[1])))
	assert.Equal(t, 2, l.Len())
}

func TestLinear_ZeroesMemory(t *testing.T) {
	mem := make([]byte, 64)
	for i := range mem {
		mem[i] = 0xAA
	}
	l := NewLinear(mem, 0)

	p, err := l.Alloc(8, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), *(*uint64)(p))
}

func TestLinear_Exhausted(t *testing.T) {
	mem := make([]byte, 32)
	l := NewLinear(mem, 0)

	_, err := l.Alloc(16, 8)
	require.NoError(t, err)
	_, err = l.Alloc(1, 1)
	assert.ErrorIs(t, err, errors.ErrAllocation)
}

func TestLinear_Reuse(t *testing.T) {
	mem := make([]byte, 64)
	l := NewLinear(mem, 0)

	p, err := l.Alloc(32, 8)
	require.NoError(t, err)
	require.NoError(t, l.Free(p))
	assert.ErrorIs(t, l.Free(p), errors.ErrDoubleFree)

	// The freed block is split between two smaller allocations.
	a, err := l.Alloc(8, 8)
	require.NoError(t, err)
	b, err := l.Alloc(16, 8)
	require.NoError(t, err)
	assert.Equal(t, p, a)
	assert.Equal(t, uintptr(a)+8, uintptr(b))
	assert.Equal(t, uint32(Reserved+32), l.High())
}

func TestLinear_StartAboveImage(t *testing.T) {
	mem := make([]byte, 64)
	l := NewLinear(mem, 20)

	p, err := l.Alloc(4, 4)
	require.NoError(t, err)
	assert.Equal(t, uintptr(24), uintptr(p)-uintptr(unsafe.Pointer(&mem[0])))
}
