package translate

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/handle"
)

func translators(mem []byte) map[string]Translator {
	return map[string]Translator{
		"linear": NewLinear(mem),
		"wide":   NewWide(handle.NewTable()),
		"native": Native(),
	}
}

func TestRoundTrip(t *testing.T) {
	mem := make([]byte, 4096)

	for name, tr := range translators(mem) {
		t.Run(name, func(t *testing.T) {
			for pos := 8; pos < len(mem); pos += 24 {
				p := unsafe.Pointer(&mem[pos])

				off, err := tr.ToOffset(p, 8)
				require.NoError(t, err)
				require.NotZero(t, off)

				got, err := tr.AddressOf(off, 8)
				require.NoError(t, err)
				assert.Equal(t, p, got)

				off64, err := tr.ToOffset64(p, 8)
				require.NoError(t, err)
				got, err = tr.AddressOf64(off64, 8)
				require.NoError(t, err)
				assert.Equal(t, p, got)
			}
		})
	}
}

func TestNullOffset(t *testing.T) {
	mem := make([]byte, 64)

	for name, tr := range translators(mem) {
		t.Run(name, func(t *testing.T) {
			off, err := tr.ToOffset(nil, 8)
			require.NoError(t, err)
			assert.Zero(t, off)

			p, err := tr.AddressOf(0, 8)
			require.NoError(t, err)
			assert.Nil(t, p)

			assert.NoError(t, tr.Release(0))
			assert.Zero(t, tr.Live())
		})
	}
}

func TestLinear(t *testing.T) {
	mem := make([]byte, 256)
	l := NewLinear(mem)

	assert.Equal(t, assetlayout.Narrow, l.Mode())

	p, n, err := l.Extent(16)
	require.NoError(t, err)
	assert.Equal(t, unsafe.Pointer(&mem[16]), p)
	assert.Equal(t, uintptr(240), n)

	_, err = l.AddressOf(250, 16)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)

	_, _, err = l.Extent(256)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)

	other := make([]byte, 8)
	_, err = l.ToOffset(unsafe.Pointer(&other[0]), 8)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)

	var off assetlayout.Off32
	require.NoError(t, l.Rebind(&off, unsafe.Pointer(&mem[40]), 4))
	assert.Equal(t, assetlayout.Off32(40), off)

	// Offsets are relative, so they survive a move of the region.
	moved := make([]byte, 512)
	copy(moved, mem)
	l.Remap(moved)
	p, err = l.AddressOf(off, 4)
	require.NoError(t, err)
	assert.Equal(t, unsafe.Pointer(&moved[40]), p)
}

func TestWide(t *testing.T) {
	table := handle.NewTable()
	w := NewWide(table)
	var a, b [16]byte

	assert.Equal(t, assetlayout.Wide, w.Mode())

	off, err := w.ToOffset(unsafe.Pointer(&a), 16)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Live())

	// Rebind keeps the key.
	key := off
	require.NoError(t, w.Rebind(&off, unsafe.Pointer(&b), 16))
	assert.Equal(t, key, off)
	p, err := w.AddressOf(off, 16)
	require.NoError(t, err)
	assert.Equal(t, unsafe.Pointer(&b), p)

	// Extent is enforced.
	_, err = w.AddressOf(off, 32)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)

	// Released keys fail loudly.
	require.NoError(t, w.Release(off))
	_, err = w.AddressOf(off, 16)
	assert.ErrorIs(t, err, errors.ErrInvalidHandle)
	assert.Zero(t, w.Live())
}

func TestWide_RebindNull(t *testing.T) {
	w := NewWide(handle.NewTable())
	var v uint64
	var off assetlayout.Off32

	require.NoError(t, w.Rebind(&off, unsafe.Pointer(&v), 8))
	assert.NotZero(t, off)
	assert.Equal(t, 1, w.Live())
}

func TestWide_Pins(t *testing.T) {
	w := NewWide(handle.NewTable())
	var buf [32]byte

	off, err := w.ToOffset64(unsafe.Pointer(&buf), 32)
	require.NoError(t, err)
	off2, err := w.ToOffset64(unsafe.Pointer(&buf), 32)
	require.NoError(t, err)
	assert.Equal(t, off, off2)
	assert.Equal(t, 1, w.Live())

	_, n, err := w.Extent64(off)
	require.NoError(t, err)
	assert.Equal(t, uintptr(32), n)

	_, err = w.AddressOf64(off, 64)
	assert.ErrorIs(t, err, errors.ErrOutOfBounds)

	require.NoError(t, w.Release64(off))
	assert.Equal(t, 1, w.Live())
	require.NoError(t, w.Release64(off))
	assert.Zero(t, w.Live())
}

func TestWide_Closed(t *testing.T) {
	w := NewWide(handle.NewTable())
	var buf [16]byte
	off, err := w.ToOffset(unsafe.Pointer(&buf), 16)
	require.NoError(t, err)
	off64, err := w.ToOffset64(unsafe.Pointer(&buf), 16)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.ToOffset64(unsafe.Pointer(&buf), 16)
	assert.ErrorIs(t, err, errors.ErrClosed)
	_, _, err = w.Extent64(off64)
	assert.ErrorIs(t, err, errors.ErrClosed)
	_, err = w.AddressOf64(off64, 16)
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.ErrorIs(t, w.Rebind64(&off64, unsafe.Pointer(&buf), 16), errors.ErrClosed)
	assert.ErrorIs(t, w.Release64(off64), errors.ErrClosed)
	_, err = w.AddressOf(off, 16)
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.Zero(t, w.Live())
}

func TestNative(t *testing.T) {
	tr := Native()
	assert.Equal(t, NativeMode, tr.Mode())
	if unsafe.Sizeof(uintptr(0)) == 4 {
		assert.Equal(t, assetlayout.Narrow, NativeMode)
	} else {
		assert.Equal(t, assetlayout.Wide, NativeMode)
	}
}
