package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/endian"
	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/graph"
	"github.com/wippyai/assetlayout/memory"
)

type link struct {
	Value uint32
	Next  assetlayout.Off32
}

func (l *link) Swap(s *graph.Swapper) error {
	s.U32(&l.Value)
	return graph.SwapRef[link](s, &l.Next)
}

func (l *link) Relocate(r *graph.Relocator) error {
	return graph.Ref[link](r, &l.Next)
}

func TestWasm_OffsetsAreLinearAddresses(t *testing.T) {
	if endian.HostBigEndian {
		t.Skip("linear memory is little-endian")
	}
	ctx := context.Background()
	w, err := memory.NewWasm(ctx, 1)
	require.NoError(t, err)
	defer w.Close(ctx)
	assert.Equal(t, uint32(memory.PageSize), w.Size())

	g := w.Graph()
	defer g.Close()
	assert.Equal(t, assetlayout.Narrow, g.Mode())

	a, aoff, err := graph.Create[link](g)
	require.NoError(t, err)
	b, boff, err := graph.Create[link](g)
	require.NoError(t, err)
	a.Value, b.Value = 0xcafebabe, 0x01020304
	a.Next = boff

	v, ok := w.Memory().ReadUint32Le(uint32(aoff))
	require.True(t, ok)
	assert.Equal(t, uint32(0xcafebabe), v)
	next, ok := w.Memory().ReadUint32Le(uint32(aoff) + 4)
	require.True(t, ok)
	assert.Equal(t, uint32(boff), next)

	require.True(t, w.Memory().WriteUint32Le(uint32(boff), 42))
	got, err := graph.Get[link](g, a.Next)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), got.Value)

	img, err := graph.Save(g, a, false)
	require.NoError(t, err)
	assert.Len(t, img.Data, 16)
	assert.Equal(t, []uint64{4}, img.Offsets.Positions())
}

func TestWasm_PageBounds(t *testing.T) {
	ctx := context.Background()
	_, err := memory.NewWasm(ctx, 0)
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindInvalidInput})
	_, err = memory.NewWasm(ctx, memory.MaxPages+1)
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindInvalidInput})
}
