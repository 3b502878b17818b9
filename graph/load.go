package graph

import (
	"math"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/assetlayout/arena"
	"github.com/wippyai/assetlayout/endian"
	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/translate"
)

// Load brings a serialized graph into g and returns its root.
//
// data holds the root record at position 0 with every offset relative to
// the start of data, in the byte order named by bigEndian. data is copied;
// the copy lives as long as g. The copy is swapped to host order with
// literal offsets first, then attached so every offset field holds a live
// value of g. A failed Load leaves g as it was: handles registered by the
// attach walk are released and storage taken for the copy is returned.
func Load[T any, P Object[T]](g *Graph, data []byte, bigEndian bool) (*T, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	size := sizeOf[T]()
	if uintptr(len(data)) < size {
		return nil, errors.OutOfBounds(errors.PhaseLoad, 0, uint64(size), uint64(len(data)))
	}

	buf, err := g.place(data)
	if err != nil {
		return nil, err
	}
	raw := translate.NewLinear(buf)
	root := (*T)(unsafe.Pointer(unsafe.SliceData(buf)))

	if endian.NeedsSwap(bigEndian) {
		if err := swapRoot[T, P](raw, root, endian.ToHost, true); err != nil {
			g.unplace(buf)
			return nil, err
		}
	}

	r := newRelocator(attaching, raw, g.tr)
	r.seen.first(unsafe.Pointer(root), sizeOf[T]())
	if err := P(root).Relocate(r); err != nil {
		r.rollback()
		g.unplace(buf)
		g.log.Debug("load failed", zapType[T](), zap.Error(err), zapLive(g))
		return nil, err
	}

	g.log.Debug("loaded graph",
		zapType[T](),
		zap.Int("bytes", len(data)),
		zap.Bool("big_endian", bigEndian),
		zapFields(r),
		zapLive(g))
	return root, nil
}

// place copies data into storage that lives as long as g. Linear graphs
// copy it into their own address space so attached offsets stay inside it.
func (g *Graph) place(data []byte) ([]byte, error) {
	if _, ok := g.tr.(*translate.Linear); ok {
		p, err := g.alloc.Alloc(uintptr(len(data)), 8)
		if err != nil {
			return nil, err
		}
		buf := unsafe.Slice((*byte)(p), len(data))
		copy(buf, data)
		return buf, nil
	}
	buf := alignedBytes(len(data))
	copy(buf, data)
	g.retain(buf)
	return buf, nil
}

// unplace returns storage taken by place.
func (g *Graph) unplace(buf []byte) {
	p := unsafe.SliceData(buf)
	if n := len(g.buffers); n > 0 && unsafe.SliceData(g.buffers[n-1]) == p {
		g.buffers = g.buffers[:n-1]
		return
	}
	_ = free(g, unsafe.Pointer(p))
}

// Map interprets data in place as a narrow graph: offsets are positions in
// data and need no attach pass. Spare capacity of data becomes room for new
// objects. data is swapped to host order in place when bigEndian differs
// from the host; a misaligned data is copied first.
func Map[T any, P Object[T]](data []byte, bigEndian bool, opts ...Option) (*Graph, *T, error) {
	size := sizeOf[T]()
	if uintptr(len(data)) < size {
		return nil, nil, errors.OutOfBounds(errors.PhaseLoad, 0, uint64(size), uint64(len(data)))
	}
	if uint64(cap(data)) > math.MaxUint32 {
		return nil, nil, errors.InvalidInput(errors.PhaseLoad, "buffer exceeds the 32-bit address space")
	}
	if !aligned(data) {
		buf := alignedBytes(len(data))
		copy(buf, data)
		data = buf
	}
	mem := data[:cap(data)]
	g := New(append([]Option{
		WithTranslator(translate.NewLinear(mem)),
		WithAllocator(arena.NewLinear(mem, uint32(len(data)))),
	}, opts...)...)

	root := (*T)(unsafe.Pointer(unsafe.SliceData(mem)))
	if endian.NeedsSwap(bigEndian) {
		if err := swapRoot[T, P](g.tr, root, endian.ToHost, true); err != nil {
			return nil, nil, err
		}
	}
	g.log.Debug("mapped graph", zapType[T](), zap.Int("bytes", len(data)), zap.Int("capacity", len(mem)))
	return g, root, nil
}

// Save serializes the graph rooted at root into one contiguous image in the
// byte order named by bigEndian. Each distinct referent is written once at
// an aligned position; g and root are left untouched.
func Save[T any, P Object[T]](g *Graph, root *T, bigEndian bool) (*Image, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	size := sizeOf[T]()
	w := newWriter(size * 4)
	r := newRelocator(writing, nil, g.tr)
	r.w = w

	copied := (*T)(w.root(unsafe.Pointer(root), size, alignOf[T]()))
	if err := P(copied).Relocate(r); err != nil {
		return nil, err
	}
	if err := w.drain(r); err != nil {
		return nil, err
	}

	data := w.img.bytes()
	if endian.NeedsSwap(bigEndian) {
		if err := SwapImage[T, P](data, endian.ToFile); err != nil {
			return nil, err
		}
	}

	g.log.Debug("saved graph",
		zapType[T](),
		zap.Int("bytes", len(data)),
		zap.Bool("big_endian", bigEndian),
		zap.Int("offsets", w.offsets.Len()))
	return &Image{Data: data, Offsets: w.offsets, BigEndian: bigEndian}, nil
}
