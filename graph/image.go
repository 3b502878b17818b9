package graph

import (
	"cmp"
	"math"
	"slices"
	"unsafe"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/errors"
)

// Image is a serialized graph. The root record sits at position 0 and every
// offset is relative to the start of Data.
type Image struct {
	Data      []byte
	Offsets   *OffsetTable
	BigEndian bool
}

// OffsetTable lists the positions of the non-null offset fields of an image,
// for containers that store relocation tables next to the data.
type OffsetTable struct {
	positions []uint64
	sorted    bool
}

// NewOffsetTable creates an empty offset table.
func NewOffsetTable() *OffsetTable {
	return &OffsetTable{sorted: true}
}

// Add records an offset field at pos.
func (t *OffsetTable) Add(pos uint64) {
	if n := len(t.positions); n > 0 && t.positions[n-1] > pos {
		t.sorted = false
	}
	t.positions = append(t.positions, pos)
}

// Len returns the number of recorded positions.
func (t *OffsetTable) Len() int { return len(t.positions) }

// Positions returns the recorded positions in ascending order.
func (t *OffsetTable) Positions() []uint64 {
	if !t.sorted {
		slices.Sort(t.positions)
		t.sorted = true
	}
	return t.positions
}

// Contains reports whether an offset field was recorded at pos.
func (t *OffsetTable) Contains(pos uint64) bool {
	_, ok := slices.BinarySearch(t.Positions(), pos)
	return ok
}

// image is a growable buffer whose start is 8-byte aligned.
type image struct {
	words []uint64
	n     uintptr
}

func newImage(capacity uintptr) *image {
	return &image{words: make([]uint64, max((capacity+7)/8, 8))}
}

func (im *image) base() unsafe.Pointer {
	return unsafe.Pointer(unsafe.SliceData(im.words))
}

func (im *image) bytes() []byte {
	return unsafe.Slice((*byte)(im.base()), len(im.words)*8)[:im.n]
}

func (im *image) at(pos uintptr) unsafe.Pointer {
	return unsafe.Add(im.base(), pos)
}

// position returns the image position of p.
func (im *image) position(p unsafe.Pointer) (uintptr, bool) {
	start := uintptr(im.base())
	addr := uintptr(p)
	if addr < start || addr >= start+im.n {
		return 0, false
	}
	return addr - start, true
}

// alloc reserves size bytes at the next multiple of align and returns their
// position. Padding is zero. Pointers into the image are invalidated.
func (im *image) alloc(size, align uintptr) uintptr {
	pos := (im.n + align - 1) &^ (align - 1)
	end := pos + size
	if need := (end + 7) / 8; need > uintptr(len(im.words)) {
		words := make([]uint64, max(need, uintptr(len(im.words))*2))
		copy(words, im.words)
		im.words = words
	}
	im.n = end
	return pos
}

type pending struct {
	field uintptr // image position of the offset field
	wide  bool
	src   unsafe.Pointer
	size  uintptr
	align uintptr
	count uint64
	visit visitFn
}

// region is live memory already copied into the image at pos.
type region struct {
	addr uintptr
	size uintptr
	pos  uintptr
}

// link is a patched offset field and the live bytes it refers to.
type link struct {
	field uintptr
	wide  bool
	addr  uintptr
	size  uintptr
}

// writer lays referents out breadth-first. Live memory is copied once; a
// field whose referent lies inside copied memory points into that copy.
// When a later referent covers memory that was copied on its own, the
// larger copy wins and fields are relinked to it once the queue drains.
type writer struct {
	img     *image
	queue   []pending
	written []region // sorted by addr, none contained in another
	links   []link
	offsets *OffsetTable
}

func newWriter(capacity uintptr) *writer {
	return &writer{
		img:     newImage(capacity),
		offsets: NewOffsetTable(),
	}
}

// lookup returns the image position of size bytes at addr if they were
// copied already.
func (w *writer) lookup(addr, size uintptr) (uintptr, bool) {
	i, found := slices.BinarySearchFunc(w.written, addr, func(r region, a uintptr) int {
		return cmp.Compare(r.addr, a)
	})
	if !found {
		if i == 0 {
			return 0, false
		}
		i--
	}
	r := w.written[i]
	if addr+size > r.addr+r.size {
		return 0, false
	}
	return r.pos + (addr - r.addr), true
}

// record adds a copied region. Regions it contains are dropped so lookups
// resolve into the enclosing copy.
func (w *writer) record(addr, size, pos uintptr) {
	i, _ := slices.BinarySearchFunc(w.written, addr, func(r region, a uintptr) int {
		return cmp.Compare(r.addr, a)
	})
	j := i
	for j < len(w.written) && w.written[j].addr+w.written[j].size <= addr+size {
		j++
	}
	w.written = slices.Replace(w.written, i, j, region{addr: addr, size: size, pos: pos})
}

func (w *writer) push(p pending) {
	w.queue = append(w.queue, p)
}

// root copies the root record to position 0 and returns the copy.
func (w *writer) root(src unsafe.Pointer, size, align uintptr) unsafe.Pointer {
	pos := w.img.alloc(size, align)
	copy(unsafe.Slice((*byte)(w.img.at(pos)), size), unsafe.Slice((*byte)(src), size))
	w.record(uintptr(src), size, pos)
	return w.img.at(pos)
}

func (w *writer) drain(r *Relocator) error {
	for len(w.queue) > 0 {
		it := w.queue[0]
		w.queue = w.queue[1:]

		pos, done := w.lookup(uintptr(it.src), it.size)
		if !done {
			pos = w.img.alloc(it.size, it.align)
			copy(unsafe.Slice((*byte)(w.img.at(pos)), it.size), unsafe.Slice((*byte)(it.src), it.size))
			w.record(uintptr(it.src), it.size, pos)
			if it.visit != nil {
				if err := it.visit(r, w.img.at(pos), it.count); err != nil {
					return err
				}
			}
		}
		if err := w.patch(it.field, it.wide, pos); err != nil {
			return err
		}
		w.links = append(w.links, link{field: it.field, wide: it.wide, addr: uintptr(it.src), size: it.size})
	}
	return w.relink()
}

// relink points every patched field at the enclosing copy of its referent.
func (w *writer) relink() error {
	for _, l := range w.links {
		pos, ok := w.lookup(l.addr, l.size)
		if !ok {
			continue
		}
		if err := w.store(l.field, l.wide, pos); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) patch(field uintptr, wide bool, pos uintptr) error {
	if err := w.store(field, wide, pos); err != nil {
		return err
	}
	w.offsets.Add(uint64(field))
	return nil
}

func (w *writer) store(field uintptr, wide bool, pos uintptr) error {
	if pos == 0 {
		return errors.InvalidInput(errors.PhaseSave, "offset refers to the root record at position 0")
	}
	if wide {
		*(*assetlayout.Off64)(w.img.at(field)) = assetlayout.Off64(pos)
	} else {
		if uint64(pos) > math.MaxUint32 {
			return errors.OutOfBounds(errors.PhaseSave, uint64(pos), 0, math.MaxUint32)
		}
		*(*assetlayout.Off32)(w.img.at(field)) = assetlayout.Off32(pos)
	}
	return nil
}
