package arena

import (
	"math"
	"slices"
	"unsafe"

	"github.com/wippyai/assetlayout/errors"
)

// Reserved is the number of bytes at the start of a linear region that are
// never handed out, so no allocation has address 0.
const Reserved = 16

// Linear allocates from a fixed byte region. Freed blocks are reused
// first-fit; fresh space is taken from a bump pointer.
type Linear struct {
	mem  []byte
	next uint32
	live map[uint32]uint32
	free []span
}

type span struct {
	off  uint32
	size uint32
}

// NewLinear returns an allocator over mem that hands out addresses at or
// above start. A start below Reserved is raised to Reserved.
func NewLinear(mem []byte, start uint32) *Linear {
	if uint64(len(mem)) > math.MaxUint32 {
		mem = mem[:math.MaxUint32]
	}
	return &Linear{
		mem:  mem,
		next: alignUp(max(start, Reserved), maxAlign),
		live: make(map[uint32]uint32),
	}
}

// Alloc returns zeroed storage for size bytes inside the region.
func (l *Linear) Alloc(size, align uintptr) (unsafe.Pointer, error) {
	if err := checkAlign(align); err != nil {
		return nil, err
	}
	if size > math.MaxUint32 {
		return nil, errors.AllocationFailed(errors.PhaseAlloc, size, align)
	}
	n := uint32(max(size, 1))
	a := uint32(align)

	off, ok := l.reuse(n, a)
	if !ok {
		off = alignUp(l.next, a)
		if uint64(off)+uint64(n) > uint64(len(l.mem)) {
			return nil, errors.AllocationFailed(errors.PhaseAlloc, size, align)
		}
		l.next = off + n
	}

	clear(l.mem[off : off+n])
	l.live[off] = n
	return unsafe.Pointer(&l.mem[off]), nil
}

func (l *Linear) reuse(n, align uint32) (uint32, bool) {
	for i, s := range l.free {
		off := alignUp(s.off, align)
		if uint64(off)+uint64(n) > uint64(s.off)+uint64(s.size) {
			continue
		}
		l.free = slices.Delete(l.free, i, i+1)
		if head := off - s.off; head > 0 {
			l.free = append(l.free, span{off: s.off, size: head})
		}
		if tail := s.off + s.size - (off + n); tail > 0 {
			l.free = append(l.free, span{off: off + n, size: tail})
		}
		return off, true
	}
	return 0, false
}

// Free releases a block obtained from Alloc.
func (l *Linear) Free(p unsafe.Pointer) error {
	off, ok := l.offset(p)
	if !ok {
		return errors.DoubleFree(errors.PhaseAlloc, uintptr(p))
	}
	n, ok := l.live[off]
	if !ok {
		return errors.DoubleFree(errors.PhaseAlloc, uintptr(p))
	}
	delete(l.live, off)
	l.free = append(l.free, span{off: off, size: n})
	return nil
}

// Owns reports whether p starts a live block.
func (l *Linear) Owns(p unsafe.Pointer) bool {
	off, ok := l.offset(p)
	if !ok {
		return false
	}
	_, ok = l.live[off]
	return ok
}

func (l *Linear) offset(p unsafe.Pointer) (uint32, bool) {
	if p == nil || len(l.mem) == 0 {
		return 0, false
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(l.mem)))
	addr := uintptr(p)
	if addr < base || addr-base >= uintptr(len(l.mem)) {
		return 0, false
	}
	return uint32(addr - base), true
}

// Len returns the number of live blocks.
func (l *Linear) Len() int { return len(l.live) }

// High returns the bump pointer: every allocation so far lies below it.
func (l *Linear) High() uint32 { return l.next }

func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
