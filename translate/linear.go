package translate

import (
	"math"
	"unsafe"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/errors"
)

// Linear is a narrow translator over a byte region. An offset value is the
// byte position of the referent inside the region, exactly as it is stored
// in a file or in a WebAssembly linear memory. Position 0 is null.
type Linear struct {
	mem []byte
}

// NewLinear returns a narrow translator over mem. Regions larger than 4 GiB
// are truncated to the 32-bit address space for Off32 and kept whole for Off64.
func NewLinear(mem []byte) *Linear {
	return &Linear{mem: mem}
}

// Bytes returns the underlying region.
func (l *Linear) Bytes() []byte { return l.mem }

// Remap replaces the region, e.g. after the backing memory was grown.
// Offsets stay valid because they are relative to the region start.
func (l *Linear) Remap(mem []byte) { l.mem = mem }

func (l *Linear) Mode() assetlayout.Mode { return assetlayout.Narrow }

func (l *Linear) Live() int { return 0 }

func (l *Linear) limit() uint64 { return uint64(len(l.mem)) }

func (l *Linear) limit32() uint64 {
	return min(uint64(len(l.mem)), math.MaxUint32+1)
}

func (l *Linear) Extent(off assetlayout.Off32) (unsafe.Pointer, uintptr, error) {
	return l.extent(uint64(off), l.limit32())
}

func (l *Linear) Extent64(off assetlayout.Off64) (unsafe.Pointer, uintptr, error) {
	return l.extent(uint64(off), l.limit())
}

func (l *Linear) extent(off, limit uint64) (unsafe.Pointer, uintptr, error) {
	if off == 0 {
		return nil, 0, nil
	}
	if off >= limit {
		return nil, 0, outOfBounds(off, 1, limit)
	}
	return unsafe.Pointer(&l.mem[off]), uintptr(limit - off), nil
}

func (l *Linear) AddressOf(off assetlayout.Off32, size uintptr) (unsafe.Pointer, error) {
	p, n, err := l.Extent(off)
	if err != nil || p == nil {
		return p, err
	}
	if size > n {
		return nil, outOfBounds(uint64(off), size, l.limit32())
	}
	return p, nil
}

func (l *Linear) AddressOf64(off assetlayout.Off64, size uintptr) (unsafe.Pointer, error) {
	p, n, err := l.Extent64(off)
	if err != nil || p == nil {
		return p, err
	}
	if size > n {
		return nil, outOfBounds(uint64(off), size, l.limit())
	}
	return p, nil
}

// position returns the byte position of p inside the region.
func (l *Linear) position(p unsafe.Pointer, size uintptr, limit uint64) (uint64, error) {
	if len(l.mem) == 0 {
		return 0, errors.InvalidInput(errors.PhaseTranslate, "empty linear region")
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(l.mem)))
	addr := uintptr(p)
	if addr < base {
		return 0, errors.New(errors.PhaseTranslate, errors.KindOutOfBounds).
			Detail("address %#x below linear region at %#x", addr, base).
			Build()
	}
	pos := uint64(addr - base)
	if pos+uint64(size) > limit {
		return 0, outOfBounds(pos, size, limit)
	}
	return pos, nil
}

func (l *Linear) ToOffset(p unsafe.Pointer, size uintptr) (assetlayout.Off32, error) {
	if p == nil {
		return 0, nil
	}
	pos, err := l.position(p, size, l.limit32())
	if err != nil {
		return 0, err
	}
	return assetlayout.Off32(pos), nil
}

func (l *Linear) ToOffset64(p unsafe.Pointer, size uintptr) (assetlayout.Off64, error) {
	if p == nil {
		return 0, nil
	}
	pos, err := l.position(p, size, l.limit())
	if err != nil {
		return 0, err
	}
	return assetlayout.Off64(pos), nil
}

func (l *Linear) Rebind(off *assetlayout.Off32, p unsafe.Pointer, size uintptr) error {
	v, err := l.ToOffset(p, size)
	if err != nil {
		return err
	}
	*off = v
	return nil
}

func (l *Linear) Rebind64(off *assetlayout.Off64, p unsafe.Pointer, size uintptr) error {
	v, err := l.ToOffset64(p, size)
	if err != nil {
		return err
	}
	*off = v
	return nil
}

func (l *Linear) Release(assetlayout.Off32) error { return nil }

func (l *Linear) Release64(assetlayout.Off64) error { return nil }

func outOfBounds(off uint64, size uintptr, limit uint64) error {
	return errors.OutOfBounds(errors.PhaseTranslate, off, uint64(size), limit)
}
