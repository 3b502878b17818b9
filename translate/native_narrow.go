//go:build 386 || arm || mips || mipsle

package translate

import (
	"unsafe"

	"github.com/wippyai/assetlayout"
)

// NativeMode is the address mode Native selects on this platform.
const NativeMode = assetlayout.Narrow

// Native returns the translator matching the host pointer width: here host
// pointers fit in an Off32 and are stored as-is.
func Native() Translator {
	return Host{}
}

// Host is the narrow translator for 32-bit platforms. Offset values are host
// addresses; no extent is known, so every resolution is unbounded and the
// owning graph must keep referents reachable.
type Host struct{}

func (Host) Mode() assetlayout.Mode { return assetlayout.Narrow }

func (Host) Live() int { return 0 }

func (Host) Extent(off assetlayout.Off32) (unsafe.Pointer, uintptr, error) {
	if off == 0 {
		return nil, 0, nil
	}
	return direct(uint64(off)), Unbounded, nil
}

func (h Host) AddressOf(off assetlayout.Off32, _ uintptr) (unsafe.Pointer, error) {
	p, _, err := h.Extent(off)
	return p, err
}

func (Host) ToOffset(p unsafe.Pointer, _ uintptr) (assetlayout.Off32, error) {
	return assetlayout.Off32(uintptr(p)), nil
}

func (h Host) Rebind(off *assetlayout.Off32, p unsafe.Pointer, size uintptr) error {
	*off, _ = h.ToOffset(p, size)
	return nil
}

func (Host) Release(assetlayout.Off32) error { return nil }

func (Host) Extent64(off assetlayout.Off64) (unsafe.Pointer, uintptr, error) {
	if off == 0 {
		return nil, 0, nil
	}
	return direct(uint64(off)), Unbounded, nil
}

func (h Host) AddressOf64(off assetlayout.Off64, _ uintptr) (unsafe.Pointer, error) {
	p, _, err := h.Extent64(off)
	return p, err
}

func (Host) ToOffset64(p unsafe.Pointer, _ uintptr) (assetlayout.Off64, error) {
	return assetlayout.Off64(uintptr(p)), nil
}

func (h Host) Rebind64(off *assetlayout.Off64, p unsafe.Pointer, size uintptr) error {
	*off, _ = h.ToOffset64(p, size)
	return nil
}

func (Host) Release64(assetlayout.Off64) error { return nil }
