// Package translate converts between offset values and addresses.
//
// A Translator backs every offset field of one object graph. Narrow
// translators treat the offset value as an address in a 32-bit address
// space; the Wide translator treats it as a handle-table key. Calling code
// never interprets an offset value itself.
package translate

import (
	"unsafe"

	"github.com/wippyai/assetlayout"
)

// Translator maps offset fields to addresses and back.
//
// Sizes passed to AddressOf and ToOffset are the extent of the referent in
// bytes and are bounds-checked where the translator knows the extent of the
// underlying storage. The zero offset and the nil address map to each other.
type Translator interface {
	// Mode reports whether offsets are addresses or keys.
	Mode() assetlayout.Mode

	// AddressOf resolves off to the address of size bytes.
	AddressOf(off assetlayout.Off32, size uintptr) (unsafe.Pointer, error)
	// Extent resolves off and reports how many bytes are addressable from it.
	Extent(off assetlayout.Off32) (unsafe.Pointer, uintptr, error)
	// ToOffset returns an offset value for size bytes at p. In wide mode this
	// registers p and the caller owns the returned key.
	ToOffset(p unsafe.Pointer, size uintptr) (assetlayout.Off32, error)
	// Rebind points *off at p. In wide mode the key stays the same.
	Rebind(off *assetlayout.Off32, p unsafe.Pointer, size uintptr) error
	// Release retires off. It is a no-op in narrow mode.
	Release(off assetlayout.Off32) error

	AddressOf64(off assetlayout.Off64, size uintptr) (unsafe.Pointer, error)
	Extent64(off assetlayout.Off64) (unsafe.Pointer, uintptr, error)
	ToOffset64(p unsafe.Pointer, size uintptr) (assetlayout.Off64, error)
	Rebind64(off *assetlayout.Off64, p unsafe.Pointer, size uintptr) error
	Release64(off assetlayout.Off64) error

	// Live reports outstanding registrations. Narrow translators report 0.
	Live() int
}

// Unbounded is the extent reported when a translator cannot know how much
// storage follows an address.
const Unbounded = ^uintptr(0) >> 1
