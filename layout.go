package assetlayout

import "unsafe"

// Off32 is a 32-bit offset field. In narrow mode its value is an address in
// the graph's 32-bit address space; in wide mode it is a handle-table key.
// Zero is the null offset in both modes.
type Off32 uint32

// Off64 is a 64-bit offset field. It always addresses directly.
type Off64 uint64

// Arr32 describes Count contiguous elements reachable through Offset.
// Offset is meaningless when Count is zero.
type Arr32 struct {
	Count  uint32
	Offset Off32
}

// Arr64 is the 64-bit counterpart of Arr32.
type Arr64 struct {
	Count  uint64
	Offset Off64
}

// Empty reports whether the descriptor has no elements.
func (a Arr32) Empty() bool { return a.Count == 0 }

// Empty reports whether the descriptor has no elements.
func (a Arr64) Empty() bool { return a.Count == 0 }

// On-disk sizes. A mismatch fails the build.
var (
	_ [4]byte  = [unsafe.Sizeof(Off32(0))]byte{}
	_ [8]byte  = [unsafe.Sizeof(Off64(0))]byte{}
	_ [8]byte  = [unsafe.Sizeof(Arr32{})]byte{}
	_ [16]byte = [unsafe.Sizeof(Arr64{})]byte{}
	_ [4]byte  = [unsafe.Alignof(Off32(0))]byte{}
	_ [4]byte  = [unsafe.Offsetof(Arr32{}.Offset)]byte{}
	_ [8]byte  = [unsafe.Offsetof(Arr64{}.Offset)]byte{}
)

// Mode selects how 32-bit offsets become addresses.
type Mode uint8

const (
	// Narrow: the offset value is the address.
	Narrow Mode = iota
	// Wide: the offset value is a key into a handle table.
	Wide
)

func (m Mode) String() string {
	switch m {
	case Narrow:
		return "narrow"
	case Wide:
		return "wide"
	default:
		return "unknown"
	}
}

// Allocator reserves storage for schema structs and arrays.
type Allocator interface {
	// Alloc returns zeroed storage of at least size bytes aligned to align.
	Alloc(size, align uintptr) (unsafe.Pointer, error)
	// Free returns storage obtained from Alloc.
	Free(p unsafe.Pointer) error
	// Owns reports whether p is the start of a live allocation.
	Owns(p unsafe.Pointer) bool
}
