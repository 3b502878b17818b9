package graph

import (
	"reflect"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/wippyai/assetlayout/errors"
)

// Schema is implemented by every struct that describes an on-disk record.
//
// Swap converts every multi-byte field in place, recursing into nested
// structs and into referents reached through offsets. Relocate lists every
// offset field so the graph can register, release and serialize referents.
type Schema interface {
	Swap(s *Swapper) error
	Relocate(r *Relocator) error
}

// Object constrains a type parameter to pointers to schema structs.
type Object[T any] interface {
	*T
	Schema
}

// CheckLayout verifies that T occupies exactly size bytes. Schema packages
// also pin their sizes at compile time; this form serves generic code that
// registers schemas at run time.
func CheckLayout[T any](size uintptr) error {
	if got := sizeOf[T](); got != size {
		return errors.LayoutMismatch(typeName[T](), got, size)
	}
	return nil
}

func sizeOf[T any]() uintptr {
	var v T
	return unsafe.Sizeof(v)
}

func alignOf[T any]() uintptr {
	var v T
	return unsafe.Alignof(v)
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

// span checks that count elements of T fit in n bytes at p and returns them.
func span[T any](phase errors.Phase, p unsafe.Pointer, n uintptr, count uint64) ([]T, error) {
	size := sizeOf[T]()
	if p == nil || (size != 0 && count > uint64(n/size)) {
		return nil, errors.MalformedCount(phase, typeName[T](), count, size, n)
	}
	return unsafe.Slice((*T)(p), count), nil
}

// extentOf checks count elements of elemSize bytes against n and returns the
// total byte size.
func extentOf(phase errors.Phase, typ string, p unsafe.Pointer, n, elemSize uintptr, count uint64) (uintptr, error) {
	if p == nil || (elemSize != 0 && count > uint64(n/elemSize)) {
		return 0, errors.MalformedCount(phase, typ, count, elemSize, n)
	}
	return elemSize * uintptr(count), nil
}

// cstrlen returns the length of the NUL-terminated string at p, looking at
// no more than n bytes.
func cstrlen(p unsafe.Pointer, n uintptr) (uintptr, bool) {
	for i := uintptr(0); i < n; i++ {
		if *(*byte)(unsafe.Add(p, i)) == 0 {
			return i, true
		}
	}
	return 0, false
}

func unterminated(phase errors.Phase, n uintptr) error {
	return errors.New(phase, errors.KindMalformedCount).
		Type("string").
		Detail("no terminator within %d bytes", n).
		Build()
}

// visited tracks the address ranges a walk has processed. A referent that
// starts inside a processed range was handled as part of it.
type visited struct {
	ranges *roaring64.Bitmap
}

func newVisited() visited {
	return visited{ranges: roaring64.New()}
}

// first reports whether p is not yet covered and marks size bytes from p.
func (v visited) first(p unsafe.Pointer, size uintptr) bool {
	start := uint64(uintptr(p))
	if v.ranges.Contains(start) {
		return false
	}
	v.ranges.AddRange(start, start+uint64(max(size, 1)))
	return true
}
