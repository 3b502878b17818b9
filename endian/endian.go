// Package endian converts multi-byte scalars between byte orders.
//
// Reversal is unconditional: callers decide whether a conversion is needed
// with NeedsSwap and which way it goes with DirectionFor.
package endian

import (
	"math/bits"
	"unsafe"
)

// Scalar is any fixed-width multi-byte value stored in an asset file.
type Scalar interface {
	~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

// Swap reverses the bytes of each value in place.
func Swap[T Scalar](vs ...*T) {
	for _, v := range vs {
		swapOne(v)
	}
}

// Slice reverses the bytes of every element of s in place.
func Slice[T Scalar](s []T) {
	for i := range s {
		swapOne(&s[i])
	}
}

// Swapped returns v with its bytes reversed.
func Swapped[T Scalar](v T) T {
	swapOne(&v)
	return v
}

func swapOne[T Scalar](v *T) {
	switch unsafe.Sizeof(*v) {
	case 2:
		p := (*uint16)(unsafe.Pointer(v))
		*p = bits.ReverseBytes16(*p)
	case 4:
		p := (*uint32)(unsafe.Pointer(v))
		*p = bits.ReverseBytes32(*p)
	case 8:
		p := (*uint64)(unsafe.Pointer(v))
		*p = bits.ReverseBytes64(*p)
	}
}

// Direction is the way a conversion moves data.
type Direction uint8

const (
	// ToHost converts file byte order to host byte order. Counts and literal
	// offsets are swapped before they are used.
	ToHost Direction = iota
	// ToFile converts host byte order to file byte order. Counts and literal
	// offsets are swapped after they are used.
	ToFile
)

func (d Direction) String() string {
	if d == ToHost {
		return "to-host"
	}
	return "to-file"
}

// NeedsSwap reports whether data in the given byte order differs from the host.
func NeedsSwap(bigEndian bool) bool {
	return bigEndian != HostBigEndian
}

// DirectionFor returns the direction of a swap whose result is in the target
// byte order. A target equal to the host order means the data is being
// brought in; anything else means it is being written out.
func DirectionFor(targetBigEndian bool) Direction {
	if targetBigEndian == HostBigEndian {
		return ToHost
	}
	return ToFile
}

// Target returns the target byte order of d on this host.
func (d Direction) Target() (bigEndian bool) {
	if d == ToHost {
		return HostBigEndian
	}
	return !HostBigEndian
}
