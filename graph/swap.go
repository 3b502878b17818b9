package graph

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/endian"
	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/translate"
)

// Swapper carries the state of one byte-order conversion through a graph.
//
// Going to host order, counts and offsets are converted before they are
// read. Going to file order, they are converted after their referents.
// Either way every count and offset is interpreted in host order.
type Swapper struct {
	tr      translate.Translator
	dir     endian.Direction
	literal bool
	seen    visited
}

func newSwapper(tr translate.Translator, dir endian.Direction, literal bool) *Swapper {
	return &Swapper{tr: tr, dir: dir, literal: literal, seen: newVisited()}
}

// Direction returns the direction of the conversion.
func (s *Swapper) Direction() endian.Direction { return s.dir }

// BigEndian reports whether the conversion produces big-endian data.
func (s *Swapper) BigEndian() bool { return s.dir.Target() }

// Literal reports whether offset fields hold literal positions, in which
// case they are byte-swapped like any other 32 or 64 bit field.
func (s *Swapper) Literal() bool { return s.literal }

// Translator returns the translator used to dereference offsets.
func (s *Swapper) Translator() translate.Translator { return s.tr }

// U16 through F64 swap scalar fields in place.
func (s *Swapper) U16(vs ...*uint16) { endian.Swap(vs...) }
func (s *Swapper) I16(vs ...*int16) { endian.Swap(vs...) }
func (s *Swapper) U32(vs ...*uint32) { endian.Swap(vs...) }
func (s *Swapper) I32(vs ...*int32) { endian.Swap(vs...) }
func (s *Swapper) U64(vs ...*uint64) { endian.Swap(vs...) }
func (s *Swapper) I64(vs ...*int64) { endian.Swap(vs...) }
func (s *Swapper) F32(vs ...*float32) { endian.Swap(vs...) }
func (s *Swapper) F64(vs ...*float64) { endian.Swap(vs...) }

// Off32 swaps offset fields that are not followed by the Swapper, such as
// string offsets. Handle keys are left alone.
func (s *Swapper) Off32(offs ...*assetlayout.Off32) {
	if s.literal {
		endian.Swap(offs...)
	}
}

// Off64 is Off32 for 64-bit offsets.
func (s *Swapper) Off64(offs ...*assetlayout.Off64) {
	if s.literal {
		endian.Swap(offs...)
	}
}

// Struct swaps inline nested structs.
func (s *Swapper) Struct(vs ...Schema) error {
	for _, v := range vs {
		if err := v.Swap(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *Swapper) toHost() bool { return s.dir == endian.ToHost }

// SwapArray swaps a counted array of T, calling elem for each element.
func SwapArray[T any](s *Swapper, a *assetlayout.Arr32, elem func(*Swapper, *T) error) error {
	if s.toHost() {
		endian.Swap(&a.Count)
		s.Off32(&a.Offset)
	}
	if a.Count != 0 {
		p, n, err := s.tr.Extent(a.Offset)
		if err != nil {
			return err
		}
		if err := swapElems(s, p, n, uint64(a.Count), elem); err != nil {
			return err
		}
	}
	if !s.toHost() {
		endian.Swap(&a.Count)
		s.Off32(&a.Offset)
	}
	return nil
}

// SwapArray64 is SwapArray for Arr64.
func SwapArray64[T any](s *Swapper, a *assetlayout.Arr64, elem func(*Swapper, *T) error) error {
	if s.toHost() {
		endian.Swap(&a.Count)
		s.Off64(&a.Offset)
	}
	if a.Count != 0 {
		p, n, err := s.tr.Extent64(a.Offset)
		if err != nil {
			return err
		}
		if err := swapElems(s, p, n, a.Count, elem); err != nil {
			return err
		}
	}
	if !s.toHost() {
		endian.Swap(&a.Count)
		s.Off64(&a.Offset)
	}
	return nil
}

func swapElems[T any](s *Swapper, p unsafe.Pointer, n uintptr, count uint64, elem func(*Swapper, *T) error) error {
	items, err := span[T](errors.PhaseSwap, p, n, count)
	if err != nil {
		return err
	}
	size := sizeOf[T]()
	for i := range items {
		if !s.seen.first(unsafe.Pointer(&items[i]), size) {
			continue
		}
		if err := elem(s, &items[i]); err != nil {
			return errors.At(err, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

// SwapStructs swaps an array of schema structs.
func SwapStructs[T any, P Object[T]](s *Swapper, a *assetlayout.Arr32) error {
	return SwapArray(s, a, swapStruct[T, P])
}

// SwapStructs64 is SwapStructs for Arr64.
func SwapStructs64[T any, P Object[T]](s *Swapper, a *assetlayout.Arr64) error {
	return SwapArray64(s, a, swapStruct[T, P])
}

// SwapValues swaps an array of scalars.
func SwapValues[T endian.Scalar](s *Swapper, a *assetlayout.Arr32) error {
	return SwapArray(s, a, swapValue[T])
}

// SwapValues64 is SwapValues for Arr64.
func SwapValues64[T endian.Scalar](s *Swapper, a *assetlayout.Arr64) error {
	return SwapArray64(s, a, swapValue[T])
}

// SwapRef swaps the struct *off refers to. A null offset is skipped.
func SwapRef[T any, P Object[T]](s *Swapper, off *assetlayout.Off32) error {
	return swapRef32(s, off, swapStruct[T, P])
}

// SwapRef64 is SwapRef for Off64.
func SwapRef64[T any, P Object[T]](s *Swapper, off *assetlayout.Off64) error {
	return swapRef64(s, off, swapStruct[T, P])
}

// SwapValueRef swaps the scalar *off refers to.
func SwapValueRef[T endian.Scalar](s *Swapper, off *assetlayout.Off32) error {
	return swapRef32(s, off, swapValue[T])
}

// SwapValueRef64 is SwapValueRef for Off64.
func SwapValueRef64[T endian.Scalar](s *Swapper, off *assetlayout.Off64) error {
	return swapRef64(s, off, swapValue[T])
}

func swapRef32[T any](s *Swapper, off *assetlayout.Off32, fn func(*Swapper, *T) error) error {
	if s.toHost() {
		s.Off32(off)
	}
	p, err := s.tr.AddressOf(*off, sizeOf[T]())
	if err != nil {
		return err
	}
	if p != nil && s.seen.first(p, sizeOf[T]()) {
		if err := fn(s, (*T)(p)); err != nil {
			return err
		}
	}
	if !s.toHost() {
		s.Off32(off)
	}
	return nil
}

func swapRef64[T any](s *Swapper, off *assetlayout.Off64, fn func(*Swapper, *T) error) error {
	if s.toHost() {
		s.Off64(off)
	}
	p, err := s.tr.AddressOf64(*off, sizeOf[T]())
	if err != nil {
		return err
	}
	if p != nil && s.seen.first(p, sizeOf[T]()) {
		if err := fn(s, (*T)(p)); err != nil {
			return err
		}
	}
	if !s.toHost() {
		s.Off64(off)
	}
	return nil
}

func swapStruct[T any, P Object[T]](s *Swapper, v *T) error {
	return P(v).Swap(s)
}

func swapValue[T endian.Scalar](_ *Swapper, v *T) error {
	endian.Swap(v)
	return nil
}

// Swap converts the graph rooted at root to the byte order named by
// targetBigEndian. Offsets are swapped literally only in narrow graphs.
// Swapping twice in opposite directions restores the original bytes.
func Swap[T any, P Object[T]](g *Graph, root *T, targetBigEndian bool) error {
	if err := g.check(); err != nil {
		return err
	}
	return swapRoot[T, P](g.tr, root, endian.DirectionFor(targetBigEndian), g.tr.Mode() == assetlayout.Narrow)
}

// SwapImage converts a serialized image in place. The root struct sits at
// position 0 and every offset is relative to the start of data.
func SwapImage[T any, P Object[T]](data []byte, dir endian.Direction) error {
	if uintptr(len(data)) < sizeOf[T]() {
		return errors.OutOfBounds(errors.PhaseSwap, 0, uint64(sizeOf[T]()), uint64(len(data)))
	}
	if !aligned(data) {
		return errors.InvalidInput(errors.PhaseSwap, "image buffer is not 8-byte aligned")
	}
	root := (*T)(unsafe.Pointer(unsafe.SliceData(data)))
	return swapRoot[T, P](translate.NewLinear(data), root, dir, true)
}

func swapRoot[T any, P Object[T]](tr translate.Translator, root *T, dir endian.Direction, literal bool) error {
	s := newSwapper(tr, dir, literal)
	s.seen.first(unsafe.Pointer(root), sizeOf[T]())
	return P(root).Swap(s)
}

// SwapCounted swaps count structs at *off for formats that store the count
// apart from the offset. count must already be in host order.
func SwapCounted[T any, P Object[T]](s *Swapper, off *assetlayout.Off32, count uint64) error {
	if s.toHost() {
		s.Off32(off)
	}
	if count != 0 {
		p, n, err := s.tr.Extent(*off)
		if err != nil {
			return err
		}
		if err := swapElems(s, p, n, count, swapStruct[T, P]); err != nil {
			return err
		}
	}
	if !s.toHost() {
		s.Off32(off)
	}
	return nil
}
