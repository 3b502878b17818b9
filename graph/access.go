package graph

import (
	"math"
	"unsafe"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/errors"
)

// Get resolves off to a *T. The null offset yields nil.
func Get[T any](g *Graph, off assetlayout.Off32) (*T, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	p, err := g.tr.AddressOf(off, sizeOf[T]())
	if err != nil {
		return nil, err
	}
	return (*T)(p), nil
}

// Get64 is Get for Off64.
func Get64[T any](g *Graph, off assetlayout.Off64) (*T, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	p, err := g.tr.AddressOf64(off, sizeOf[T]())
	if err != nil {
		return nil, err
	}
	return (*T)(p), nil
}

// Slice resolves a to its elements. An empty array yields nil without
// looking at its offset.
func Slice[T any](g *Graph, a assetlayout.Arr32) ([]T, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		return nil, nil
	}
	p, n, err := g.tr.Extent(a.Offset)
	if err != nil {
		return nil, err
	}
	return span[T](errors.PhaseTranslate, p, n, uint64(a.Count))
}

// Slice64 is Slice for Arr64.
func Slice64[T any](g *Graph, a assetlayout.Arr64) ([]T, error) {
	if err := g.check(); err != nil {
		return nil, err
	}
	if a.Count == 0 {
		return nil, nil
	}
	p, n, err := g.tr.Extent64(a.Offset)
	if err != nil {
		return nil, err
	}
	return span[T](errors.PhaseTranslate, p, n, a.Count)
}

// String reads the NUL-terminated string off refers to.
func String(g *Graph, off assetlayout.Off32) (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}
	p, n, err := g.tr.Extent(off)
	if err != nil {
		return "", err
	}
	return readString(p, n)
}

// String64 is String for Off64.
func String64(g *Graph, off assetlayout.Off64) (string, error) {
	if err := g.check(); err != nil {
		return "", err
	}
	p, n, err := g.tr.Extent64(off)
	if err != nil {
		return "", err
	}
	return readString(p, n)
}

func readString(p unsafe.Pointer, n uintptr) (string, error) {
	if p == nil {
		return "", nil
	}
	l, ok := cstrlen(p, n)
	if !ok {
		return "", unterminated(errors.PhaseTranslate, n)
	}
	return string(unsafe.Slice((*byte)(p), l)), nil
}

// Set points *off at v. A nil v stores the null offset.
func Set[T any](g *Graph, off *assetlayout.Off32, v *T) error {
	if err := g.check(); err != nil {
		return err
	}
	if v == nil {
		return clear32(g, off)
	}
	return g.tr.Rebind(off, unsafe.Pointer(v), sizeOf[T]())
}

// Set64 is Set for Off64.
func Set64[T any](g *Graph, off *assetlayout.Off64, v *T) error {
	if err := g.check(); err != nil {
		return err
	}
	if v == nil {
		if *off != 0 {
			if err := g.tr.Release64(*off); err != nil {
				return err
			}
		}
		*off = 0
		return nil
	}
	return g.tr.Rebind64(off, unsafe.Pointer(v), sizeOf[T]())
}

// SetSlice points a at the elements of s. The caller keeps s alive for as
// long as a is in use.
func SetSlice[T any](g *Graph, a *assetlayout.Arr32, s []T) error {
	if err := g.check(); err != nil {
		return err
	}
	if len(s) == 0 {
		a.Count = 0
		return clear32(g, &a.Offset)
	}
	if uint64(len(s)) > math.MaxUint32 {
		return errors.InvalidInput(errors.PhaseTranslate, "slice too long for a 32-bit count")
	}
	if err := g.tr.Rebind(&a.Offset, unsafe.Pointer(unsafe.SliceData(s)), sizeOf[T]()*uintptr(len(s))); err != nil {
		return err
	}
	a.Count = uint32(len(s))
	return nil
}

// SetSlice64 is SetSlice for Arr64.
func SetSlice64[T any](g *Graph, a *assetlayout.Arr64, s []T) error {
	if err := g.check(); err != nil {
		return err
	}
	if len(s) == 0 {
		a.Count = 0
		return Set64[T](g, &a.Offset, nil)
	}
	if err := g.tr.Rebind64(&a.Offset, unsafe.Pointer(unsafe.SliceData(s)), sizeOf[T]()*uintptr(len(s))); err != nil {
		return err
	}
	a.Count = uint64(len(s))
	return nil
}

// SetString stores s, NUL-terminated, in graph-owned storage and points
// *off at it.
func SetString(g *Graph, off *assetlayout.Off32, s string) error {
	if err := g.check(); err != nil {
		return err
	}
	p, err := g.alloc.Alloc(uintptr(len(s))+1, 1)
	if err != nil {
		return err
	}
	b := unsafe.Slice((*byte)(p), len(s)+1)
	copy(b, s)
	b[len(s)] = 0
	if err := clear32(g, off); err != nil {
		return err
	}
	return g.tr.Rebind(off, p, uintptr(len(b)))
}

func clear32(g *Graph, off *assetlayout.Off32) error {
	if *off != 0 {
		if err := g.tr.Release(*off); err != nil {
			return err
		}
	}
	*off = 0
	return nil
}
