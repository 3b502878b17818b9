package graph

import (
	"math"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/errors"
)

// Create allocates a zeroed T in graph-owned storage and returns it with an
// offset that refers to it. A zeroed record holds no offsets, so there is
// nothing to register beyond the record itself.
func Create[T any](g *Graph) (*T, assetlayout.Off32, error) {
	p, size, err := allocate[T](g, 1)
	if err != nil {
		return nil, 0, err
	}
	off, err := g.tr.ToOffset(p, size)
	if err != nil {
		_ = g.alloc.Free(p)
		return nil, 0, err
	}
	return (*T)(p), off, nil
}

// Create64 is Create for Off64.
func Create64[T any](g *Graph) (*T, assetlayout.Off64, error) {
	p, size, err := allocate[T](g, 1)
	if err != nil {
		return nil, 0, err
	}
	off, err := g.tr.ToOffset64(p, size)
	if err != nil {
		_ = g.alloc.Free(p)
		return nil, 0, err
	}
	return (*T)(p), off, nil
}

// CreateArray allocates n zeroed elements of T and returns the array
// descriptor together with the elements.
func CreateArray[T any](g *Graph, n uint32) (assetlayout.Arr32, []T, error) {
	if n == 0 {
		return assetlayout.Arr32{}, nil, nil
	}
	p, size, err := allocate[T](g, uint64(n))
	if err != nil {
		return assetlayout.Arr32{}, nil, err
	}
	off, err := g.tr.ToOffset(p, size)
	if err != nil {
		_ = g.alloc.Free(p)
		return assetlayout.Arr32{}, nil, err
	}
	return assetlayout.Arr32{Count: n, Offset: off}, unsafe.Slice((*T)(p), n), nil
}

// CreateArray64 is CreateArray for Arr64.
func CreateArray64[T any](g *Graph, n uint64) (assetlayout.Arr64, []T, error) {
	if n == 0 {
		return assetlayout.Arr64{}, nil, nil
	}
	p, size, err := allocate[T](g, n)
	if err != nil {
		return assetlayout.Arr64{}, nil, err
	}
	off, err := g.tr.ToOffset64(p, size)
	if err != nil {
		_ = g.alloc.Free(p)
		return assetlayout.Arr64{}, nil, err
	}
	return assetlayout.Arr64{Count: n, Offset: off}, unsafe.Slice((*T)(p), n), nil
}

// CreateValues allocates n zeroed scalars. It pairs with DestroyValues.
func CreateValues[T any](g *Graph, n uint32) (assetlayout.Arr32, []T, error) {
	return CreateArray[T](g, n)
}

// CreateValues64 is CreateValues for Arr64.
func CreateValues64[T any](g *Graph, n uint64) (assetlayout.Arr64, []T, error) {
	return CreateArray64[T](g, n)
}

func allocate[T any](g *Graph, n uint64) (unsafe.Pointer, uintptr, error) {
	if err := g.check(); err != nil {
		return nil, 0, err
	}
	elem := max(sizeOf[T](), 1)
	if n > uint64(math.MaxInt)/uint64(elem) {
		return nil, 0, errors.AllocationFailed(errors.PhaseAlloc, uintptr(math.MaxInt), alignOf[T]())
	}
	size := elem * uintptr(n)
	p, err := g.alloc.Alloc(size, alignOf[T]())
	if err != nil {
		return nil, 0, err
	}
	return p, size, nil
}

// Destroy detaches the record *off refers to, releases every offset reached
// from it, frees graph-owned storage and nulls *off.
func Destroy[T any, P Object[T]](g *Graph, off *assetlayout.Off32) error {
	if err := g.check(); err != nil {
		return err
	}
	if *off == 0 {
		return nil
	}
	p, err := g.tr.AddressOf(*off, sizeOf[T]())
	if err != nil {
		return err
	}
	if err := destroy(g, p, 1, visitStructs[T, P]); err != nil {
		return err
	}
	if err := g.tr.Release(*off); err != nil {
		return err
	}
	*off = 0
	return free(g, p)
}

// Destroy64 is Destroy for Off64.
func Destroy64[T any, P Object[T]](g *Graph, off *assetlayout.Off64) error {
	if err := g.check(); err != nil {
		return err
	}
	if *off == 0 {
		return nil
	}
	p, err := g.tr.AddressOf64(*off, sizeOf[T]())
	if err != nil {
		return err
	}
	if err := destroy(g, p, 1, visitStructs[T, P]); err != nil {
		return err
	}
	if err := g.tr.Release64(*off); err != nil {
		return err
	}
	*off = 0
	return free(g, p)
}

// DestroyArray is Destroy for every element of a.
func DestroyArray[T any, P Object[T]](g *Graph, a *assetlayout.Arr32) error {
	items, err := Slice[T](g, *a)
	if err != nil || len(items) == 0 {
		return err
	}
	p := unsafe.Pointer(unsafe.SliceData(items))
	if err := destroy(g, p, uint64(len(items)), visitStructs[T, P]); err != nil {
		return err
	}
	if err := g.tr.Release(a.Offset); err != nil {
		return err
	}
	*a = assetlayout.Arr32{}
	return free(g, p)
}

// DestroyArray64 is DestroyArray for Arr64.
func DestroyArray64[T any, P Object[T]](g *Graph, a *assetlayout.Arr64) error {
	items, err := Slice64[T](g, *a)
	if err != nil || len(items) == 0 {
		return err
	}
	p := unsafe.Pointer(unsafe.SliceData(items))
	if err := destroy(g, p, uint64(len(items)), visitStructs[T, P]); err != nil {
		return err
	}
	if err := g.tr.Release64(a.Offset); err != nil {
		return err
	}
	*a = assetlayout.Arr64{}
	return free(g, p)
}

// DestroyValues releases an array of values that contain no offsets.
func DestroyValues[T any](g *Graph, a *assetlayout.Arr32) error {
	items, err := Slice[T](g, *a)
	if err != nil || len(items) == 0 {
		return err
	}
	if err := g.tr.Release(a.Offset); err != nil {
		return err
	}
	*a = assetlayout.Arr32{}
	return free(g, unsafe.Pointer(unsafe.SliceData(items)))
}

// DestroyValues64 is DestroyValues for Arr64.
func DestroyValues64[T any](g *Graph, a *assetlayout.Arr64) error {
	items, err := Slice64[T](g, *a)
	if err != nil || len(items) == 0 {
		return err
	}
	if err := g.tr.Release64(a.Offset); err != nil {
		return err
	}
	*a = assetlayout.Arr64{}
	return free(g, unsafe.Pointer(unsafe.SliceData(items)))
}

func destroy(g *Graph, p unsafe.Pointer, count uint64, visit visitFn) error {
	if err := g.check(); err != nil {
		return err
	}
	r := newRelocator(detaching, nil, g.tr)
	r.alloc = g.alloc
	if err := visit(r, p, count); err != nil {
		return err
	}
	g.log.Debug("destroyed", zap.Uint64("count", count), zapFields(r), zapLive(g))
	return nil
}

func free(g *Graph, p unsafe.Pointer) error {
	if !g.alloc.Owns(p) {
		return nil
	}
	return g.alloc.Free(p)
}
