package graph

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/translate"
)

type relocMode uint8

const (
	// attaching converts raw file-relative offsets into live offsets.
	attaching relocMode = iota
	// detaching releases live offsets, children first.
	detaching
	// writing copies referents into an image and patches file offsets.
	writing
)

func (m relocMode) phase() errors.Phase {
	switch m {
	case attaching:
		return errors.PhaseLoad
	case writing:
		return errors.PhaseSave
	default:
		return errors.PhaseRelocate
	}
}

// Relocator walks the offset fields of a graph. Schema Relocate methods
// report each field through Ref, Array, Values, Value or String and the
// Relocator decides what happens to it.
type Relocator struct {
	mode   relocMode
	raw    translate.Translator // file-relative space; nil detaches to null
	live   translate.Translator
	alloc  assetlayout.Allocator // detach frees storage it owns
	seen   visited
	w      *writer
	fields int
	issued []issued // live offsets registered by an attach walk
}

type issued struct {
	v    uint64
	wide bool
}

func newRelocator(mode relocMode, raw, live translate.Translator) *Relocator {
	return &Relocator{mode: mode, raw: raw, live: live, seen: newVisited()}
}

// Fields returns the number of non-null offset fields visited so far.
func (r *Relocator) Fields() int { return r.fields }

type visitFn func(r *Relocator, p unsafe.Pointer, count uint64) error

// target describes what an offset field refers to.
type target struct {
	typ   string
	size  uintptr // element size
	align uintptr
	count uint64
	str   bool // NUL-terminated bytes; size and count are ignored
	visit visitFn
}

func (t target) bytes(phase errors.Phase, p unsafe.Pointer, n uintptr) (uintptr, error) {
	if !t.str {
		return extentOf(phase, t.typ, p, n, t.size, t.count)
	}
	if p == nil {
		return 0, unterminated(phase, 0)
	}
	l, ok := cstrlen(p, n)
	if !ok {
		return 0, unterminated(phase, n)
	}
	return l + 1, nil
}

// relocate handles one offset field holding v and returns its new value.
// On failure the returned value is whatever the field should keep.
func (r *Relocator) relocate(v uint64, wide bool, field unsafe.Pointer, t target) (uint64, error) {
	if v == 0 {
		return 0, nil
	}
	r.fields++
	switch r.mode {
	case attaching:
		return r.attach(v, wide, t)
	case detaching:
		return r.detach(v, wide, t)
	default:
		return v, r.enqueue(v, wide, field, t)
	}
}

func (r *Relocator) attach(v uint64, wide bool, t target) (uint64, error) {
	p, n, err := extent(r.raw, v, wide)
	if err != nil {
		return v, err
	}
	size, err := t.bytes(errors.PhaseLoad, p, n)
	if err != nil {
		return v, err
	}
	off, err := toOffset(r.live, p, size, wide)
	if err != nil {
		return v, err
	}
	r.issued = append(r.issued, issued{v: off, wide: wide})
	if t.visit != nil {
		if err := t.visit(r, p, t.count); err != nil {
			return off, err
		}
	}
	return off, nil
}

func (r *Relocator) detach(v uint64, wide bool, t target) (uint64, error) {
	p, n, err := extent(r.live, v, wide)
	if err != nil {
		return v, err
	}
	size, err := t.bytes(errors.PhaseRelocate, p, n)
	if err != nil {
		return v, err
	}
	if t.visit != nil {
		if err := t.visit(r, p, t.count); err != nil {
			return v, err
		}
	}
	var raw uint64
	if r.raw != nil {
		if raw, err = toOffset(r.raw, p, size, wide); err != nil {
			return v, err
		}
	}
	if err := release(r.live, v, wide); err != nil {
		return v, err
	}
	if r.alloc != nil && r.alloc.Owns(p) {
		if err := r.alloc.Free(p); err != nil {
			return raw, err
		}
	}
	return raw, nil
}

func (r *Relocator) enqueue(v uint64, wide bool, field unsafe.Pointer, t target) error {
	p, n, err := extent(r.live, v, wide)
	if err != nil {
		return err
	}
	size, err := t.bytes(errors.PhaseSave, p, n)
	if err != nil {
		return err
	}
	align := t.align
	if t.str || align == 0 {
		align = 1
	}
	pos, ok := r.w.img.position(field)
	if !ok {
		return errors.InvalidInput(errors.PhaseSave, "offset field outside the image being written")
	}
	r.w.push(pending{
		field: pos,
		wide:  wide,
		src:   p,
		size:  size,
		align: align,
		count: t.count,
		visit: t.visit,
	})
	return nil
}

func extent(tr translate.Translator, v uint64, wide bool) (unsafe.Pointer, uintptr, error) {
	if wide {
		return tr.Extent64(assetlayout.Off64(v))
	}
	return tr.Extent(assetlayout.Off32(v))
}

func toOffset(tr translate.Translator, p unsafe.Pointer, size uintptr, wide bool) (uint64, error) {
	if wide {
		off, err := tr.ToOffset64(p, size)
		return uint64(off), err
	}
	off, err := tr.ToOffset(p, size)
	return uint64(off), err
}

func release(tr translate.Translator, v uint64, wide bool) error {
	if wide {
		return tr.Release64(assetlayout.Off64(v))
	}
	return tr.Release(assetlayout.Off32(v))
}

// rollback releases every live offset the walk registered, newest first.
func (r *Relocator) rollback() {
	for i := len(r.issued) - 1; i >= 0; i-- {
		_ = release(r.live, r.issued[i].v, r.issued[i].wide)
	}
	r.issued = nil
}

func (r *Relocator) off32(off *assetlayout.Off32, t target) error {
	v, err := r.relocate(uint64(*off), false, unsafe.Pointer(off), t)
	*off = assetlayout.Off32(v)
	return err
}

func (r *Relocator) off64(off *assetlayout.Off64, t target) error {
	v, err := r.relocate(uint64(*off), true, unsafe.Pointer(off), t)
	*off = assetlayout.Off64(v)
	return err
}

// clearEmpty drops the offset of an empty array outside of detach walks.
// Its value is undefined and must not be followed or written out.
func (r *Relocator) clearEmpty() bool {
	return r.mode != detaching
}

func structs[T any, P Object[T]](count uint64) target {
	return target{typ: typeName[T](), size: sizeOf[T](), align: alignOf[T](), count: count, visit: visitStructs[T, P]}
}

func values[T any](count uint64) target {
	return target{typ: typeName[T](), size: sizeOf[T](), align: alignOf[T](), count: count}
}

func visitStructs[T any, P Object[T]](r *Relocator, p unsafe.Pointer, count uint64) error {
	items := unsafe.Slice((*T)(p), count)
	size := sizeOf[T]()
	for i := range items {
		// Save visits each image region exactly once from drain, and image
		// addresses do not survive growth, so only live walks dedup here.
		if r.mode != writing && !r.seen.first(unsafe.Pointer(&items[i]), size) {
			continue
		}
		if err := P(&items[i]).Relocate(r); err != nil {
			return errors.At(err, fmt.Sprintf("[%d]", i))
		}
	}
	return nil
}

// Ref reports a single struct referent.
func Ref[T any, P Object[T]](r *Relocator, off *assetlayout.Off32) error {
	return r.off32(off, structs[T, P](1))
}

// Ref64 is Ref for Off64.
func Ref64[T any, P Object[T]](r *Relocator, off *assetlayout.Off64) error {
	return r.off64(off, structs[T, P](1))
}

// Array reports an array of structs.
func Array[T any, P Object[T]](r *Relocator, a *assetlayout.Arr32) error {
	if a.Count == 0 {
		if r.clearEmpty() {
			a.Offset = 0
		}
		return nil
	}
	return r.off32(&a.Offset, structs[T, P](uint64(a.Count)))
}

// Array64 is Array for Arr64.
func Array64[T any, P Object[T]](r *Relocator, a *assetlayout.Arr64) error {
	if a.Count == 0 {
		if r.clearEmpty() {
			a.Offset = 0
		}
		return nil
	}
	return r.off64(&a.Offset, structs[T, P](a.Count))
}

// Values reports an array of values that contain no offsets.
func Values[T any](r *Relocator, a *assetlayout.Arr32) error {
	if a.Count == 0 {
		if r.clearEmpty() {
			a.Offset = 0
		}
		return nil
	}
	return r.off32(&a.Offset, values[T](uint64(a.Count)))
}

// Values64 is Values for Arr64.
func Values64[T any](r *Relocator, a *assetlayout.Arr64) error {
	if a.Count == 0 {
		if r.clearEmpty() {
			a.Offset = 0
		}
		return nil
	}
	return r.off64(&a.Offset, values[T](a.Count))
}

// Value reports a single value that contains no offsets.
func Value[T any](r *Relocator, off *assetlayout.Off32) error {
	return r.off32(off, values[T](1))
}

// Value64 is Value for Off64.
func Value64[T any](r *Relocator, off *assetlayout.Off64) error {
	return r.off64(off, values[T](1))
}

// String reports a NUL-terminated string.
func (r *Relocator) String(off *assetlayout.Off32) error {
	return r.off32(off, target{typ: "string", str: true})
}

// String64 is String for Off64.
func (r *Relocator) String64(off *assetlayout.Off64) error {
	return r.off64(off, target{typ: "string", str: true})
}

// Attach converts the raw offsets of the graph at root, resolved through
// raw, into live offsets of g. Each distinct referent is visited once.
// On failure every offset registered so far is released again and the
// fields of root are left in a mix of raw and released values, so root
// must be discarded.
func Attach[T any, P Object[T]](g *Graph, root *T, raw translate.Translator) error {
	if err := g.check(); err != nil {
		return err
	}
	r := newRelocator(attaching, raw, g.tr)
	r.seen.first(unsafe.Pointer(root), sizeOf[T]())
	if err := P(root).Relocate(r); err != nil {
		r.rollback()
		return err
	}
	g.log.Debug("attached graph", zapType[T](), zapFields(r), zapLive(g))
	return nil
}

// Detach releases every live offset of the graph at root. When raw is set
// the fields are rewritten to raw offsets, otherwise they are zeroed.
// Referents are not freed.
func Detach[T any, P Object[T]](g *Graph, root *T, raw translate.Translator) error {
	if err := g.check(); err != nil {
		return err
	}
	r := newRelocator(detaching, raw, g.tr)
	r.seen.first(unsafe.Pointer(root), sizeOf[T]())
	if err := P(root).Relocate(r); err != nil {
		return err
	}
	g.log.Debug("detached graph", zapType[T](), zapFields(r), zapLive(g))
	return nil
}

// Counted reports count structs at *off for formats that store the count
// apart from the offset.
func Counted[T any, P Object[T]](r *Relocator, off *assetlayout.Off32, count uint64) error {
	if count == 0 {
		if r.clearEmpty() {
			*off = 0
		}
		return nil
	}
	return r.off32(off, structs[T, P](count))
}
