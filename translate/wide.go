package translate

import (
	"unsafe"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/handle"
)

// Wide is the translator for hosts whose pointers do not fit in 32 bits.
// Off32 values are keys into a handle table. Off64 values are addresses;
// Wide pins each one it hands out so the referent stays reachable and its
// extent stays known until Release64.
type Wide struct {
	table  *handle.Table
	pins   map[uintptr]pin
	closed bool
}

type pin struct {
	ptr  unsafe.Pointer
	size uintptr
	refs int
}

// NewWide returns a wide translator backed by table.
func NewWide(table *handle.Table) *Wide {
	return &Wide{
		table: table,
		pins:  make(map[uintptr]pin),
	}
}

// Table returns the handle table behind the translator.
func (w *Wide) Table() *handle.Table { return w.table }

func (w *Wide) Mode() assetlayout.Mode { return assetlayout.Wide }

func (w *Wide) Live() int { return w.table.Len() + len(w.pins) }

func (w *Wide) Extent(off assetlayout.Off32) (unsafe.Pointer, uintptr, error) {
	if off == 0 {
		return nil, 0, nil
	}
	return w.table.Entry(handle.Key(off))
}

func (w *Wide) AddressOf(off assetlayout.Off32, size uintptr) (unsafe.Pointer, error) {
	p, n, err := w.Extent(off)
	if err != nil || p == nil {
		return p, err
	}
	if size > n {
		return nil, errors.New(errors.PhaseTranslate, errors.KindOutOfBounds).
			Value(uint32(off)).
			Detail("handle %d covers %d bytes, %d requested", off, n, size).
			Build()
	}
	return p, nil
}

func (w *Wide) ToOffset(p unsafe.Pointer, size uintptr) (assetlayout.Off32, error) {
	if p == nil {
		return 0, nil
	}
	k, err := w.table.Register(p, size)
	if err != nil {
		return 0, err
	}
	return assetlayout.Off32(k), nil
}

func (w *Wide) Rebind(off *assetlayout.Off32, p unsafe.Pointer, size uintptr) error {
	if *off == 0 {
		v, err := w.ToOffset(p, size)
		if err != nil {
			return err
		}
		*off = v
		return nil
	}
	return w.table.Update(handle.Key(*off), p, size)
}

func (w *Wide) Release(off assetlayout.Off32) error {
	if off == 0 {
		return nil
	}
	return w.table.Release(handle.Key(off))
}

func (w *Wide) Extent64(off assetlayout.Off64) (unsafe.Pointer, uintptr, error) {
	if w.closed {
		return nil, 0, errClosed()
	}
	if off == 0 {
		return nil, 0, nil
	}
	if pn, ok := w.pins[uintptr(off)]; ok {
		return pn.ptr, pn.size, nil
	}
	return direct(uint64(off)), Unbounded, nil
}

func (w *Wide) AddressOf64(off assetlayout.Off64, size uintptr) (unsafe.Pointer, error) {
	p, n, err := w.Extent64(off)
	if err != nil || p == nil {
		return p, err
	}
	if size > n {
		return nil, outOfBounds(uint64(off), size, uint64(uintptr(off)+n))
	}
	return p, nil
}

func (w *Wide) ToOffset64(p unsafe.Pointer, size uintptr) (assetlayout.Off64, error) {
	if w.closed {
		return 0, errClosed()
	}
	if p == nil {
		return 0, nil
	}
	addr := uintptr(p)
	pn := w.pins[addr]
	pn.ptr = p
	pn.size = max(pn.size, size)
	pn.refs++
	w.pins[addr] = pn
	return assetlayout.Off64(addr), nil
}

func (w *Wide) Rebind64(off *assetlayout.Off64, p unsafe.Pointer, size uintptr) error {
	v, err := w.ToOffset64(p, size)
	if err != nil {
		return err
	}
	if err := w.Release64(*off); err != nil {
		return err
	}
	*off = v
	return nil
}

func (w *Wide) Release64(off assetlayout.Off64) error {
	if w.closed {
		return errClosed()
	}
	if off == 0 {
		return nil
	}
	addr := uintptr(off)
	pn, ok := w.pins[addr]
	if !ok {
		return nil
	}
	if pn.refs--; pn.refs == 0 {
		delete(w.pins, addr)
	} else {
		w.pins[addr] = pn
	}
	return nil
}

// Close releases the handle table and every pin. Every later call fails
// with an error matching errors.ErrClosed.
func (w *Wide) Close() error {
	w.closed = true
	clear(w.pins)
	return w.table.Close()
}

func errClosed() error {
	return errors.Closed(errors.PhaseTranslate, "handle table")
}
