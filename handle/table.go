package handle

import (
	"math"
	"reflect"
	"unsafe"

	"github.com/wippyai/assetlayout/errors"
)

// Table maps 32-bit keys to addresses.
//
// A table belongs to one object graph and is not safe for concurrent use.
// Entries hold their addresses as unsafe.Pointer, so registered storage stays
// reachable for the garbage collector until it is released.
type Table struct {
	entries   []entry
	freeList  []Key
	observers []subscription
	nextSub   uint64
	live      int
	limit     uint32
	closed    bool
}

type subscription struct {
	id uint64
	o  Observer
}

type entry struct {
	ptr   unsafe.Pointer
	size  uintptr
	valid bool
}

// NewTable creates an empty table.
func NewTable(opts ...Option) *Table {
	t := &Table{
		limit: math.MaxUint32,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.entries == nil {
		t.entries = make([]entry, 0, 64)
	}
	t.freeList = make([]Key, 0, 16)
	return t
}

// Register stores an address and returns a fresh key. A nil address is
// allowed and acts as a placeholder to be rebound with Update.
func (t *Table) Register(ptr unsafe.Pointer, size uintptr) (Key, error) {
	if t.closed {
		return 0, errors.Closed(errors.PhaseTranslate, "handle table")
	}

	e := entry{
		ptr:   ptr,
		size:  size,
		valid: true,
	}

	var key Key
	if n := len(t.freeList); n > 0 {
		key = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		t.entries[key-1] = e
	} else {
		if uint64(len(t.entries)) >= uint64(t.limit) {
			return 0, errors.Exhausted(errors.PhaseTranslate, t.limit)
		}
		t.entries = append(t.entries, e)
		key = Key(len(t.entries))
	}
	t.live++

	t.notify(Event{Type: EventRegistered, Key: key, Ptr: ptr, Size: size})
	return key, nil
}

// Lookup returns the address registered under key.
func (t *Table) Lookup(key Key) (unsafe.Pointer, error) {
	e, err := t.get(key)
	if err != nil {
		return nil, err
	}
	return e.ptr, nil
}

// Entry returns the address and extent registered under key.
func (t *Table) Entry(key Key) (unsafe.Pointer, uintptr, error) {
	e, err := t.get(key)
	if err != nil {
		return nil, 0, err
	}
	return e.ptr, e.size, nil
}

// Update rebinds key to a new address. The key itself is unchanged.
func (t *Table) Update(key Key, ptr unsafe.Pointer, size uintptr) error {
	e, err := t.get(key)
	if err != nil {
		return err
	}
	e.ptr = ptr
	e.size = size

	t.notify(Event{Type: EventRebound, Key: key, Ptr: ptr, Size: size})
	return nil
}

// Release removes key and makes it eligible for reuse.
func (t *Table) Release(key Key) error {
	e, err := t.get(key)
	if err != nil {
		return err
	}
	ptr, size := e.ptr, e.size
	*e = entry{}
	t.freeList = append(t.freeList, key)
	t.live--

	t.notify(Event{Type: EventReleased, Key: key, Ptr: ptr, Size: size})
	return nil
}

func (t *Table) get(key Key) (*entry, error) {
	if t.closed {
		return nil, errors.Closed(errors.PhaseTranslate, "handle table")
	}
	if key == 0 || int(key) > len(t.entries) {
		return nil, errors.InvalidHandle(errors.PhaseTranslate, uint32(key))
	}
	e := &t.entries[key-1]
	if !e.valid {
		return nil, errors.InvalidHandle(errors.PhaseTranslate, uint32(key))
	}
	return e, nil
}

// Len returns the number of live keys.
func (t *Table) Len() int {
	return t.live
}

// Each iterates over live entries in key order.
func (t *Table) Each(fn func(Key, unsafe.Pointer, uintptr) bool) {
	for i, e := range t.entries {
		if e.valid {
			if !fn(Key(i+1), e.ptr, e.size) {
				return
			}
		}
	}
}

// Subscribe adds an observer for lifecycle events. The returned func
// removes exactly this subscription and works for any observer, including
// an ObserverFunc.
func (t *Table) Subscribe(o Observer) (cancel func()) {
	t.nextSub++
	id := t.nextSub
	t.observers = append(t.observers, subscription{id: id, o: o})
	return func() { t.remove(id) }
}

// Unsubscribe removes the first subscription of o. Observers of an
// incomparable type, such as ObserverFunc, are only removable through the
// func returned by Subscribe.
func (t *Table) Unsubscribe(o Observer) {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return
	}
	for _, sub := range t.observers {
		if reflect.TypeOf(sub.o).Comparable() && sub.o == o {
			t.remove(sub.id)
			return
		}
	}
}

func (t *Table) remove(id uint64) {
	for i, sub := range t.observers {
		if sub.id == id {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Close drops every entry and stops accepting operations.
func (t *Table) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.entries = nil
	t.freeList = nil
	t.live = 0
	return nil
}

func (t *Table) notify(e Event) {
	for _, sub := range t.observers {
		sub.o.OnHandleEvent(e)
	}
}
