package handle

import "unsafe"

// Key is an opaque 32-bit reference to an address in a table.
// Key 0 is reserved and always invalid, so a zero offset stays null.
type Key uint32

// Event types for handle lifecycle notifications.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventRebound
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventRegistered:
		return "registered"
	case EventRebound:
		return "rebound"
	case EventReleased:
		return "released"
	default:
		return "unknown"
	}
}

// Event represents a handle lifecycle event.
type Event struct {
	Ptr  unsafe.Pointer
	Size uintptr
	Key  Key
	Type EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnHandleEvent calls f(e).
func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }

// Option configures a Table.
type Option func(*Table)

// WithLimit bounds the number of distinct keys the table may issue.
// Released keys are reused and do not count twice.
func WithLimit(n uint32) Option {
	return func(t *Table) {
		if n > 0 {
			t.limit = n
		}
	}
}

// WithCapacity preallocates room for n entries.
func WithCapacity(n int) Option {
	return func(t *Table) {
		if n > 0 {
			t.entries = make([]entry, 0, n)
		}
	}
}
