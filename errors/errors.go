package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad      Phase = "load"      // buffer to live graph
	PhaseSave      Phase = "save"      // live graph to image
	PhaseSwap      Phase = "swap"      // byte-order conversion
	PhaseTranslate Phase = "translate" // offset <-> address
	PhaseRelocate  Phase = "relocate"  // attach/detach walks
	PhaseAlloc     Phase = "alloc"     // storage management
	PhaseLayout    Phase = "layout"    // struct size checks
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidHandle  Kind = "invalid_handle"
	KindExhausted      Kind = "exhausted"
	KindMalformedCount Kind = "malformed_count"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindLayout         Kind = "layout"
	KindAllocation     Kind = "allocation"
	KindDoubleFree     Kind = "double_free"
	KindUnsupported    Kind = "unsupported"
	KindInvalidInput   Kind = "invalid_input"
	KindClosed         Kind = "closed"
)

// Sentinels for errors.Is. They match any phase.
var (
	ErrInvalidHandle  = &Error{Kind: KindInvalidHandle}
	ErrExhausted      = &Error{Kind: KindExhausted}
	ErrMalformedCount = &Error{Kind: KindMalformedCount}
	ErrOutOfBounds    = &Error{Kind: KindOutOfBounds}
	ErrLayout         = &Error{Kind: KindLayout}
	ErrAllocation     = &Error{Kind: KindAllocation}
	ErrDoubleFree     = &Error{Kind: KindDoubleFree}
	ErrClosed         = &Error{Kind: KindClosed}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Kinds must match; the phase
// must match only when the target names one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Phase == "" || t.Phase == e.Phase
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Type sets the Go type name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidHandle reports a key that is not currently registered
func InvalidHandle(phase Phase, key uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("handle %d is not registered", key),
		Value:  key,
	}
}

// Exhausted reports that no fresh handle key can be issued
func Exhausted(phase Phase, limit uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindExhausted,
		Detail: fmt.Sprintf("handle table full (%d keys)", limit),
		Value:  limit,
	}
}

// MalformedCount reports an array whose count reaches past its backing storage
func MalformedCount(phase Phase, typ string, count uint64, elemSize, avail uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMalformedCount,
		Type:   typ,
		Detail: fmt.Sprintf("count %d of %d-byte elements exceeds %d available bytes", count, elemSize, avail),
		Value:  count,
	}
}

// OutOfBounds reports an offset or address outside its address space
func OutOfBounds(phase Phase, off uint64, size, limit uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("range [%#x, %#x) outside address space of %d bytes", off, off+size, limit),
		Value:  off,
	}
}

// LayoutMismatch reports a struct whose size differs from its on-disk contract
func LayoutMismatch(typ string, got, want uintptr) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindLayout,
		Type:   typ,
		Detail: fmt.Sprintf("size %d, on-disk size %d", got, want),
		Value:  got,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, align uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", size, align),
	}
}

// DoubleFree reports a release of storage that is not live
func DoubleFree(phase Phase, addr uintptr) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindDoubleFree,
		Detail: fmt.Sprintf("address %#x is not a live allocation", addr),
		Value:  addr,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Closed reports use of a released table or graph
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// At prefixes the error path with a field name. Non-structured errors are
// returned unchanged.
func At(err error, field string) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	e.Path = append([]string{field}, e.Path...)
	return e
}
