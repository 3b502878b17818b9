package translate

import "unsafe"

// direct turns an integer address back into a pointer. Direct offsets are
// only produced for storage the owning graph keeps reachable (loaded buffers,
// arena allocations, pinned referents); this file is the only place the
// module makes that conversion.
func direct(v uint64) unsafe.Pointer {
	return unsafe.Pointer(uintptr(v))
}
