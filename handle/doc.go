// Package handle provides the handle table behind wide-address mode.
//
// On a 64-bit host a 32-bit offset field cannot hold a pointer. The table
// maps each 32-bit key to the real address it stands for:
//
//	table := handle.NewTable()
//
//	// Register an address, get a key to store in an offset field
//	key, err := table.Register(unsafe.Pointer(obj), unsafe.Sizeof(*obj))
//
//	// Resolve the key back to the address
//	ptr, err := table.Lookup(key)
//
//	// Point the key at different storage
//	err = table.Update(key, unsafe.Pointer(other), size)
//
//	// Retire the key
//	err = table.Release(key)
//
// # Key Reuse
//
// Keys start at 1 and grow monotonically. Released keys go on a free list and
// are handed out again, most recently released first, so long-running graphs
// with many create/destroy cycles keep a dense table. A key is never issued
// while another registration still holds it; a caller that keeps a released
// key gets ErrInvalidHandle on lookup until the key is reissued.
//
// # Failure Modes
//
// Lookup, Update and Release of an unregistered key return an error matching
// errors.ErrInvalidHandle. Register fails with errors.ErrExhausted when the
// key limit set by WithLimit is reached.
//
// # Observers
//
// Register observers to track handle lifecycle events:
//
//	cancel := table.Subscribe(handle.ObserverFunc(func(e handle.Event) {
//	    log.Printf("%s key %d", e.Type, e.Key)
//	}))
//	defer cancel()
//
// A table is owned by one object graph and is not safe for concurrent use.
package handle
