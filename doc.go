// Package assetlayout provides offset-addressed, endian-correct access to
// binary game-asset files.
//
// Asset formats store references as file-relative offsets and may be authored
// in either byte order. This module lets calling code treat a loaded buffer as
// a graph of Go structs navigable through those offsets, on 32-bit and 64-bit
// hosts alike, and flattens such a graph back into on-disk form.
//
// # Architecture Overview
//
//	assetlayout/        Root package with offset value types and the Allocator interface
//	├── errors/         Structured error types (phase + kind)
//	├── handle/         Handle table mapping 32-bit keys to addresses
//	├── endian/         Host byte order and scalar byte reversal
//	├── translate/      Offset <-> address translation (narrow and wide modes)
//	├── arena/          Heap and linear-memory allocators
//	├── graph/          Object graphs: swap protocol, lifecycle, load and save
//	├── memory/         WebAssembly linear memory as a narrow address space
//	├── rfl/            Sample schema structs
//	└── cmd/inspect/    Command line inspector
//
// # Address Modes
//
// A 32-bit offset cannot hold a 64-bit pointer. In narrow mode the offset is
// an address inside a 32-bit address space (a linear memory, a mapped file, or
// the host itself on 32-bit platforms). In wide mode the offset is an opaque
// key into a handle table owned by the graph:
//
//	g := graph.NewWide()            // one handle table per graph
//	defer g.Close()
//
//	root, err := graph.Load[Stage](g, data, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	objs, err := graph.Slice[Object](g, root.Objects)
//
// # Schema Structs
//
// A schema struct declares its on-disk layout with fixed-width fields and
// implements two methods:
//
//	type Stage struct {
//	    Version uint32
//	    Objects assetlayout.Arr32
//	}
//
//	func (s *Stage) Swap(sw *graph.Swapper) error {
//	    sw.U32(&s.Version)
//	    return graph.SwapStructs[Object](sw, &s.Objects)
//	}
//
//	func (s *Stage) Relocate(r *graph.Relocator) error {
//	    return graph.Array[Object](r, &s.Objects)
//	}
//
// Swap performs the byte-order conversion; Relocate lists the offset fields so
// the graph can register, release and serialize them.
package assetlayout
