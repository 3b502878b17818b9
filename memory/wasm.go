// Package memory provides 32-bit address spaces for narrow graphs.
//
// Wasm hosts a WebAssembly linear memory in wazero. Offsets stored by a
// narrow graph over it are plain linear-memory addresses, so guest code
// running against the same memory reads them without translation.
package memory

import (
	"context"
	"encoding/binary"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/graph"
)

// PageSize is the size of one WebAssembly memory page.
const PageSize = 65536

// MaxPages is the largest 32-bit linear memory.
const MaxPages = 65536

// ExportName is the name the memory is exported under.
const ExportName = "memory"

const (
	sectionMemory = 5
	sectionExport = 7
	limitsMinMax  = 0x01
	kindMemory    = 0x02
)

// Wasm is a fixed-size linear memory instantiated in its own runtime.
type Wasm struct {
	rt  wazero.Runtime
	mod api.Module
	mem api.Memory
}

// NewWasm instantiates a memory of pages pages. The memory cannot grow, so
// the slice returned by Bytes stays valid until Close.
func NewWasm(ctx context.Context, pages uint32) (*Wasm, error) {
	if pages == 0 || pages > MaxPages {
		return nil, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Value(pages).
			Detail("page count must be in [1, %d]", MaxPages).
			Build()
	}

	cfg := wazero.NewRuntimeConfig().WithMemoryLimitPages(pages)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	mod, err := rt.Instantiate(ctx, memoryModule(pages))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseAlloc, errors.KindAllocation, err, "instantiate memory module")
	}
	mem := mod.ExportedMemory(ExportName)
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.New(errors.PhaseAlloc, errors.KindAllocation).
			Detail("module does not export %q", ExportName).
			Build()
	}
	return &Wasm{rt: rt, mod: mod, mem: mem}, nil
}

// Bytes returns the whole memory. Writes through it are visible to guests.
func (w *Wasm) Bytes() []byte {
	b, _ := w.mem.Read(0, w.mem.Size())
	return b
}

// Size returns the memory size in bytes.
func (w *Wasm) Size() uint32 { return w.mem.Size() }

// Memory returns the underlying wazero memory.
func (w *Wasm) Memory() api.Memory { return w.mem }

// Graph returns a narrow graph whose address space is the memory.
func (w *Wasm) Graph(opts ...graph.Option) *graph.Graph {
	return graph.NewLinear(w.Bytes(), opts...)
}

// Close tears down the runtime. Graphs over the memory must not be used
// afterwards.
func (w *Wasm) Close(ctx context.Context) error {
	return w.rt.Close(ctx)
}

// memoryModule encodes a module that only defines and exports one memory.
func memoryModule(pages uint32) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	mem := []byte{1, limitsMinMax}
	mem = binary.AppendUvarint(mem, uint64(pages))
	mem = binary.AppendUvarint(mem, uint64(pages))
	out = appendSection(out, sectionMemory, mem)

	exp := []byte{1}
	exp = binary.AppendUvarint(exp, uint64(len(ExportName)))
	exp = append(exp, ExportName...)
	exp = append(exp, kindMemory, 0)
	out = appendSection(out, sectionExport, exp)
	return out
}

func appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = binary.AppendUvarint(out, uint64(len(body)))
	return append(out, body...)
}
