package graph

import (
	"io"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/arena"
	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/handle"
	"github.com/wippyai/assetlayout/translate"
)

// Graph owns the translation state of one object graph: the translator its
// offset fields go through, the allocator its lifecycle helpers use and every
// buffer it has loaded.
//
// A Graph is used by one goroutine at a time. Independent graphs share
// nothing and may be processed concurrently.
type Graph struct {
	tr      translate.Translator
	alloc   assetlayout.Allocator
	log     *zap.Logger
	buffers [][]byte
	closed  bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the graph's logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.log = l
		}
	}
}

// WithTranslator selects the address mode by supplying its translator.
func WithTranslator(tr translate.Translator) Option {
	return func(g *Graph) {
		g.tr = tr
	}
}

// WithAllocator sets the allocator used by Create and Destroy.
func WithAllocator(a assetlayout.Allocator) Option {
	return func(g *Graph) {
		g.alloc = a
	}
}

// New creates a graph. Without options it uses translate.Native() and a heap
// allocator, or a linear allocator when the translator is linear.
func New(opts ...Option) *Graph {
	g := &Graph{log: Logger()}
	for _, opt := range opts {
		opt(g)
	}
	if g.tr == nil {
		g.tr = translate.Native()
	}
	if g.alloc == nil {
		if l, ok := g.tr.(*translate.Linear); ok {
			g.alloc = arena.NewLinear(l.Bytes(), 0)
		} else {
			g.alloc = arena.NewHeap()
		}
	}
	return g
}

// NewWide creates a wide-mode graph with its own handle table.
func NewWide(opts ...Option) *Graph {
	return New(append([]Option{WithTranslator(translate.NewWide(handle.NewTable()))}, opts...)...)
}

// NewLinear creates a narrow-mode graph whose address space is mem.
// New objects are allocated inside mem.
func NewLinear(mem []byte, opts ...Option) *Graph {
	return New(append([]Option{
		WithTranslator(translate.NewLinear(mem)),
		WithAllocator(arena.NewLinear(mem, 0)),
	}, opts...)...)
}

// Translator returns the graph's translator.
func (g *Graph) Translator() translate.Translator { return g.tr }

// Allocator returns the graph's allocator.
func (g *Graph) Allocator() assetlayout.Allocator { return g.alloc }

// Mode returns the graph's address mode.
func (g *Graph) Mode() assetlayout.Mode { return g.tr.Mode() }

// Live returns the number of outstanding handle registrations.
func (g *Graph) Live() int { return g.tr.Live() }

// Table returns the handle table of a wide graph, or nil.
func (g *Graph) Table() *handle.Table {
	if w, ok := g.tr.(*translate.Wide); ok {
		return w.Table()
	}
	return nil
}

// Rebind points *off at size bytes at p.
func (g *Graph) Rebind(off *assetlayout.Off32, p unsafe.Pointer, size uintptr) error {
	if err := g.check(); err != nil {
		return err
	}
	return g.tr.Rebind(off, p, size)
}

// Close releases the handle table and every retained buffer. Offsets of the
// graph must not be used afterwards.
func (g *Graph) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true

	if live := g.tr.Live(); live > 0 {
		g.log.Warn("closing graph with live handles", zap.Int("live", live))
	}
	g.log.Debug("closing graph",
		zap.Stringer("mode", g.tr.Mode()),
		zap.Int("live", g.tr.Live()),
		zap.Int("buffers", len(g.buffers)))

	g.buffers = nil
	if c, ok := g.tr.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return errors.Wrap(errors.PhaseTranslate, errors.KindClosed, err, "close translator")
		}
	}
	return nil
}

func (g *Graph) retain(buf []byte) {
	g.buffers = append(g.buffers, buf)
}

func (g *Graph) check() error {
	if g.closed {
		return errors.Closed(errors.PhaseTranslate, "graph")
	}
	return nil
}

// alignedBytes returns n zeroed bytes whose start is 8-byte aligned.
func alignedBytes(n int) []byte {
	words := make([]uint64, (n+7)/8)
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(words))), len(words)*8)[:n]
}

func aligned(b []byte) bool {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))%8 == 0
}
