package rfl

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/graph"
)

// Format loads and converts files whose root record has one layout.
type Format interface {
	Name() string
	Size() uintptr
	// Open loads data into g.
	Open(g *graph.Graph, data []byte, bigEndian bool) (Document, error)
	// Convert re-encodes inputs in another byte order.
	Convert(ctx context.Context, inputs [][]byte, fromBigEndian, toBigEndian bool, limit int) ([][]byte, error)
}

// Document is a root record loaded into a graph.
type Document interface {
	Root() any
	Save(bigEndian bool) (*graph.Image, error)
	// Close releases every offset of the document. The graph stays open.
	Close() error
}

var registry = map[string]Format{}

func register[T any, P graph.Object[T]](name string, size uintptr) {
	if err := graph.CheckLayout[T](size); err != nil {
		panic(err)
	}
	registry[name] = format[T, P]{name: name, size: size}
}

func init() {
	register[AuraTrainParameter]("aura-train", AuraTrainParameterSize)
	register[Material]("material", MaterialSize)
}

// Lookup returns the format registered under name.
func Lookup(name string) (Format, error) {
	f, ok := registry[name]
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseLoad, fmt.Sprintf("unknown format %q", name))
	}
	return f, nil
}

// Names returns the registered format names in order.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

type format[T any, P graph.Object[T]] struct {
	name string
	size uintptr
}

func (f format[T, P]) Name() string  { return f.name }
func (f format[T, P]) Size() uintptr { return f.size }

func (f format[T, P]) Open(g *graph.Graph, data []byte, bigEndian bool) (Document, error) {
	root, err := graph.Load[T, P](g, data, bigEndian)
	if err != nil {
		return nil, err
	}
	return &document[T, P]{g: g, root: root}, nil
}

func (f format[T, P]) Convert(ctx context.Context, inputs [][]byte, fromBigEndian, toBigEndian bool, limit int) ([][]byte, error) {
	return graph.ConvertAll[T, P](ctx, inputs, fromBigEndian, toBigEndian, limit)
}

type document[T any, P graph.Object[T]] struct {
	g    *graph.Graph
	root *T
}

func (d *document[T, P]) Root() any { return d.root }

func (d *document[T, P]) Save(bigEndian bool) (*graph.Image, error) {
	return graph.Save[T, P](d.g, d.root, bigEndian)
}

func (d *document[T, P]) Close() error {
	return graph.Detach[T, P](d.g, d.root, nil)
}
