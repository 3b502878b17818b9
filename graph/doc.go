// Package graph loads, converts, builds and saves object graphs of schema
// structs whose references are offset fields.
//
// A Graph pairs one translator with one allocator. Schema structs implement
// Schema: Swap lists every multi-byte field for byte-order conversion and
// Relocate lists every offset field for the walks that attach, detach and
// serialize a graph.
//
// Typical flow:
//
//	g := graph.NewWide()
//	defer g.Close()
//
//	root, err := graph.Load[Stage](g, data, true)
//	objs, err := graph.Slice[Object](g, root.Objects)
//	img, err := graph.Save(g, root, false)
//
// Walks visit each referent once. A referent whose start lies inside one
// already visited is treated as part of it, so references into arrays are
// neither swapped nor attached twice.
package graph
