// Package rfl holds record layouts for object parameter and material files
// and a registry that lets tools pick a layout by name.
//
// Every record is a graph.Schema with a fixed size checked at compile time.
package rfl
