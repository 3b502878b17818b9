package graph_test

import (
	"encoding/binary"
	"math"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/endian"
	"github.com/wippyai/assetlayout/graph"
)

type leaf struct {
	ID     uint16
	Flags  uint16
	Weight float32
}

func (l *leaf) Swap(s *graph.Swapper) error {
	s.U16(&l.ID, &l.Flags)
	s.F32(&l.Weight)
	return nil
}

func (l *leaf) Relocate(*graph.Relocator) error { return nil }

type scene struct {
	Version uint32
	Name    assetlayout.Off32
	Leaves  assetlayout.Arr32
	Main    assetlayout.Off32
	_       uint32
}

func (v *scene) Swap(s *graph.Swapper) error {
	s.U32(&v.Version)
	s.Off32(&v.Name)
	if err := graph.SwapStructs[leaf](s, &v.Leaves); err != nil {
		return err
	}
	return graph.SwapRef[leaf](s, &v.Main)
}

func (v *scene) Relocate(r *graph.Relocator) error {
	if err := r.String(&v.Name); err != nil {
		return err
	}
	if err := graph.Array[leaf](r, &v.Leaves); err != nil {
		return err
	}
	return graph.Ref[leaf](r, &v.Main)
}

type node struct {
	Value uint32
	Name  assetlayout.Off32
	Tags  assetlayout.Arr32
	Child assetlayout.Off32
}

func (n *node) Swap(s *graph.Swapper) error {
	s.U32(&n.Value)
	s.Off32(&n.Name)
	if err := graph.SwapValues[uint16](s, &n.Tags); err != nil {
		return err
	}
	return graph.SwapRef[node](s, &n.Child)
}

func (n *node) Relocate(r *graph.Relocator) error {
	if err := r.String(&n.Name); err != nil {
		return err
	}
	if err := graph.Values[uint16](r, &n.Tags); err != nil {
		return err
	}
	return graph.Ref[node](r, &n.Child)
}

// pick refers to one element of All before All itself.
type pick struct {
	Chosen assetlayout.Off32
	All    assetlayout.Arr32
}

func (p *pick) Swap(s *graph.Swapper) error {
	if err := graph.SwapRef[leaf](s, &p.Chosen); err != nil {
		return err
	}
	return graph.SwapStructs[leaf](s, &p.All)
}

func (p *pick) Relocate(r *graph.Relocator) error {
	if err := graph.Ref[leaf](r, &p.Chosen); err != nil {
		return err
	}
	return graph.Array[leaf](r, &p.All)
}

type scale struct {
	Factor float32
}

func (v *scale) Swap(s *graph.Swapper) error {
	s.F32(&v.Factor)
	return nil
}

func (v *scale) Relocate(*graph.Relocator) error { return nil }

type sample struct {
	Value uint32
	Scale scale
	Elems assetlayout.Arr32
}

func (v *sample) Swap(s *graph.Swapper) error {
	s.U32(&v.Value)
	if err := s.Struct(&v.Scale); err != nil {
		return err
	}
	return graph.SwapValues[uint16](s, &v.Elems)
}

func (v *sample) Relocate(r *graph.Relocator) error {
	return graph.Values[uint16](r, &v.Elems)
}

type record64 struct {
	Items assetlayout.Arr64
	Head  assetlayout.Off64
}

func (v *record64) Swap(s *graph.Swapper) error {
	if err := graph.SwapValues64[uint32](s, &v.Items); err != nil {
		return err
	}
	return graph.SwapRef64[leaf](s, &v.Head)
}

func (v *record64) Relocate(r *graph.Relocator) error {
	if err := graph.Values64[uint32](r, &v.Items); err != nil {
		return err
	}
	return graph.Ref64[leaf](r, &v.Head)
}

// foreign returns the byte order that is not the host's.
func foreign() (binary.ByteOrder, bool) {
	if endian.HostBigEndian {
		return binary.LittleEndian, false
	}
	return binary.BigEndian, true
}

func native() (binary.ByteOrder, bool) {
	if endian.HostBigEndian {
		return binary.BigEndian, true
	}
	return binary.LittleEndian, false
}

// sceneBytes lays a scene out the way Save does: root, name, leaves. Main
// refers to the second leaf.
func sceneBytes(order binary.ByteOrder) []byte {
	b := make([]byte, 48)
	order.PutUint32(b[0:], 7)
	order.PutUint32(b[4:], 24)
	order.PutUint32(b[8:], 2)
	order.PutUint32(b[12:], 32)
	order.PutUint32(b[16:], 40)
	copy(b[24:], "stage\x00")
	putLeaf(b[32:], order, 1, 2, 1.5)
	putLeaf(b[40:], order, 3, 4, 2.5)
	return b
}

func putLeaf(b []byte, order binary.ByteOrder, id, flags uint16, weight float32) {
	order.PutUint16(b[0:], id)
	order.PutUint16(b[2:], flags)
	order.PutUint32(b[4:], math.Float32bits(weight))
}
