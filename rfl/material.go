package rfl

import (
	"unsafe"

	"github.com/wippyai/assetlayout"
	"github.com/wippyai/assetlayout/graph"
)

// On-disk sizes of the material records.
const (
	MaterialSize  = 36
	ParameterSize = 12
	Vector4Size   = 16
	ParamRefSize  = 4
	NameRefSize   = 4
)

// Material is the root record of a material file. Parameter and texture
// lists keep their counts in single bytes apart from their offsets.
type Material struct {
	Shader    assetlayout.Off32 // string
	SubShader assetlayout.Off32 // string
	Texset    assetlayout.Off32 // string
	Textures  assetlayout.Off32 // [TextureCount]NameRef

	Flag              uint8
	NoBackFaceCulling uint8
	AdditiveBlending  uint8
	UnknownFlag1      uint8
	ParamCount        uint8
	_                 uint8
	UnknownFlag2      uint8
	TextureCount      uint8

	Params   assetlayout.Off32 // [ParamCount]ParamRef
	_        uint32
	Unknown1 uint32
}

// Parameter is a named shader constant.
type Parameter struct {
	TexWidth  uint16
	TexHeight uint16
	Name      assetlayout.Off32 // string
	Value     assetlayout.Off32 // Vector4
}

// Vector4 is four packed floats.
type Vector4 struct {
	X, Y, Z, W float32
}

// ParamRef is one entry of a material's parameter list.
type ParamRef struct {
	Param assetlayout.Off32
}

// NameRef is one entry of a material's texture list.
type NameRef struct {
	Name assetlayout.Off32
}

var (
	_ [MaterialSize]byte  = [unsafe.Sizeof(Material{})]byte{}
	_ [ParameterSize]byte = [unsafe.Sizeof(Parameter{})]byte{}
	_ [Vector4Size]byte   = [unsafe.Sizeof(Vector4{})]byte{}
	_ [ParamRefSize]byte  = [unsafe.Sizeof(ParamRef{})]byte{}
	_ [NameRefSize]byte   = [unsafe.Sizeof(NameRef{})]byte{}
)

func (m *Material) Swap(s *graph.Swapper) error {
	s.Off32(&m.Shader, &m.SubShader, &m.Texset)
	if err := graph.SwapCounted[NameRef](s, &m.Textures, uint64(m.TextureCount)); err != nil {
		return err
	}
	if err := graph.SwapCounted[ParamRef](s, &m.Params, uint64(m.ParamCount)); err != nil {
		return err
	}
	s.U32(&m.Unknown1)
	return nil
}

func (m *Material) Relocate(r *graph.Relocator) error {
	for _, off := range []*assetlayout.Off32{&m.Shader, &m.SubShader, &m.Texset} {
		if err := r.String(off); err != nil {
			return err
		}
	}
	if err := graph.Counted[NameRef](r, &m.Textures, uint64(m.TextureCount)); err != nil {
		return err
	}
	return graph.Counted[ParamRef](r, &m.Params, uint64(m.ParamCount))
}

// Parameters resolves the parameter list of m.
func (m *Material) Parameters(g *graph.Graph) ([]*Parameter, error) {
	refs, err := graph.Slice[ParamRef](g, assetlayout.Arr32{Count: uint32(m.ParamCount), Offset: m.Params})
	if err != nil {
		return nil, err
	}
	out := make([]*Parameter, len(refs))
	for i := range refs {
		if out[i], err = graph.Get[Parameter](g, refs[i].Param); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Parameter) Swap(s *graph.Swapper) error {
	s.U16(&p.TexWidth, &p.TexHeight)
	s.Off32(&p.Name)
	return graph.SwapRef[Vector4](s, &p.Value)
}

func (p *Parameter) Relocate(r *graph.Relocator) error {
	if err := r.String(&p.Name); err != nil {
		return err
	}
	return graph.Value[Vector4](r, &p.Value)
}

func (v *Vector4) Swap(s *graph.Swapper) error {
	s.F32(&v.X, &v.Y, &v.Z, &v.W)
	return nil
}

func (v *Vector4) Relocate(*graph.Relocator) error { return nil }

func (p *ParamRef) Swap(s *graph.Swapper) error {
	return graph.SwapRef[Parameter](s, &p.Param)
}

func (p *ParamRef) Relocate(r *graph.Relocator) error {
	return graph.Ref[Parameter](r, &p.Param)
}

func (n *NameRef) Swap(s *graph.Swapper) error {
	s.Off32(&n.Name)
	return nil
}

func (n *NameRef) Relocate(r *graph.Relocator) error {
	return r.String(&n.Name)
}
