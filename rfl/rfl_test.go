package rfl_test

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/assetlayout/errors"
	"github.com/wippyai/assetlayout/graph"
	"github.com/wippyai/assetlayout/rfl"
)

func buildMaterial(t *testing.T, g *graph.Graph) *rfl.Material {
	t.Helper()
	m, _, err := graph.Create[rfl.Material](g)
	require.NoError(t, err)
	require.NoError(t, graph.SetString(g, &m.Shader, "Common_d"))
	require.NoError(t, graph.SetString(g, &m.SubShader, "Common_d"))
	require.NoError(t, graph.SetString(g, &m.Texset, "ring"))
	m.Flag = 0x80

	names := []string{"diffuse", "specular"}
	arr, refs, err := graph.CreateArray[rfl.ParamRef](g, uint32(len(names)))
	require.NoError(t, err)
	m.Params = arr.Offset
	m.ParamCount = uint8(arr.Count)
	for i, name := range names {
		p, off, err := graph.Create[rfl.Parameter](g)
		require.NoError(t, err)
		refs[i].Param = off
		p.TexWidth, p.TexHeight = 1, 1
		require.NoError(t, graph.SetString(g, &p.Name, name))
		v, voff, err := graph.Create[rfl.Vector4](g)
		require.NoError(t, err)
		*v = rfl.Vector4{X: float32(i), Y: 0.5, Z: 1, W: 1}
		p.Value = voff
	}

	tex, texRefs, err := graph.CreateArray[rfl.NameRef](g, 1)
	require.NoError(t, err)
	require.NoError(t, graph.SetString(g, &texRefs[0].Name, "ring_dif"))
	m.Textures = tex.Offset
	m.TextureCount = 1
	return m
}

func TestMaterial_RoundTrip(t *testing.T) {
	g := graph.NewWide()
	defer g.Close()
	m := buildMaterial(t, g)

	img, err := graph.Save(g, m, true)
	require.NoError(t, err)

	f, err := rfl.Lookup("material")
	require.NoError(t, err)
	h := graph.NewWide()
	defer h.Close()
	doc, err := f.Open(h, img.Data, true)
	require.NoError(t, err)

	mat, ok := doc.Root().(*rfl.Material)
	require.True(t, ok)
	assert.Equal(t, uint8(0x80), mat.Flag)

	shader, err := graph.String(h, mat.Shader)
	require.NoError(t, err)
	assert.Equal(t, "Common_d", shader)
	texset, err := graph.String(h, mat.Texset)
	require.NoError(t, err)
	assert.Equal(t, "ring", texset)

	params, err := mat.Parameters(h)
	require.NoError(t, err)
	require.Len(t, params, 2)
	name, err := graph.String(h, params[1].Name)
	require.NoError(t, err)
	assert.Equal(t, "specular", name)
	v, err := graph.Get[rfl.Vector4](h, params[1].Value)
	require.NoError(t, err)
	assert.Equal(t, rfl.Vector4{X: 1, Y: 0.5, Z: 1, W: 1}, *v)

	again, err := doc.Save(true)
	require.NoError(t, err)
	assert.Equal(t, img.Data, again.Data)
	assert.Equal(t, img.Offsets.Positions(), again.Offsets.Positions())

	require.NoError(t, doc.Close())
	assert.Zero(t, h.Live())
}

func TestAuraTrainParameter_Convert(t *testing.T) {
	be := make([]byte, rfl.AuraTrainParameterSize)
	binary.BigEndian.PutUint32(be[0:], math.Float32bits(12.5))
	binary.BigEndian.PutUint32(be[4:], math.Float32bits(0.25))

	f, err := rfl.Lookup("aura-train")
	require.NoError(t, err)
	assert.Equal(t, uintptr(rfl.AuraTrainParameterSize), f.Size())

	out, err := f.Convert(context.Background(), [][]byte{be}, true, false, 1)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, float32(12.5), math.Float32frombits(binary.LittleEndian.Uint32(out[0][0:])))
	assert.Equal(t, float32(0.25), math.Float32frombits(binary.LittleEndian.Uint32(out[0][4:])))
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"aura-train", "material"}, rfl.Names())
	_, err := rfl.Lookup("terrain")
	assert.ErrorIs(t, err, &errors.Error{Kind: errors.KindInvalidInput})
}
