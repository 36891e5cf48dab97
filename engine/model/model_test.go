package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadMesh() Mesh {
	return Mesh{
		Name: "quad",
		Vertices: []Vertex{
			NewVertex([3]float32{0, 0, 0}, [3]float32{}, [2]float32{0, 0}),
			NewVertex([3]float32{1, 0, 0}, [3]float32{}, [2]float32{1, 0}),
			NewVertex([3]float32{1, 1, 0}, [3]float32{}, [2]float32{1, 1}),
			NewVertex([3]float32{0, 1, 0}, [3]float32{}, [2]float32{0, 1}),
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

func TestIdentityTransformToRaw(t *testing.T) {
	raw := NewTransform().ToRaw()
	identity := [16]float32(common.Mat4Identity())
	assert.Equal(t, identity, raw.Model)
	assert.Equal(t, identity, raw.InverseTransposeModel)
	assert.Equal(t, [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, raw.Normal)
	assert.Len(t, raw.Marshal(), InstanceRawSize)
}

func TestTranslatedTransformToRaw(t *testing.T) {
	raw := FromTranslation(common.Vec3{-5, 0, -5}).ToRaw()
	assert.Equal(t, float32(-5), raw.Model[12])
	assert.Equal(t, float32(0), raw.Model[13])
	assert.Equal(t, float32(-5), raw.Model[14])
	// inverse-transpose moves the translation into the bottom row
	assert.InDelta(t, 5, raw.InverseTransposeModel[3], 1e-6)
	assert.InDelta(t, 5, raw.InverseTransposeModel[11], 1e-6)
}

func TestInstancesMarshalRows(t *testing.T) {
	in := Instances{Transforms: []Transform{NewTransform(), FromTranslation(common.Vec3{1, 2, 3})}}
	assert.Equal(t, 2, in.Len())
	assert.Len(t, in.MarshalRows(), 2*InstanceRawSize)
}

func TestVertexMarshalLayout(t *testing.T) {
	v := Vertex{Position: [3]float32{1, 2, 3}, Bitangent: [3]float32{0, 0, 7}}
	buf := v.Marshal()
	require.Len(t, buf, VertexSize)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:])))
	assert.Equal(t, float32(7), math.Float32frombits(binary.LittleEndian.Uint32(buf[52:])))
	assert.Len(t, MarshalVertices([]Vertex{v, v}), 2*VertexSize)
	assert.Equal(t, []byte{2, 0, 0, 0, 1, 0, 0, 0}, MarshalIndices([]uint32{2, 1}))
}

func TestBufferLayouts(t *testing.T) {
	vl := VertexBufferLayout()
	assert.Equal(t, uint64(VertexSize), vl.ArrayStride)
	assert.Len(t, vl.Attributes, 5)

	il := InstanceBufferLayout()
	assert.Equal(t, uint64(InstanceRawSize), il.ArrayStride)
	require.Len(t, il.Attributes, 11)
	assert.Equal(t, uint32(5), il.Attributes[0].ShaderLocation)
	assert.Equal(t, uint32(15), il.Attributes[10].ShaderLocation)
	assert.Equal(t, uint64(148), il.Attributes[10].Offset)
}

func TestComputeNormalsFacesPlusZ(t *testing.T) {
	m := quadMesh()
	m.ComputeNormals()
	for _, v := range m.Vertices {
		assert.InDelta(t, 1, v.Normal[2], 1e-6)
	}
}

func TestComputeTangentsFollowUVs(t *testing.T) {
	m := quadMesh()
	m.ComputeTangents()
	for _, v := range m.Vertices {
		assert.InDelta(t, 1, v.Tangent[0], 1e-6)
		assert.InDelta(t, -1, v.Bitangent[1], 1e-6)
	}
}

func TestComputeTangentsSkipsDegenerateUVs(t *testing.T) {
	m := quadMesh()
	for i := range m.Vertices {
		m.Vertices[i].TexCoord = [2]float32{}
	}
	m.ComputeTangents()
	for _, v := range m.Vertices {
		assert.Equal(t, [3]float32{}, v.Tangent)
	}
}

func TestEdgeIndicesAreUnique(t *testing.T) {
	m := quadMesh()
	edges := m.EdgeIndices()
	// two triangles sharing the 0-2 diagonal have five distinct edges
	assert.Len(t, edges, 10)
	assert.Equal(t, []uint32{0, 1, 1, 2, 0, 2}, edges[:6])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mesh    Mesh
		wantErr bool
	}{
		{name: "quad", mesh: quadMesh()},
		{name: "empty", mesh: Mesh{}, wantErr: true},
		{name: "partial triangle", mesh: Mesh{Vertices: quadMesh().Vertices, Indices: []uint32{0, 1}}, wantErr: true},
		{name: "out of range", mesh: Mesh{Vertices: quadMesh().Vertices, Indices: []uint32{0, 1, 9}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mesh.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.ErrorIs(t, (&Mesh{}).Validate(), ErrEmptyMesh)
}

func TestMaterials(t *testing.T) {
	def := DefaultMaterial()
	assert.Equal(t, float32(1), def.Alpha)
	assert.True(t, def.Diffuse.IsPlaceholder())
	assert.False(t, def.IsTransparent())
	assert.Zero(t, def.Uniform().Flags)

	glass := MaterialFromColor(common.Color{0.2, 0.4, 0.6, 0.5})
	assert.Equal(t, float32(0.5), glass.Alpha)
	assert.True(t, glass.IsTransparent())

	normal := common.SolidTexture(common.Color{0.5, 0.5, 1, 1})
	glass.Normal = &normal
	u := glass.Uniform()
	assert.Equal(t, MaterialFlagNormalMap, u.Flags)
	assert.Len(t, u.Marshal(), MaterialUniformSize)
}

func TestNormalMapFlagNeedsPixels(t *testing.T) {
	solid := common.SolidTexture(common.Color{0.5, 0.5, 1, 1})
	white := common.SolidTexture(common.Color{1, 1, 1, 1})
	cases := []struct {
		name   string
		normal *common.TextureStagingData
		want   bool
	}{
		{"nil", nil, false},
		{"empty", &common.TextureStagingData{}, false},
		{"placeholder", &white, false},
		{"real", &solid, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := DefaultMaterial()
			m.Normal = tc.normal
			assert.Equal(t, tc.want, m.HasNormalMap())
			assert.Equal(t, tc.want, m.Uniform().Flags&MaterialFlagNormalMap != 0)
		})
	}
}

func TestModelIdentityAndMaterialFallback(t *testing.T) {
	a := NewModel(WithName("a"), WithMeshes(quadMesh()))
	b := NewModel(WithName("b"))
	assert.NotZero(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())

	lit := Model{Name: "literal"}
	id := lit.ID()
	assert.NotZero(t, id)
	assert.Equal(t, id, lit.ID(), "identity is assigned once")
	other := Model{Name: "literal"}
	assert.NotEqual(t, id, other.ID())

	assert.Equal(t, "Default Material", a.MaterialFor(0).Name)

	a.Materials = []Material{MaterialFromColor(common.ColorGray)}
	a.Meshes[0].MaterialIndex = 4
	assert.Equal(t, 0, a.MaterialIndexFor(0))
	assert.Equal(t, "Color Material", a.MaterialFor(0).Name)

	a.SetGloss(0.25)
	assert.Equal(t, float32(0.25), a.Materials[0].Gloss)
}
