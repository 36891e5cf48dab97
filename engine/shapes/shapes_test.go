package shapes

import (
	"testing"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertFrontFacing checks that every non-degenerate triangle winds counter-clockwise around
// the normals of its vertices.
func assertFrontFacing(t *testing.T, m model.Mesh) {
	t.Helper()
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a := common.Vec3(m.Vertices[m.Indices[i]].Position)
		b := common.Vec3(m.Vertices[m.Indices[i+1]].Position)
		c := common.Vec3(m.Vertices[m.Indices[i+2]].Position)
		face := b.Sub(a).Cross(c.Sub(a))
		if face.LengthSquared() < 1e-10 {
			continue
		}
		for _, idx := range m.Indices[i : i+3] {
			n := common.Vec3(m.Vertices[idx].Normal)
			require.Greater(t, face.Dot(n), float32(0), "%s triangle %d winds against vertex %d", m.Name, i/3, idx)
		}
	}
}

func TestShapesAreValid(t *testing.T) {
	tests := []struct {
		name     string
		mesh     model.Mesh
		vertices int
		indices  int
	}{
		{"cube", Cube(1, 2, 3), 24, 36},
		{"plane", Plane(10, 4), 25, 96},
		{"quad", Quad(1), 4, 6},
		{"fullscreen quad", FullscreenQuad(), 4, 6},
		{"sphere", UVSphere(1, 8, 12), 9 * 13, 8 * 12 * 6},
		{"capsule", Capsule(0.5, 1, 4, 8), 10 * 9, 9 * 8 * 6},
		{"flat capsule", Capsule(0.5, 0, 4, 8), 9 * 9, 8 * 8 * 6},
		{"cylinder", Cylinder(1, 2, 6), 2*7 + 2*8, 6*6 + 2*6*3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.mesh.Validate())
			assert.Len(t, tt.mesh.Vertices, tt.vertices)
			assert.Len(t, tt.mesh.Indices, tt.indices)
			assertFrontFacing(t, tt.mesh)
			for _, v := range tt.mesh.Vertices {
				assert.InDelta(t, 1, common.Vec3(v.Normal).Length(), 1e-4)
				assert.GreaterOrEqual(t, v.TexCoord[0], float32(0))
				assert.LessOrEqual(t, v.TexCoord[1], float32(1.0001))
			}
		})
	}
}

func TestCubeExtents(t *testing.T) {
	m := Cube(2, 4, 6)
	var lo, hi common.Vec3
	for _, v := range m.Vertices {
		for k := range 3 {
			lo[k] = min(lo[k], v.Position[k])
			hi[k] = max(hi[k], v.Position[k])
		}
	}
	assert.Equal(t, common.Vec3{-1, -2, -3}, lo)
	assert.Equal(t, common.Vec3{1, 2, 3}, hi)
}

func TestSphereRadius(t *testing.T) {
	for _, v := range UVSphere(2.5, 6, 10).Vertices {
		assert.InDelta(t, 2.5, common.Vec3(v.Position).Length(), 1e-4)
	}
}

func TestCapsuleHeight(t *testing.T) {
	m := Capsule(0.5, 1, 6, 8)
	var top, bottom float32
	for _, v := range m.Vertices {
		top = max(top, v.Position[1])
		bottom = min(bottom, v.Position[1])
	}
	assert.InDelta(t, 1, top, 1e-5)
	assert.InDelta(t, -1, bottom, 1e-5)
}

func TestPlaneClampsResolution(t *testing.T) {
	m := Plane(1, 0)
	assert.Len(t, m.Vertices, 4)
	for _, v := range m.Vertices {
		assert.Equal(t, [3]float32{0, 1, 0}, v.Normal)
		assert.InDelta(t, 0.5, max(v.Position[0], -v.Position[0]), 1e-6)
	}
}

func TestPlaneHasTangents(t *testing.T) {
	v := Plane(2, 2).Vertices[0]
	assert.InDelta(t, 1, common.Vec3(v.Tangent).Length(), 1e-4)
}
