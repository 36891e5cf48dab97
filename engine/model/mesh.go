package model

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/glace/common"
)

// ErrEmptyMesh is returned by Validate for a mesh without vertices.
var ErrEmptyMesh = errors.New("mesh has no vertices")

// Mesh is CPU-side triangle-list geometry. MaterialIndex points into the owning Model's materials.
type Mesh struct {
	Name          string
	Vertices      []Vertex
	Indices       []uint32
	MaterialIndex int
}

// Validate checks that the mesh is a well-formed indexed triangle list.
//
// Returns:
//   - error: error describing the first problem found
func (m *Mesh) Validate() error {
	if len(m.Vertices) == 0 {
		return fmt.Errorf("mesh %q: %w", m.Name, ErrEmptyMesh)
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("mesh %q: index count %d is not a multiple of 3", m.Name, len(m.Indices))
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return fmt.Errorf("mesh %q: index %d out of range for %d vertices", m.Name, idx, len(m.Vertices))
		}
	}
	return nil
}

// ComputeNormals replaces every vertex normal with the normalized sum of the area-weighted
// face normals of the triangles that reference it.
func (m *Mesh) ComputeNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = [3]float32{}
	}
	for t := 0; t+2 < len(m.Indices); t += 3 {
		i0, i1, i2 := m.Indices[t], m.Indices[t+1], m.Indices[t+2]
		a := common.Vec3(m.Vertices[i0].Position)
		b := common.Vec3(m.Vertices[i1].Position)
		c := common.Vec3(m.Vertices[i2].Position)
		n := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range [3]uint32{i0, i1, i2} {
			m.Vertices[idx].Normal = [3]float32(common.Vec3(m.Vertices[idx].Normal).Add(n))
		}
	}
	for i := range m.Vertices {
		m.Vertices[i].Normal = [3]float32(common.Vec3(m.Vertices[i].Normal).Normalize())
	}
}

// ComputeTangents derives per-vertex tangent and bitangent vectors from positions and UVs,
// averaging the per-triangle frames of every triangle that shares a vertex.
// The bitangent is flipped so right-handed normal maps sample correctly with WebGPU's
// top-left UV origin. Triangles with degenerate UVs are skipped.
func (m *Mesh) ComputeTangents() {
	counts := make([]float32, len(m.Vertices))
	for i := range m.Vertices {
		m.Vertices[i].Tangent = [3]float32{}
		m.Vertices[i].Bitangent = [3]float32{}
	}
	for t := 0; t+2 < len(m.Indices); t += 3 {
		idx := [3]uint32{m.Indices[t], m.Indices[t+1], m.Indices[t+2]}
		v0, v1, v2 := m.Vertices[idx[0]], m.Vertices[idx[1]], m.Vertices[idx[2]]

		dp1 := common.Vec3(v1.Position).Sub(common.Vec3(v0.Position))
		dp2 := common.Vec3(v2.Position).Sub(common.Vec3(v0.Position))
		duv1 := common.Vec2(v1.TexCoord).Sub(common.Vec2(v0.TexCoord))
		duv2 := common.Vec2(v2.TexCoord).Sub(common.Vec2(v0.TexCoord))

		det := duv1[0]*duv2[1] - duv1[1]*duv2[0]
		if det == 0 {
			continue
		}
		r := 1 / det
		tangent := dp1.Scale(duv2[1]).Sub(dp2.Scale(duv1[1])).Scale(r)
		bitangent := dp2.Scale(duv1[0]).Sub(dp1.Scale(duv2[0])).Scale(-r)

		for _, i := range idx {
			v := &m.Vertices[i]
			v.Tangent = [3]float32(common.Vec3(v.Tangent).Add(tangent))
			v.Bitangent = [3]float32(common.Vec3(v.Bitangent).Add(bitangent))
			counts[i]++
		}
	}
	for i := range m.Vertices {
		if counts[i] == 0 {
			continue
		}
		v := &m.Vertices[i]
		v.Tangent = [3]float32(common.Vec3(v.Tangent).Scale(1 / counts[i]).Normalize())
		v.Bitangent = [3]float32(common.Vec3(v.Bitangent).Scale(1 / counts[i]).Normalize())
	}
}

// EdgeIndices returns a line-list index buffer holding every unique triangle edge once.
// Edges are emitted in first-seen order.
func (m *Mesh) EdgeIndices() []uint32 {
	type edge struct{ a, b uint32 }
	seen := make(map[edge]struct{}, len(m.Indices))
	out := make([]uint32, 0, len(m.Indices)*2)
	for t := 0; t+2 < len(m.Indices); t += 3 {
		tri := [3]uint32{m.Indices[t], m.Indices[t+1], m.Indices[t+2]}
		for k := range 3 {
			a, b := tri[k], tri[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			e := edge{a, b}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			out = append(out, a, b)
		}
	}
	return out
}

// SequentialIndices returns 0..n-1, for meshes imported without an index list.
func SequentialIndices(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}
