package model

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// VertexSize is the byte stride of a Vertex in a vertex buffer.
const VertexSize = 56

// InstanceRawSize is the byte stride of one InstanceRaw row in an instance buffer.
const InstanceRawSize = 164

// Vertex is a single mesh vertex as consumed by the 3D pipelines at shader locations 0 through 4.
// Size: 56 bytes, tightly packed.
type Vertex struct {
	Position  [3]float32 // offset  0
	Normal    [3]float32 // offset 12
	TexCoord  [2]float32 // offset 24
	Tangent   [3]float32 // offset 32
	Bitangent [3]float32 // offset 44
}

// NewVertex builds a vertex with zero tangent frame.
func NewVertex(position, normal [3]float32, uv [2]float32) Vertex {
	return Vertex{Position: position, Normal: normal, TexCoord: uv}
}

// Marshal serializes the vertex into a little-endian byte buffer.
//
// Returns:
//   - []byte: 56-byte buffer ready for GPU upload
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexSize)
	putFloats(buf, 0, v.Position[:])
	putFloats(buf, 12, v.Normal[:])
	putFloats(buf, 24, v.TexCoord[:])
	putFloats(buf, 32, v.Tangent[:])
	putFloats(buf, 44, v.Bitangent[:])
	return buf
}

// MarshalVertices serializes a slice of vertices back to back.
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, 0, len(vertices)*VertexSize)
	for i := range vertices {
		buf = append(buf, vertices[i].Marshal()...)
	}
	return buf
}

// MarshalIndices serializes uint32 indices in little-endian order.
func MarshalIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

// VertexBufferLayout describes Vertex for pipeline creation at vertex buffer slot 0.
func VertexBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: VertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 32, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 44, ShaderLocation: 4},
		},
	}
}

// InstanceRaw is the per-instance row of an instance buffer at shader locations 5 through 15.
// Size: 164 bytes (model mat4, normal mat3, inverse-transpose model mat4), tightly packed.
type InstanceRaw struct {
	Model                 [16]float32 // offset   0
	Normal                [9]float32  // offset  64
	InverseTransposeModel [16]float32 // offset 100
}

// Marshal serializes the row into a little-endian byte buffer.
//
// Returns:
//   - []byte: 164-byte buffer ready for GPU upload
func (r *InstanceRaw) Marshal() []byte {
	buf := make([]byte, InstanceRawSize)
	putFloats(buf, 0, r.Model[:])
	putFloats(buf, 64, r.Normal[:])
	putFloats(buf, 100, r.InverseTransposeModel[:])
	return buf
}

// InstanceBufferLayout describes InstanceRaw for pipeline creation at vertex buffer slot 1.
// Matrices are split into one attribute per column.
func InstanceBufferLayout() wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, 0, 11)
	var offset uint64
	loc := uint32(5)
	for range 4 {
		attrs = append(attrs, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x4, Offset: offset, ShaderLocation: loc})
		offset += 16
		loc++
	}
	for range 3 {
		attrs = append(attrs, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x3, Offset: offset, ShaderLocation: loc})
		offset += 12
		loc++
	}
	for range 4 {
		attrs = append(attrs, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x4, Offset: offset, ShaderLocation: loc})
		offset += 16
		loc++
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: InstanceRawSize,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes:  attrs,
	}
}

// MaterialUniformSize is the byte size of MaterialUniform.
const MaterialUniformSize = 48

// MaterialFlagNormalMap is set in MaterialUniform.Flags when the material samples a normal texture.
const MaterialFlagNormalMap uint32 = 1 << 0

// MaterialUniform is the GPU-side material block at material bind group binding 0.
// Size: 48 bytes (std140).
type MaterialUniform struct {
	BaseColor [4]float32 // offset  0
	Specular  [3]float32 // offset 16
	Gloss     float32    // offset 28
	Alpha     float32    // offset 32
	Flags     uint32     // offset 36
	_         [2]float32 // offset 40
}

// Marshal serializes the uniform into a little-endian byte buffer.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (u *MaterialUniform) Marshal() []byte {
	buf := make([]byte, MaterialUniformSize)
	putFloats(buf, 0, u.BaseColor[:])
	putFloats(buf, 16, u.Specular[:])
	binary.LittleEndian.PutUint32(buf[28:], math.Float32bits(u.Gloss))
	binary.LittleEndian.PutUint32(buf[32:], math.Float32bits(u.Alpha))
	binary.LittleEndian.PutUint32(buf[36:], u.Flags)
	return buf
}

func putFloats(buf []byte, offset int, values []float32) {
	for i, f := range values {
		binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(f))
	}
}
