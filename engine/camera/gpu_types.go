package camera

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/glace/common"
)

// UniformSize is the byte size of the WGSL CameraUniform struct.
const UniformSize = 80

// Uniform is the GPU-aligned representation of the camera uniform buffer.
// Layout matches the WGSL CameraUniform struct exactly.
type Uniform struct {
	ViewPosition   common.Vec4 // offset  0: world-space eye, w = 1
	ViewProjection common.Mat4 // offset 16: column-major projection * view
}

// Marshal serializes the uniform into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (u Uniform) Marshal() []byte {
	buf := make([]byte, UniformSize)
	for i, f := range u.ViewPosition {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	for i, f := range u.ViewProjection {
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(f))
	}
	return buf
}
