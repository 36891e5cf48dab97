package light

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/glace/common"
)

// UniformSize is the byte size of the WGSL Light struct.
const UniformSize = 32

// Uniform is the GPU-aligned representation of the light uniform buffer.
// Layout matches the WGSL Light struct exactly.
type Uniform struct {
	Position common.Vec3 // offset  0: world-space position (vec3<f32>)
	_        float32     // offset 12: padding
	Color    common.Vec3 // offset 16: RGB color (vec3<f32>)
	_        float32     // offset 28: padding to 32 bytes
}

// Marshal serializes the uniform into a 32-byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (u Uniform) Marshal() []byte {
	buf := make([]byte, UniformSize)
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(u.Position[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(u.Color[i]))
	}
	return buf
}
