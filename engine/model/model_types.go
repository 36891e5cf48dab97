package model

import (
	"github.com/Carmen-Shannon/glace/common"
)

// --- Placement Types ---

// Transform places a single model in the world.
type Transform struct {
	// Translation is the position offset.
	Translation common.Vec3

	// Rotation is the orientation as a quaternion (x, y, z, w).
	Rotation common.Quat

	// Scale is the scale factor along each axis.
	Scale common.Vec3
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{Rotation: common.QuatIdentity(), Scale: common.Vec3One}
}

// FromTranslation returns an identity transform moved to t.
func FromTranslation(t common.Vec3) Transform {
	tr := NewTransform()
	tr.Translation = t
	return tr
}

// Matrix composes scale, then rotation, then translation.
func (t Transform) Matrix() common.Mat4 {
	return common.Mat4FromScaleRotationTranslation(t.Scale, t.Rotation, t.Translation)
}

// ToRaw converts the transform into its instance buffer row.
// The normal matrix is the rotation alone; the inverse-transpose is the full model matrix
// inverted and transposed, falling back to identity when the scale is degenerate.
//
// Returns:
//   - InstanceRaw: the GPU row
func (t Transform) ToRaw() InstanceRaw {
	m := t.Matrix()
	inv, ok := m.Inverse()
	if !ok {
		inv = common.Mat4Identity()
	}
	return InstanceRaw{
		Model:                 m,
		Normal:                common.Mat3FromQuat(t.Rotation),
		InverseTransposeModel: inv.Transpose(),
	}
}

// Instances draws the same model at every listed transform.
type Instances struct {
	Transforms []Transform
}

// Len returns the number of instance rows.
func (in Instances) Len() int { return len(in.Transforms) }

// MarshalRows serializes every instance row back to back.
func (in Instances) MarshalRows() []byte {
	buf := make([]byte, 0, len(in.Transforms)*InstanceRawSize)
	for _, t := range in.Transforms {
		raw := t.ToRaw()
		buf = append(buf, raw.Marshal()...)
	}
	return buf
}
