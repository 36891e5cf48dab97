package model

import "github.com/Carmen-Shannon/glace/common"

// Material holds the shading parameters and CPU-side textures of one sub-mesh surface.
// Normal and SpecularMap are optional; nil, empty or placeholder data binds a 1x1 white texture.
type Material struct {
	Name        string
	BaseColor   common.Color
	Alpha       float32
	Gloss       float32
	Specular    common.Vec3
	Diffuse     common.TextureStagingData
	Normal      *common.TextureStagingData
	SpecularMap *common.TextureStagingData
}

// DefaultMaterial returns an opaque white material with full gloss and white specular.
func DefaultMaterial() Material {
	return Material{
		Name:      "Default Material",
		BaseColor: common.ColorWhite,
		Alpha:     1,
		Gloss:     1,
		Specular:  common.Vec3One,
		Diffuse:   common.SolidTexture(common.ColorWhite),
	}
}

// MaterialFromColor returns the default material tinted by c, with alpha taken from c.
func MaterialFromColor(c common.Color) Material {
	m := DefaultMaterial()
	m.Name = "Color Material"
	m.BaseColor = c
	m.Alpha = c[3]
	return m
}

// IsTransparent reports whether the material is drawn in the blended pass.
func (m *Material) IsTransparent() bool {
	return m.Alpha < 1
}

// HasNormalMap reports whether the material binds a real normal texture.
func (m *Material) HasNormalMap() bool {
	return common.HasTexture(m.Normal)
}

// Uniform derives the GPU uniform block. The normal map flag is set iff HasNormalMap.
func (m *Material) Uniform() MaterialUniform {
	u := MaterialUniform{
		BaseColor: m.BaseColor,
		Specular:  m.Specular,
		Gloss:     m.Gloss,
		Alpha:     m.Alpha,
	}
	if m.HasNormalMap() {
		u.Flags |= MaterialFlagNormalMap
	}
	return u
}
