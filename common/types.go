// Package common contains plain data types and helpers shared by every glace package.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cogentcore/webgpu/wgpu"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Color is a linear RGBA color with components in [0, 1].
type Color [4]float32

var (
	ColorWhite = Color{1, 1, 1, 1}
	ColorGray  = Color{0.5, 0.5, 0.5, 1}
	ColorBlack = Color{0, 0, 0, 1}
)

// RGB drops the alpha component.
func (c Color) RGB() Vec3 { return Vec3{c[0], c[1], c[2]} }

// TextureStagingData holds RGBA8 pixel data pending GPU upload.
type TextureStagingData struct {
	// Pixels is tightly packed RGBA, 4 bytes per pixel, row-major.
	Pixels []byte
	Width  uint32
	Height uint32
}

// SolidTexture returns a 1x1 texture filled with c.
//
// Parameters:
//   - c: the fill color
//
// Returns:
//   - TextureStagingData: a single-pixel texture
func SolidTexture(c Color) TextureStagingData {
	return TextureStagingData{
		Pixels: []byte{toByte(c[0]), toByte(c[1]), toByte(c[2]), toByte(c[3])},
		Width:  1,
		Height: 1,
	}
}

func toByte(f float32) byte {
	return byte(Clamp(f, 0, 1)*255 + 0.5)
}

// IsPlaceholder reports whether t is a 1x1 opaque white texture.
func (t TextureStagingData) IsPlaceholder() bool {
	return t.Width == 1 && t.Height == 1 && bytes.Equal(t.Pixels, []byte{255, 255, 255, 255})
}

// HasTexture reports whether t carries real pixel data. Nil, empty and placeholder textures all
// sample as white and count as absent.
func HasTexture(t *TextureStagingData) bool {
	return t != nil && len(t.Pixels) > 0 && !t.IsPlaceholder()
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero fields fall back to repeat addressing and linear filtering.
type SamplerStagingData struct {
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	MagFilter, MinFilter                     wgpu.FilterMode
	MipmapFilter                             wgpu.MipmapFilterMode
	LodMinClamp, LodMaxClamp                 float32
	Compare                                  wgpu.CompareFunction
	MaxAnisotropy                            uint16
}

// DecodeTexture decodes PNG, JPEG, BMP, TIFF or WebP bytes into RGBA8 staging data.
//
// Parameters:
//   - data: the encoded image bytes
//
// Returns:
//   - TextureStagingData: decoded pixels and dimensions
//   - error: error if the format is unknown or the data is corrupt
func DecodeTexture(data []byte) (TextureStagingData, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("decode texture: %w", err)
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return TextureStagingData{
		Pixels: rgba.Pix,
		Width:  uint32(bounds.Dx()),
		Height: uint32(bounds.Dy()),
	}, nil
}
