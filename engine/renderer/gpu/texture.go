package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// DepthFormat is the format of the shared depth target.
const DepthFormat = wgpu.TextureFormatDepth32Float

// CreateDepthTexture creates the shared depth target. It is sampleable so the depth
// visualization pass can read it back.
//
// Parameters:
//   - b: the backend to allocate on
//   - width, height: the surface size in pixels
//   - samples: the MSAA sample count of the color target
//
// Returns:
//   - Texture: the depth texture
//   - error: error if allocation fails
func CreateDepthTexture(b Backend, width, height, samples uint32) (Texture, error) {
	return b.CreateTexture(TextureDescriptor{
		Label:       "depth texture",
		Width:       width,
		Height:      height,
		Format:      DepthFormat,
		SampleCount: samples,
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
}

// CreateMultisampleTarget creates the multisampled color target passes draw into when MSAA is on.
func CreateMultisampleTarget(b Backend, width, height, samples uint32, format wgpu.TextureFormat) (Texture, error) {
	return b.CreateTexture(TextureDescriptor{
		Label:       "multisampled color target",
		Width:       width,
		Height:      height,
		Format:      format,
		SampleCount: samples,
		Usage:       wgpu.TextureUsageRenderAttachment,
	})
}

// TextureKind selects the color space a material texture is uploaded in.
type TextureKind int

const (
	// TextureKindColor textures hold sRGB-encoded color (diffuse, specular).
	TextureKindColor TextureKind = iota
	// TextureKindData textures hold linear data such as tangent-space normals.
	TextureKindData
)

// CreateImageTexture uploads RGBA8 staging pixels as a sampled 2D texture.
//
// Parameters:
//   - b: the backend to allocate on
//   - label: the debug label
//   - img: the pixels to upload
//   - kind: whether the pixels are sRGB color or linear data
//
// Returns:
//   - Texture: the uploaded texture
//   - error: error if the image is malformed or allocation fails
func CreateImageTexture(b Backend, label string, img common.TextureStagingData, kind TextureKind) (Texture, error) {
	if img.Width == 0 || img.Height == 0 || len(img.Pixels) != int(img.Width*img.Height*4) {
		return nil, fmt.Errorf("texture %q: %dx%d with %d bytes is not RGBA8", label, img.Width, img.Height, len(img.Pixels))
	}
	format := wgpu.TextureFormatRGBA8UnormSrgb
	if kind == TextureKindData {
		format = wgpu.TextureFormatRGBA8Unorm
	}
	return b.CreateTexture(TextureDescriptor{
		Label:  label,
		Width:  img.Width,
		Height: img.Height,
		Format: format,
		Usage:  wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Pixels: img.Pixels,
	})
}
