package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/glace/engine/renderer/renderertest"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticSource(string) func(uint32) string {
	return func(uint32) string { return "// wgsl" }
}

func TestCacheCompilesOncePerKey(t *testing.T) {
	be := renderertest.New()
	c := NewCache(be, wgpu.TextureFormatBGRA8UnormSrgb)
	c.Register(FamilyMesh, NewFamily("mesh", staticSource("mesh"), WithCullMode(wgpu.CullModeBack)))

	key := Key{Family: FamilyMesh, Samples: 4, Blend: BlendReplace, Depth: DepthWrite}
	a, err := c.Get(key)
	require.NoError(t, err)
	b, err := c.Get(key)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Len(t, be.Pipelines, 1)

	_, err = c.Get(Key{Family: FamilyMesh, Samples: 4, Blend: BlendAlpha, Depth: DepthReadOnly})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestOpaqueFamilyDepthAndBlend(t *testing.T) {
	be := renderertest.New()
	c := NewCache(be, wgpu.TextureFormatBGRA8UnormSrgb)
	c.Register(FamilyMesh, NewFamily("mesh", staticSource("mesh"), WithCullMode(wgpu.CullModeBack)))

	opaque, err := c.Get(Key{Family: FamilyMesh, Samples: 1, Blend: BlendReplace, Depth: DepthWrite})
	require.NoError(t, err)
	assert.Equal(t, wgpu.CompareFunctionLess, opaque.DepthCompare())
	assert.True(t, opaque.DepthWriteEnabled())
	assert.False(t, opaque.BlendEnabled())

	glass, err := c.Get(Key{Family: FamilyMesh, Samples: 1, Blend: BlendAlpha, Depth: DepthReadOnly})
	require.NoError(t, err)
	assert.Equal(t, wgpu.CompareFunctionLess, glass.DepthCompare())
	assert.False(t, glass.DepthWriteEnabled())
	assert.True(t, glass.BlendEnabled())

	desc := be.Pipelines[0].Desc
	assert.Equal(t, wgpu.CullModeBack, desc.CullMode)
	assert.Equal(t, wgpu.FrontFaceCCW, desc.FrontFace)
	assert.Equal(t, uint32(1), desc.SampleCount)
}

func TestInvalidateReleasesAndRebuilds(t *testing.T) {
	be := renderertest.New()
	c := NewCache(be, wgpu.TextureFormatBGRA8UnormSrgb)
	var seen []uint32
	c.Register(FamilyDepth, NewFamily("depth", func(samples uint32) string {
		seen = append(seen, samples)
		return "// depth"
	}))

	first, err := c.Get(Key{Family: FamilyDepth, Samples: 4})
	require.NoError(t, err)
	c.Invalidate()
	assert.Zero(t, c.Len())
	assert.True(t, be.Pipelines[0].Released)

	second, err := c.Get(Key{Family: FamilyDepth, Samples: 1})
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, []uint32{4, 1}, seen)
	assert.Equal(t, wgpu.CompareFunctionUndefined, second.DepthCompare())
}

func TestUnregisteredFamily(t *testing.T) {
	c := NewCache(renderertest.New(), wgpu.TextureFormatBGRA8UnormSrgb)
	_, err := c.Get(Key{Family: FamilyUI, Samples: 1})
	assert.Error(t, err)
}
