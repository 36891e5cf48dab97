package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessIncludes(t *testing.T) {
	out, err := NewPreProcessor().Process("@glace:include camera\n@vertex fn vs_main() {}")
	require.NoError(t, err)
	assert.Contains(t, out, "struct CameraUniform")
	assert.NotContains(t, out, "@glace:")
}

func TestProcessConditionals(t *testing.T) {
	src := strings.Join([]string{
		"a",
		"@glace:if MULTISAMPLED",
		"ms",
		"@glace:else",
		"single",
		"@glace:end",
		"b",
	}, "\n")

	pp := NewPreProcessor()
	on, err := pp.Process(src, DefineMultisampled)
	require.NoError(t, err)
	assert.Equal(t, "a\nms\nb", on)

	off, err := pp.Process(src)
	require.NoError(t, err)
	assert.Equal(t, "a\nsingle\nb", off)
}

func TestProcessNestedConditionals(t *testing.T) {
	src := "@glace:if A\n@glace:if B\nab\n@glace:else\na\n@glace:end\n@glace:else\nnone\n@glace:end"
	pp := NewPreProcessor()

	got, err := pp.Process(src, "A")
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	got, err = pp.Process(src, "B")
	require.NoError(t, err)
	assert.Equal(t, "none", got)
}

func TestProcessErrors(t *testing.T) {
	cases := map[string]string{
		"unknown include": "@glace:include nope",
		"dangling else":   "@glace:else",
		"dangling end":    "@glace:end",
		"unterminated":    "@glace:if A\nx",
		"unknown verb":    "@glace:pragma x",
		"if without name": "@glace:if",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewPreProcessor().Process(src)
			assert.Error(t, err)
		})
	}
}

func TestBuiltinSources(t *testing.T) {
	for _, name := range []Name{Mesh, Light, Wireframe, Depth, UI} {
		src, err := Source(name)
		require.NoError(t, err, name)
		assert.Contains(t, src, "fn vs_main")
		assert.Contains(t, src, "fn fs_main")
		assert.NotContains(t, src, "@glace:")
	}

	_, err := Source("missing")
	assert.Error(t, err)
}

func TestDepthVariants(t *testing.T) {
	ms := ForSamples(Depth)(4)
	single := ForSamples(Depth)(1)
	assert.Contains(t, ms, "texture_depth_multisampled_2d")
	assert.NotContains(t, single, "multisampled")
	assert.Contains(t, single, "texture_depth_2d")
}

func TestMeshShaderSamplesBeforeBranching(t *testing.T) {
	src := MustSource(Mesh)
	branch := strings.Index(src, "USE_NORMAL_MAP) != 0u")
	require.Positive(t, branch)
	assert.Less(t, strings.LastIndex(src, "textureSample("), branch)
}

func TestVertexLayoutReflection(t *testing.T) {
	l, err := VertexLayout(UI, "VertexInput", wgpu.VertexStepModeVertex)
	require.NoError(t, err)
	assert.Equal(t, uint64(16), l.ArrayStride)
	require.Len(t, l.Attributes, 2)
	assert.Equal(t, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, l.Attributes[1])

	inst, err := VertexLayout(Mesh, "InstanceInput", wgpu.VertexStepModeInstance)
	require.NoError(t, err)
	assert.Equal(t, uint64(164), inst.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, inst.StepMode)
	assert.Len(t, inst.Attributes, 11)
}

func TestVertexLayoutReflectionErrors(t *testing.T) {
	cases := []struct {
		name, src, structName string
	}{
		{"missing struct", "struct A { @location(0) p: vec3<f32>, };", "B"},
		{"builtin field", "struct A { @builtin(position) p: vec4<f32>, };", "A"},
		{"unsupported type", "struct A { @location(0) m: mat4x4<f32>, };", "A"},
		{"no locations", "struct A { p: vec3<f32>, };", "A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := reflectVertexLayout(tc.src, tc.structName, wgpu.VertexStepModeVertex)
			assert.Error(t, err)
		})
	}
}
