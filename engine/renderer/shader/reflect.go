package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

type vertexFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

// vertexFormats maps WGSL attribute types to vertex formats. Both the vecN<T> and the vecNT
// spellings are accepted.
var vertexFormats = map[string]vertexFormat{
	"f32":       {wgpu.VertexFormatFloat32, 4},
	"vec2<f32>": {wgpu.VertexFormatFloat32x2, 8},
	"vec2f":     {wgpu.VertexFormatFloat32x2, 8},
	"vec3<f32>": {wgpu.VertexFormatFloat32x3, 12},
	"vec3f":     {wgpu.VertexFormatFloat32x3, 12},
	"vec4<f32>": {wgpu.VertexFormatFloat32x4, 16},
	"vec4f":     {wgpu.VertexFormatFloat32x4, 16},
	"u32":       {wgpu.VertexFormatUint32, 4},
	"vec2<u32>": {wgpu.VertexFormatUint32x2, 8},
	"vec4<u32>": {wgpu.VertexFormatUint32x4, 16},
	"i32":       {wgpu.VertexFormatSint32, 4},
	"vec4<i32>": {wgpu.VertexFormatSint32x4, 16},
}

var (
	structRegex   = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	locationRegex = regexp.MustCompile(`@location\((\d+)\)\s*(\w+)\s*:\s*([^,]+)`)
	commentRegex  = regexp.MustCompile(`//[^\n]*`)
)

// VertexLayout reflects a vertex buffer layout from a vertex input struct of a built-in
// program. Attributes are packed in declaration order with no padding.
//
// Parameters:
//   - name: the built-in program, after pre-processing
//   - structName: the WGSL struct whose @location fields form one buffer
//   - step: the step mode of the buffer
//
// Returns:
//   - wgpu.VertexBufferLayout: the layout with ArrayStride set to the packed size
//   - error: error if the struct is missing, has a @builtin field or has an unsupported type
func VertexLayout(name Name, structName string, step wgpu.VertexStepMode) (wgpu.VertexBufferLayout, error) {
	src, err := Source(name)
	if err != nil {
		return wgpu.VertexBufferLayout{}, err
	}
	return reflectVertexLayout(src, structName, step)
}

// MustVertexLayout is VertexLayout for structs known to reflect cleanly.
func MustVertexLayout(name Name, structName string, step wgpu.VertexStepMode) wgpu.VertexBufferLayout {
	l, err := VertexLayout(name, structName, step)
	if err != nil {
		panic(err)
	}
	return l
}

func reflectVertexLayout(src, structName string, step wgpu.VertexStepMode) (wgpu.VertexBufferLayout, error) {
	src = commentRegex.ReplaceAllString(src, "")
	for _, m := range structRegex.FindAllStringSubmatch(src, -1) {
		if m[1] != structName {
			continue
		}
		body := m[2]
		if strings.Contains(body, "@builtin") {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("struct %s: @builtin fields are not vertex attributes", structName)
		}
		layout := wgpu.VertexBufferLayout{StepMode: step}
		var offset uint64
		for _, f := range locationRegex.FindAllStringSubmatch(body, -1) {
			loc, _ := strconv.Atoi(f[1])
			typ := strings.TrimSpace(f[3])
			vf, ok := vertexFormats[typ]
			if !ok {
				return wgpu.VertexBufferLayout{}, fmt.Errorf("struct %s field %s: unsupported type %q", structName, f[2], typ)
			}
			layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
				Format:         vf.format,
				Offset:         offset,
				ShaderLocation: uint32(loc),
			})
			offset += vf.size
		}
		if len(layout.Attributes) == 0 {
			return wgpu.VertexBufferLayout{}, fmt.Errorf("struct %s has no @location fields", structName)
		}
		layout.ArrayStride = offset
		return layout, nil
	}
	return wgpu.VertexBufferLayout{}, fmt.Errorf("struct %s not found", structName)
}
