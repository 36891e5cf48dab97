package renderer

import (
	"github.com/Carmen-Shannon/glace/engine/model"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// registerFamilies registers the built-in 3D pipeline families on the context's cache.
// The UI family is supplied by the overlay through WithFamily.
func registerFamilies(c *Context) {
	l := c.layouts
	cache := c.pipelines
	cache.Register(pipeline.FamilyMesh, pipeline.NewFamily("mesh", shader.ForSamples(shader.Mesh),
		pipeline.WithBindGroupLayouts(l.MeshView, l.Material),
		pipeline.WithVertexBuffers(model.VertexBufferLayout(), model.InstanceBufferLayout()),
		pipeline.WithCullMode(wgpu.CullModeBack),
	))
	cache.Register(pipeline.FamilyLight, pipeline.NewFamily("light", shader.ForSamples(shader.Light),
		pipeline.WithBindGroupLayouts(l.MeshView),
		pipeline.WithVertexBuffers(model.VertexBufferLayout()),
	))
	cache.Register(pipeline.FamilyWireframe, pipeline.NewFamily("wireframe", shader.ForSamples(shader.Wireframe),
		pipeline.WithBindGroupLayouts(l.MeshView),
		pipeline.WithVertexBuffers(model.VertexBufferLayout(), model.InstanceBufferLayout()),
		pipeline.WithTopology(wgpu.PrimitiveTopologyLineList),
	))
	cache.Register(pipeline.FamilyDepth, pipeline.NewFamily("depth", shader.ForSamples(shader.Depth),
		pipeline.WithBindGroupLayoutsFor(l.DepthLayouts),
	))
}
