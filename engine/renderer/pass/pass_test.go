package pass

import (
	"testing"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/light"
	"github.com/Carmen-Shannon/glace/engine/model"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/glace/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/glace/engine/renderer/resource_sync"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	be      *renderertest.Backend
	w       *world.World
	layouts *bgp.Layouts
	shared  *Shared
	sync    *world.System
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	be := renderertest.New()
	layouts, err := bgp.NewLayouts(be)
	require.NoError(t, err)

	cache := pipeline.NewCache(be, be.PreferredFormat())
	src := func(uint32) string { return "// wgsl" }
	cache.Register(pipeline.FamilyMesh, pipeline.NewFamily("mesh", src, pipeline.WithCullMode(wgpu.CullModeBack)))
	cache.Register(pipeline.FamilyLight, pipeline.NewFamily("light", src))
	cache.Register(pipeline.FamilyWireframe, pipeline.NewFamily("wireframe", src,
		pipeline.WithTopology(wgpu.PrimitiveTopologyLineList)))
	cache.Register(pipeline.FamilyDepth, pipeline.NewFamily("depth", src,
		pipeline.WithBindGroupLayoutsFor(layouts.DepthLayouts)))

	var bufs [2]gpu.Buffer
	for i := range bufs {
		bufs[i], err = be.CreateBuffer(gpu.BufferDescriptor{Label: "view", Size: 80})
		require.NoError(t, err)
	}
	view := bgp.NewBindGroupProvider("mesh view",
		bgp.WithBuffer(bgp.BindingCamera, bufs[0]),
		bgp.WithBuffer(bgp.BindingLight, bufs[1]),
	)
	require.NoError(t, view.Build(be, layouts.MeshView))

	sync := resource_sync.New(be, layouts)
	return &fixture{
		be:      be,
		w:       world.New(),
		layouts: layouts,
		shared:  &Shared{Pipelines: cache, View: view},
		sync:    world.NewSystem("sync", sync.Run),
	}
}

func (f *fixture) frame(t *testing.T, samples uint32) (Frame, *renderertest.Recorder) {
	t.Helper()
	rec, err := f.be.BeginCommands()
	require.NoError(t, err)
	target, err := gpu.CreateMultisampleTarget(f.be, 64, 64, samples, f.be.PreferredFormat())
	require.NoError(t, err)
	depth, err := gpu.CreateDepthTexture(f.be, 64, 64, samples)
	require.NoError(t, err)
	return Frame{
		Recorder: rec,
		Target:   target,
		Depth:    depth,
		Samples:  samples,
		Width:    64,
		Height:   64,
	}, rec.(*renderertest.Recorder)
}

func triangle(materials ...model.Material) model.Model {
	mesh := model.Mesh{
		Name: "tri",
		Vertices: []model.Vertex{
			model.NewVertex([3]float32{0, 0, 0}, [3]float32{0, 0, 1}, [2]float32{0, 0}),
			model.NewVertex([3]float32{1, 0, 0}, [3]float32{0, 0, 1}, [2]float32{1, 0}),
			model.NewVertex([3]float32{0, 1, 0}, [3]float32{0, 0, 1}, [2]float32{0, 1}),
		},
		Indices: []uint32{0, 1, 2},
	}
	return model.NewModel(model.WithMeshes(mesh), model.WithMaterials(materials...))
}

func (f *fixture) spawn(t *testing.T, m model.Model, extra ...func(world.Entity)) world.Entity {
	t.Helper()
	e := f.w.Spawn()
	require.NoError(t, world.Insert(f.w, e, m))
	require.NoError(t, world.Insert(f.w, e, model.NewTransform()))
	for _, fn := range extra {
		fn(e)
	}
	return e
}

func vertexOf(t *testing.T, w *world.World, e world.Entity) gpu.Buffer {
	t.Helper()
	mb, ok := world.Get[resource_sync.ModelBuffers](w, e)
	require.True(t, ok)
	return mb.Meshes[0].Vertex
}

func TestAlphaSelectsPhase(t *testing.T) {
	f := newFixture(t)
	solid := f.spawn(t, triangle(model.MaterialFromColor(common.Color{1, 0, 0, 1})))
	glass := f.spawn(t, triangle(model.MaterialFromColor(common.Color{0, 0, 1, 0.5})))
	f.w.RunSystem(f.sync)

	fr, rec := f.frame(t, 1)
	require.NoError(t, NewOpaquePhase(f.shared).Record(f.w, fr))
	require.NoError(t, NewTransparentPhase(f.shared).Record(f.w, fr))
	require.Len(t, rec.Passes, 2)

	opaque, transparent := rec.Passes[0], rec.Passes[1]
	require.Len(t, opaque.Draws, 1)
	require.Len(t, transparent.Draws, 1)
	assert.True(t, opaque.Draws[0].VertexBuffers[0] == vertexOf(t, f.w, solid))
	assert.True(t, transparent.Draws[0].VertexBuffers[0] == vertexOf(t, f.w, glass))

	for _, d := range append(opaque.Draws, transparent.Draws...) {
		assert.True(t, d.Indexed)
		assert.Equal(t, uint32(3), d.Count)
		assert.Equal(t, uint32(1), d.Instances)
		assert.NotNil(t, d.VertexBuffers[1], "instances bound at slot 1")
		assert.NotNil(t, d.BindGroups[0])
		assert.NotNil(t, d.BindGroups[1])
	}
	assert.True(t, opaque.Ended)
	assert.True(t, transparent.Ended)
}

func TestTransparentMarkerForcesBlend(t *testing.T) {
	f := newFixture(t)
	e := f.spawn(t, triangle(), func(e world.Entity) {
		require.NoError(t, world.Insert(f.w, e, Transparent{}))
	})
	f.w.RunSystem(f.sync)

	fr, rec := f.frame(t, 1)
	require.NoError(t, NewOpaquePhase(f.shared).Record(f.w, fr))
	require.NoError(t, NewTransparentPhase(f.shared).Record(f.w, fr))

	assert.Empty(t, rec.Passes[0].Draws)
	require.Len(t, rec.Passes[1].Draws, 1)
	assert.True(t, rec.Passes[1].Draws[0].VertexBuffers[0] == vertexOf(t, f.w, e))
}

func TestLoadOperations(t *testing.T) {
	f := newFixture(t)
	fr, rec := f.frame(t, 1)
	require.NoError(t, NewOpaquePhase(f.shared).Record(f.w, fr))
	require.NoError(t, NewTransparentPhase(f.shared).Record(f.w, fr))

	opaque := rec.Passes[0].Desc
	assert.Equal(t, wgpu.LoadOpClear, opaque.Color.Load)
	assert.Equal(t, wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1}, opaque.Color.ClearColor)
	require.NotNil(t, opaque.Depth)
	assert.Equal(t, wgpu.LoadOpClear, opaque.Depth.Load)
	assert.Equal(t, float32(1), opaque.Depth.ClearValue)

	transparent := rec.Passes[1].Desc
	assert.Equal(t, wgpu.LoadOpLoad, transparent.Color.Load)
	assert.Equal(t, wgpu.LoadOpLoad, transparent.Depth.Load)
}

func TestClearColorResource(t *testing.T) {
	f := newFixture(t)
	world.SetResource(f.w, ClearColor{0, 0.5, 1, 1})
	fr, rec := f.frame(t, 1)
	require.NoError(t, NewOpaquePhase(f.shared).Record(f.w, fr))
	assert.Equal(t, wgpu.Color{R: 0, G: 0.5, B: 1, A: 1}, rec.Passes[0].Desc.Color.ClearColor)
}

func TestLightGizmo(t *testing.T) {
	f := newFixture(t)
	lamp := f.spawn(t, triangle(), func(e world.Entity) {
		require.NoError(t, world.Insert(f.w, e, light.New()))
	})
	f.w.RunSystem(f.sync)

	fr, rec := f.frame(t, 1)
	require.NoError(t, NewOpaquePhase(f.shared).Record(f.w, fr))
	lp := NewLightPhase(f.shared)
	require.True(t, lp.Enabled(f.w))
	require.NoError(t, lp.Record(f.w, fr))

	assert.Empty(t, rec.Passes[0].Draws, "lights are not shaded as scene geometry")
	require.Len(t, rec.Passes[1].Draws, 1)
	d := rec.Passes[1].Draws[0]
	assert.True(t, d.VertexBuffers[0] == vertexOf(t, f.w, lamp))
	assert.Len(t, d.VertexBuffers, 1)
	assert.Equal(t, uint32(1), d.Instances)
	assert.False(t, d.Pipeline.Desc.Depth.Write)
}

func TestLightPhaseDisabledWithoutGeometry(t *testing.T) {
	f := newFixture(t)
	e := f.w.Spawn()
	require.NoError(t, world.Insert(f.w, e, light.New()))
	assert.False(t, NewLightPhase(f.shared).Enabled(f.w))
}

func TestWireframeDrawsEdges(t *testing.T) {
	f := newFixture(t)
	wp := NewWireframePhase(f.shared)
	plain := f.spawn(t, triangle())
	f.w.RunSystem(f.sync)
	assert.False(t, wp.Enabled(f.w))

	require.NoError(t, world.Insert(f.w, plain, Wireframe{}))
	require.True(t, wp.Enabled(f.w))
	fr, rec := f.frame(t, 1)
	require.NoError(t, wp.Record(f.w, fr))

	require.Len(t, rec.Passes[0].Draws, 1)
	d := rec.Passes[0].Draws[0]
	mb, _ := world.Get[resource_sync.ModelBuffers](f.w, plain)
	assert.True(t, d.IndexBuffer == mb.Meshes[0].Edges)
	assert.Equal(t, uint32(6), d.Count)
	assert.Equal(t, wgpu.PrimitiveTopologyLineList, d.Pipeline.Desc.Topology)
}

func TestDepthPhase(t *testing.T) {
	f := newFixture(t)
	dp, err := NewDepthPhase(f.shared, f.be, f.layouts)
	require.NoError(t, err)
	assert.False(t, dp.Enabled(f.w))

	world.SetResource(f.w, ShowDepth(true))
	require.True(t, dp.Enabled(f.w))

	fr, rec := f.frame(t, 4)
	require.NoError(t, dp.Record(f.w, fr))
	pass := rec.Passes[0]
	assert.Nil(t, pass.Desc.Depth)
	require.Len(t, pass.Draws, 1)
	assert.Equal(t, uint32(6), pass.Draws[0].Count)
	assert.False(t, pass.Draws[0].Indexed)
	assert.Equal(t, uint32(4), pass.Draws[0].Pipeline.Desc.SampleCount)
	first := pass.Draws[0].BindGroups[0]

	// same depth texture: the group is reused
	require.NoError(t, dp.Record(f.w, fr))
	assert.Same(t, first, rec.Passes[1].Draws[0].BindGroups[0])

	next, _ := f.frame(t, 4)
	fr.Depth = next.Depth
	require.NoError(t, dp.Record(f.w, fr))
	assert.NotSame(t, first, rec.Passes[2].Draws[0].BindGroups[0])
	assert.True(t, first.Released)
}

func TestSequenceOrder(t *testing.T) {
	f := newFixture(t)
	dp, err := NewDepthPhase(f.shared, f.be, f.layouts)
	require.NoError(t, err)
	var names []string
	for _, p := range Sequence(f.shared, dp, nil) {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"opaque", "transparent", "light", "wireframe", "depth", "ui"}, names)
	assert.False(t, NewUIPhase(nil).Enabled(f.w))
}
