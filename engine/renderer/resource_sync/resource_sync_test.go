package resource_sync

import (
	"testing"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/model"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	be   *renderertest.Backend
	w    *world.World
	sync *Synchronizer
	sys  *world.System
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	be := renderertest.New()
	layouts, err := bgp.NewLayouts(be)
	require.NoError(t, err)
	s := New(be, layouts)
	return &fixture{be: be, w: world.New(), sync: s, sys: world.NewSystem("sync", s.Run)}
}

func (f *fixture) run() { f.w.RunSystem(f.sys) }

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
	return model.NewModel(model.WithName("tri"), model.WithMeshes(mesh), model.WithMaterials(materials...))
}

func (f *fixture) spawn(t *testing.T, m model.Model, placement any) world.Entity {
	t.Helper()
	e := f.w.Spawn()
	require.NoError(t, world.Insert(f.w, e, m))
	switch p := placement.(type) {
	case model.Transform:
		require.NoError(t, world.Insert(f.w, e, p))
	case model.Instances:
		require.NoError(t, world.Insert(f.w, e, p))
	}
	return e
}

func TestMeshUploadAndLifecycle(t *testing.T) {
	f := newFixture(t)
	e := f.spawn(t, triangle(), model.NewTransform())
	f.run()

	mb, ok := world.Get[ModelBuffers](f.w, e)
	require.True(t, ok)
	require.Len(t, mb.Meshes, 1)
	assert.Equal(t, uint32(3), mb.Meshes[0].IndexCount)
	assert.Equal(t, uint32(6), mb.Meshes[0].EdgeCount)
	assert.Equal(t, uint64(3*model.VertexSize), mb.Meshes[0].Vertex.Size())

	lc, ok := world.Get[world.Lifecycle](f.w, e)
	require.True(t, ok)
	assert.Equal(t, world.GpuResourcesReady, *lc)
}

func TestLifecycleWaitsForPlacement(t *testing.T) {
	f := newFixture(t)
	bad := model.NewModel(model.WithName("broken"), model.WithMeshes(model.Mesh{Name: "empty"}))
	e := f.spawn(t, bad, model.NewTransform())
	f.run()

	assert.False(t, world.Has[ModelBuffers](f.w, e), "invalid meshes are not uploaded")
	lc, _ := world.Get[world.Lifecycle](f.w, e)
	assert.Equal(t, world.Loaded, *lc)
}

func TestInstanceRows(t *testing.T) {
	cases := []struct {
		name      string
		placement any
		rows      uint32
	}{
		{"transform", model.NewTransform(), 1},
		{"instances", model.Instances{Transforms: []model.Transform{model.NewTransform(), model.NewTransform(), model.NewTransform()}}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			e := f.spawn(t, triangle(), tc.placement)
			f.run()
			ib, ok := world.Get[InstanceBuffer](f.w, e)
			require.True(t, ok)
			assert.Equal(t, tc.rows, ib.Rows)
			assert.Equal(t, uint64(tc.rows)*model.InstanceRawSize, ib.Buffer.Size())
		})
	}
}

func TestTransformChangeRewritesInPlace(t *testing.T) {
	f := newFixture(t)
	e := f.spawn(t, triangle(), model.NewTransform())
	f.run()
	before, _ := world.Get[InstanceBuffer](f.w, e)
	buf, size := before.Buffer, before.Buffer.Size()
	f.be.ResetWrites()

	tr, _ := world.GetMut[model.Transform](f.w, e)
	tr.Translation = common.Vec3{1, 2, 3}
	f.run()

	after, _ := world.Get[InstanceBuffer](f.w, e)
	assert.Same(t, buf, after.Buffer)
	assert.Equal(t, size, after.Buffer.Size())
	writes := f.be.WritesTo(buf)
	require.Len(t, writes, 1)
	assert.Zero(t, writes[0].Offset)
	want := model.FromTranslation(common.Vec3{1, 2, 3}).ToRaw()
	assert.Equal(t, want.Marshal(), writes[0].Data)
}

func TestInstanceCountChangeRecreatesBuffer(t *testing.T) {
	f := newFixture(t)
	e := f.spawn(t, triangle(), model.Instances{Transforms: []model.Transform{model.NewTransform()}})
	f.run()
	old, _ := world.Get[InstanceBuffer](f.w, e)
	oldBuf := old.Buffer.(*renderertest.Buffer)

	in, _ := world.GetMut[model.Instances](f.w, e)
	in.Transforms = append(in.Transforms, model.FromTranslation(common.Vec3{2, 0, 0}))
	f.run()

	now, _ := world.Get[InstanceBuffer](f.w, e)
	assert.True(t, oldBuf.Released)
	assert.NotSame(t, oldBuf, now.Buffer)
	assert.Equal(t, uint32(2), now.Rows)
	assert.Equal(t, uint64(2*model.InstanceRawSize), now.Buffer.Size())
}

func TestSecondRunIsIdle(t *testing.T) {
	f := newFixture(t)
	f.spawn(t, triangle(), model.NewTransform())
	f.spawn(t, triangle(model.MaterialFromColor(common.Color{1, 0, 0, 0.5})), model.Instances{
		Transforms: []model.Transform{model.NewTransform(), model.NewTransform()},
	})
	f.run()
	buffers, groups := len(f.be.Buffers), len(f.be.BindGroups)
	f.be.ResetWrites()

	f.run()
	assert.Empty(t, f.be.Writes)
	assert.Len(t, f.be.Buffers, buffers)
	assert.Len(t, f.be.BindGroups, groups)
}

func TestNormalMapFlagAndPlaceholder(t *testing.T) {
	f := newFixture(t)
	plain := model.DefaultMaterial()
	mapped := model.DefaultMaterial()
	normal := common.SolidTexture(common.Color{0.5, 0.5, 1, 1})
	mapped.Normal = &normal

	e := f.spawn(t, triangle(plain, mapped), model.NewTransform())
	f.run()
	bundles, ok := world.Get[MaterialBundles](f.w, e)
	require.True(t, ok)
	require.Len(t, bundles.Bundles, 2)

	placeholder := bundles.Bundles[0].Provider.Texture(bgp.BindingNormal)
	assert.Same(t, placeholder, bundles.Bundles[0].Provider.Texture(bgp.BindingSpecular))
	assert.Same(t, placeholder, bundles.Bundles[1].Provider.Texture(bgp.BindingSpecular))
	assert.NotSame(t, placeholder, bundles.Bundles[1].Provider.Texture(bgp.BindingNormal))

	flags := func(b *MaterialBundle) byte {
		buf := b.Provider.Buffer(bgp.BindingMaterial).(*renderertest.Buffer)
		return buf.Data[36]
	}
	assert.Equal(t, byte(0), flags(bundles.Bundles[0]))
	assert.Equal(t, byte(model.MaterialFlagNormalMap), flags(bundles.Bundles[1]))
}

func TestEmptyNormalTextureIsUnmapped(t *testing.T) {
	f := newFixture(t)
	empty := model.DefaultMaterial()
	empty.Normal = &common.TextureStagingData{}
	white := model.DefaultMaterial()
	solid := common.SolidTexture(common.Color{1, 1, 1, 1})
	white.Normal = &solid

	e := f.spawn(t, triangle(empty, white), model.NewTransform())
	f.run()
	bundles, ok := world.Get[MaterialBundles](f.w, e)
	require.True(t, ok)
	require.Len(t, bundles.Bundles, 2)

	for _, b := range bundles.Bundles {
		placeholder := b.Provider.Texture(bgp.BindingDiffuse)
		assert.Same(t, placeholder, b.Provider.Texture(bgp.BindingNormal))
		buf := b.Provider.Buffer(bgp.BindingMaterial).(*renderertest.Buffer)
		assert.Equal(t, byte(0), buf.Data[36]&byte(model.MaterialFlagNormalMap))
	}
}

func TestModelMutationRewritesUniformsOnly(t *testing.T) {
	f := newFixture(t)
	e := f.spawn(t, triangle(model.DefaultMaterial()), model.NewTransform())
	f.run()
	bundles, _ := world.Get[MaterialBundles](f.w, e)
	bundle := bundles.Bundles[0]
	buffers, textures := len(f.be.Buffers), len(f.be.Textures)
	f.be.ResetWrites()

	m, _ := world.GetMut[model.Model](f.w, e)
	m.SetGloss(0.25)
	f.run()

	after, _ := world.Get[MaterialBundles](f.w, e)
	assert.Same(t, bundle, after.Bundles[0])
	assert.Len(t, f.be.Buffers, buffers)
	assert.Len(t, f.be.Textures, textures)
	require.Len(t, f.be.Writes, 1)
	assert.Same(t, bundle.Provider.Buffer(bgp.BindingMaterial), f.be.Writes[0].Buffer)
}

func TestModelIdentityChangeRebuilds(t *testing.T) {
	f := newFixture(t)
	e := f.spawn(t, triangle(), model.NewTransform())
	f.run()
	oldBundles, _ := world.Get[MaterialBundles](f.w, e)
	oldGroup := oldBundles.Bundles[0].BindGroup().(*renderertest.BindGroup)
	oldMesh, _ := world.Get[ModelBuffers](f.w, e)
	oldVertex := oldMesh.Meshes[0].Vertex.(*renderertest.Buffer)

	require.NoError(t, world.Insert(f.w, e, triangle()))
	f.run()

	assert.True(t, oldGroup.Released)
	assert.True(t, oldVertex.Released)
	m, _ := world.Get[model.Model](f.w, e)
	mb, _ := world.Get[ModelBuffers](f.w, e)
	assert.Equal(t, m.ID(), mb.ModelID)
}

func literal(name string, meshes ...model.Mesh) model.Model {
	return model.Model{Name: name, Meshes: meshes}
}

func TestLiteralModelsHaveDistinctIdentities(t *testing.T) {
	f := newFixture(t)
	tri := triangle().Meshes[0]
	broken := f.spawn(t, literal("broken", model.Mesh{Name: "empty"}), model.NewTransform())
	valid := f.spawn(t, literal("valid", tri), model.NewTransform())
	f.run()

	_, ok := world.Get[ModelBuffers](f.w, broken)
	assert.False(t, ok)
	mb, ok := world.Get[ModelBuffers](f.w, valid)
	require.True(t, ok, "a failed literal does not block another")
	m, _ := world.Get[model.Model](f.w, valid)
	assert.NotZero(t, m.ID())
	assert.Equal(t, m.ID(), mb.ModelID)
	oldVertex := mb.Meshes[0].Vertex.(*renderertest.Buffer)

	require.NoError(t, world.Insert(f.w, valid, literal("replacement", tri)))
	f.run()
	assert.True(t, oldVertex.Released, "replacing a literal rebuilds")
	mb, ok = world.Get[ModelBuffers](f.w, valid)
	require.True(t, ok)
	m, _ = world.Get[model.Model](f.w, valid)
	assert.Equal(t, m.ID(), mb.ModelID)

	require.NoError(t, world.Insert(f.w, broken, literal("fixed", tri)))
	f.run()
	_, ok = world.Get[ModelBuffers](f.w, broken)
	assert.True(t, ok, "a fresh literal on a failed entity is uploaded")
}

func TestDespawnReleasesEverything(t *testing.T) {
	f := newFixture(t)
	e := f.spawn(t, triangle(), model.NewTransform())
	f.run()
	require.NoError(t, f.sync.Despawn(f.w, e))
	assert.Empty(t, f.be.LiveBuffers())
	assert.False(t, f.w.Alive(e))
}
