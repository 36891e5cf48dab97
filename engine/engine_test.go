package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/light"
	"github.com/Carmen-Shannon/glace/engine/model"
	"github.com/Carmen-Shannon/glace/engine/renderer/pass"
	"github.com/Carmen-Shannon/glace/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/glace/engine/renderer/resource_sync"
	"github.com/Carmen-Shannon/glace/engine/settings"
	"github.com/Carmen-Shannon/glace/engine/shapes"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	e   *engine
	be  *renderertest.Backend
	now time.Time
}

func newHarness(t *testing.T, s settings.Settings, options ...EngineBuilderOption) *harness {
	t.Helper()
	opts := append([]EngineBuilderOption{
		WithSettings(s),
		WithUIMemoryFile(filepath.Join(t.TempDir(), "ui.yaml")),
	}, options...)
	e := newEngine(opts...)
	be := renderertest.New()
	require.NoError(t, e.assemble(be, 800, 600))
	return &harness{e: e, be: be, now: time.Unix(1000, 0)}
}

func testSettings() settings.Settings {
	s := settings.Defaults()
	s.Model.Path = ""
	return s
}

func (h *harness) step() {
	h.now = h.now.Add(16 * time.Millisecond)
	h.e.frame(h.now)
}

func (h *harness) settings(edit func(*settings.Settings)) {
	s, _ := world.ResourceMut[settings.Settings](h.e.world)
	edit(s)
}

func TestStartupBuildsDefaultScene(t *testing.T) {
	h := newHarness(t, testSettings())
	h.step()

	w := h.e.world
	lights := w.Query(world.With[light.Light]())
	require.Len(t, lights, 1)
	assert.True(t, world.Has[resource_sync.ModelBuffers](w, lights[0]))

	grids := w.Query(world.With[pass.Wireframe](), world.Without[light.Light]())
	require.Len(t, grids, 1)
	m, _ := world.Get[model.Model](w, grids[0])
	assert.Equal(t, "grid", m.Name)

	assert.Equal(t, 1, h.be.Presents)
	assert.Equal(t, 1, h.be.Submits)
}

func TestWithoutDefaultScene(t *testing.T) {
	h := newHarness(t, testSettings(), WithDefaultScene(false))
	h.step()
	assert.Empty(t, h.e.world.Query())
	assert.Equal(t, 1, h.be.Presents)
}

func TestSpawnAttachesLoadedModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.obj")
	require.NoError(t, os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0o644))

	s := testSettings()
	s.Model.Scale = 2
	s.Model.Gloss = 0.25
	h := newHarness(t, s, WithDefaultScene(false))
	ent := h.e.Spawn(path, model.FromTranslation(common.Vec3{1, 0, 0}))

	w := h.e.world
	state, _ := world.Get[world.Lifecycle](w, ent)
	assert.Equal(t, world.Unloaded, *state)

	require.Eventually(t, func() bool {
		h.step()
		return world.Has[resource_sync.ModelBuffers](w, ent)
	}, 2*time.Second, 5*time.Millisecond)

	assert.False(t, world.Has[Pending](w, ent))
	sp, ok := world.Get[Spawned](w, ent)
	require.True(t, ok)
	assert.Equal(t, path, sp.Path)

	tr, _ := world.Get[model.Transform](w, ent)
	assert.Equal(t, common.Vec3{1, 0, 0}, tr.Translation)
	assert.Equal(t, common.Vec3{2, 2, 2}, tr.Scale)
	m, _ := world.Get[model.Model](w, ent)
	require.NotEmpty(t, m.Materials)
	assert.InDelta(t, 0.25, m.Materials[0].Gloss, 1e-6)

	require.NoError(t, h.e.Despawn(ent))
	assert.Empty(t, w.Query())
}

func TestFailedLoadLeavesEntityUnloaded(t *testing.T) {
	h := newHarness(t, testSettings(), WithDefaultScene(false))
	ent := h.e.Spawn(filepath.Join(t.TempDir(), "missing.obj"), model.NewTransform())

	w := h.e.world
	require.Eventually(t, func() bool {
		h.step()
		return !world.Has[Pending](w, ent)
	}, 2*time.Second, 5*time.Millisecond)

	assert.False(t, world.Has[model.Model](w, ent))
	state, _ := world.Get[world.Lifecycle](w, ent)
	assert.Equal(t, world.Unloaded, *state)
}

func TestSettingsChangesApplyNextFrame(t *testing.T) {
	h := newHarness(t, testSettings(), WithDefaultScene(false))
	ent := h.e.SpawnModel(model.NewModel(
		model.WithMeshes(shapes.Cube(1, 1, 1)),
		model.WithMaterials(model.DefaultMaterial()),
	), model.NewTransform())
	w := h.e.world
	_ = world.Insert(w, ent, Spawned{Path: "virtual"})
	h.step()
	assert.Equal(t, uint32(4), h.e.ctx.Samples())

	h.settings(func(s *settings.Settings) {
		s.Render.MSAA = 1
		s.Render.ShowDepth = true
		s.Render.ClearColor = [4]float32{1, 0, 0, 1}
		s.Model.Wireframe = true
		s.Model.Gloss = 0.5
		s.Light.Rotate = false
		s.Camera.Far = 50
	})
	h.step()

	assert.Equal(t, uint32(1), h.e.ctx.Samples())
	show, _ := world.Resource[pass.ShowDepth](w)
	assert.True(t, bool(*show))
	cc, _ := world.Resource[pass.ClearColor](w)
	assert.Equal(t, pass.ClearColor{1, 0, 0, 1}, *cc)
	assert.True(t, world.Has[pass.Wireframe](w, ent))
	m, _ := world.Get[model.Model](w, ent)
	assert.InDelta(t, 0.5, m.Materials[0].Gloss, 1e-6)
	orbit, _ := world.Resource[light.Orbit](w)
	assert.False(t, orbit.Enabled)

	h.settings(func(s *settings.Settings) { s.Model.Wireframe = false })
	h.step()
	assert.False(t, world.Has[pass.Wireframe](w, ent))
}

func TestLightColorFollowsSettings(t *testing.T) {
	h := newHarness(t, testSettings())
	h.step()
	h.settings(func(s *settings.Settings) { s.Light.Color = [3]float32{1, 0.5, 0} })
	h.step()

	w := h.e.world
	ent, ok := w.First(world.With[light.Light]())
	require.True(t, ok)
	l, _ := world.Get[light.Light](w, ent)
	assert.Equal(t, common.Vec3{1, 0.5, 0}, l.Color)
}

func TestResizeUpdatesViewport(t *testing.T) {
	h := newHarness(t, testSettings(), WithDefaultScene(false))
	h.step()
	h.e.requestResize(640, 480)
	h.e.requestResize(1024, 768)
	h.step()

	vp, _ := world.Resource[world.Viewport](h.e.world)
	assert.Equal(t, world.Viewport{Width: 1024, Height: 768}, *vp)
	w, ht := h.e.ctx.Size()
	assert.Equal(t, uint32(1024), w)
	assert.Equal(t, uint32(768), ht)
}

func TestSettingsPanelClickTogglesLightOrbit(t *testing.T) {
	h := newHarness(t, testSettings(), WithDefaultScene(false))
	h.step()

	panel := h.e.overlay.Panels()[0]
	require.Equal(t, "Settings", panel.Title)
	pos := panel.Position()
	h.e.input.MouseMove(pos[0]+20, pos[1]+30)
	h.e.input.ButtonDown(common.MouseButtonLeft)
	h.step()
	h.e.input.ButtonUp(common.MouseButtonLeft)
	h.step()

	s, _ := world.Resource[settings.Settings](h.e.world)
	assert.False(t, s.Light.Rotate)
	orbit, _ := world.Resource[light.Orbit](h.e.world)
	assert.False(t, orbit.Enabled)
}

func TestUserSystemRuns(t *testing.T) {
	var ticks int
	h := newHarness(t, testSettings(), WithDefaultScene(false),
		WithSystem(world.StageUpdate, "count", func(*world.World) { ticks++ }))
	h.step()
	h.step()
	assert.Equal(t, 2, ticks)
}

func TestDespawnWhileRunningWaitsForNextFrame(t *testing.T) {
	h := newHarness(t, testSettings(), WithDefaultScene(false))
	w := h.e.world
	ent := h.e.SpawnModel(model.NewModel(model.WithMeshes(shapes.Cube(1, 1, 1))), model.NewTransform())
	h.step()
	require.True(t, world.Has[resource_sync.ModelBuffers](w, ent))

	h.e.running.Store(true)
	done := make(chan error)
	go func() { done <- h.e.Despawn(ent) }()
	require.NoError(t, <-done)
	assert.True(t, w.Alive(ent), "queued until the render goroutine drains it")

	h.step()
	assert.False(t, w.Alive(ent))
	assert.Empty(t, h.e.despawns)

	h.e.running.Store(false)
	other := h.e.SpawnModel(model.NewModel(model.WithMeshes(shapes.Cube(1, 1, 1))), model.NewTransform())
	require.NoError(t, h.e.Despawn(other))
	assert.False(t, w.Alive(other), "acts at once before Run")
}

func TestShutdownReleasesEverything(t *testing.T) {
	h := newHarness(t, testSettings())
	h.step()
	h.e.shutdown()

	assert.True(t, h.be.Released)
	assert.Empty(t, h.e.world.Query())
	for _, b := range h.be.LiveBuffers() {
		t.Errorf("buffer %q still live", b.Label())
	}
}
