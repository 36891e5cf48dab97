package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/Carmen-Shannon/glace/engine/input"
	bgp "github.com/Carmen-Shannon/glace/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/glace/engine/renderer/gpu"
	"github.com/Carmen-Shannon/glace/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/glace/engine/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3(t *testing.T, want, got common.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-5, "component %d of %v", i, got)
	}
}

func TestDefaultOrientation(t *testing.T) {
	c := New(WithEye(common.Vec3{0, 0, 5}))
	assertVec3(t, common.Vec3{0, 0, -1}, c.Forward())
	assertVec3(t, common.Vec3{1, 0, 0}, c.Right())
	assertVec3(t, common.Vec3{0, 0, -5}, c.View().MulPoint(common.Vec3{}))
}

func TestLookAt(t *testing.T) {
	c := New(WithEye(common.Vec3{5, 0, 0}), WithLookAt(common.Vec3{}))
	assertVec3(t, common.Vec3{-1, 0, 0}, c.Forward())
}

func TestUniformLayout(t *testing.T) {
	c := New(WithEye(common.Vec3{1, 2, 3}))
	b := c.Uniform().Marshal()
	require.Len(t, b, UniformSize)
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(b[4:])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(b[12:])))
	vp := c.ViewProjection()
	assert.Equal(t, vp[5], math.Float32frombits(binary.LittleEndian.Uint32(b[16+5*4:])))
}

func held(keys ...uint32) input.Snapshot {
	in := input.Snapshot{Keys: map[uint32]bool{}, Buttons: map[int]bool{common.MouseButtonRight: true}}
	for _, k := range keys {
		in.Keys[k] = true
	}
	return in
}

func TestFlyControllerMovesAndDecays(t *testing.T) {
	fc := NewFlyController(WithSpeed(4))
	c := New(WithEye(common.Vec3{}))

	assert.False(t, fc.Update(&c, input.Snapshot{Keys: map[uint32]bool{common.KeyW: true}}, 800, 600, 1),
		"movement needs the right button")

	require.True(t, fc.Update(&c, held(common.KeyW), 800, 600, 1))
	assertVec3(t, common.Vec3{0, 0, -4}, c.Eye)

	require.True(t, fc.Update(&c, held(), 800, 600, 1))
	assertVec3(t, common.Vec3{0, 0, 2}, fc.Velocity())
	assertVec3(t, common.Vec3{0, 0, -6}, c.Eye)

	for fc.Update(&c, held(), 800, 600, 1) {
	}
	assert.Equal(t, common.Vec3{}, fc.Velocity())
}

func TestFlyControllerDiagonalIsNormalized(t *testing.T) {
	fc := NewFlyController(WithSpeed(2))
	c := New()
	fc.Update(&c, held(common.KeyW, common.KeyD), 800, 600, 0.5)
	assert.InDelta(t, 2, fc.Velocity().Length(), 1e-5)
}

func TestFlyControllerYaw(t *testing.T) {
	fc := NewFlyController()
	c := New()
	in := held()
	in.Delta = common.Vec2{200, 0}
	require.True(t, fc.Update(&c, in, 800, 600, 0.016))
	assertVec3(t, common.Vec3{1, 0, 0}, c.Forward())
}

func TestUniformSystemWritesOnChangeOnly(t *testing.T) {
	be := renderertest.New()
	buf, err := be.CreateBuffer(gpu.BufferDescriptor{Label: "camera", Size: UniformSize})
	require.NoError(t, err)
	view := bgp.NewBindGroupProvider("view", bgp.WithBuffer(bgp.BindingCamera, buf))

	w := world.New()
	world.SetResource(w, New())
	sys := world.NewSystem("camera uniform", UniformSystem(be, view, bgp.BindingCamera))

	w.RunSystem(sys)
	assert.Len(t, be.Writes, 1)
	w.RunSystem(sys)
	assert.Len(t, be.Writes, 1)

	cam, _ := world.ResourceMut[Camera](w)
	cam.Eye = common.Vec3{0, 3, 0}
	w.RunSystem(sys)
	require.Len(t, be.Writes, 2)
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(be.Writes[1].Data[4:])))
}

func TestFlySystemMarksChangedOnlyWhenMoving(t *testing.T) {
	w := world.New()
	world.SetResource(w, New())
	world.SetResource(w, world.Time{Delta: 0.1})
	world.SetResource(w, world.Viewport{Width: 800, Height: 600})
	world.SetResource(w, input.Snapshot{})

	fly := world.NewSystem("fly", FlySystem(NewFlyController()))
	w.RunSystem(fly)
	changed := false
	check := world.NewSystem("check", func(w *world.World) { changed = world.ResourceChanged[Camera](w) })
	w.RunSystem(check)
	assert.True(t, changed, "first run sees the initial insert")

	w.RunSystem(fly)
	w.RunSystem(check)
	assert.False(t, changed)

	world.SetResource(w, held(common.KeySpace))
	w.RunSystem(fly)
	w.RunSystem(check)
	assert.True(t, changed)
}
