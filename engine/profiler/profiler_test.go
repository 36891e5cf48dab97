package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTickAggregatesWindow(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewProfiler(WithClock(func() time.Time { return now }))

	for range 9 {
		now = now.Add(100 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	assert.Zero(t, p.Stats().FPS)

	now = now.Add(100 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.InDelta(t, 10, p.Stats().FPS, 1e-9)
	assert.Equal(t, 100*time.Millisecond, p.Stats().FrameTime)
	assert.Positive(t, p.Stats().SysMB)
}

func TestIntervalOption(t *testing.T) {
	now := time.Unix(0, 0)
	p := NewProfiler(WithInterval(50*time.Millisecond), WithClock(func() time.Time { return now }))
	now = now.Add(50 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.InDelta(t, 20, p.Stats().FPS, 1e-9)
}
