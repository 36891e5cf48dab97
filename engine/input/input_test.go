package input

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/glace/common"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotDrainsDeltaAndClicks(t *testing.T) {
	s := NewState()
	s.MouseMove(10, 10)
	s.MouseMove(15, 8)
	s.MouseMove(20, 8)
	s.ButtonDown(common.MouseButtonLeft)
	s.ButtonDown(common.MouseButtonRight)
	s.KeyDown(common.KeyW)

	snap := s.Snapshot()
	assert.Equal(t, common.Vec2{10, -2}, snap.Delta)
	assert.Equal(t, []common.Vec2{{20, 8}}, snap.Clicks)
	assert.True(t, snap.Key(common.KeyW))
	assert.True(t, snap.Button(common.MouseButtonRight))

	s.KeyUp(common.KeyW)
	s.ButtonUp(common.MouseButtonRight)
	next := s.Snapshot()
	assert.Zero(t, next.Delta)
	assert.Empty(t, next.Clicks)
	assert.False(t, next.Key(common.KeyW))
	assert.False(t, next.Button(common.MouseButtonRight))
	assert.True(t, snap.Key(common.KeyW), "snapshots do not alias the live state")
}

func TestConcurrentWriters(t *testing.T) {
	s := NewState()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				s.MouseMove(float32(i), float32(j))
				s.KeyDown(uint32(j))
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.Snapshot().Keys, 100)
}
