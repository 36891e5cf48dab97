// Package input carries window input from the event thread to the render goroutine.
// The window callbacks write into a State under its mutex; once per frame the engine
// takes a Snapshot and stores it in the world as a resource.
package input

import (
	"maps"
	"sync"

	"github.com/Carmen-Shannon/glace/common"
)

// State accumulates input events between snapshots. It is safe for concurrent use.
type State struct {
	mu      sync.Mutex
	keys    map[uint32]bool
	buttons map[int]bool
	cursor  common.Vec2
	delta   common.Vec2
	clicks  []common.Vec2
	moved   bool
}

// Snapshot is the input observed during one frame.
type Snapshot struct {
	// Keys holds every key currently held down.
	Keys map[uint32]bool
	// Buttons holds every mouse button currently held down.
	Buttons map[int]bool
	// Cursor is the last cursor position in window pixels.
	Cursor common.Vec2
	// Delta is the summed cursor movement since the previous snapshot.
	Delta common.Vec2
	// Clicks are left-button presses since the previous snapshot, in window pixels.
	Clicks []common.Vec2
}

// NewState returns an empty input state.
func NewState() *State {
	return &State{
		keys:    make(map[uint32]bool),
		buttons: make(map[int]bool),
	}
}

func (s *State) KeyDown(key uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = true
}

func (s *State) KeyUp(key uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
}

// ButtonDown records a mouse press at the cursor position.
func (s *State) ButtonDown(button int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buttons[button] = true
	if button == common.MouseButtonLeft {
		s.clicks = append(s.clicks, s.cursor)
	}
}

func (s *State) ButtonUp(button int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buttons, button)
}

// MouseMove records the cursor position. The first move only seeds the position so a
// window gaining focus does not produce a jump.
func (s *State) MouseMove(x, y float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pos := common.Vec2{x, y}
	if s.moved {
		d := pos.Sub(s.cursor)
		s.delta[0] += d[0]
		s.delta[1] += d[1]
	}
	s.cursor = pos
	s.moved = true
}

// Snapshot copies the held keys and buttons and drains the accumulated delta and clicks.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Keys:    maps.Clone(s.keys),
		Buttons: maps.Clone(s.buttons),
		Cursor:  s.cursor,
		Delta:   s.delta,
		Clicks:  s.clicks,
	}
	s.delta = common.Vec2{}
	s.clicks = nil
	return snap
}

// Key reports whether key is held.
func (s Snapshot) Key(key uint32) bool { return s.Keys[key] }

// Button reports whether button is held.
func (s Snapshot) Button(button int) bool { return s.Buttons[button] }
