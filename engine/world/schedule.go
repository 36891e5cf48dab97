package world

// Stage groups systems that run together. Stages run in declaration order every frame,
// except StageStartup which runs once before the first frame.
type Stage int

const (
	StageStartup Stage = iota
	StagePreUpdate
	StageUpdate
	StagePostUpdate
	StageRender
	stageCount
)

func (s Stage) String() string {
	switch s {
	case StageStartup:
		return "startup"
	case StagePreUpdate:
		return "pre_update"
	case StageUpdate:
		return "update"
	case StagePostUpdate:
		return "post_update"
	case StageRender:
		return "render"
	}
	return "unknown"
}

// System is a named unit of per-frame work. lastRun tracks the tick of its previous execution
// so that Added and Changed filters only report what the system has not seen yet.
type System struct {
	Name    string
	run     func(w *World)
	lastRun Tick
}

// NewSystem wraps fn as a schedulable system.
func NewSystem(name string, fn func(w *World)) *System {
	return &System{Name: name, run: fn}
}

type schedule struct {
	stages      [stageCount][]*System
	startupDone bool
}

func newSchedule() schedule {
	return schedule{}
}

// AddSystem appends a system to stage. Systems within a stage run in insertion order.
//
// Parameters:
//   - stage: the stage to run in
//   - name: a label for logs and panics
//   - fn: the system body
//
// Returns:
//   - *System: the registered system
func (w *World) AddSystem(stage Stage, name string, fn func(w *World)) *System {
	s := NewSystem(name, fn)
	w.schedule.stages[stage] = append(w.schedule.stages[stage], s)
	return s
}

// Systems returns the systems registered in stage, in run order.
func (w *World) Systems(stage Stage) []*System {
	return w.schedule.stages[stage]
}

// RunSystem executes s against w. The tick advances before the run so writes made by s are
// newer than anything s has observed, and again after it so writes made outside any system
// are newer than the run itself.
func (w *World) RunSystem(s *System) {
	w.tick++
	prev := w.lastRun
	w.lastRun = s.lastRun
	s.run(w)
	s.lastRun = w.tick
	w.lastRun = prev
	w.tick++
}

// RunStage executes every system in stage in order.
func (w *World) RunStage(stage Stage) {
	for _, s := range w.schedule.stages[stage] {
		w.RunSystem(s)
	}
}

// Update runs the startup stage on its first call and then every per-frame stage in order.
func (w *World) Update() {
	if !w.schedule.startupDone {
		w.RunStage(StageStartup)
		w.schedule.startupDone = true
	}
	for st := StagePreUpdate; st < stageCount; st++ {
		w.RunStage(st)
	}
}
