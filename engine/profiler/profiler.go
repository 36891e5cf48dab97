// Package profiler measures frame rate and memory use on the render goroutine.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/glace/common"
)

// Stats is the latest completed measurement window. The engine stores it as a world resource
// so the overlay can show it.
type Stats struct {
	FPS       float64
	FrameTime time.Duration
	// HeapMB is live heap memory.
	HeapMB float64
	// AllocRateMB is heap allocation churn per second over the window.
	AllocRateMB float64
	GCCount     uint32
	// MaxPause is the longest GC pause observed during the window.
	MaxPause time.Duration
	SysMB    float64
}

// Profiler aggregates frame ticks into Stats once per interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	logStats       bool
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	stats          Stats
	now            func() time.Time
}

// ProfilerBuilderOption is a functional option for configuring a Profiler via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets the measurement window. The default is one second.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = d
	}
}

// WithLogging logs every completed window at debug level.
func WithLogging(enabled bool) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logStats = enabled
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// NewProfiler creates a new Profiler with the given options applied.
//
// Parameters:
//   - options: a variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame to track frame timing.
//
// Returns:
//   - bool: true if a window completed and Stats changed this tick
func (p *Profiler) Tick() bool {
	p.frameCount++
	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	gcCount := p.memStats.NumGC
	var maxPause uint64
	// PauseNs is a circular buffer of the last 256 pauses
	start := p.lastGCCount
	if gcCount-start > 256 {
		start = gcCount - 256
	}
	for i := start; i < gcCount; i++ {
		maxPause = max(maxPause, p.memStats.PauseNs[i%256])
	}

	p.stats = Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		FrameTime:   elapsed / time.Duration(p.frameCount),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(allocDelta) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     gcCount,
		MaxPause:    time.Duration(maxPause),
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}
	if p.logStats {
		common.Logger().Debug("profiler",
			"fps", p.stats.FPS,
			"frame_time", p.stats.FrameTime,
			"heap_mb", p.stats.HeapMB,
			"alloc_rate_mb", p.stats.AllocRateMB,
			"gc", gcCount,
			"max_pause", p.stats.MaxPause,
			"sys_mb", p.stats.SysMB,
		)
	}

	p.frameCount = 0
	p.lastTime = current
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Stats returns the last completed window. It is zero until the first window completes.
func (p *Profiler) Stats() Stats {
	return p.stats
}
