// Package profiler periodically logs frame loop throughput and memory statistics.
package profiler

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
)

// FrameStats are the cumulative frame loop counters sampled on each Tick.
type FrameStats struct {
	// Submitted counts frames whose command buffer was committed.
	Submitted uint64

	// Skipped counts iterations that produced no frame: no frame, timing, drawable or renderer.
	Skipped uint64

	// RenderErrors counts failed UpdateMarkers and Render calls.
	RenderErrors uint64

	// CommitErrors counts command buffers that failed to submit.
	CommitErrors uint64

	// HeadPoseMisses counts frames rendered with the identity head pose.
	HeadPoseMisses uint64

	// InFlight is the number of admission tokens currently held.
	InFlight int
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	lastSkipped    uint64

	clock  common.Clock
	logger *slog.Logger
}

// NewProfiler creates a new Profiler.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: variadic list of ProfilerBuilderOption functions
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		clock:          common.SystemClock(),
		logger:         slog.Default(),
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.clock.Now()
	return p
}

// Tick should be called once per submitted frame.
// Logs FPS, skipped frames since the last report, in-flight tokens, heap usage,
// allocation rate and GC pauses when the update interval has elapsed.
//
// Parameters:
//   - stats: the frame loop counters at this frame
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(stats FrameStats) bool {
	p.frameCount++
	now := p.clock.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval || elapsed <= 0 {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var maxPause time.Duration
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		start := p.lastGCCount
		if gcCount-start > 256 {
			start = gcCount - 256
		}
		for i := start; i < gcCount; i++ {
			if pause := time.Duration(p.memStats.PauseNs[i%256]); pause > maxPause {
				maxPause = pause
			}
		}
	}

	p.logger.Info("frame stats",
		"fps", fps,
		"submitted", stats.Submitted,
		"skipped", stats.Skipped-p.lastSkipped,
		"render_errors", stats.RenderErrors,
		"commit_errors", stats.CommitErrors,
		"head_pose_misses", stats.HeadPoseMisses,
		"in_flight", stats.InFlight,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRateMB,
		"gc", gcCount,
		"gc_max_pause", maxPause,
	)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastSkipped = stats.Skipped
	return true
}
