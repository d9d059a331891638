package window

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/frame"
)

// lifecycle tracks the preview's loop state. Iconifying pauses it; closing
// invalidates it for good.
type lifecycle struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state frame.LoopState
}

func newLifecycle() *lifecycle {
	l := &lifecycle{state: frame.Running}
	l.cond = sync.NewCond(&l.mu)
	return l
}

func (l *lifecycle) State() frame.LoopState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// set moves to state. Invalidated is terminal and ignores further changes.
func (l *lifecycle) set(state frame.LoopState) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == frame.Invalidated || l.state == state {
		return false
	}
	l.state = state
	l.cond.Broadcast()
	return true
}

func (l *lifecycle) WaitUntilRunning() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for l.state == frame.Paused {
		l.cond.Wait()
	}
}

// pacer predicts frame timing on a fixed refresh grid anchored at origin.
type pacer struct {
	clock    common.Clock
	interval time.Duration
	origin   time.Time
}

func newPacer(clock common.Clock, refreshHz int) *pacer {
	if refreshHz <= 0 {
		refreshHz = 60
	}
	return &pacer{
		clock:    clock,
		interval: time.Second / time.Duration(refreshHz),
		origin:   clock.Now(),
	}
}

// predict returns the timing for the next frame: input is sampled at the next
// refresh boundary after now, and the frame is shown one refresh later.
func (p *pacer) predict() frame.Timing {
	elapsed := p.clock.Now().Sub(p.origin)
	next := p.origin.Add((elapsed/p.interval + 1) * p.interval)
	return frame.Timing{
		OptimalInputTime: next,
		PresentationTime: next.Add(p.interval),
	}
}
