// Package tracking runs the tracking context: it folds hand updates into the joint
// sample buffer, advances gesture recognition and publishes immutable snapshots for
// the render loop through a Mailbox.
package tracking

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/Carmen-Shannon/oxy-xr/common"
	"github.com/Carmen-Shannon/oxy-xr/engine/gesture"
	"github.com/Carmen-Shannon/oxy-xr/engine/hand"
)

// Tracker owns the joint sample buffer and gesture state for a session.
type Tracker interface {
	// Submit queues a hand update for processing on the tracking worker and returns immediately.
	//
	// Parameters:
	//   - u: the hand update delivered by the tracking provider
	Submit(u hand.Update)

	// Process applies a hand update synchronously on the calling goroutine.
	// Updates older than the last update seen for the same hand are dropped. An
	// update for a hand that is no longer tracked flags all of its joints untracked,
	// so recognition stops reading them until the hand returns.
	//
	// Parameters:
	//   - u: the hand update to apply
	//
	// Returns:
	//   - *Snapshot: the snapshot published for this update
	//   - bool: false if the update was dropped
	Process(u hand.Update) (*Snapshot, bool)

	// Wait blocks until every submitted update has been processed.
	Wait()

	// Mailbox returns the mailbox snapshots are published to.
	Mailbox() *Mailbox

	// SetRecognizer swaps the gesture recognizer. Accumulated gesture state is kept.
	//
	// Parameters:
	//   - r: the new recognizer
	SetRecognizer(r gesture.Recognizer)

	// Dropped returns how many updates were discarded as stale, for an unknown hand,
	// or submitted after Close.
	Dropped() uint64

	// Close finishes the updates already submitted and stops the tracking workers.
	// Later submissions are dropped. Process keeps working synchronously.
	Close()
}

type trackerImpl struct {
	mu         sync.Mutex
	buffer     hand.JointSampleBuffer
	state      gesture.State
	recognizer gesture.Recognizer
	lastSeen   [2]time.Time
	seq        uint64

	mailbox *Mailbox
	clock   common.Clock
	logger  *slog.Logger

	workers   int
	pool      worker.DynamicWorkerPool
	pending   sync.WaitGroup
	taskID    atomic.Int64
	dropped   atomic.Uint64
	closeMu   sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

var _ Tracker = &trackerImpl{}

// NewTracker creates a Tracker with a default recognizer and a single tracking worker,
// then applies the given options.
//
// Parameters:
//   - options: variadic list of TrackerBuilderOption functions
//
// Returns:
//   - Tracker: the configured tracker
func NewTracker(options ...TrackerBuilderOption) Tracker {
	t := &trackerImpl{
		state:   gesture.NewState(),
		mailbox: &Mailbox{},
		clock:   common.SystemClock(),
		logger:  slog.Default(),
		workers: 1,
	}
	for _, opt := range options {
		opt(t)
	}
	if t.recognizer == nil {
		t.recognizer = gesture.NewRecognizer()
	}
	t.pool = worker.NewDynamicWorkerPool(t.workers, 256, 1*time.Second)
	return t
}

func (t *trackerImpl) Submit(u hand.Update) {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		t.dropped.Add(1)
		return
	}
	t.pending.Add(1)
	t.closeMu.RUnlock()

	id := int(t.taskID.Add(1))
	t.pool.SubmitTask(worker.Task{
		ID: id,
		Do: func() (any, error) {
			defer t.pending.Done()
			s, _ := t.Process(u)
			return s, nil
		},
	})
}

func (t *trackerImpl) Process(u hand.Update) (*Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if u.Chirality != hand.Left && u.Chirality != hand.Right {
		t.dropped.Add(1)
		t.logger.Warn("dropping update for unknown hand", "hand", u.Chirality)
		return nil, false
	}

	now := u.Timestamp
	if now.IsZero() {
		now = t.clock.Now()
	}
	if last := t.lastSeen[u.Chirality]; !last.IsZero() && now.Before(last) {
		t.dropped.Add(1)
		t.logger.Debug("dropping stale hand update", "hand", u.Chirality, "at", now, "last", last)
		return nil, false
	}
	t.lastSeen[u.Chirality] = now

	if !t.buffer.Apply(u) {
		t.logger.Debug("hand lost", "hand", u.Chirality)
	}

	prev := t.state
	t.recognizer.Update(&t.state, &t.buffer, now)
	t.logTransitions(prev, t.state)

	t.seq++
	s := &Snapshot{
		Seq:       t.seq,
		Joints:    t.buffer,
		Gesture:   t.state,
		Timestamp: now,
	}
	t.mailbox.Publish(s)
	return s, true
}

func (t *trackerImpl) logTransitions(prev, next gesture.State) {
	if prev.PinchActive != next.PinchActive {
		t.logger.Debug("pinch", "active", next.PinchActive, "point", next.LastPinchPoint)
	}
	if prev.SwipeActive != next.SwipeActive {
		t.logger.Debug("swipe", "active", next.SwipeActive, "angle", next.RotationAngle)
	}
}

func (t *trackerImpl) Wait() {
	t.pending.Wait()
}

func (t *trackerImpl) Mailbox() *Mailbox {
	return t.mailbox
}

func (t *trackerImpl) SetRecognizer(r gesture.Recognizer) {
	if r == nil {
		return
	}
	t.mu.Lock()
	t.recognizer = r
	t.mu.Unlock()
	t.logger.Info("gesture recognizer replaced", "dominant", r.DominantHand())
}

func (t *trackerImpl) Dropped() uint64 {
	return t.dropped.Load()
}

func (t *trackerImpl) Close() {
	t.closeOnce.Do(func() {
		t.closeMu.Lock()
		t.closed = true
		t.closeMu.Unlock()

		t.pending.Wait()
		t.pool.Stop()
		t.logger.Debug("tracking workers stopped", "dropped", t.dropped.Load())
	})
}
