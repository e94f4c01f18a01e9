// Package avatar binds animation scheduling to identified avatar instances
// and fans completed frames out to listeners.
package avatar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avatarworks/go-avatar/pkg/anim"
	"github.com/avatarworks/go-avatar/pkg/pose"
)

// DefaultTickRate is the pose production rate in frames per second.
const DefaultTickRate = 60.0

// Frame is one finished pose snapshot, stamped for ordering and transport.
type Frame struct {
	AvatarID   string
	Seq        uint64
	FrameIndex int
	Idling     bool
	Pose       pose.Pose
}

// FrameFunc receives frames as they are produced. Callbacks run on the
// avatar's tick goroutine, so they must not block.
type FrameFunc func(Frame)

// Avatar is one animated character: a scheduler, a tick loop, and a set of
// frame listeners.
type Avatar struct {
	ID      string
	Name    string
	Created time.Time

	sched *anim.Scheduler

	mu        sync.Mutex
	seq       uint64
	last      Frame
	listeners map[int]FrameFunc
	nextID    int
}

// New creates an avatar around the given scheduler. A nil scheduler gets
// the stock breathing setup.
func New(name string, sched *anim.Scheduler) *Avatar {
	if sched == nil {
		sched = anim.NewScheduler()
	}
	return &Avatar{
		ID:        uuid.NewString(),
		Name:      name,
		Created:   time.Now(),
		sched:     sched,
		listeners: make(map[int]FrameFunc),
	}
}

// Run drives the avatar at hz frames per second until the context is
// cancelled or the scheduler closes. A non-positive hz selects
// DefaultTickRate. Returns nil on scheduler close, the context error
// otherwise.
func (a *Avatar) Run(ctx context.Context, hz float64) error {
	if hz <= 0 {
		hz = DefaultTickRate
	}
	interval := time.Duration(float64(time.Second) / hz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			if !a.Step(dt) {
				return nil
			}
		}
	}
}

// Step advances the avatar by dt seconds and delivers the resulting frame.
// It reports liveness the same way the scheduler does: false means the
// avatar is closed and no frame was produced.
func (a *Avatar) Step(dt float64) bool {
	if !a.sched.Tick(dt) {
		return false
	}
	snap := a.sched.Snapshot()

	a.mu.Lock()
	a.seq++
	frame := Frame{
		AvatarID:   a.ID,
		Seq:        a.seq,
		FrameIndex: snap.Frame,
		Idling:     snap.Idling,
		Pose:       snap.Pose,
	}
	a.last = frame
	fns := make([]FrameFunc, 0, len(a.listeners))
	for _, fn := range a.listeners {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(frame)
	}
	return true
}

// OnFrame registers a listener for produced frames and returns a function
// that removes it again.
func (a *Avatar) OnFrame(fn FrameFunc) (remove func()) {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

// LastFrame returns the most recently produced frame. Before the first
// Step it is the zero Frame.
func (a *Avatar) LastFrame() Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// Scheduler exposes the underlying animation scheduler for control
// operations.
func (a *Avatar) Scheduler() *anim.Scheduler {
	return a.sched
}

// Pose returns the avatar's current pose.
func (a *Avatar) Pose() pose.Pose {
	return a.sched.Pose()
}

// MarkActive records external activity, deferring or ending idle animation.
func (a *Avatar) MarkActive() {
	a.sched.MarkActive()
}

// Close permanently stops the avatar. Any Run loop exits on its next tick.
func (a *Avatar) Close() {
	a.sched.Close()
}
