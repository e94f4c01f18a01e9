package anim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/avatarworks/go-avatar/pkg/pose"
)

const (
	// FrameCount is the length of one animation cycle in frames. Frame-locked
	// animations map the current frame onto [0, 2*pi) for their oscillators.
	FrameCount = 120

	// tickStep is the internal frame advance quantum in seconds. Wall-clock
	// time is drained in these steps so the frame counter runs at the same
	// rate regardless of how often Tick is called.
	tickStep = 0.01

	// DefaultIdleInterval is how long the avatar must go without external
	// activity before the scheduler swaps in an idle animation.
	DefaultIdleInterval = 10.0
)

// Config carries the knobs for a Scheduler. The zero value is usable; every
// field has a sensible default applied by NewSchedulerWith.
type Config struct {
	// Primary is the baseline animation. Nil selects stock breathing.
	Primary Animation

	// IdleInterval overrides DefaultIdleInterval when positive.
	IdleInterval float64

	// LatchIdle keeps the first selected idle variant until external
	// activity, instead of re-rolling every interval.
	LatchIdle bool

	// Variant selects the skin geometry passed through to animations.
	Variant pose.SkinVariant

	// Rand drives idle variant selection. Nil falls back to a time-seeded
	// source.
	Rand *rand.Rand
}

// Scheduler owns an avatar's pose and steps one animation at a time over it.
// It tracks wall-clock time in fixed internal steps, promotes idle variants
// after a period of inactivity, and hands back to the primary animation when
// the avatar is marked active again.
//
// All methods are safe for concurrent use.
type Scheduler struct {
	mu sync.Mutex

	pose    pose.Pose
	variant pose.SkinVariant

	primary Animation
	active  Animation
	idling  bool

	frame int
	acc   float64 // fractional step carry, always in [0, tickStep)

	idleTime     float64
	idleInterval float64
	latchIdle    bool

	rng *rand.Rand

	enabled bool
	closed  bool
}

// NewScheduler returns a scheduler driving the stock breathing animation
// with default settings.
func NewScheduler() *Scheduler {
	return NewSchedulerWith(Config{})
}

// NewSchedulerWith returns a scheduler configured by cfg. Missing fields are
// filled with defaults, so callers set only what they care about.
func NewSchedulerWith(cfg Config) *Scheduler {
	if cfg.Primary == nil {
		cfg.Primary = NewBreathing()
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = DefaultIdleInterval
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{
		variant:      cfg.Variant,
		primary:      cfg.Primary,
		active:       cfg.Primary,
		idleInterval: cfg.IdleInterval,
		latchIdle:    cfg.LatchIdle,
		rng:          cfg.Rand,
		enabled:      true,
	}
}

// Tick advances the scheduler by dt seconds of wall-clock time and reports
// liveness: true while the scheduler can still produce poses, false once it
// has been closed.
//
// Disabled schedulers stay alive but freeze: no time accumulates and the
// pose is left untouched.
func (s *Scheduler) Tick(dt float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if !s.enabled {
		return true
	}
	if dt < 0 {
		dt = 0
	}

	// Drain elapsed time into whole frame steps, carrying the remainder.
	s.acc += dt
	for s.acc >= tickStep {
		s.acc -= tickStep
		s.frame = (s.frame + 1) % FrameCount
	}

	s.idleTime += dt
	if s.idleTime >= s.idleInterval && s.primary.SupportsIdle() && !(s.idling && s.latchIdle) {
		if next := s.pickIdleVariant(); next != nil {
			s.active = next
			s.idling = true
			s.active.OnIdleStart(&s.pose)
			s.idleTime = 0
		}
	}

	s.active.Tick(&s.pose, s.frame, dt, s.variant)
	return true
}

// pickIdleVariant draws the next idle animation from the primary's variants.
// A single variant is returned as-is so tests stay deterministic; an empty
// list yields nil and the primary keeps running.
func (s *Scheduler) pickIdleVariant() Animation {
	variants := s.primary.IdleVariants()
	switch len(variants) {
	case 0:
		return nil
	case 1:
		return variants[0]
	default:
		return variants[s.rng.Intn(len(variants))]
	}
}

// MarkActive records external activity: any running idle variant is dropped,
// the primary animation resumes, and the idle countdown restarts.
func (s *Scheduler) MarkActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = s.primary
	s.idling = false
	s.idleTime = 0
}

// SetAnimation replaces the primary animation and resumes it immediately.
// A nil animation is ignored.
func (s *Scheduler) SetAnimation(a Animation) {
	if a == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.primary = a
	s.active = a
	s.idling = false
	s.idleTime = 0
}

// Close permanently stops the scheduler. Subsequent Tick calls return false
// and no further pose mutation happens. Close is idempotent.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Closed reports whether the scheduler has been closed.
func (s *Scheduler) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Pose returns a copy of the current pose.
func (s *Scheduler) Pose() pose.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pose
}

// Snapshot is a consistent view of the scheduler state, taken under one
// lock acquisition.
type Snapshot struct {
	Pose    pose.Pose
	Frame   int
	Idling  bool
	Enabled bool
	Variant pose.SkinVariant
}

// Snapshot returns the pose together with the frame counter and idle state,
// all observed atomically.
func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Pose:    s.pose,
		Frame:   s.frame,
		Idling:  s.idling,
		Enabled: s.enabled,
		Variant: s.variant,
	}
}

// FrameIndex returns the current frame in [0, FrameCount).
func (s *Scheduler) FrameIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// SetEnabled toggles pose mutation. Disabling does not reset any state;
// re-enabling resumes exactly where the scheduler left off.
func (s *Scheduler) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Enabled reports whether the scheduler is currently mutating the pose.
func (s *Scheduler) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetVariant switches the skin geometry used by animations.
func (s *Scheduler) SetVariant(v pose.SkinVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variant = v
}

// Variant returns the active skin geometry.
func (s *Scheduler) Variant() pose.SkinVariant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variant
}

// Idling reports whether an idle variant is currently driving the pose.
func (s *Scheduler) Idling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idling
}

// SetIdleInterval changes how long the avatar must be inactive before idle
// animations kick in. Non-positive values restore the default.
func (s *Scheduler) SetIdleInterval(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds <= 0 {
		seconds = DefaultIdleInterval
	}
	s.idleInterval = seconds
}

// IdleInterval returns the configured idle threshold in seconds.
func (s *Scheduler) IdleInterval() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idleInterval
}
