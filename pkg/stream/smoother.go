package stream

import (
	"sync"

	"github.com/charmbracelet/harmonica"

	"github.com/avatarworks/go-avatar/pkg/pose"
)

// poseChannels is the number of scalar channels in a pose:
// six body parts with three axes each, plus the cape.
const poseChannels = 19

// Spring tuning for display smoothing. A touch underdamped so motion keeps
// some character when frames arrive late.
const (
	DefaultFrequency = 6.0
	DefaultDamping   = 0.8
)

// Smoother resamples a received pose stream to display rate. The daemon
// ticks at its own rate and the network adds jitter; a renderer feeds every
// received pose into SetTarget and pulls one interpolated pose per display
// frame with Step. Each channel follows its target on an independent spring.
type Smoother struct {
	spring harmonica.Spring

	mu     sync.Mutex
	pos    [poseChannels]float64
	vel    [poseChannels]float64
	target [poseChannels]float64
	primed bool
}

// NewSmoother creates a smoother stepping at the given display rate.
func NewSmoother(fps int) *Smoother {
	return NewSmootherTuned(fps, DefaultFrequency, DefaultDamping)
}

// NewSmootherTuned creates a smoother with explicit spring parameters.
func NewSmootherTuned(fps int, frequency, damping float64) *Smoother {
	return &Smoother{
		spring: harmonica.NewSpring(harmonica.FPS(fps), frequency, damping),
	}
}

// SetTarget updates the pose the springs are converging toward.
// The first target snaps the smoother state so playback never swings in
// from the zero pose.
func (s *Smoother) SetTarget(p pose.Pose) {
	flat := flatten(p)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.target = flat
	if !s.primed {
		s.pos = flat
		s.primed = true
	}
}

// Step advances every channel one display frame and returns the smoothed pose.
func (s *Smoother) Step() pose.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < poseChannels; i++ {
		s.pos[i], s.vel[i] = s.spring.Update(s.pos[i], s.vel[i], s.target[i])
	}
	return unflatten(s.pos)
}

// Current returns the smoothed pose without advancing the springs.
func (s *Smoother) Current() pose.Pose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return unflatten(s.pos)
}

func flatten(p pose.Pose) [poseChannels]float64 {
	return [poseChannels]float64{
		p.Body.X, p.Body.Y, p.Body.Z,
		p.ArmLeft.X, p.ArmLeft.Y, p.ArmLeft.Z,
		p.ArmRight.X, p.ArmRight.Y, p.ArmRight.Z,
		p.LegLeft.X, p.LegLeft.Y, p.LegLeft.Z,
		p.LegRight.X, p.LegRight.Y, p.LegRight.Z,
		p.Head.X, p.Head.Y, p.Head.Z,
		p.Cape,
	}
}

func unflatten(v [poseChannels]float64) pose.Pose {
	return pose.Pose{
		Body:     pose.Vec3{X: v[0], Y: v[1], Z: v[2]},
		ArmLeft:  pose.Vec3{X: v[3], Y: v[4], Z: v[5]},
		ArmRight: pose.Vec3{X: v[6], Y: v[7], Z: v[8]},
		LegLeft:  pose.Vec3{X: v[9], Y: v[10], Z: v[11]},
		LegRight: pose.Vec3{X: v[12], Y: v[13], Z: v[14]},
		Head:     pose.Vec3{X: v[15], Y: v[16], Z: v[17]},
		Cape:     v[18],
	}
}
