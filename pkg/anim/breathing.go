package anim

import (
	"math"
	"math/rand"

	"github.com/avatarworks/go-avatar/pkg/pose"
)

// Arm swing amplitude in degrees, per skin variant. Slim arms are narrower,
// so they swing a touch less.
const (
	armAmplitudeClassic = 6.0
	armAmplitudeSlim    = 5.0
)

// BreathingConfig tunes the default breathing animation.
type BreathingConfig struct {
	// SupportsIdle lets the scheduler hand the pose to an idle variant
	// after the idle interval. It also switches breathing from the
	// frame-locked cycle to the time-driven pulse.
	SupportsIdle bool

	// ResetPoseOnIdle zeroes the entire pose when an idle phase begins.
	// When false only the phase accumulator is cleared.
	ResetPoseOnIdle bool

	// ArmAmplitude overrides the arm swing in degrees.
	// Zero keeps the per-variant default.
	ArmAmplitude float64

	// Rand seeds the look-around idle variant. Nil uses a time-based seed.
	Rand *rand.Rand
}

// Breathing is the default animation: a gentle breathing loop with mirrored
// arm sway, a slight head bob and cape drift. With idle support enabled it
// carries one look-around idle variant.
type Breathing struct {
	supportsIdle bool
	resetPose    bool
	armAmplitude float64
	idle         []Animation
}

// NewBreathing creates the stock breathing animation with idle support.
func NewBreathing() *Breathing {
	return NewBreathingWith(BreathingConfig{SupportsIdle: true})
}

// NewBreathingWith creates a breathing animation with explicit configuration.
func NewBreathingWith(cfg BreathingConfig) *Breathing {
	b := &Breathing{
		supportsIdle: cfg.SupportsIdle,
		resetPose:    cfg.ResetPoseOnIdle,
		armAmplitude: cfg.ArmAmplitude,
	}
	if cfg.SupportsIdle {
		b.idle = []Animation{NewLookAround(cfg.Rand)}
	}
	return b
}

// Tick advances the breathing phase and writes the pose.
func (b *Breathing) Tick(p *pose.Pose, frame int, dt float64, variant pose.SkinVariant) {
	p.ElapsedTime += dt
	if b.supportsIdle {
		b.tickPulse(p, variant)
	} else {
		b.tickCycle(p, frame, variant)
	}
}

// tickCycle is the frame-locked loop: one breath every FrameCount ticks of
// the internal counter, immune to wall-clock jitter.
func (b *Breathing) tickCycle(p *pose.Pose, frame int, variant pose.SkinVariant) {
	t := float64(frame) / FrameCount * 2 * math.Pi

	swing := math.Sin(t) * b.amplitude(variant)
	p.ArmLeft.Z = swing
	p.ArmRight.Z = -swing

	p.Head.X = math.Sin(t*0.5) * 2
	p.Head.Y = math.Cos(t*0.25) * 1.5
	p.Cape = 0.2 + math.Sin(t*0.8+0.5)*0.15
}

// tickPulse is the time-driven mode used alongside idle support: a slow
// eased breath pulse layered with distinct per-axis arm frequencies.
func (b *Breathing) tickPulse(p *pose.Pose, variant pose.SkinVariant) {
	t := p.ElapsedTime
	amp := b.amplitude(variant)

	// Slow breath normalized into [0, 1], eased so the turnarounds are soft.
	pulse := ease(0.5 + 0.5*math.Sin(t*0.5))

	lift := pulse * amp * 0.5
	drift := math.Sin(t*0.4) * 1.5
	swing := math.Sin(t*0.9) * amp

	p.ArmLeft.X = lift
	p.ArmRight.X = lift
	p.ArmLeft.Y = drift
	p.ArmRight.Y = -drift
	p.ArmLeft.Z = swing
	p.ArmRight.Z = -swing

	p.Head.Y = math.Sin(t*0.25) * 1.5
	p.Cape = pulse - 0.25
}

// OnIdleStart restarts the breathing phase. With ResetPoseOnIdle set the
// whole pose snaps back to zero first.
func (b *Breathing) OnIdleStart(p *pose.Pose) {
	if b.resetPose {
		p.Reset()
	}
	p.ElapsedTime = 0
}

// SupportsIdle reports whether idle variants may take over.
func (b *Breathing) SupportsIdle() bool {
	return b.supportsIdle
}

// IdleVariants returns the idle behaviors carried by this animation.
func (b *Breathing) IdleVariants() []Animation {
	return b.idle
}

func (b *Breathing) amplitude(variant pose.SkinVariant) float64 {
	if b.armAmplitude != 0 {
		return b.armAmplitude
	}
	if variant == pose.VariantSlim {
		return armAmplitudeSlim
	}
	return armAmplitudeClassic
}

// ease is a cosine ease-in-out: 0 at x=0, 1 at x=1, flat at both ends.
func ease(x float64) float64 {
	return -(math.Cos(math.Pi*x) - 1) / 2
}
