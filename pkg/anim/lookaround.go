package anim

import (
	"math"
	"math/rand"
	"time"

	"github.com/avatarworks/go-avatar/pkg/pose"
)

// Look-around tuning. Yaw values are degrees, times are seconds.
const (
	lookGlanceYaw     = 50.0 // normal glance targets are -50, 0, +50
	lookShockYaw      = 100.0
	lookShockInterval = 7.5 // fixed period of the startled far glance
	lookRetargetMin   = 1.2 // re-target interval lower bound
	lookRetargetMax   = 2.2 // re-target interval upper bound (exclusive)
	lookSmoothTime    = 0.25
)

// LookAround is the stock idle behavior: the avatar glances between a few
// yaw targets, occasionally startled into a far look. The head eases toward
// each target with an exponential approach and carries a touch of
// high-frequency jitter for liveliness.
type LookAround struct {
	rng *rand.Rand

	yaw       float64 // current smoothed head yaw
	targetYaw float64

	retargetTimer    float64
	retargetInterval float64
	shockTimer       float64
}

// NewLookAround creates a look-around animation. A nil rng falls back to a
// time-seeded source so concurrent avatars stay independent of each other.
func NewLookAround(rng *rand.Rand) *LookAround {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	a := &LookAround{rng: rng}
	a.retargetInterval = a.nextInterval()
	a.targetYaw = a.pickTargetYaw()
	return a
}

// Tick advances the glance cycle and writes the pose.
func (a *LookAround) Tick(p *pose.Pose, frame int, dt float64, variant pose.SkinVariant) {
	p.ElapsedTime += dt
	a.retargetTimer += dt
	a.shockTimer += dt

	if a.retargetTimer >= a.retargetInterval {
		a.retargetTimer = 0
		a.retargetInterval = a.nextInterval()
		a.targetYaw = a.pickTargetYaw()
	}

	// The shock overrides whatever the normal cycle picked this tick.
	if a.shockTimer >= lookShockInterval {
		a.shockTimer = 0
		a.targetYaw = lookShockYaw
		if a.rng.Float64() < 0.5 {
			a.targetYaw = -lookShockYaw
		}
	}

	// Exponential approach: converges toward the target without overshoot
	// at any frame rate.
	a.yaw += (a.targetYaw - a.yaw) * (1 - math.Exp(-dt*10/lookSmoothTime))

	t := p.ElapsedTime
	p.Head.Y = a.yaw + math.Sin(t*13.3+3.1)*0.5
	p.Head.X = math.Sin(t*0.35) * 3

	// Both arms swing the same direction here, unlike breathing's mirror.
	swing := math.Sin(t*0.5) * 1.5
	p.ArmLeft.Z = swing
	p.ArmRight.Z = swing

	p.Body.Y = math.Sin(t*0.3) * 1.5
	p.Cape = 0.15 + math.Sin(t*0.45)*0.1
}

// OnIdleStart re-seeds the glance cycle and adopts the pose's current head
// yaw so the hand-off from the previous animation does not pop.
func (a *LookAround) OnIdleStart(p *pose.Pose) {
	p.ElapsedTime = 0
	a.retargetTimer = 0
	a.shockTimer = 0
	a.retargetInterval = a.nextInterval()
	a.targetYaw = a.pickTargetYaw()
	a.yaw = p.Head.Y
}

// SupportsIdle always returns false; look-around is itself an idle behavior.
func (a *LookAround) SupportsIdle() bool {
	return false
}

// IdleVariants returns nil to prevent recursive idle nesting.
func (a *LookAround) IdleVariants() []Animation {
	return nil
}

// SetTarget aims the glance at an explicit yaw in degrees. The random walk
// resumes at the next re-target cycle.
func (a *LookAround) SetTarget(yawDeg float64) {
	a.targetYaw = yawDeg
}

// Yaw returns the current smoothed head yaw in degrees.
func (a *LookAround) Yaw() float64 {
	return a.yaw
}

// TargetYaw returns the yaw the head is converging toward.
func (a *LookAround) TargetYaw() float64 {
	return a.targetYaw
}

// pickTargetYaw draws from the discretized glance distribution:
// 30% left, 30% center, 40% right.
func (a *LookAround) pickTargetYaw() float64 {
	r := a.rng.Float64()
	switch {
	case r < 0.3:
		return -lookGlanceYaw
	case r < 0.6:
		return 0
	default:
		return lookGlanceYaw
	}
}

func (a *LookAround) nextInterval() float64 {
	return lookRetargetMin + a.rng.Float64()*(lookRetargetMax-lookRetargetMin)
}
