// Package pose holds the flat pose state for a humanoid avatar.
//
// A Pose is a plain data holder: per-body-part rotation vectors plus a cape
// sway scalar. Animations in pkg/anim mutate it in place every tick and an
// external renderer maps the values onto a mesh skeleton. The package has no
// behavior beyond field access and resetting.
package pose

// Vec3 is a rotation vector in degrees, one component per axis.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

// Pose represents the complete animation state of one avatar.
// It is owned by a single scheduler and must only be written from one
// goroutine; readers on other goroutines take value copies.
type Pose struct {
	// Per-part rotations in degrees.
	Body     Vec3
	ArmLeft  Vec3
	ArmRight Vec3
	LegLeft  Vec3
	LegRight Vec3
	Head     Vec3

	// Cape is the cloth sway parameter. Animations keep it roughly
	// within [-0.25, 0.75].
	Cape float64

	// ElapsedTime is seconds since the active animation's phase began.
	// Animations own this field: they advance it each tick and reset it
	// when their phase restarts. The scheduler never touches it.
	ElapsedTime float64
}

// Zero returns the canonical zero pose.
func Zero() Pose {
	return Pose{}
}

// Reset returns the pose to the canonical zero pose: all rotation vectors
// zero, cape at rest, elapsed time cleared.
func (p *Pose) Reset() {
	*p = Pose{}
}

// IsZero reports whether the pose equals the canonical zero pose.
func (p *Pose) IsZero() bool {
	return *p == Pose{}
}
