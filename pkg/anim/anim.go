// Package anim drives procedural character animation for a humanoid avatar.
// It implements a primary/idle animation architecture where:
// - A primary animation (breathing by default) writes the pose every frame
// - Idle variants (look-around) take over after a period of inactivity
// - The Scheduler owns the pose, a fixed-rate frame counter and the idle timer
//
// Everything here is single-threaded and cooperative: the host render loop
// calls Scheduler.Tick once per frame with the elapsed wall-clock time and
// reads the pose afterwards. Nothing blocks, sleeps or spawns goroutines.
package anim

import "github.com/avatarworks/go-avatar/pkg/pose"

// Animation is a unit of procedural animation logic that mutates the pose
// given time and frame inputs. Implementations are flat and independent;
// the only composition is the one-level idle variant list.
type Animation interface {
	// Tick advances the animation by dt seconds and writes the resulting
	// pose in place. frame is the scheduler's fixed-rate counter in
	// [0, FrameCount) and variant selects per-model amplitude tuning.
	Tick(p *pose.Pose, frame int, dt float64, variant pose.SkinVariant)

	// OnIdleStart prepares the animation to take over as an idle behavior.
	// Implementations reset their phase here so the hand-off starts clean.
	OnIdleStart(p *pose.Pose)

	// SupportsIdle reports whether the scheduler may swap this animation
	// for one of its idle variants after the idle interval elapses.
	SupportsIdle() bool

	// IdleVariants returns the animations eligible to run while idle.
	// Idle behaviors return nil to prevent recursive idle nesting.
	IdleVariants() []Animation
}
