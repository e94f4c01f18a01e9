package anim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/avatarworks/go-avatar/pkg/pose"
)

func TestLookAround_ConvergesToTarget(t *testing.T) {
	a := NewLookAround(rand.New(rand.NewSource(1)))
	a.SetTarget(50)
	p := &pose.Pose{}

	// A quarter second is ten smoothing time constants: the yaw should be
	// all but settled, and no re-target can fire this early.
	for i := 0; i < 5; i++ {
		a.Tick(p, 0, 0.05, pose.VariantClassic)
	}

	if math.Abs(a.Yaw()-50) > 0.1 {
		t.Errorf("Expected yaw settled near 50, got %v", a.Yaw())
	}
}

func TestLookAround_TargetsAreDiscrete(t *testing.T) {
	a := NewLookAround(rand.New(rand.NewSource(2)))
	p := &pose.Pose{}

	allowed := map[float64]bool{-100: true, -50: true, 0: true, 50: true, 100: true}
	for i := 0; i < 600; i++ {
		a.Tick(p, 0, 0.1, pose.VariantClassic)
		if !allowed[a.TargetYaw()] {
			t.Fatalf("Unexpected glance target %v at t=%v", a.TargetYaw(), p.ElapsedTime)
		}
	}
}

func TestLookAround_ShockArrivesOnSchedule(t *testing.T) {
	a := NewLookAround(rand.New(rand.NewSource(3)))
	p := &pose.Pose{}

	shockAt := -1
	for i := 0; i < 200; i++ {
		a.Tick(p, 0, 0.05, pose.VariantClassic)
		if math.Abs(a.TargetYaw()) == 100 {
			shockAt = i
			break
		}
	}

	// Normal glances never leave +/-50, so the first far target is the
	// shock, due 7.5s in: tick 150 at 0.05s steps.
	if shockAt < 145 || shockAt > 155 {
		t.Errorf("Expected the shock near tick 150, got %d", shockAt)
	}
}

func TestLookAround_OnIdleStartAdoptsHeadYaw(t *testing.T) {
	a := NewLookAround(rand.New(rand.NewSource(4)))
	p := &pose.Pose{ElapsedTime: 9.0}
	p.Head.Y = 37.5

	a.OnIdleStart(p)

	if a.Yaw() != 37.5 {
		t.Errorf("Expected yaw seeded from the pose, got %v", a.Yaw())
	}
	if p.ElapsedTime != 0 {
		t.Errorf("Expected elapsed time reset, got %v", p.ElapsedTime)
	}
}

func TestLookAround_NoNestedIdle(t *testing.T) {
	a := NewLookAround(nil)

	if a.SupportsIdle() {
		t.Error("Expected look-around to not support idle")
	}
	if a.IdleVariants() != nil {
		t.Error("Expected no idle variants")
	}
}

func TestLookAround_SecondaryMotion(t *testing.T) {
	a := NewLookAround(rand.New(rand.NewSource(5)))
	p := &pose.Pose{}

	var sawBody, sawHeadTilt bool
	for i := 0; i < 100; i++ {
		a.Tick(p, 0, 0.05, pose.VariantClassic)

		if p.ArmLeft.Z != p.ArmRight.Z {
			t.Fatalf("Expected both arms swinging together, got %v and %v", p.ArmLeft.Z, p.ArmRight.Z)
		}
		if p.Cape < 0.05-1e-9 || p.Cape > 0.25+1e-9 {
			t.Fatalf("Cape %v out of range at t=%v", p.Cape, p.ElapsedTime)
		}
		if p.Body.Y != 0 {
			sawBody = true
		}
		if p.Head.X != 0 {
			sawHeadTilt = true
		}
	}

	if !sawBody {
		t.Error("Expected body sway during look-around")
	}
	if !sawHeadTilt {
		t.Error("Expected head tilt during look-around")
	}
}

func TestLookAround_NilRngIsSafe(t *testing.T) {
	a := NewLookAround(nil)
	p := &pose.Pose{}

	a.Tick(p, 0, 0.05, pose.VariantClassic)

	if !allowedTarget(a.TargetYaw()) {
		t.Errorf("Expected a valid glance target, got %v", a.TargetYaw())
	}
}

func allowedTarget(yaw float64) bool {
	switch yaw {
	case -100, -50, 0, 50, 100:
		return true
	}
	return false
}
