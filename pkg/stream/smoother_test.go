package stream

import (
	"math"
	"testing"

	"github.com/avatarworks/go-avatar/pkg/pose"
)

func TestSmootherPrimesOnFirstTarget(t *testing.T) {
	s := NewSmoother(60)

	target := pose.Pose{Head: pose.Vec3{Y: 30}, Cape: 0.5}
	s.SetTarget(target)

	got := s.Current()
	if got.Head.Y != 30 {
		t.Errorf("Expected head Y 30 after priming, got %v", got.Head.Y)
	}
	if got.Cape != 0.5 {
		t.Errorf("Expected cape 0.5 after priming, got %v", got.Cape)
	}
}

func TestSmootherMovesTowardTarget(t *testing.T) {
	s := NewSmoother(60)
	s.SetTarget(pose.Pose{})
	s.SetTarget(pose.Pose{ArmLeft: pose.Vec3{Z: 10}})

	first := s.Step()
	if first.ArmLeft.Z <= 0 || first.ArmLeft.Z >= 10 {
		t.Errorf("Expected first step between 0 and 10, got %v", first.ArmLeft.Z)
	}

	second := s.Step()
	if second.ArmLeft.Z <= first.ArmLeft.Z {
		t.Errorf("Expected motion to keep rising early on: %v then %v",
			first.ArmLeft.Z, second.ArmLeft.Z)
	}
}

func TestSmootherConverges(t *testing.T) {
	s := NewSmoother(60)
	s.SetTarget(pose.Pose{})
	s.SetTarget(pose.Pose{
		Head:     pose.Vec3{X: 3, Y: 50, Z: -2},
		ArmRight: pose.Vec3{Z: -6},
		Cape:     0.4,
	})

	var p pose.Pose
	for i := 0; i < 600; i++ {
		p = s.Step()
	}

	if math.Abs(p.Head.Y-50) > 0.5 {
		t.Errorf("Expected head Y near 50 after settling, got %v", p.Head.Y)
	}
	if math.Abs(p.ArmRight.Z+6) > 0.5 {
		t.Errorf("Expected right arm Z near -6 after settling, got %v", p.ArmRight.Z)
	}
	if math.Abs(p.Cape-0.4) > 0.05 {
		t.Errorf("Expected cape near 0.4 after settling, got %v", p.Cape)
	}
}

func TestSmootherCurrentDoesNotAdvance(t *testing.T) {
	s := NewSmoother(60)
	s.SetTarget(pose.Pose{})
	s.SetTarget(pose.Pose{Body: pose.Vec3{Y: 5}})

	before := s.Current()
	s.Current()
	after := s.Current()
	if before != after {
		t.Errorf("Expected Current to be read-only, got %v then %v", before, after)
	}

	stepped := s.Step()
	if stepped == before {
		t.Error("Expected Step to advance the springs")
	}
}

func TestSmootherMirroredChannelsStayMirrored(t *testing.T) {
	s := NewSmoother(60)
	s.SetTarget(pose.Pose{})
	s.SetTarget(pose.Pose{
		ArmLeft:  pose.Vec3{Z: -6},
		ArmRight: pose.Vec3{Z: 6},
	})

	// Identical spring dynamics per channel keep symmetric targets symmetric.
	for i := 0; i < 50; i++ {
		p := s.Step()
		if math.Abs(p.ArmLeft.Z+p.ArmRight.Z) > 1e-9 {
			t.Fatalf("Expected mirrored arms at step %d, got %v and %v",
				i, p.ArmLeft.Z, p.ArmRight.Z)
		}
	}
}
