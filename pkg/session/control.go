package session

import (
	"github.com/avatarworks/go-avatar/pkg/avatar"
	"github.com/avatarworks/go-avatar/pkg/pose"
	"github.com/avatarworks/go-avatar/pkg/protocol"
)

// ControlError describes a rejected control operation. Code is stable and
// machine-readable; Message carries the offending detail.
type ControlError struct {
	Code    string
	Message string
}

func (e *ControlError) Error() string {
	return e.Code + ": " + e.Message
}

// ApplyControl executes one control operation against an avatar. It is
// shared by the WebSocket sessions and the REST control endpoint so both
// transports behave identically.
func ApplyControl(manager *avatar.Manager, av *avatar.Avatar, control *protocol.ControlData) *ControlError {
	switch control.Op {
	case protocol.OpMarkActive:
		av.MarkActive()

	case protocol.OpSetAnimation:
		if err := manager.SetAnimation(av.ID, control.Animation); err != nil {
			return &ControlError{Code: "unknown_animation", Message: control.Animation}
		}

	case protocol.OpSetVariant:
		variant, ok := pose.ParseVariant(control.Variant)
		if !ok {
			return &ControlError{Code: "bad_variant", Message: control.Variant}
		}
		av.Scheduler().SetVariant(variant)

	case protocol.OpSetEnabled:
		if control.Enabled == nil {
			return &ControlError{Code: "bad_control", Message: "enabled flag required"}
		}
		av.Scheduler().SetEnabled(*control.Enabled)

	case protocol.OpSetIdleInterval:
		av.Scheduler().SetIdleInterval(control.IdleInterval)

	default:
		return &ControlError{Code: "bad_control", Message: "unknown op: " + control.Op}
	}
	return nil
}

// StateOf builds the wire state snapshot for an avatar.
func StateOf(av *avatar.Avatar) protocol.StateData {
	snap := av.Scheduler().Snapshot()
	return protocol.StateData{
		AvatarID:     av.ID,
		Name:         av.Name,
		Enabled:      snap.Enabled,
		Idling:       snap.Idling,
		Variant:      snap.Variant.String(),
		IdleInterval: av.Scheduler().IdleInterval(),
		Frame:        snap.Frame,
	}
}
