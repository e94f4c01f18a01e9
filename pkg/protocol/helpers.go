package protocol

import (
	"github.com/avatarworks/go-avatar/pkg/avatar"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewPoseMessage creates a pose message from an avatar frame.
func NewPoseMessage(frame avatar.Frame) (*Message, error) {
	return NewMessage(TypePose, FromPose(frame.AvatarID, frame.Seq, frame.FrameIndex, frame.Idling, frame.Pose))
}

// NewHelloMessage creates a session greeting.
func NewHelloMessage(avatarID, name, variant string, tickRate float64, animations []string) (*Message, error) {
	return NewMessage(TypeHello, HelloData{
		AvatarID:   avatarID,
		Name:       name,
		Variant:    variant,
		TickRate:   tickRate,
		Animations: animations,
	})
}

// NewStateMessage creates an avatar state snapshot message.
func NewStateMessage(state StateData) (*Message, error) {
	return NewMessage(TypeState, state)
}

// NewControlMessage creates a control operation message.
func NewControlMessage(control ControlData) (*Message, error) {
	return NewMessage(TypeControl, control)
}

// NewErrorMessage creates a request failure notice.
func NewErrorMessage(code, message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Code: code, Message: message})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetPoseData extracts pose data from a message
func (m *Message) GetPoseData() (*PoseData, error) {
	var data PoseData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetHelloData extracts hello data from a message
func (m *Message) GetHelloData() (*HelloData, error) {
	var data HelloData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStateData extracts state data from a message
func (m *Message) GetStateData() (*StateData, error) {
	var data StateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetControlData extracts a control operation from a message
func (m *Message) GetControlData() (*ControlData, error) {
	var data ControlData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts a failure notice from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
