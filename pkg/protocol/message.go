// Package protocol defines the WebSocket message types spoken between the
// avatar daemon and its viewers. The same envelope rides the session socket,
// the firehose and the WebRTC pose channel.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/avatarworks/go-avatar/pkg/pose"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Server → Client messages
	TypeHello MessageType = "hello" // Session greeting
	TypePose  MessageType = "pose"  // One animation frame
	TypeState MessageType = "state" // Avatar state snapshot
	TypeError MessageType = "error" // Request failure notice

	// Client → Server messages
	TypeControl MessageType = "control" // Control operation

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// Vec3 is a rotation triple in degrees as it appears on the wire.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PoseData is one animation frame, flattened for transport.
type PoseData struct {
	AvatarID string `json:"avatar_id"`
	Seq      uint64 `json:"seq"`
	Frame    int    `json:"frame"`
	Idling   bool   `json:"idling,omitempty"`

	Body     Vec3    `json:"body"`
	ArmLeft  Vec3    `json:"arm_left"`
	ArmRight Vec3    `json:"arm_right"`
	LegLeft  Vec3    `json:"leg_left"`
	LegRight Vec3    `json:"leg_right"`
	Head     Vec3    `json:"head"`
	Cape     float64 `json:"cape"`
	Elapsed  float64 `json:"elapsed,omitempty"`
}

// HelloData greets a client when a session opens.
type HelloData struct {
	AvatarID   string   `json:"avatar_id"`
	Name       string   `json:"name,omitempty"`
	Variant    string   `json:"variant"`
	TickRate   float64  `json:"tick_rate"`
	Animations []string `json:"animations,omitempty"`
}

// StateData is an avatar state snapshot.
type StateData struct {
	AvatarID     string  `json:"avatar_id"`
	Name         string  `json:"name,omitempty"`
	Enabled      bool    `json:"enabled"`
	Idling       bool    `json:"idling"`
	Variant      string  `json:"variant"`
	IdleInterval float64 `json:"idle_interval"`
	Frame        int     `json:"frame"`
}

// ErrorData reports why a client request was rejected.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// Control operations accepted by the daemon.
const (
	OpMarkActive      = "mark_active"
	OpSetAnimation    = "set_animation"
	OpSetVariant      = "set_variant"
	OpSetEnabled      = "set_enabled"
	OpSetIdleInterval = "set_idle_interval"
)

// ControlData carries one control operation. Only the field matching the
// operation is read; the rest stay empty on the wire.
type ControlData struct {
	Op           string  `json:"op"`
	Animation    string  `json:"animation,omitempty"`
	Variant      string  `json:"variant,omitempty"`
	Enabled      *bool   `json:"enabled,omitempty"`
	IdleInterval float64 `json:"idle_interval,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}

// =============================================================================
// Pose conversion
// =============================================================================

// wireVec converts an internal rotation triple to its wire form.
func wireVec(v pose.Vec3) Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// poseVec converts a wire triple back to the internal form.
func poseVec(v Vec3) pose.Vec3 {
	return pose.Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// FromPose flattens a pose into wire form, stamped with identity and
// ordering metadata.
func FromPose(avatarID string, seq uint64, frame int, idling bool, p pose.Pose) PoseData {
	return PoseData{
		AvatarID: avatarID,
		Seq:      seq,
		Frame:    frame,
		Idling:   idling,
		Body:     wireVec(p.Body),
		ArmLeft:  wireVec(p.ArmLeft),
		ArmRight: wireVec(p.ArmRight),
		LegLeft:  wireVec(p.LegLeft),
		LegRight: wireVec(p.LegRight),
		Head:     wireVec(p.Head),
		Cape:     p.Cape,
		Elapsed:  p.ElapsedTime,
	}
}

// Pose rebuilds the internal pose from the wire form.
func (d *PoseData) Pose() pose.Pose {
	return pose.Pose{
		Body:        poseVec(d.Body),
		ArmLeft:     poseVec(d.ArmLeft),
		ArmRight:    poseVec(d.ArmRight),
		LegLeft:     poseVec(d.LegLeft),
		LegRight:    poseVec(d.LegRight),
		Head:        poseVec(d.Head),
		Cape:        d.Cape,
		ElapsedTime: d.Elapsed,
	}
}
