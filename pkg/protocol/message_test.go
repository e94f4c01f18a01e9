package protocol

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/avatarworks/go-avatar/pkg/avatar"
	"github.com/avatarworks/go-avatar/pkg/pose"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "pose message",
			msgType: TypePose,
			data:    PoseData{AvatarID: "a1", Seq: 7, Frame: 42},
			wantErr: false,
		},
		{
			name:    "control message",
			msgType: TypeControl,
			data:    ControlData{Op: OpMarkActive},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if msg == nil && !tt.wantErr {
				t.Error("NewMessage() returned nil message")
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestPoseMessageRoundTrip(t *testing.T) {
	p := pose.Pose{Cape: 0.3, ElapsedTime: 1.25}
	p.ArmLeft.Z = 6
	p.ArmRight.Z = -6
	p.Head.Y = 12.5

	frame := avatar.Frame{
		AvatarID:   "avatar-1",
		Seq:        99,
		FrameIndex: 42,
		Idling:     true,
		Pose:       p,
	}

	msg, err := NewPoseMessage(frame)
	if err != nil {
		t.Fatalf("NewPoseMessage() error = %v", err)
	}

	bytes, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(bytes)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypePose {
		t.Errorf("Type = %v, want %v", parsed.Type, TypePose)
	}

	data, err := parsed.GetPoseData()
	if err != nil {
		t.Fatalf("GetPoseData() error = %v", err)
	}

	if data.AvatarID != "avatar-1" {
		t.Errorf("AvatarID = %v, want avatar-1", data.AvatarID)
	}
	if data.Seq != 99 {
		t.Errorf("Seq = %v, want 99", data.Seq)
	}
	if data.Frame != 42 {
		t.Errorf("Frame = %v, want 42", data.Frame)
	}
	if !data.Idling {
		t.Error("Idling should be true")
	}
	if got := data.Pose(); got != p {
		t.Errorf("Pose() = %+v, want %+v", got, p)
	}
}

func TestControlMessage(t *testing.T) {
	enabled := false
	msg, err := NewControlMessage(ControlData{Op: OpSetEnabled, Enabled: &enabled})
	if err != nil {
		t.Fatalf("NewControlMessage() error = %v", err)
	}

	control, err := msg.GetControlData()
	if err != nil {
		t.Fatalf("GetControlData() error = %v", err)
	}

	if control.Op != OpSetEnabled {
		t.Errorf("Op = %v, want %v", control.Op, OpSetEnabled)
	}
	if control.Enabled == nil || *control.Enabled {
		t.Errorf("Enabled = %v, want false", control.Enabled)
	}
}

func TestHelloMessage(t *testing.T) {
	msg, err := NewHelloMessage("avatar-1", "steve", "slim", 60, []string{"breathing", "look-around"})
	if err != nil {
		t.Fatalf("NewHelloMessage() error = %v", err)
	}

	hello, err := msg.GetHelloData()
	if err != nil {
		t.Fatalf("GetHelloData() error = %v", err)
	}

	if hello.AvatarID != "avatar-1" {
		t.Errorf("AvatarID = %v, want avatar-1", hello.AvatarID)
	}
	if hello.Variant != "slim" {
		t.Errorf("Variant = %v, want slim", hello.Variant)
	}
	if hello.TickRate != 60 {
		t.Errorf("TickRate = %v, want 60", hello.TickRate)
	}
	if len(hello.Animations) != 2 {
		t.Errorf("Animations = %v, want two entries", hello.Animations)
	}
}

func TestPingPongMessage(t *testing.T) {
	pingMsg, err := NewPingMessage("test-123")
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	pingData, err := pingMsg.GetPingData()
	if err != nil {
		t.Fatalf("GetPingData() error = %v", err)
	}
	if pingData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pingData.ID)
	}

	now := time.Now().UnixMilli()
	pongMsg, err := NewPongMessage("test-123", pingMsg.Timestamp, now)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}

	pongData, err := pongMsg.GetPongData()
	if err != nil {
		t.Fatalf("GetPongData() error = %v", err)
	}
	if pongData.ID != "test-123" {
		t.Errorf("ID = %v, want test-123", pongData.ID)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, should be >= 0", pongData.LatencyMs)
	}
}

func TestParseInvalidMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:    "invalid json",
			input:   "not json",
			wantErr: true,
		},
		{
			name:    "empty json",
			input:   "{}",
			wantErr: false, // Empty is valid, just no type
		},
		{
			name:    "valid message",
			input:   `{"type":"ping","ts":1234567890}`,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMessage([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMessageJSON(t *testing.T) {
	// Verify the wire structure viewers depend on.
	msg, _ := NewPoseMessage(avatar.Frame{AvatarID: "a1", Seq: 1, FrameIndex: 5})

	bytes, _ := msg.Bytes()

	var parsed map[string]interface{}
	if err := json.Unmarshal(bytes, &parsed); err != nil {
		t.Fatalf("Failed to unmarshal as map: %v", err)
	}

	if parsed["type"] != "pose" {
		t.Errorf("type = %v, want pose", parsed["type"])
	}
	if _, ok := parsed["ts"]; !ok {
		t.Error("ts field should be present")
	}

	data, ok := parsed["data"].(map[string]interface{})
	if !ok {
		t.Fatal("data field should be an object")
	}
	for _, field := range []string{"avatar_id", "seq", "frame", "body", "arm_left", "arm_right", "leg_left", "leg_right", "head", "cape"} {
		if _, ok := data[field]; !ok {
			t.Errorf("data.%s should be present", field)
		}
	}
}

func BenchmarkNewPoseMessage(b *testing.B) {
	frame := avatar.Frame{AvatarID: "a1", Seq: 1, FrameIndex: 5}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewPoseMessage(frame)
	}
}

func BenchmarkParseMessage(b *testing.B) {
	msg, _ := NewPoseMessage(avatar.Frame{AvatarID: "a1", Seq: 1, FrameIndex: 5})
	bytes, _ := msg.Bytes()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ParseMessage(bytes)
	}
}
