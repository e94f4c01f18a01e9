// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
//
// The daemon runs one hub as the pose firehose: every frame from every
// avatar, fanned out to whoever is watching.
package hub

import (
	"github.com/avatarworks/go-avatar/pkg/avatar"
	"github.com/avatarworks/go-avatar/pkg/protocol"
)

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data
	BinaryMessage
)

// Message represents a message to be broadcast to clients
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// NewFrameMessage encodes an avatar frame as a JSON pose message.
func NewFrameMessage(frame avatar.Frame) (Message, error) {
	msg, err := protocol.NewPoseMessage(frame)
	if err != nil {
		return Message{}, err
	}
	data, err := msg.Bytes()
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
