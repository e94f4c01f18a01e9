// Package rtc streams pose frames to remote clients over WebRTC data channels.
package rtc

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"

	"github.com/avatarworks/go-avatar/internal/log"
)

// PoseChannelLabel is the data channel label clients should listen on.
const PoseChannelLabel = "pose"

const (
	// gatherTimeout bounds non-trickle ICE gathering while answering.
	gatherTimeout = 10 * time.Second

	// maxBufferedAmount is the SCTP backlog above which frames are dropped
	// instead of queued. Pose frames are disposable; stale ones are worthless.
	maxBufferedAmount = 512 * 1024
)

// ErrClosed is returned when sending on a closed or not-yet-open peer.
var ErrClosed = errors.New("peer closed")

// Peer is one WebRTC connection carrying a pose stream. The peer owns the
// "pose" data channel (unordered, no retransmits) and answers a remote offer
// with a complete, non-trickle SDP.
type Peer struct {
	ID string

	pc *webrtc.PeerConnection

	mu      sync.Mutex
	channel *webrtc.DataChannel
	open    bool
	closed  bool
	onState func(webrtc.PeerConnectionState)

	framesSent    atomic.Uint64
	framesDropped atomic.Uint64
}

// NewPeer creates a peer connection with the pose channel pre-created so the
// channel opens in-band as soon as the SCTP association comes up.
func NewPeer() (*Peer, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, fmt.Errorf("peer connection failed: %w", err)
	}

	p := &Peer{
		ID: uuid.NewString(),
		pc: pc,
	}

	ordered := false
	var retransmits uint16
	channel, err := pc.CreateDataChannel(PoseChannelLabel, &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &retransmits,
	})
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("data channel failed: %w", err)
	}

	channel.OnOpen(func() {
		log.Info("pose channel open", "peer", p.ID)
		p.mu.Lock()
		p.open = true
		p.mu.Unlock()
	})
	channel.OnClose(func() {
		p.mu.Lock()
		p.open = false
		p.mu.Unlock()
	})

	p.channel = channel

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		log.Debug("peer connection state", "peer", p.ID, "state", state.String())

		p.mu.Lock()
		callback := p.onState
		p.mu.Unlock()
		if callback != nil {
			callback(state)
		}

		switch state {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			p.Close()
		}
	})

	return p, nil
}

// OnStateChange registers a callback for peer connection state transitions.
// Register it before handing out the answer so no transition is missed.
func (p *Peer) OnStateChange(fn func(webrtc.PeerConnectionState)) {
	p.mu.Lock()
	p.onState = fn
	p.mu.Unlock()
}

// Answer applies the remote offer and returns a complete local answer.
// Gathering is non-trickle: the returned SDP already carries every candidate,
// so clients need no separate ICE signalling path.
func (p *Peer) Answer(offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := p.pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("set remote description failed: %w", err)
	}

	answer, err := p.pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer failed: %w", err)
	}

	gathered := webrtc.GatheringCompletePromise(p.pc)
	if err := p.pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local description failed: %w", err)
	}

	select {
	case <-gathered:
	case <-time.After(gatherTimeout):
		return nil, fmt.Errorf("ice gathering timed out after %s", gatherTimeout)
	}

	return p.pc.LocalDescription(), nil
}

// SendFrame pushes one encoded pose frame down the channel. Frames are
// dropped silently while the channel is congested; only a dead peer is an
// error. Safe to call from frame callbacks.
func (p *Peer) SendFrame(payload []byte) error {
	p.mu.Lock()
	channel := p.channel
	ok := p.open && !p.closed
	p.mu.Unlock()

	if !ok || channel == nil {
		return ErrClosed
	}

	if channel.BufferedAmount() > maxBufferedAmount {
		p.framesDropped.Add(1)
		return nil
	}

	if err := channel.SendText(string(payload)); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	p.framesSent.Add(1)
	return nil
}

// Open reports whether the pose channel is currently open.
func (p *Peer) Open() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open && !p.closed
}

// FramesSent returns the number of frames delivered to the channel.
func (p *Peer) FramesSent() uint64 {
	return p.framesSent.Load()
}

// FramesDropped returns the number of frames discarded due to congestion.
func (p *Peer) FramesDropped() uint64 {
	return p.framesDropped.Load()
}

// Close tears down the peer connection. Idempotent.
func (p *Peer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.open = false
	p.mu.Unlock()

	log.Debug("peer closed", "peer", p.ID)
	return p.pc.Close()
}
