package rtc

import (
	"testing"

	"github.com/pion/webrtc/v3"
)

func TestNewPeer(t *testing.T) {
	peer, err := NewPeer()
	if err != nil {
		t.Fatalf("NewPeer error: %v", err)
	}
	defer peer.Close()

	if peer.ID == "" {
		t.Error("Peer should have an ID")
	}

	if peer.Open() {
		t.Error("Channel should not be open before the answer exchange")
	}
}

func TestPeerIDsUnique(t *testing.T) {
	a, err := NewPeer()
	if err != nil {
		t.Fatalf("NewPeer error: %v", err)
	}
	defer a.Close()

	b, err := NewPeer()
	if err != nil {
		t.Fatalf("NewPeer error: %v", err)
	}
	defer b.Close()

	if a.ID == b.ID {
		t.Errorf("Peer IDs should be unique, both = %s", a.ID)
	}
}

func TestSendFrameBeforeOpen(t *testing.T) {
	peer, err := NewPeer()
	if err != nil {
		t.Fatalf("NewPeer error: %v", err)
	}
	defer peer.Close()

	if err := peer.SendFrame([]byte(`{"type":"pose"}`)); err != ErrClosed {
		t.Errorf("SendFrame before open = %v, want ErrClosed", err)
	}

	if peer.FramesSent() != 0 {
		t.Errorf("FramesSent = %d, want 0", peer.FramesSent())
	}
	if peer.FramesDropped() != 0 {
		t.Errorf("FramesDropped = %d, want 0", peer.FramesDropped())
	}
}

func TestAnswerRejectsBadOffer(t *testing.T) {
	peer, err := NewPeer()
	if err != nil {
		t.Fatalf("NewPeer error: %v", err)
	}
	defer peer.Close()

	offer := webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  "not an sdp",
	}

	if _, err := peer.Answer(offer); err == nil {
		t.Error("Answer should reject a malformed offer")
	}
}

func TestCloseIdempotent(t *testing.T) {
	peer, err := NewPeer()
	if err != nil {
		t.Fatalf("NewPeer error: %v", err)
	}

	if err := peer.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
	if err := peer.Close(); err != nil {
		t.Errorf("Second Close error: %v", err)
	}

	if peer.Open() {
		t.Error("Open should report false after Close")
	}

	if err := peer.SendFrame([]byte("{}")); err != ErrClosed {
		t.Errorf("SendFrame after Close = %v, want ErrClosed", err)
	}
}

func TestOnStateChange(t *testing.T) {
	peer, err := NewPeer()
	if err != nil {
		t.Fatalf("NewPeer error: %v", err)
	}

	states := make(chan webrtc.PeerConnectionState, 4)
	peer.OnStateChange(func(state webrtc.PeerConnectionState) {
		states <- state
	})

	peer.Close()

	select {
	case state := <-states:
		if state != webrtc.PeerConnectionStateClosed {
			t.Errorf("State = %s, want closed", state)
		}
	default:
		// pion may skip the transition callback when closing locally
	}
}
