package stream

import (
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/avatarworks/go-avatar/pkg/anim"
	"github.com/avatarworks/go-avatar/pkg/avatar"
	"github.com/avatarworks/go-avatar/pkg/protocol"
	"github.com/avatarworks/go-avatar/pkg/session"
)

func startSessionServer(t *testing.T, addr string, manager *avatar.Manager) *fiber.App {
	t.Helper()

	hub := session.NewHub(manager, avatar.DefaultTickRate)
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	hub.RegisterRoutes(app)

	go app.Listen(addr)
	time.Sleep(100 * time.Millisecond)
	return app
}

func TestClientSessionFlow(t *testing.T) {
	manager := avatar.NewManager()
	av := manager.Create("probe", anim.Config{})

	app := startSessionServer(t, ":17820", manager)
	defer app.Shutdown()

	helloCh := make(chan *protocol.HelloData, 1)
	poseCh := make(chan *protocol.PoseData, 8)
	stateCh := make(chan *protocol.StateData, 4)
	pongCh := make(chan *protocol.PongData, 1)

	client := NewClient("ws://localhost:17820", av.ID)
	client.OnHello = func(h *protocol.HelloData) { helloCh <- h }
	client.OnPose = func(p *protocol.PoseData) { poseCh <- p }
	client.OnState = func(s *protocol.StateData) { stateCh <- s }
	client.OnPong = func(p *protocol.PongData) { pongCh <- p }

	if err := client.Connect(); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	select {
	case hello := <-helloCh:
		if hello.AvatarID != av.ID {
			t.Errorf("Expected avatar %s in hello, got %s", av.ID, hello.AvatarID)
		}
		if hello.TickRate != avatar.DefaultTickRate {
			t.Errorf("Expected tick rate %v, got %v", avatar.DefaultTickRate, hello.TickRate)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for hello")
	}

	if !client.IsConnected() {
		t.Error("Expected client connected after hello")
	}

	// Give the server time to finish subscribing before producing frames
	time.Sleep(100 * time.Millisecond)

	av.Step(0.01)

	select {
	case p := <-poseCh:
		if p.Seq != 1 {
			t.Errorf("Expected seq 1, got %d", p.Seq)
		}
		if p.Frame != 1 {
			t.Errorf("Expected frame 1, got %d", p.Frame)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for pose frame")
	}

	if err := client.SetEnabled(false); err != nil {
		t.Fatalf("Failed to send control: %v", err)
	}

	select {
	case state := <-stateCh:
		if state.Enabled {
			t.Error("Expected disabled state after control")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for state echo")
	}
	if av.Scheduler().Enabled() {
		t.Error("Expected scheduler disabled on the server side")
	}

	if err := client.Ping("stream-1"); err != nil {
		t.Fatalf("Failed to send ping: %v", err)
	}

	select {
	case pong := <-pongCh:
		if pong.ID != "stream-1" {
			t.Errorf("Expected pong id stream-1, got %s", pong.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for pong")
	}
}

func TestClientReportsServerErrors(t *testing.T) {
	manager := avatar.NewManager()
	av := manager.Create("strict", anim.Config{})

	app := startSessionServer(t, ":17821", manager)
	defer app.Shutdown()

	errCh := make(chan error, 4)

	client := NewClient("ws://localhost:17821", av.ID)
	client.OnError = func(err error) { errCh <- err }

	if err := client.Connect(); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer client.Close()

	if err := client.SetAnimation("moonwalk"); err != nil {
		t.Fatalf("Failed to send control: %v", err)
	}

	select {
	case err := <-errCh:
		if !strings.Contains(err.Error(), "unknown_animation") {
			t.Errorf("Expected unknown_animation error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for server error")
	}
}

func TestClientConnectRefused(t *testing.T) {
	client := NewClient("ws://localhost:17829", "nobody")
	if err := client.Connect(); err == nil {
		client.Close()
		t.Fatal("Expected connection error with no server listening")
	}
}

func TestClientSendBeforeConnect(t *testing.T) {
	client := NewClient("ws://localhost:17829", "nobody")
	if err := client.MarkActive(); err != ErrNotConnected {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}
