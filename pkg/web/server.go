// Package web provides the HTTP and WebSocket surface of the avatar daemon:
// a REST API for avatar lifecycle and control, the pose firehose socket, the
// per-avatar session socket, and WebRTC signalling.
package web

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/avatarworks/go-avatar/internal/log"
	"github.com/avatarworks/go-avatar/pkg/avatar"
	"github.com/avatarworks/go-avatar/pkg/hub"
	"github.com/avatarworks/go-avatar/pkg/rtc"
	"github.com/avatarworks/go-avatar/pkg/session"
)

// peerEntry pairs a WebRTC peer with the frame listener feeding it.
type peerEntry struct {
	peer   *rtc.Peer
	remove func()
}

// Server is the avatar daemon's web server.
type Server struct {
	app  *fiber.App
	port string

	manager  *avatar.Manager
	sessions *session.Hub
	poseHub  *hub.Hub

	started time.Time

	peersMu sync.Mutex
	peers   map[string]*peerEntry

	// OnAvatarCreated is invoked for every avatar created over the API.
	// The daemon hooks it to start the avatar's tick loop.
	OnAvatarCreated func(av *avatar.Avatar)
}

// NewServer creates the web server and registers all routes.
func NewServer(port string, debug bool, manager *avatar.Manager, sessions *session.Hub) *Server {
	s := &Server{
		port:     port,
		manager:  manager,
		sessions: sessions,
		poseHub:  hub.New("poses"),
		started:  time.Now(),
		peers:    make(map[string]*peerEntry),
	}

	app := fiber.New(fiber.Config{
		AppName:               "avatard",
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New())
	if debug {
		app.Use(logger.New())
	}

	app.Get("/", s.handleIndex)

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/animations", s.handleListAnimations)
	api.Get("/avatars", s.handleListAvatars)
	api.Post("/avatars", s.handleCreateAvatar)
	api.Get("/avatars/:id", s.handleGetAvatar)
	api.Delete("/avatars/:id", s.handleDeleteAvatar)
	api.Get("/avatars/:id/pose", s.handleGetPose)
	api.Post("/avatars/:id/animation", s.handleSetAnimation)
	api.Post("/avatars/:id/variant", s.handleSetVariant)
	api.Post("/avatars/:id/enabled", s.handleSetEnabled)
	api.Post("/avatars/:id/idle", s.handleSetIdle)
	api.Post("/avatars/:id/wake", s.handleWake)
	api.Post("/avatars/:id/webrtc", s.handleWebRTCOffer)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// Firehose: every avatar's frames, broadcast-only
	app.Get("/ws/poses", websocket.New(s.handlePosesWS))

	// Per-avatar bidirectional sessions
	sessions.RegisterRoutes(app)

	s.app = app
	return s
}

// Adopt subscribes an avatar's frames to the pose firehose. Avatars created
// over the API are adopted automatically; the daemon calls this for avatars
// it creates itself.
func (s *Server) Adopt(av *avatar.Avatar) {
	av.OnFrame(func(frame avatar.Frame) {
		s.poseHub.BroadcastFrame(frame)
	})
}

// Start runs the broadcast hub and listens. Blocks until shutdown.
func (s *Server) Start() error {
	log.Info("web server listening", "port", s.port)

	go s.poseHub.Run()

	return s.app.Listen(":" + s.port)
}

// StartAsync starts the web server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server stopped", "error", err)
		}
	}()
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// PoseHub returns the firehose broadcast hub.
func (s *Server) PoseHub() *hub.Hub {
	return s.poseHub
}

// PeerCount returns the number of live WebRTC peers.
func (s *Server) PeerCount() int {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	return len(s.peers)
}

// trackPeer registers a peer and arranges teardown on connection failure.
func (s *Server) trackPeer(peer *rtc.Peer, remove func()) {
	s.peersMu.Lock()
	s.peers[peer.ID] = &peerEntry{peer: peer, remove: remove}
	s.peersMu.Unlock()
}

// dropPeer removes a peer's frame listener and closes it. Idempotent.
func (s *Server) dropPeer(id string) {
	s.peersMu.Lock()
	entry := s.peers[id]
	delete(s.peers, id)
	s.peersMu.Unlock()

	if entry == nil {
		return
	}
	entry.remove()
	entry.peer.Close()
}

// closePeers tears down every live WebRTC peer.
func (s *Server) closePeers() {
	s.peersMu.Lock()
	entries := make([]*peerEntry, 0, len(s.peers))
	for _, entry := range s.peers {
		entries = append(entries, entry)
	}
	s.peers = make(map[string]*peerEntry)
	s.peersMu.Unlock()

	for _, entry := range entries {
		entry.remove()
		entry.peer.Close()
	}
}

// Shutdown closes all WebRTC peers and stops the web server.
func (s *Server) Shutdown() error {
	s.closePeers()
	return s.app.Shutdown()
}

// ShutdownWithContext is Shutdown bounded by a deadline.
func (s *Server) ShutdownWithContext(ctx context.Context) error {
	s.closePeers()
	return s.app.ShutdownWithContext(ctx)
}
