package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	pionwebrtc "github.com/pion/webrtc/v3"

	"github.com/avatarworks/go-avatar/internal/log"
	"github.com/avatarworks/go-avatar/pkg/anim"
	"github.com/avatarworks/go-avatar/pkg/avatar"
	"github.com/avatarworks/go-avatar/pkg/hub"
	"github.com/avatarworks/go-avatar/pkg/pose"
	"github.com/avatarworks/go-avatar/pkg/protocol"
	"github.com/avatarworks/go-avatar/pkg/rtc"
	"github.com/avatarworks/go-avatar/pkg/session"
)

// AvatarInfo describes one avatar in API responses.
type AvatarInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Variant      string    `json:"variant"`
	Enabled      bool      `json:"enabled"`
	Idling       bool      `json:"idling"`
	Frame        int       `json:"frame"`
	IdleInterval float64   `json:"idle_interval"`
	Created      time.Time `json:"created"`
}

func avatarInfo(av *avatar.Avatar) AvatarInfo {
	snap := av.Scheduler().Snapshot()
	return AvatarInfo{
		ID:           av.ID,
		Name:         av.Name,
		Variant:      snap.Variant.String(),
		Enabled:      snap.Enabled,
		Idling:       snap.Idling,
		Frame:        snap.Frame,
		IdleInterval: av.Scheduler().IdleInterval(),
		Created:      av.Created,
	}
}

// handleIndex returns service info
func (s *Server) handleIndex(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service":       "avatard",
		"api":           "/api",
		"pose_stream":   "/ws/poses",
		"avatar_stream": "/ws/avatar/:id",
	})
}

// handleStatus returns daemon-wide counters
func (s *Server) handleStatus(c *fiber.Ctx) error {
	stats := s.sessions.GetStats()
	return c.JSON(fiber.Map{
		"service":          "avatard",
		"uptime_seconds":   time.Since(s.started).Seconds(),
		"avatars":          s.manager.Count(),
		"viewers":          stats.ViewerCount,
		"poses_sent":       stats.PosesSent,
		"poses_dropped":    stats.PosesDropped,
		"firehose_clients": s.poseHub.ClientCount(),
		"webrtc_peers":     s.PeerCount(),
	})
}

// handleListAnimations returns the registered animation names
func (s *Server) handleListAnimations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"animations": s.manager.Registry().Names(),
	})
}

// handleListAvatars returns all avatars
func (s *Server) handleListAvatars(c *fiber.Ctx) error {
	avatars := s.manager.List()
	infos := make([]AvatarInfo, 0, len(avatars))
	for _, av := range avatars {
		infos = append(infos, avatarInfo(av))
	}
	return c.JSON(fiber.Map{
		"avatars": infos,
		"count":   len(infos),
	})
}

// CreateAvatarRequest is the request body for creating an avatar
type CreateAvatarRequest struct {
	Name         string  `json:"name"`
	Animation    string  `json:"animation"`
	Variant      string  `json:"variant"`
	IdleInterval float64 `json:"idle_interval"`
	LatchIdle    bool    `json:"latch_idle"`
}

// handleCreateAvatar creates a new avatar and starts streaming it
func (s *Server) handleCreateAvatar(c *fiber.Ctx) error {
	var req CreateAvatarRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "bad_request", "detail": err.Error()})
	}

	if req.Name == "" {
		req.Name = "avatar"
	}

	variant := pose.VariantClassic
	if req.Variant != "" {
		parsed, ok := pose.ParseVariant(req.Variant)
		if !ok {
			return c.Status(400).JSON(fiber.Map{"error": "bad_variant", "detail": req.Variant})
		}
		variant = parsed
	}

	var primary anim.Animation
	if req.Animation != "" {
		built, err := s.manager.Registry().New(req.Animation, nil)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "unknown_animation", "detail": req.Animation})
		}
		primary = built
	}

	av := s.manager.Create(req.Name, anim.Config{
		Primary:      primary,
		Variant:      variant,
		IdleInterval: req.IdleInterval,
		LatchIdle:    req.LatchIdle,
	})

	s.Adopt(av)
	if s.OnAvatarCreated != nil {
		s.OnAvatarCreated(av)
	}

	log.Info("avatar created", "avatar", av.ID, "name", av.Name)
	return c.Status(201).JSON(avatarInfo(av))
}

// handleGetAvatar returns one avatar
func (s *Server) handleGetAvatar(c *fiber.Ctx) error {
	av, err := s.manager.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "unknown_avatar", "detail": c.Params("id")})
	}
	return c.JSON(avatarInfo(av))
}

// handleDeleteAvatar removes an avatar and stops its stream
func (s *Server) handleDeleteAvatar(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.manager.Remove(id); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "unknown_avatar", "detail": id})
	}

	log.Info("avatar removed", "avatar", id)
	return c.JSON(fiber.Map{"removed": id})
}

// handleGetPose returns the avatar's latest pose frame
func (s *Server) handleGetPose(c *fiber.Ctx) error {
	av, err := s.manager.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "unknown_avatar", "detail": c.Params("id")})
	}

	frame := av.LastFrame()
	if frame.Seq == 0 {
		// Not ticked yet; report the scheduler's current pose
		snap := av.Scheduler().Snapshot()
		return c.JSON(protocol.FromPose(av.ID, 0, snap.Frame, snap.Idling, snap.Pose))
	}
	return c.JSON(protocol.FromPose(av.ID, frame.Seq, frame.FrameIndex, frame.Idling, frame.Pose))
}

// control applies one control operation and responds with the new state.
func (s *Server) control(c *fiber.Ctx, data protocol.ControlData) error {
	av, err := s.manager.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "unknown_avatar", "detail": c.Params("id")})
	}

	if cerr := session.ApplyControl(s.manager, av, &data); cerr != nil {
		return c.Status(400).JSON(fiber.Map{"error": cerr.Code, "detail": cerr.Message})
	}

	return c.JSON(session.StateOf(av))
}

// AnimationRequest selects the primary animation
type AnimationRequest struct {
	Animation string `json:"animation"`
}

// handleSetAnimation swaps the avatar's primary animation
func (s *Server) handleSetAnimation(c *fiber.Ctx) error {
	var req AnimationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "bad_request", "detail": err.Error()})
	}
	return s.control(c, protocol.ControlData{Op: protocol.OpSetAnimation, Animation: req.Animation})
}

// VariantRequest selects the skin variant
type VariantRequest struct {
	Variant string `json:"variant"`
}

// handleSetVariant switches the avatar's skin variant
func (s *Server) handleSetVariant(c *fiber.Ctx) error {
	var req VariantRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "bad_request", "detail": err.Error()})
	}
	return s.control(c, protocol.ControlData{Op: protocol.OpSetVariant, Variant: req.Variant})
}

// EnabledRequest toggles animation updates
type EnabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// handleSetEnabled pauses or resumes the avatar's animation
func (s *Server) handleSetEnabled(c *fiber.Ctx) error {
	var req EnabledRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "bad_request", "detail": err.Error()})
	}
	return s.control(c, protocol.ControlData{Op: protocol.OpSetEnabled, Enabled: req.Enabled})
}

// IdleRequest sets the idle timeout in seconds
type IdleRequest struct {
	Interval float64 `json:"interval"`
}

// handleSetIdle adjusts how long until idle animations take over
func (s *Server) handleSetIdle(c *fiber.Ctx) error {
	var req IdleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "bad_request", "detail": err.Error()})
	}
	return s.control(c, protocol.ControlData{Op: protocol.OpSetIdleInterval, IdleInterval: req.Interval})
}

// handleWake marks the avatar active, ending any idle animation
func (s *Server) handleWake(c *fiber.Ctx) error {
	return s.control(c, protocol.ControlData{Op: protocol.OpMarkActive})
}

// handleWebRTCOffer answers an SDP offer with a pose data channel.
// The response is a complete answer; no trickle ICE follow-up is needed.
func (s *Server) handleWebRTCOffer(c *fiber.Ctx) error {
	av, err := s.manager.Get(c.Params("id"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "unknown_avatar", "detail": c.Params("id")})
	}

	var offer pionwebrtc.SessionDescription
	if err := c.BodyParser(&offer); err != nil || offer.SDP == "" {
		return c.Status(400).JSON(fiber.Map{"error": "bad_offer"})
	}

	peer, err := rtc.NewPeer()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "peer_failed", "detail": err.Error()})
	}

	// Bridge the avatar's frames into the data channel. SendFrame drops
	// while the channel is congested or not yet open.
	remove := av.OnFrame(func(frame avatar.Frame) {
		msg, err := protocol.NewPoseMessage(frame)
		if err != nil {
			return
		}
		payload, err := msg.Bytes()
		if err != nil {
			return
		}
		peer.SendFrame(payload)
	})
	s.trackPeer(peer, remove)

	peer.OnStateChange(func(state pionwebrtc.PeerConnectionState) {
		switch state {
		case pionwebrtc.PeerConnectionStateFailed,
			pionwebrtc.PeerConnectionStateClosed,
			pionwebrtc.PeerConnectionStateDisconnected:
			s.dropPeer(peer.ID)
		}
	})

	answer, err := peer.Answer(offer)
	if err != nil {
		s.dropPeer(peer.ID)
		return c.Status(500).JSON(fiber.Map{"error": "answer_failed", "detail": err.Error()})
	}

	log.Info("webrtc peer answered", "peer", peer.ID, "avatar", av.ID)
	return c.JSON(answer)
}

// handlePosesWS streams every avatar's frames over one socket
func (s *Server) handlePosesWS(c *websocket.Conn) {
	client := hub.NewClient(s.poseHub, c)
	client.Run()
}
