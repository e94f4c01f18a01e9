// Package session provides the WebSocket hub for viewer connections.
// Each viewer attaches to one avatar, receives its pose stream, and may
// send control operations back.
package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/avatarworks/go-avatar/internal/log"
	"github.com/avatarworks/go-avatar/pkg/avatar"
	"github.com/avatarworks/go-avatar/pkg/protocol"
)

// outboundBuffer is the per-viewer send queue depth. Frames beyond it are
// dropped rather than stalling the avatar's tick loop.
const outboundBuffer = 64

// Viewer represents a connected viewer session.
type Viewer struct {
	ID        string
	AvatarID  string
	Connected time.Time

	conn *websocket.Conn
	out  chan *protocol.Message
	done chan struct{}

	mu       sync.Mutex
	lastSeen time.Time
}

// Send queues a message for delivery. It never blocks; a full queue drops
// the message and reports false.
func (v *Viewer) Send(msg *protocol.Message) bool {
	select {
	case v.out <- msg:
		return true
	default:
		return false
	}
}

// LastSeen returns when the viewer last sent anything.
func (v *Viewer) LastSeen() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

func (v *Viewer) touch() {
	v.mu.Lock()
	v.lastSeen = time.Now()
	v.mu.Unlock()
}

// ControlFunc observes control operations after they have been applied.
type ControlFunc func(avatarID, viewerID string, control *protocol.ControlData)

// Hub manages viewer WebSocket sessions against the avatar manager.
type Hub struct {
	mu       sync.RWMutex
	manager  *avatar.Manager
	viewers  map[string]*Viewer
	tickRate float64

	onControl ControlFunc

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	posesSent        atomic.Uint64
	posesDropped     atomic.Uint64
}

// NewHub creates a viewer hub over the given avatar manager. tickRate is
// advertised to clients in the session greeting.
func NewHub(manager *avatar.Manager, tickRate float64) *Hub {
	if tickRate <= 0 {
		tickRate = avatar.DefaultTickRate
	}
	return &Hub{
		manager:  manager,
		viewers:  make(map[string]*Viewer),
		tickRate: tickRate,
	}
}

// OnControl sets the callback observing applied control operations.
func (h *Hub) OnControl(callback ControlFunc) {
	h.mu.Lock()
	h.onControl = callback
	h.mu.Unlock()
}

// RegisterRoutes registers the viewer WebSocket routes on a Fiber app.
func (h *Hub) RegisterRoutes(app *fiber.App) {
	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/avatar/:id", websocket.New(h.handleViewer))
}

// handleViewer runs one viewer session until the connection drops.
func (h *Hub) handleViewer(c *websocket.Conn) {
	avatarID := c.Params("id")

	av, err := h.manager.Get(avatarID)
	if err != nil {
		log.Warn("viewer requested unknown avatar", "avatar", avatarID)
		if msg, err := protocol.NewErrorMessage("unknown_avatar", avatarID); err == nil {
			if data, err := msg.Bytes(); err == nil {
				c.WriteMessage(websocket.TextMessage, data)
			}
		}
		c.Close()
		return
	}

	viewer := &Viewer{
		ID:        uuid.NewString(),
		AvatarID:  av.ID,
		Connected: time.Now(),
		conn:      c,
		out:       make(chan *protocol.Message, outboundBuffer),
		done:      make(chan struct{}),
	}
	viewer.touch()

	h.mu.Lock()
	h.viewers[viewer.ID] = viewer
	viewerCount := len(h.viewers)
	h.mu.Unlock()

	log.Info("viewer connected", "viewer", viewer.ID, "avatar", av.ID, "total", viewerCount)

	defer func() {
		close(viewer.done)

		h.mu.Lock()
		delete(h.viewers, viewer.ID)
		viewerCount := len(h.viewers)
		h.mu.Unlock()

		log.Info("viewer disconnected", "viewer", viewer.ID, "avatar", av.ID, "total", viewerCount)
	}()

	go h.writeLoop(viewer)

	// Greeting first, then the frame subscription.
	if msg, err := protocol.NewHelloMessage(av.ID, av.Name, av.Scheduler().Variant().String(), h.tickRate, h.manager.Registry().Names()); err == nil {
		viewer.Send(msg)
	}

	removeListener := av.OnFrame(func(frame avatar.Frame) {
		msg, err := protocol.NewPoseMessage(frame)
		if err != nil {
			return
		}
		if viewer.Send(msg) {
			h.posesSent.Add(1)
		} else {
			h.posesDropped.Add(1)
		}
	})
	defer removeListener()

	// Read loop
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			return
		}

		viewer.touch()
		h.messagesReceived.Add(1)
		h.handleMessage(av, viewer, data)
	}
}

// writeLoop owns all writes to the viewer connection.
func (h *Hub) writeLoop(v *Viewer) {
	for {
		select {
		case msg := <-v.out:
			data, err := msg.Bytes()
			if err != nil {
				continue
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
			h.messagesSent.Add(1)

		case <-v.done:
			return
		}
	}
}

// handleMessage processes one inbound message from a viewer.
func (h *Hub) handleMessage(av *avatar.Avatar, v *Viewer, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		log.Debug("viewer sent unparseable message", "viewer", v.ID, "err", err)
		h.sendError(v, "bad_message", err.Error())
		return
	}

	switch msg.Type {
	case protocol.TypeControl:
		control, err := msg.GetControlData()
		if err != nil {
			h.sendError(v, "bad_control", err.Error())
			return
		}
		h.applyControl(av, v, control)

	case protocol.TypePing:
		pingData, _ := msg.GetPingData()
		id := ""
		if pingData != nil {
			id = pingData.ID
		}
		if pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli()); err == nil {
			v.Send(pong)
		}
	}
}

// applyControl executes one control operation against the avatar and echoes
// the resulting state back so the viewer sees the effect.
func (h *Hub) applyControl(av *avatar.Avatar, v *Viewer, control *protocol.ControlData) {
	if cerr := ApplyControl(h.manager, av, control); cerr != nil {
		h.sendError(v, cerr.Code, cerr.Message)
		return
	}

	log.Debug("control applied", "viewer", v.ID, "avatar", av.ID, "op", control.Op)

	h.mu.RLock()
	callback := h.onControl
	h.mu.RUnlock()
	if callback != nil {
		callback(av.ID, v.ID, control)
	}

	h.sendState(av, v)
}

// sendState pushes a fresh avatar state snapshot to one viewer.
func (h *Hub) sendState(av *avatar.Avatar, v *Viewer) {
	msg, err := protocol.NewStateMessage(StateOf(av))
	if err != nil {
		return
	}
	v.Send(msg)
}

func (h *Hub) sendError(v *Viewer, code, message string) {
	if msg, err := protocol.NewErrorMessage(code, message); err == nil {
		v.Send(msg)
	}
}

// GetViewer returns a viewer session by ID.
func (h *Hub) GetViewer(viewerID string) *Viewer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewers[viewerID]
}

// ViewerCount returns the number of connected viewers.
func (h *Hub) ViewerCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.viewers)
}

// Stats contains hub statistics
type Stats struct {
	ViewerCount      int    `json:"viewer_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	PosesSent        uint64 `json:"poses_sent"`
	PosesDropped     uint64 `json:"poses_dropped"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		ViewerCount:      h.ViewerCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		PosesSent:        h.posesSent.Load(),
		PosesDropped:     h.posesDropped.Load(),
	}
}

// ViewerInfo contains info about a connected viewer
type ViewerInfo struct {
	ID        string    `json:"id"`
	AvatarID  string    `json:"avatar_id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// GetViewerInfos returns info about all connected viewers
func (h *Hub) GetViewerInfos() []ViewerInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]ViewerInfo, 0, len(h.viewers))
	for _, v := range h.viewers {
		infos = append(infos, ViewerInfo{
			ID:        v.ID,
			AvatarID:  v.AvatarID,
			Connected: v.Connected,
			LastSeen:  v.LastSeen(),
		})
	}
	return infos
}
