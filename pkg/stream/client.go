// Package stream provides Go clients for the avatar daemon: a WebSocket
// session client, a small REST API client, and a spring smoother that
// resamples pose streams to display rate.
package stream

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/avatarworks/go-avatar/pkg/protocol"
)

const (
	handshakeTimeout = 10 * time.Second
	readTimeout      = 120 * time.Second
	pingInterval     = 30 * time.Second
	writeTimeout     = 10 * time.Second
)

// ErrNotConnected is returned when sending before Connect or after Close.
var ErrNotConnected = errors.New("not connected")

// Client subscribes to one avatar's session socket.
type Client struct {
	url string

	ws   *websocket.Conn
	wsMu sync.Mutex

	// Callbacks are invoked from the read loop. Set them before Connect.
	OnHello func(hello *protocol.HelloData)
	OnPose  func(p *protocol.PoseData)
	OnState func(state *protocol.StateData)
	OnPong  func(pong *protocol.PongData)
	OnError func(err error)

	mu        sync.Mutex
	connected bool
	closed    bool
}

// NewClient creates a client for one avatar's stream.
// baseURL is the daemon's WebSocket origin, e.g. "ws://localhost:8080".
func NewClient(baseURL, avatarID string) *Client {
	return &Client{
		url: fmt.Sprintf("%s/ws/avatar/%s", baseURL, avatarID),
	}
}

// Connect dials the session socket and starts the read loop.
func (c *Client) Connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	ws, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}

	ws.SetPingHandler(func(appData string) error {
		c.wsMu.Lock()
		defer c.wsMu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeTimeout))
	})

	c.wsMu.Lock()
	c.ws = ws
	c.wsMu.Unlock()

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	go c.readLoop()
	go c.keepAlive()

	return nil
}

// readLoop dispatches incoming messages to the registered callbacks.
func (c *Client) readLoop() {
	for !c.isClosed() {
		c.ws.SetReadDeadline(time.Now().Add(readTimeout))

		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !c.isClosed() && c.OnError != nil {
				c.OnError(err)
			}
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			continue
		}

		switch msg.Type {
		case protocol.TypeHello:
			if hello, err := msg.GetHelloData(); err == nil && c.OnHello != nil {
				c.OnHello(hello)
			}

		case protocol.TypePose:
			if poseData, err := msg.GetPoseData(); err == nil && c.OnPose != nil {
				c.OnPose(poseData)
			}

		case protocol.TypeState:
			if state, err := msg.GetStateData(); err == nil && c.OnState != nil {
				c.OnState(state)
			}

		case protocol.TypePong:
			if pong, err := msg.GetPongData(); err == nil && c.OnPong != nil {
				c.OnPong(pong)
			}

		case protocol.TypeError:
			if errData, err := msg.GetErrorData(); err == nil && c.OnError != nil {
				c.OnError(fmt.Errorf("server error: %s: %s", errData.Code, errData.Message))
			}
		}
	}
}

// keepAlive sends periodic pings so idle sessions survive proxies.
func (c *Client) keepAlive() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		if c.isClosed() {
			return
		}

		c.wsMu.Lock()
		ws := c.ws
		if ws != nil {
			ws.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeTimeout))
		}
		c.wsMu.Unlock()
	}
}

// Control sends one control operation.
func (c *Client) Control(control protocol.ControlData) error {
	msg, err := protocol.NewControlMessage(control)
	if err != nil {
		return err
	}
	return c.send(msg)
}

// MarkActive resets the avatar's idle timer.
func (c *Client) MarkActive() error {
	return c.Control(protocol.ControlData{Op: protocol.OpMarkActive})
}

// SetAnimation swaps the avatar's primary animation.
func (c *Client) SetAnimation(name string) error {
	return c.Control(protocol.ControlData{Op: protocol.OpSetAnimation, Animation: name})
}

// SetVariant switches the skin variant ("classic" or "slim").
func (c *Client) SetVariant(variant string) error {
	return c.Control(protocol.ControlData{Op: protocol.OpSetVariant, Variant: variant})
}

// SetEnabled pauses or resumes the animation.
func (c *Client) SetEnabled(enabled bool) error {
	return c.Control(protocol.ControlData{Op: protocol.OpSetEnabled, Enabled: &enabled})
}

// SetIdleInterval adjusts the idle timeout in seconds.
func (c *Client) SetIdleInterval(seconds float64) error {
	return c.Control(protocol.ControlData{Op: protocol.OpSetIdleInterval, IdleInterval: seconds})
}

// Ping sends a protocol-level ping; the reply arrives via OnPong.
func (c *Client) Ping(id string) error {
	msg, err := protocol.NewPingMessage(id)
	if err != nil {
		return err
	}
	return c.send(msg)
}

// send writes one message under the write lock.
func (c *Client) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		return ErrNotConnected
	}

	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// IsConnected reports whether the session is live.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected && !c.closed
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close shuts down the session. Idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	c.mu.Unlock()

	c.wsMu.Lock()
	if c.ws != nil {
		c.ws.Close()
	}
	c.wsMu.Unlock()
}
