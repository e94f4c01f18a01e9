// Posetop - live terminal dashboard for an avatar's pose channels
//
// Subscribes to a session socket and renders every rotation channel as a
// horizontal bar, smoothed through the same spring filter render clients
// use. Keys: q quit, w wake, 1/2 switch animation, space pause.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/avatarworks/go-avatar/pkg/pose"
	"github.com/avatarworks/go-avatar/pkg/protocol"
	"github.com/avatarworks/go-avatar/pkg/stream"
)

const (
	renderFPS    = 30
	angleScale   = 120.0 // degrees for a full half-bar
	errorHoldSec = 3
)

var (
	serverURL = flag.String("url", "http://localhost:8080", "avatard base URL")
	avatarID  = flag.String("avatar", "", "avatar id (default: first avatar on the server)")
)

// channelRow maps one bar to a pose channel.
type channelRow struct {
	label string
	value func(p pose.Pose) float64
	scale float64
}

var channelRows = []channelRow{
	{"head  x", func(p pose.Pose) float64 { return p.Head.X }, angleScale},
	{"head  y", func(p pose.Pose) float64 { return p.Head.Y }, angleScale},
	{"head  z", func(p pose.Pose) float64 { return p.Head.Z }, angleScale},
	{"body  x", func(p pose.Pose) float64 { return p.Body.X }, angleScale},
	{"body  y", func(p pose.Pose) float64 { return p.Body.Y }, angleScale},
	{"body  z", func(p pose.Pose) float64 { return p.Body.Z }, angleScale},
	{"arm L x", func(p pose.Pose) float64 { return p.ArmLeft.X }, angleScale},
	{"arm L y", func(p pose.Pose) float64 { return p.ArmLeft.Y }, angleScale},
	{"arm L z", func(p pose.Pose) float64 { return p.ArmLeft.Z }, angleScale},
	{"arm R x", func(p pose.Pose) float64 { return p.ArmRight.X }, angleScale},
	{"arm R y", func(p pose.Pose) float64 { return p.ArmRight.Y }, angleScale},
	{"arm R z", func(p pose.Pose) float64 { return p.ArmRight.Z }, angleScale},
	{"leg L x", func(p pose.Pose) float64 { return p.LegLeft.X }, angleScale},
	{"leg L y", func(p pose.Pose) float64 { return p.LegLeft.Y }, angleScale},
	{"leg L z", func(p pose.Pose) float64 { return p.LegLeft.Z }, angleScale},
	{"leg R x", func(p pose.Pose) float64 { return p.LegRight.X }, angleScale},
	{"leg R y", func(p pose.Pose) float64 { return p.LegRight.Y }, angleScale},
	{"leg R z", func(p pose.Pose) float64 { return p.LegRight.Z }, angleScale},
	{"cape   ", func(p pose.Pose) float64 { return p.Cape }, 1.0},
}

type monitor struct {
	screen        tcell.Screen
	client        *stream.Client
	smoother      *stream.Smoother
	width, height int

	// Session state, written by the stream callbacks
	mu      sync.Mutex
	name    string
	variant string
	seq     uint64
	frame   int
	idling  bool
	enabled bool
	errMsg  string
	errTime time.Time
}

func newMonitor(client *stream.Client) (*monitor, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}

	if err := screen.Init(); err != nil {
		return nil, err
	}

	m := &monitor{
		screen:   screen,
		client:   client,
		smoother: stream.NewSmoother(renderFPS),
		enabled:  true,
	}
	m.width, m.height = screen.Size()

	client.OnHello = func(hello *protocol.HelloData) {
		m.mu.Lock()
		m.name = hello.Name
		m.variant = hello.Variant
		m.mu.Unlock()
	}
	client.OnPose = func(p *protocol.PoseData) {
		m.smoother.SetTarget(p.Pose())
		m.mu.Lock()
		m.seq = p.Seq
		m.frame = p.Frame
		m.idling = p.Idling
		m.mu.Unlock()
	}
	client.OnState = func(state *protocol.StateData) {
		m.mu.Lock()
		m.enabled = state.Enabled
		m.idling = state.Idling
		m.mu.Unlock()
	}
	client.OnError = func(err error) {
		m.mu.Lock()
		m.errMsg = err.Error()
		m.errTime = time.Now()
		m.mu.Unlock()
	}

	return m, nil
}

func (m *monitor) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}

		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case 'w':
				m.client.MarkActive()
			case '1':
				m.client.SetAnimation("breathing")
			case '2':
				m.client.SetAnimation("look-around")
			case ' ':
				m.mu.Lock()
				enabled := m.enabled
				m.mu.Unlock()
				m.client.SetEnabled(!enabled)
			}
		}

	case *tcell.EventResize:
		m.width, m.height = m.screen.Size()
	}

	return true
}

func (m *monitor) draw() {
	m.screen.Clear()

	p := m.smoother.Step()

	m.mu.Lock()
	name, variant := m.name, m.variant
	seq, frame, idling, enabled := m.seq, m.frame, m.idling, m.enabled
	errMsg, errTime := m.errMsg, m.errTime
	m.mu.Unlock()

	header := fmt.Sprintf("posetop  %s [%s]  seq %d  frame %03d", name, variant, seq, frame)
	drawText(m.screen, 0, 0, tcell.StyleDefault.Bold(true), header)
	x := len(header) + 2
	if !enabled {
		drawText(m.screen, x, 0, tcell.StyleDefault.Foreground(tcell.ColorRed), "PAUSED")
		x += 8
	}
	if idling {
		drawText(m.screen, x, 0, tcell.StyleDefault.Foreground(tcell.ColorYellow), "IDLE")
	}

	drawText(m.screen, 0, 1, tcell.StyleDefault.Foreground(tcell.ColorGray),
		"q quit  w wake  1 breathing  2 look-around  space pause")

	for i, row := range channelRows {
		m.drawBar(3+i, row.label, row.value(p), row.scale)
	}

	if errMsg != "" && time.Since(errTime).Seconds() < errorHoldSec {
		drawText(m.screen, 0, m.height-1, tcell.StyleDefault.Foreground(tcell.ColorRed), errMsg)
	}

	m.screen.Show()
}

// drawBar renders one channel as "label  value  [----|####]" with the
// fill growing right for positive values and left for negative.
func (m *monitor) drawBar(y int, label string, value, scale float64) {
	if y >= m.height {
		return
	}

	drawText(m.screen, 0, y, tcell.StyleDefault, label)
	drawText(m.screen, 9, y, tcell.StyleDefault.Foreground(tcell.ColorWhite), fmt.Sprintf("% 8.2f", value))

	barStart := 19
	barWidth := m.width - barStart - 1
	if barWidth < 11 {
		return
	}
	half := barWidth / 2
	center := barStart + half

	frac := value / scale
	if frac > 1 {
		frac = 1
	}
	if frac < -1 {
		frac = -1
	}
	cells := int(frac * float64(half))

	m.screen.SetContent(center, y, '│', nil, tcell.StyleDefault.Foreground(tcell.ColorGray))
	if cells > 0 {
		for i := 1; i <= cells; i++ {
			m.screen.SetContent(center+i, y, '█', nil, tcell.StyleDefault.Foreground(tcell.ColorGreen))
		}
	} else if cells < 0 {
		for i := 1; i <= -cells; i++ {
			m.screen.SetContent(center-i, y, '█', nil, tcell.StyleDefault.Foreground(tcell.ColorBlue))
		}
	}
}

func (m *monitor) run() {
	ticker := time.NewTicker(time.Second / renderFPS)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			eventChan <- m.screen.PollEvent()
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !m.handleInput(ev) {
				return
			}

		case <-ticker.C:
			m.draw()
		}
	}
}

func (m *monitor) cleanup() {
	m.client.Close()
	m.screen.Fini()
}

func drawText(screen tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		screen.SetContent(x+i, y, r, nil, style)
	}
}

// wsBase rewrites an http(s) base URL to its ws(s) equivalent.
func wsBase(httpURL string) string {
	switch {
	case strings.HasPrefix(httpURL, "https://"):
		return "wss://" + strings.TrimPrefix(httpURL, "https://")
	case strings.HasPrefix(httpURL, "http://"):
		return "ws://" + strings.TrimPrefix(httpURL, "http://")
	}
	return httpURL
}

func main() {
	flag.Parse()

	id := *avatarID
	if id == "" {
		api := stream.NewAPIClient(*serverURL)
		avatars, err := api.ListAvatars()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list avatars: %v\n", err)
			os.Exit(1)
		}
		if len(avatars) == 0 {
			fmt.Fprintln(os.Stderr, "No avatars running")
			os.Exit(1)
		}
		id = avatars[0].ID
	}

	client := stream.NewClient(wsBase(*serverURL), id)

	mon, err := newMonitor(client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer mon.cleanup()

	if err := client.Connect(); err != nil {
		mon.screen.Fini()
		fmt.Fprintf(os.Stderr, "Failed to connect: %v\n", err)
		os.Exit(1)
	}

	mon.run()
}
