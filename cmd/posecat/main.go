// Posecat - stream an avatar's pose frames to stdout
//
// Connects to a running avatard, subscribes to one avatar's session
// socket, and prints each frame as a column line (or raw JSON with -json).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/avatarworks/go-avatar/pkg/protocol"
	"github.com/avatarworks/go-avatar/pkg/stream"
)

var (
	serverURL = flag.String("url", "http://localhost:8080", "avatard base URL")
	avatarID  = flag.String("avatar", "", "avatar id (default: first avatar on the server)")
	rawJSON   = flag.Bool("json", false, "print raw frame JSON instead of columns")
	maxFrames = flag.Int("n", 0, "stop after this many frames (0 = forever)")
)

func main() {
	flag.Parse()

	fmt.Println("🐱 Posecat")
	fmt.Println("==========")

	id := *avatarID
	if id == "" {
		fmt.Print("Finding an avatar... ")
		api := stream.NewAPIClient(*serverURL)
		avatars, err := api.ListAvatars()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		if len(avatars) == 0 {
			fmt.Println("❌ no avatars running")
			os.Exit(1)
		}
		id = avatars[0].ID
		fmt.Printf("✅ %s (%s)\n", avatars[0].Name, id)
	}

	client := stream.NewClient(wsBase(*serverURL), id)

	done := make(chan struct{})
	printed := 0 // touched only by the read loop goroutine

	client.OnHello = func(hello *protocol.HelloData) {
		fmt.Printf("Streaming %s [%s] at %.0f fps\n\n", hello.Name, hello.Variant, hello.TickRate)
	}
	client.OnPose = func(p *protocol.PoseData) {
		if *rawJSON {
			if data, err := json.Marshal(p); err == nil {
				fmt.Println(string(data))
			}
		} else {
			printFrame(p)
		}
		if *maxFrames > 0 {
			printed++
			if printed == *maxFrames {
				close(done)
			}
		}
	}
	client.OnError = func(err error) {
		fmt.Fprintf(os.Stderr, "stream error: %v\n", err)
	}

	fmt.Print("Connecting... ")
	if err := client.Connect(); err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	fmt.Println("✅")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		fmt.Println("\n👋 Bye")
	case <-done:
	}
}

// printFrame writes one column line per frame. The z column marks idle
// frames.
func printFrame(p *protocol.PoseData) {
	idle := " "
	if p.Idling {
		idle = "z"
	}
	fmt.Printf("%8d %s f%3d  head % 7.2f % 7.2f % 7.2f  armL % 7.2f % 7.2f % 7.2f  armR % 7.2f % 7.2f % 7.2f  cape % .3f\n",
		p.Seq, idle, p.Frame,
		p.Head.X, p.Head.Y, p.Head.Z,
		p.ArmLeft.X, p.ArmLeft.Y, p.ArmLeft.Z,
		p.ArmRight.X, p.ArmRight.Y, p.ArmRight.Z,
		p.Cape)
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
