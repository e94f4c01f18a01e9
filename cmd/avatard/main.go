// avatard: procedural animation daemon for Minecraft-style avatars.
// Runs avatars server-side and streams pose frames to viewers over
// WebSocket and WebRTC.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avatarworks/go-avatar/internal/config"
	"github.com/avatarworks/go-avatar/internal/log"
	"github.com/avatarworks/go-avatar/pkg/anim"
	"github.com/avatarworks/go-avatar/pkg/avatar"
	"github.com/avatarworks/go-avatar/pkg/pose"
	"github.com/avatarworks/go-avatar/pkg/session"
	"github.com/avatarworks/go-avatar/pkg/web"
)

var version = "1.0.0"

func main() {
	port := flag.String("port", config.Port(), "HTTP server port")
	tickRate := flag.Float64("tick", config.TickRate(), "Render loop rate in Hz")
	idleInterval := flag.Float64("idle", config.IdleInterval(), "Seconds of inactivity before idle animations")
	name := flag.String("name", "steve", "Name of the initial avatar")
	variantFlag := flag.String("variant", "classic", "Skin variant of the initial avatar (classic or slim)")
	latchIdle := flag.Bool("latch-idle", false, "Keep the first idle variant instead of re-rolling")
	logLevel := flag.String("log-level", config.LogLevel(), "Log level (debug, info, warn, error)")
	debug := flag.Bool("debug", false, "Enable debug logging and HTTP request logs")
	flag.Parse()

	if *debug {
		*logLevel = "debug"
	}
	log.Init(*logLevel)

	fmt.Println()
	fmt.Println("🧍 avatard v" + version)
	fmt.Println("   Procedural avatar animation daemon")
	fmt.Println()

	variant, ok := pose.ParseVariant(*variantFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown variant %q (want classic or slim)\n", *variantFlag)
		os.Exit(1)
	}

	// Context for the avatar render loops
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := avatar.NewManager()
	sessions := session.NewHub(manager, *tickRate)
	server := web.NewServer(*port, *debug, manager, sessions)

	// Avatars created over the API animate until shutdown or deletion
	server.OnAvatarCreated = func(av *avatar.Avatar) {
		go av.Run(ctx, *tickRate)
	}

	// The initial avatar
	av := manager.Create(*name, anim.Config{
		Variant:      variant,
		IdleInterval: *idleInterval,
		LatchIdle:    *latchIdle,
	})
	server.Adopt(av)
	go av.Run(ctx, *tickRate)

	server.StartAsync()

	fmt.Printf("🚀 Serving on :%s\n", *port)
	fmt.Printf("   Avatar:    %s (%s, %s)\n", av.Name, av.ID, variant)
	fmt.Printf("   REST:      http://localhost:%s/api/avatars\n", *port)
	fmt.Printf("   Session:   ws://localhost:%s/ws/avatar/%s\n", *port, av.ID)
	fmt.Printf("   Firehose:  ws://localhost:%s/ws/poses\n", *port)
	fmt.Println()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n👋 Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	fmt.Println("✅ Goodbye!")
}
