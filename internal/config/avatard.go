// Package config provides configuration helpers for avatar daemon commands.
package config

import (
	"os"
	"strconv"
)

// Default daemon configuration.
const (
	DefaultPort         = "8080"
	DefaultTickRate     = 60.0
	DefaultIdleInterval = 10.0
	DefaultLogLevel     = "info"
)

// Port returns the HTTP port from AVATARD_PORT.
// Falls back to the default if not set.
func Port() string {
	if port := os.Getenv("AVATARD_PORT"); port != "" {
		return port
	}
	return DefaultPort
}

// TickRate returns the render loop rate in Hz from AVATARD_TICK_HZ.
func TickRate() float64 {
	return envFloat("AVATARD_TICK_HZ", DefaultTickRate)
}

// IdleInterval returns the idle timeout in seconds from AVATARD_IDLE_INTERVAL.
func IdleInterval() float64 {
	return envFloat("AVATARD_IDLE_INTERVAL", DefaultIdleInterval)
}

// LogLevel returns the log level from AVATARD_LOG_LEVEL.
func LogLevel() string {
	if level := os.Getenv("AVATARD_LOG_LEVEL"); level != "" {
		return level
	}
	return DefaultLogLevel
}

// envFloat reads a positive float from the environment.
// Unset, malformed, or non-positive values fall back.
func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
