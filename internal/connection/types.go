package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrAlreadyClosed = errors.New("already closed")
)

// PeerConfig configures an accepted WebSocket peer.
type PeerConfig struct {
	SendBufferSize int           // Outbound queue length before drops
	MaxMessageSize int64         // Inbound read limit (bytes)
	WriteTimeout   time.Duration // Write deadline for sends
	PingInterval   time.Duration // Interval between server pings
	PongTimeout    time.Duration // Max silence before the read fails
}

// DefaultPeerConfig returns sensible defaults.
func DefaultPeerConfig() PeerConfig {
	return PeerConfig{
		SendBufferSize: 256,
		MaxMessageSize: 64 * 1024,
		WriteTimeout:   5 * time.Second,
		PingInterval:   30 * time.Second,
		PongTimeout:    60 * time.Second,
	}
}

// RegistryStats provides statistics about the Connection Registry.
type RegistryStats struct {
	OpenConnections int
	Accepted        int64
	DroppedSends    int64
}
