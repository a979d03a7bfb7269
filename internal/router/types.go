package router

import (
	"encoding/json"
	"time"

	"github.com/openclass/relay/internal/room"
)

// Envelope type discriminators.
const (
	TypeJoin       = "join"
	TypeSignal     = "signal"
	TypeChat       = "chat"
	TypeJoined     = "joined"
	TypePeerJoined = "peer-joined"
	TypePeerLeft   = "peer-left"
)

// Conn is the per-connection surface the router needs. Implemented by
// *connection.Peer.
type Conn interface {
	room.Peer

	// Room returns the room the connection joined, or "" before joining.
	Room() string

	// JoinRoom sets the room exactly once, reporting whether it won.
	JoinRoom(roomID string) bool

	// SetIdentity records display name and external identity at join time.
	SetIdentity(name, userID string)
}

// RouterConfig holds configuration for the Message Router.
type RouterConfig struct {
	ChatBufferSize int // Chat record feed length before drops
}

// DefaultRouterConfig returns default configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		ChatBufferSize: 1024,
	}
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	Received    int64
	Routed      int64
	Dropped     int64
	ParseErrors int64
}

// ChatRecord is one delivered chat message, as fed to the archive writer.
type ChatRecord struct {
	RoomID   string
	SenderID string
	Name     string
	UserID   string
	Text     string
	SentAt   time.Time
}

// Wire types for JSON parsing

// envelope is used for type extraction before the full parse.
type envelope struct {
	Type string `json:"type"`
}

// joinWire is the wire format for inbound join envelopes.
type joinWire struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

// signalWire is the wire format for inbound signal envelopes. SignalType
// and Data are opaque; the relay never interprets them.
type signalWire struct {
	Type       string          `json:"type"`
	TargetID   string          `json:"targetId"`
	SignalType json.RawMessage `json:"signalType"`
	Data       json.RawMessage `json:"data"`
}

// chatWire is the wire format for inbound chat envelopes.
type chatWire struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Outbound envelopes

// JoinedMsg confirms a join to the joining connection.
type JoinedMsg struct {
	Type     string        `json:"type"`
	ClientID string        `json:"clientId"`
	Peers    []room.Member `json:"peers"`
}

// PeerJoinedMsg notifies existing room members of a new peer.
type PeerJoinedMsg struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	UserID   string `json:"userId,omitempty"`
}

// SignalMsg forwards an opaque signaling payload to one target.
type SignalMsg struct {
	Type       string          `json:"type"`
	FromID     string          `json:"fromId"`
	SignalType json.RawMessage `json:"signalType"`
	Data       json.RawMessage `json:"data"`
}

// ChatMsg broadcasts a chat line to a whole room, sender included.
type ChatMsg struct {
	Type   string `json:"type"`
	FromID string `json:"fromId"`
	Name   string `json:"name"`
	Text   string `json:"text"`
	Time   string `json:"time"` // RFC 3339
}

// PeerLeftMsg notifies remaining room members of a departure.
type PeerLeftMsg struct {
	Type     string `json:"type"`
	ClientID string `json:"clientId"`
}
