package router

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/openclass/relay/internal/room"
)

// Router validates and dispatches every inbound envelope for connections
// that joined (or are joining) a room.
type Router struct {
	cfg    RouterConfig
	logger *slog.Logger
	table  *room.Table

	// Output to the chat archive (drop-on-full; nothing drains it when
	// archiving is disabled)
	chats chan ChatRecord

	mu          sync.Mutex
	received    int64
	routed      int64
	dropped     int64
	parseErrors int64
}

// NewRouter creates a Message Router over the given Room Table.
func NewRouter(cfg RouterConfig, table *room.Table, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		cfg:    cfg,
		logger: logger,
		table:  table,
		chats:  make(chan ChatRecord, cfg.ChatBufferSize),
	}
}

// Chats returns the feed of delivered chat messages for the archive writer.
func (r *Router) Chats() <-chan ChatRecord {
	return r.chats
}

// Stats returns current statistics.
func (r *Router) Stats() RouterStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RouterStats{
		Received:    r.received,
		Routed:      r.routed,
		Dropped:     r.dropped,
		ParseErrors: r.parseErrors,
	}
}

// Handle dispatches one inbound envelope from a connection. Malformed or
// unexpected envelopes are dropped without a response; the connection stays
// open either way.
func (r *Router) Handle(c Conn, data []byte) {
	r.count(&r.received)

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
		r.count(&r.parseErrors)
		r.logger.Debug("dropping unparsable envelope", "peer", c.ID())
		return
	}

	switch env.Type {
	case TypeJoin:
		r.handleJoin(c, data)
	case TypeSignal:
		r.handleSignal(c, data)
	case TypeChat:
		r.handleChat(c, data)
	default:
		r.count(&r.dropped)
		r.logger.Debug("dropping unknown envelope type", "peer", c.ID(), "type", env.Type)
	}
}

// Disconnect removes a joined connection from its room and notifies the
// remaining members. Connections that never joined need no cleanup.
func (r *Router) Disconnect(c Conn) {
	roomID := c.Room()
	if roomID == "" {
		return
	}

	r.table.Leave(roomID, c.ID())

	payload, err := json.Marshal(PeerLeftMsg{
		Type:     TypePeerLeft,
		ClientID: c.ID(),
	})
	if err != nil {
		return
	}
	r.table.Broadcast(roomID, payload, c.ID())

	r.logger.Debug("peer left", "peer", c.ID(), "room", roomID)
}

func (r *Router) handleJoin(c Conn, data []byte) {
	var msg joinWire
	if err := json.Unmarshal(data, &msg); err != nil {
		r.count(&r.parseErrors)
		return
	}

	roomID := strings.TrimSpace(msg.RoomID)
	if roomID == "" {
		r.count(&r.dropped)
		r.logger.Debug("dropping join with blank room", "peer", c.ID())
		return
	}

	name := strings.TrimSpace(msg.Name)
	if name == "" {
		name = "Guest"
	}

	if !c.JoinRoom(roomID) {
		// Already in a room; re-joins are ignored for the connection's
		// lifetime.
		r.count(&r.dropped)
		r.logger.Debug("dropping join from joined peer", "peer", c.ID(), "room", roomID)
		return
	}

	// Identity is recorded before the table insert so concurrent joiners
	// snapshot the final name.
	c.SetIdentity(name, msg.UserID)
	peers := r.table.Join(roomID, c)

	joined, err := json.Marshal(JoinedMsg{
		Type:     TypeJoined,
		ClientID: c.ID(),
		Peers:    peers,
	})
	if err != nil {
		return
	}
	c.Send(joined)

	notice, err := json.Marshal(PeerJoinedMsg{
		Type:     TypePeerJoined,
		ClientID: c.ID(),
		Name:     name,
		UserID:   msg.UserID,
	})
	if err != nil {
		return
	}
	r.table.Broadcast(roomID, notice, c.ID())

	r.count(&r.routed)
	r.logger.Debug("peer joined", "peer", c.ID(), "room", roomID, "name", name)
}

func (r *Router) handleSignal(c Conn, data []byte) {
	roomID := c.Room()
	if roomID == "" {
		r.count(&r.dropped)
		r.logger.Debug("dropping signal before join", "peer", c.ID())
		return
	}

	var msg signalWire
	if err := json.Unmarshal(data, &msg); err != nil {
		r.count(&r.parseErrors)
		return
	}
	if msg.TargetID == "" {
		r.count(&r.dropped)
		return
	}

	target, ok := r.table.Lookup(roomID, msg.TargetID)
	if !ok {
		// The target may have disconnected in a race; expected, not an error.
		r.count(&r.dropped)
		r.logger.Debug("dropping signal for absent target", "peer", c.ID(), "target", msg.TargetID)
		return
	}

	payload, err := json.Marshal(SignalMsg{
		Type:       TypeSignal,
		FromID:     c.ID(),
		SignalType: msg.SignalType,
		Data:       msg.Data,
	})
	if err != nil {
		return
	}
	target.Send(payload)

	r.count(&r.routed)
}

func (r *Router) handleChat(c Conn, data []byte) {
	roomID := c.Room()
	if roomID == "" {
		r.count(&r.dropped)
		r.logger.Debug("dropping chat before join", "peer", c.ID())
		return
	}

	var msg chatWire
	if err := json.Unmarshal(data, &msg); err != nil {
		r.count(&r.parseErrors)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		r.count(&r.dropped)
		return
	}

	now := time.Now().UTC()
	payload, err := json.Marshal(ChatMsg{
		Type:   TypeChat,
		FromID: c.ID(),
		Name:   c.DisplayName(),
		Text:   text,
		Time:   now.Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	// Sender included: its UI renders through the same channel as everyone
	// else's.
	r.table.Broadcast(roomID, payload, "")

	select {
	case r.chats <- ChatRecord{
		RoomID:   roomID,
		SenderID: c.ID(),
		Name:     c.DisplayName(),
		UserID:   c.UserID(),
		Text:     text,
		SentAt:   now,
	}:
	default:
		// Archive feed full or unconsumed; the transcript is best-effort.
	}

	r.count(&r.routed)
}

func (r *Router) count(field *int64) {
	r.mu.Lock()
	*field++
	r.mu.Unlock()
}
