package connection

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Peer wraps a single accepted WebSocket session.
//
// The transport owns its own lifecycle; Peer only holds a handle for reads
// and queued writes. Exactly one goroutine may call Read.
type Peer struct {
	id     string
	cfg    PeerConfig
	logger *slog.Logger

	conn *websocket.Conn

	// Outbound queue drained by writePump
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	dropped   atomic.Int64

	// Identity, set at join time
	mu     sync.RWMutex
	name   string
	userID string
	roomID string
}

func newPeer(id string, conn *websocket.Conn, cfg PeerConfig, logger *slog.Logger) *Peer {
	p := &Peer{
		id:     id,
		cfg:    cfg,
		logger: logger,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBufferSize),
		done:   make(chan struct{}),
	}

	conn.SetReadLimit(cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.PongTimeout))
	})

	go p.writePump()

	return p
}

// ID returns the process-unique peer id.
func (p *Peer) ID() string {
	return p.id
}

// DisplayName returns the name supplied at join time.
func (p *Peer) DisplayName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// UserID returns the optional external identity supplied at join time.
// It is opaque and unverified.
func (p *Peer) UserID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userID
}

// Room returns the room this peer belongs to, or "" before joining.
func (p *Peer) Room() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.roomID
}

// SetIdentity records the display name and external identity.
func (p *Peer) SetIdentity(name, userID string) {
	p.mu.Lock()
	p.name = name
	p.userID = userID
	p.mu.Unlock()
}

// JoinRoom sets the peer's room exactly once. It returns false if the peer
// already belongs to a room; a peer never changes rooms for its lifetime.
func (p *Peer) JoinRoom(roomID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.roomID != "" {
		return false
	}
	p.roomID = roomID
	return true
}

// Send queues a payload for delivery. It never blocks: if the peer's queue
// is full or the peer is closed the payload is dropped and Send returns
// false. Delivery is best-effort.
func (p *Peer) Send(payload []byte) bool {
	select {
	case <-p.done:
		return false
	default:
	}

	select {
	case p.send <- payload:
		return true
	default:
		p.dropped.Add(1)
		p.logger.Warn("send queue full, dropping message", "peer", p.id)
		return false
	}
}

// Read returns the next inbound message. It blocks until a message arrives,
// the deadline passes without a pong, or the transport closes.
func (p *Peer) Read() ([]byte, error) {
	_, data, err := p.conn.ReadMessage()
	return data, err
}

// Close tears down the transport. Safe to call more than once.
func (p *Peer) Close() error {
	err := ErrAlreadyClosed
	p.closeOnce.Do(func() {
		close(p.done)
		p.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = p.conn.Close()
	})
	return err
}

// DroppedSends returns how many payloads were dropped on a full queue.
func (p *Peer) DroppedSends() int64 {
	return p.dropped.Load()
}

// writePump drains the send queue and keeps the connection alive with pings.
func (p *Peer) writePump() {
	ticker := time.NewTicker(p.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return

		case payload := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(p.cfg.WriteTimeout))
			if err := p.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				p.logger.Debug("write failed", "peer", p.id, "error", err)
				p.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(p.cfg.WriteTimeout)
			if err := p.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				p.logger.Debug("ping failed", "peer", p.id, "error", err)
				p.Close()
				return
			}
		}
	}
}
