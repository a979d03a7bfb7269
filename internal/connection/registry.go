package connection

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Registry tracks every live peer by id.
type Registry struct {
	cfg    PeerConfig
	logger *slog.Logger

	mu       sync.RWMutex
	peers    map[string]*Peer
	accepted int64
}

// NewRegistry creates a Connection Registry.
func NewRegistry(cfg PeerConfig, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		cfg:    cfg,
		logger: logger,
		peers:  make(map[string]*Peer),
	}
}

// Accept wraps a freshly upgraded WebSocket in a Peer with a new
// process-unique id and registers it. The peer starts with no room and no
// name.
func (r *Registry) Accept(conn *websocket.Conn) *Peer {
	id := uuid.NewString()
	p := newPeer(id, conn, r.cfg, r.logger.With("peer", id))

	r.mu.Lock()
	r.peers[id] = p
	r.accepted++
	r.mu.Unlock()

	return p
}

// Forget removes a peer from the registry. Forgetting an unknown id is a
// no-op.
func (r *Registry) Forget(id string) {
	r.mu.Lock()
	delete(r.peers, id)
	r.mu.Unlock()
}

// Get returns the peer with the given id, if still registered.
func (r *Registry) Get(id string) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[id]
	return p, ok
}

// Count returns the number of live peers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// Stats returns current registry statistics.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var dropped int64
	for _, p := range r.peers {
		dropped += p.DroppedSends()
	}

	return RegistryStats{
		OpenConnections: len(r.peers),
		Accepted:        r.accepted,
		DroppedSends:    dropped,
	}
}
