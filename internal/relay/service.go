package relay

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/openclass/relay/internal/connection"
	"github.com/openclass/relay/internal/room"
	"github.com/openclass/relay/internal/router"
)

// Service owns the signaling relay: one upgrade endpoint and the lifecycle
// of every accepted connection. All state lives in the registry and the
// room table constructed at startup; nothing survives a restart and clients
// must re-join after one.
type Service struct {
	logger   *slog.Logger
	registry *connection.Registry
	table    *room.Table
	router   *router.Router
	upgrader websocket.Upgrader
}

// ServiceStats aggregates component statistics for the /stats endpoint.
type ServiceStats struct {
	Registry connection.RegistryStats
	Rooms    room.TableStats
	Router   router.RouterStats
}

// NewService creates the relay service over its three components.
func NewService(registry *connection.Registry, table *room.Table, rt *router.Router, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		logger:   logger,
		registry: registry,
		table:    table,
		router:   rt,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Signaling carries no credentials and browser clients connect
			// from the app origin; origin is not checked here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeWS upgrades an HTTP request and serves the connection until the
// transport closes. It blocks for the lifetime of the connection.
func (s *Service) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	p := s.registry.Accept(conn)
	s.logger.Debug("connection accepted", "peer", p.ID(), "remote", r.RemoteAddr)

	s.serve(p)
}

// serve processes one connection's envelopes in arrival order.
func (s *Service) serve(p *connection.Peer) {
	defer func() {
		// Closed state: leave the room and notify before the registry
		// forgets the id. In-flight work for this peer is abandoned, not
		// rolled back.
		s.router.Disconnect(p)
		s.registry.Forget(p.ID())
		p.Close()
		s.logger.Debug("connection closed", "peer", p.ID())
	}()

	for {
		data, err := p.Read()
		if err != nil {
			return
		}
		s.router.Handle(p, data)
	}
}

// Stats returns a snapshot of relay statistics.
func (s *Service) Stats() ServiceStats {
	return ServiceStats{
		Registry: s.registry.Stats(),
		Rooms:    s.table.Stats(),
		Router:   s.router.Stats(),
	}
}
