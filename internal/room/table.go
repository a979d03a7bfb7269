package room

import (
	"log/slog"
	"sync"
)

// Table maps room ids to their current member sets.
type Table struct {
	logger *slog.Logger

	mu    sync.Mutex
	rooms map[string]map[string]Peer // room id → peer id → peer
}

// NewTable creates an empty Room Table.
func NewTable(logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	return &Table{
		logger: logger,
		rooms:  make(map[string]map[string]Peer),
	}
}

// Join inserts a peer into a room, creating the room if absent, and returns
// a snapshot of the other current members. Joining a room the peer is
// already in is idempotent.
func (t *Table) Join(roomID string, p Peer) []Member {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[roomID]
	if !ok {
		members = make(map[string]Peer)
		t.rooms[roomID] = members
		t.logger.Debug("room created", "room", roomID)
	}

	others := make([]Member, 0, len(members))
	for id, m := range members {
		if id == p.ID() {
			continue
		}
		others = append(others, Member{
			ClientID: m.ID(),
			Name:     m.DisplayName(),
			UserID:   m.UserID(),
		})
	}

	members[p.ID()] = p
	return others
}

// Leave removes a peer from a room. The room entry is deleted in the same
// critical section when its last member leaves. Unknown rooms or members
// are a no-op.
func (t *Table) Leave(roomID, peerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := members[peerID]; !ok {
		return
	}

	delete(members, peerID)
	if len(members) == 0 {
		delete(t.rooms, roomID)
		t.logger.Debug("room deleted", "room", roomID)
	}
}

// Lookup returns a specific member of a room, for targeted delivery.
func (t *Table) Lookup(roomID, peerID string) (Peer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[roomID]
	if !ok {
		return nil, false
	}
	p, ok := members[peerID]
	return p, ok
}

// Broadcast sends a payload to every current member of a room except the
// optionally excluded one (excludeID == "" excludes nobody). Membership is
// snapshotted once before any send; per-member failures are skipped.
func (t *Table) Broadcast(roomID string, payload []byte, excludeID string) {
	t.mu.Lock()
	members := t.rooms[roomID]
	targets := make([]Peer, 0, len(members))
	for id, p := range members {
		if id == excludeID {
			continue
		}
		targets = append(targets, p)
	}
	t.mu.Unlock()

	for _, p := range targets {
		p.Send(payload)
	}
}

// MemberCount returns the number of members in a room, 0 if absent.
func (t *Table) MemberCount(roomID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rooms[roomID])
}

// Stats returns current table statistics.
func (t *Table) Stats() TableStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, members := range t.rooms {
		total += len(members)
	}
	return TableStats{
		Rooms:   len(t.rooms),
		Members: total,
	}
}
