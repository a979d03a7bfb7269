package room

// Peer is the connection-side surface the room table needs. Implemented by
// *connection.Peer.
type Peer interface {
	// ID returns the process-unique connection id.
	ID() string

	// DisplayName returns the name supplied at join time.
	DisplayName() string

	// UserID returns the optional, unverified external identity.
	UserID() string

	// Send queues a payload best-effort. A false return means the payload
	// was dropped; the transport reports its own closure separately.
	Send(payload []byte) bool
}

// Member is a snapshot of one room member, as exposed to joining clients
// for peer discovery.
type Member struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	UserID   string `json:"userId,omitempty"`
}

// TableStats provides statistics about the Room Table.
type TableStats struct {
	Rooms   int
	Members int
}
