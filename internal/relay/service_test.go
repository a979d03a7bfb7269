package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/openclass/relay/internal/connection"
	"github.com/openclass/relay/internal/room"
	"github.com/openclass/relay/internal/router"
)

func newTestRelay(t *testing.T) (*Service, string) {
	t.Helper()

	logger := slog.Default()
	registry := connection.NewRegistry(connection.DefaultPeerConfig(), logger)
	table := room.NewTable(logger)
	rt := router.NewRouter(router.DefaultRouterConfig(), table, logger)
	svc := NewService(registry, table, rt, logger)

	srv := httptest.NewServer(http.HandlerFunc(svc.ServeWS))
	t.Cleanup(srv.Close)

	return svc, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env map[string]interface{}
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return env
}

func expectType(t *testing.T, conn *websocket.Conn, want string) map[string]interface{} {
	t.Helper()
	env := readEnvelope(t, conn)
	if env["type"] != want {
		t.Fatalf("envelope type = %v, want %q (envelope: %v)", env["type"], want, env)
	}
	return env
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestJoinConfirmation(t *testing.T) {
	_, url := newTestRelay(t)
	conn := dial(t, url)

	send(t, conn, map[string]string{"type": "join", "roomId": "lecture-5", "name": "Alice"})

	env := expectType(t, conn, "joined")
	id, _ := env["clientId"].(string)
	if id == "" {
		t.Error("joined.clientId is empty")
	}
	peers, ok := env["peers"].([]interface{})
	if !ok {
		t.Fatalf("joined.peers = %v, want array", env["peers"])
	}
	if len(peers) != 0 {
		t.Errorf("joined.peers = %v, want empty", peers)
	}
}

func TestEndToEndScenario(t *testing.T) {
	svc, url := newTestRelay(t)

	// C1 joins an empty room.
	c1 := dial(t, url)
	send(t, c1, map[string]string{"type": "join", "roomId": "lecture-5", "name": "Alice"})
	joined1 := expectType(t, c1, "joined")
	c1ID := joined1["clientId"].(string)

	// C2 joins and discovers C1.
	c2 := dial(t, url)
	send(t, c2, map[string]string{"type": "join", "roomId": "lecture-5", "name": "Bob"})
	joined2 := expectType(t, c2, "joined")
	c2ID := joined2["clientId"].(string)

	peers := joined2["peers"].([]interface{})
	if len(peers) != 1 {
		t.Fatalf("C2 peers = %v, want 1 entry", peers)
	}
	peer := peers[0].(map[string]interface{})
	if peer["clientId"] != c1ID || peer["name"] != "Alice" {
		t.Errorf("C2 peers[0] = %v, want Alice/%s", peer, c1ID)
	}

	// C1 sees C2 arrive.
	note := expectType(t, c1, "peer-joined")
	if note["clientId"] != c2ID || note["name"] != "Bob" {
		t.Errorf("peer-joined = %v, want Bob/%s", note, c2ID)
	}

	// C1's chat reaches both members, sender included.
	send(t, c1, map[string]string{"type": "chat", "text": "hi"})
	for name, conn := range map[string]*websocket.Conn{"c1": c1, "c2": c2} {
		chat := expectType(t, conn, "chat")
		if chat["fromId"] != c1ID || chat["name"] != "Alice" || chat["text"] != "hi" {
			t.Errorf("%s chat = %v, want hi from Alice/%s", name, chat, c1ID)
		}
		ts, _ := chat["time"].(string)
		if _, err := time.Parse(time.RFC3339, ts); err != nil {
			t.Errorf("%s chat.time = %q, not RFC 3339: %v", name, ts, err)
		}
	}

	// C2 disconnects; C1 is told exactly once.
	c2.Close()
	left := expectType(t, c1, "peer-left")
	if left["clientId"] != c2ID {
		t.Errorf("peer-left = %v, want %s", left, c2ID)
	}

	waitFor(t, "room shrink", func() bool { return svc.Stats().Rooms.Members == 1 })
}

func TestSignalRelayedToTargetOnly(t *testing.T) {
	_, url := newTestRelay(t)

	c1 := dial(t, url)
	send(t, c1, map[string]string{"type": "join", "roomId": "r", "name": "Alice"})
	c1ID := expectType(t, c1, "joined")["clientId"].(string)

	c2 := dial(t, url)
	send(t, c2, map[string]string{"type": "join", "roomId": "r", "name": "Bob"})
	c2ID := expectType(t, c2, "joined")["clientId"].(string)
	expectType(t, c1, "peer-joined")

	c3 := dial(t, url)
	send(t, c3, map[string]string{"type": "join", "roomId": "r", "name": "Carol"})
	expectType(t, c3, "joined")
	expectType(t, c1, "peer-joined")
	expectType(t, c2, "peer-joined")

	send(t, c1, map[string]interface{}{
		"type":       "signal",
		"targetId":   c2ID,
		"signalType": "offer",
		"data":       map[string]string{"sdp": "v=0"},
	})

	sig := expectType(t, c2, "signal")
	if sig["fromId"] != c1ID {
		t.Errorf("signal.fromId = %v, want %s", sig["fromId"], c1ID)
	}
	if sig["signalType"] != "offer" {
		t.Errorf("signal.signalType = %v, want offer", sig["signalType"])
	}
	data, _ := sig["data"].(map[string]interface{})
	if data["sdp"] != "v=0" {
		t.Errorf("signal.data = %v, want sdp passthrough", sig["data"])
	}

	// C3 must not see the targeted signal; a chat frame arrives after it
	// would have.
	send(t, c1, map[string]string{"type": "chat", "text": "done"})
	if env := readEnvelope(t, c3); env["type"] != "chat" {
		t.Errorf("c3 received %v before chat, want chat only", env)
	}
}

func TestBlankRoomJoinGetsNoResponse(t *testing.T) {
	svc, url := newTestRelay(t)
	conn := dial(t, url)

	send(t, conn, map[string]string{"type": "join", "roomId": "   ", "name": "Alice"})
	// A follow-up valid join is confirmed first: the blank one produced
	// nothing at all.
	send(t, conn, map[string]string{"type": "join", "roomId": "real", "name": "Alice"})

	expectType(t, conn, "joined")

	stats := svc.Stats()
	if stats.Rooms.Rooms != 1 {
		t.Errorf("Rooms = %d, want 1 (no room for blank id)", stats.Rooms.Rooms)
	}
}

func TestMalformedFramesKeepConnectionOpen(t *testing.T) {
	_, url := newTestRelay(t)
	conn := dial(t, url)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	send(t, conn, map[string]string{"type": "join", "roomId": "r", "name": "Alice"})

	expectType(t, conn, "joined")
}

func TestDisconnectCleansUp(t *testing.T) {
	svc, url := newTestRelay(t)

	conn := dial(t, url)
	send(t, conn, map[string]string{"type": "join", "roomId": "solo", "name": "Alice"})
	expectType(t, conn, "joined")

	waitFor(t, "registration", func() bool { return svc.Stats().Registry.OpenConnections == 1 })

	conn.Close()

	waitFor(t, "cleanup", func() bool {
		stats := svc.Stats()
		return stats.Registry.OpenConnections == 0 && stats.Rooms.Rooms == 0
	})
}

func TestUnjoinedDisconnectLeavesNoState(t *testing.T) {
	svc, url := newTestRelay(t)

	conn := dial(t, url)
	waitFor(t, "registration", func() bool { return svc.Stats().Registry.OpenConnections == 1 })

	conn.Close()

	waitFor(t, "cleanup", func() bool {
		stats := svc.Stats()
		return stats.Registry.OpenConnections == 0 && stats.Rooms.Rooms == 0
	})
}
