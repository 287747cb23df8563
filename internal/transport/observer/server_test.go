package observer

import (
	"encoding/json"
	"log"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"crownhunt/internal/protocol"
)

func dialTestServer(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := NewServer(hub, log.New(os.Stderr, "", 0))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func sendHello(t *testing.T, conn *websocket.Conn, fromHeight int64) {
	t.Helper()
	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "test",
		FromHeight:      fromHeight,
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("hello: %v", err)
	}
}

func digestAt(height int64) protocol.DigestMsg {
	return protocol.DigestMsg{
		Type:            protocol.TypeDigest,
		ProtocolVersion: protocol.Version,
		Height:          height,
		Digest:          strings.Repeat("ab", 32),
	}
}

func TestHandshakeAndLiveDigests(t *testing.T) {
	hub := NewHub("regtest", 2020600)
	hub.Publish(digestAt(0), nil)
	conn := dialTestServer(t, hub)

	sendHello(t, conn, -1)
	var welcome protocol.WelcomeMsg
	readMsg(t, conn, &welcome)
	if welcome.Type != protocol.TypeWelcome || welcome.Network != "regtest" || welcome.TipHeight != 0 {
		t.Fatalf("welcome %+v", welcome)
	}

	for hub.Sessions() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	hub.Publish(digestAt(1), nil)

	var dig protocol.DigestMsg
	readMsg(t, conn, &dig)
	if dig.Type != protocol.TypeDigest || dig.Height != 1 {
		t.Fatalf("digest %+v", dig)
	}
}

func TestBacklogReplay(t *testing.T) {
	hub := NewHub("regtest", 2020600)
	for h := int64(0); h < 5; h++ {
		hub.Publish(digestAt(h), nil)
	}
	conn := dialTestServer(t, hub)

	sendHello(t, conn, 2)
	var welcome protocol.WelcomeMsg
	readMsg(t, conn, &welcome)

	for want := int64(2); want < 5; want++ {
		var dig protocol.DigestMsg
		readMsg(t, conn, &dig)
		if dig.Height != want {
			t.Fatalf("backlog height %d, want %d", dig.Height, want)
		}
	}
}

func TestStateSubscription(t *testing.T) {
	hub := NewHub("regtest", 2020600)
	conn := dialTestServer(t, hub)

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      "test",
		FromHeight:      -1,
		WantState:       true,
	}
	if err := conn.WriteJSON(hello); err != nil {
		t.Fatalf("hello: %v", err)
	}
	var welcome protocol.WelcomeMsg
	readMsg(t, conn, &welcome)

	for hub.Sessions() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	hub.Publish(digestAt(3), json.RawMessage(`{"height":3}`))

	var st protocol.StateMsg
	readMsg(t, conn, &st)
	if st.Type != protocol.TypeState || st.Height != 3 || len(st.State) == 0 {
		t.Fatalf("state %+v", st)
	}
}

func TestRejectsWrongFirstMessage(t *testing.T) {
	hub := NewHub("regtest", 2020600)
	conn := dialTestServer(t, hub)

	if err := conn.WriteJSON(protocol.DigestMsg{Type: protocol.TypeDigest}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected close on bad handshake")
	}
}

func TestBacklogEvicted(t *testing.T) {
	hub := NewHub("regtest", 2020600)
	for h := int64(0); h < ringSize+10; h++ {
		hub.Publish(digestAt(h), nil)
	}
	if _, ok := hub.Backlog(0); ok {
		t.Fatalf("expected height 0 evicted from ring")
	}
	msgs, ok := hub.Backlog(ringSize + 5)
	if !ok || len(msgs) != 5 {
		t.Fatalf("got %d msgs ok=%v", len(msgs), ok)
	}
}
