package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"crownhunt/internal/protocol"
)

// Server upgrades observer connections and streams them block digests
// or full snapshots from the hub.
type Server struct {
	hub *Hub
	log *log.Logger

	// LoopbackOnly restricts connections to localhost.
	LoopbackOnly bool

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

func NewServer(hub *Hub, logger *log.Logger) *Server {
	return &Server{
		hub: hub,
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if s.LoopbackOnly && !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send HELLO first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil || base.Type != protocol.TypeHello {
			closePolicy(conn, "expected HELLO")
			return
		}
		var hello protocol.HelloMsg
		if err := json.Unmarshal(msg, &hello); err != nil {
			closePolicy(conn, "bad HELLO")
			return
		}
		if hello.ProtocolVersion != protocol.Version {
			closePolicy(conn, "bad protocol_version")
			return
		}

		sid := fmt.Sprintf("O%d", s.nextID.Add(1))
		sess := &session{
			id:        sid,
			out:       make(chan []byte, 256),
			wantState: hello.WantState,
		}

		tipHeight, tipDigest := s.hub.Tip()
		welcome := protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			SessionID:       sid,
			Network:         s.hub.network,
			StateVersion:    s.hub.stateVersion,
			TipHeight:       tipHeight,
			TipDigest:       tipDigest,
		}
		if err := writeJSON(conn, welcome); err != nil {
			return
		}

		if hello.FromHeight >= 0 {
			backlog, ok := s.hub.Backlog(hello.FromHeight)
			if !ok {
				_ = writeJSON(conn, protocol.AckMsg{
					Type:            protocol.TypeAck,
					ProtocolVersion: protocol.Version,
					AckFor:          protocol.TypeHello,
					Accepted:        false,
					Code:            protocol.ErrUnknownHeight,
					Message:         "height no longer buffered",
				})
				return
			}
			for _, b := range backlog {
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					return
				}
			}
		}

		s.hub.join(sess)
		defer s.hub.leave(sid)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b, ok := <-sess.out:
					if !ok {
						writeErr <- nil
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: the client sends nothing after HELLO, but reading
		// keeps pings flowing and detects the close.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func closePolicy(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
