// Command bot tails a server's observer stream and prints every block
// digest it receives.  Useful for watching a network converge.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"crownhunt/internal/protocol"
)

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8080/v1/observer/ws", "observer ws url")
		name       = flag.String("name", "watcher", "client name")
		fromHeight = flag.Int64("from_height", -1, "replay buffered digests from this height (-1: live only)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[watch] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		FromHeight:      *fromHeight,
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s network=%s tip=%d digest=%s",
				w.SessionID, w.Network, w.TipHeight, w.TipDigest)

		case protocol.TypeDigest:
			var d protocol.DigestMsg
			if err := json.Unmarshal(msg, &d); err != nil {
				continue
			}
			logger.Printf("block height=%d digest=%s tax=%d dead=%d",
				d.Height, d.Digest, d.TaxCollected, d.CharactersDead)

		case protocol.TypeAck:
			var a protocol.AckMsg
			if err := json.Unmarshal(msg, &a); err != nil {
				continue
			}
			if !a.Accepted {
				logger.Fatalf("server rejected %s: %s %s", a.AckFor, a.Code, a.Message)
			}
		}
	}
}
