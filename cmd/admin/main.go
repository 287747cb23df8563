// Command admin inspects a node's data directory and talks to the
// loopback admin endpoints of a running server.
//
// Usage:
//
//	admin db [-data ./data|-db PATH] blocks|kills|snapshots|meta [flags]
//	admin state [-url http://127.0.0.1:8080]
//	admin snapshot [-url http://127.0.0.1:8080]
//	admin verify [-data ./data] [-snapshot PATH]
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"crownhunt/internal/persistence/snapshot"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "db":
			dbCmd(os.Args[2:])
			return
		case "state":
			stateCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "verify":
			verifyCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: admin db|state|snapshot|verify [flags]")
	os.Exit(2)
}

// verifyCmd reads a snapshot file, recomputes the state digest and
// compares it against the header. Defaults to the newest snapshot in
// the data directory.
func verifyCmd(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	snapPath := fs.String("snapshot", "", "snapshot path (optional; defaults to latest)")
	_ = fs.Parse(args)

	path := *snapPath
	if path == "" {
		latest, height, err := snapshot.Latest(filepath.Join(*dataDir, "snapshots"))
		if err != nil {
			fmt.Fprintln(os.Stderr, "scan snapshots:", err)
			os.Exit(1)
		}
		if height < 0 {
			fmt.Fprintln(os.Stderr, "no snapshot found; provide -snapshot or run server until it writes one")
			os.Exit(2)
		}
		path = latest
	}

	hdr, g, err := snapshot.Read(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	fmt.Printf("verify ok: snapshot=%s network=%s height=%d digest=%s money=%d players=%d\n",
		filepath.Base(path), hdr.Network, hdr.Height, hdr.Digest, g.TotalMoney(), len(g.Players))
}
