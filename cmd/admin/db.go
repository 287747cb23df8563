package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite index path (optional; defaults to <data>/index.db)")
	limit := fs.Int("limit", 20, "result limit")
	height := fs.Int64("height", -1, "height filter (blocks, kills)")
	player := fs.String("player", "", "player filter (kills)")
	_ = fs.Parse(args)

	q := "blocks"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index.db")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	switch q {
	case "blocks":
		query := `SELECT height,digest,block_hash,tax_collected,bounties,game_fund,players,characters,npcs FROM blocks ORDER BY height DESC LIMIT ?`
		qargs := []any{*limit}
		if *height >= 0 {
			query = `SELECT height,digest,block_hash,tax_collected,bounties,game_fund,players,characters,npcs FROM blocks WHERE height=?`
			qargs = []any{*height}
		}
		rows, err := db.Query(query, qargs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Height       int64  `json:"height"`
				Digest       string `json:"digest"`
				BlockHash    string `json:"block_hash"`
				TaxCollected int64  `json:"tax_collected"`
				Bounties     int64  `json:"bounties"`
				GameFund     int64  `json:"game_fund"`
				Players      int    `json:"players"`
				Characters   int    `json:"characters"`
				NPCs         int    `json:"npcs"`
			}
			if err := rows.Scan(&r.Height, &r.Digest, &r.BlockHash, &r.TaxCollected, &r.Bounties, &r.GameFund, &r.Players, &r.Characters, &r.NPCs); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}

	case "kills":
		query := `SELECT height,seq,player,char_index,reason FROM kills ORDER BY height DESC, seq LIMIT ?`
		qargs := []any{*limit}
		switch {
		case strings.TrimSpace(*player) != "":
			query = `SELECT height,seq,player,char_index,reason FROM kills WHERE player=? ORDER BY height, seq LIMIT ?`
			qargs = []any{strings.TrimSpace(*player), *limit}
		case *height >= 0:
			query = `SELECT height,seq,player,char_index,reason FROM kills WHERE height=? ORDER BY seq`
			qargs = []any{*height}
		}
		rows, err := db.Query(query, qargs...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Height int64  `json:"height"`
				Seq    int    `json:"seq"`
				Player string `json:"player"`
				Index  int    `json:"index"`
				Reason string `json:"reason"`
			}
			if err := rows.Scan(&r.Height, &r.Seq, &r.Player, &r.Index, &r.Reason); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}

	case "snapshots":
		rows, err := db.Query(`SELECT height,path,digest FROM snapshots ORDER BY height DESC LIMIT ?`, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Height int64  `json:"height"`
				Path   string `json:"path"`
				Digest string `json:"digest"`
			}
			if err := rows.Scan(&r.Height, &r.Path, &r.Digest); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}

	case "meta":
		rows, err := db.Query(`SELECT key,value FROM meta ORDER BY key`)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			}
			if err := rows.Scan(&r.Key, &r.Value); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		if err := rows.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "rows:", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		fmt.Fprintln(os.Stderr, "usage: admin db [-data ./data|-db PATH] [-height H] [-player NAME] [-limit N] blocks|kills|snapshots|meta")
		os.Exit(2)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
