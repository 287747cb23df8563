package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/state"
	"crownhunt/internal/persistence/indexdb"
	"crownhunt/internal/persistence/snapshot"
	"crownhunt/internal/persistence/steplog"
	"crownhunt/internal/transport/ingest"
	"crownhunt/internal/transport/observer"
)

type envConfig struct {
	EnableAdminHTTP bool `env:"CH_ENABLE_ADMIN_HTTP" envDefault:"true"`
	EnablePprofHTTP bool `env:"CH_ENABLE_PPROF_HTTP" envDefault:"false"`

	SnapshotEvery int64 `env:"CH_SNAPSHOT_EVERY" envDefault:"1000"`
	SnapshotKeep  int   `env:"CH_SNAPSHOT_KEEP" envDefault:"8"`

	MirrorEnabled         bool   `env:"CH_S3_MIRROR" envDefault:"false"`
	MirrorEndpoint        string `env:"CH_S3_ENDPOINT"`
	MirrorBucket          string `env:"CH_S3_BUCKET"`
	MirrorAccessKeyID     string `env:"CH_S3_ACCESS_KEY_ID"`
	MirrorSecretAccessKey string `env:"CH_S3_SECRET_ACCESS_KEY"`
	MirrorPrefix          string `env:"CH_S3_PREFIX"`
	MirrorWorkers         int    `env:"CH_S3_UPLOAD_WORKERS" envDefault:"2"`
}

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		paramsPath = flag.String("params", "./configs/params.yaml", "chain parameters file")
		schemaDir  = flag.String("schemas", "./schemas", "wire schema directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite read index")
		snapPath   = flag.String("snapshot", "", "path to snapshot to load (optional)")
		loadLatest = flag.Bool("load_latest_snapshot", true, "load latest snapshot from data dir if present (when -snapshot is empty)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Fatalf("parse env: %v", err)
	}

	params, err := chain.Load(*paramsPath)
	if err != nil {
		logger.Fatalf("load params: %v", err)
	}
	logger.Printf("network=%s state_version=%d", params.Network, params.StateVersion)

	_ = os.MkdirAll(*dataDir, 0o755)

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(*dataDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.SetMeta("network", params.Network); err != nil {
			logger.Fatalf("index meta: %v", err)
		}
		_ = idx.SetMeta("state_version", fmt.Sprintf("%d", params.StateVersion))
	}

	mirror, err := buildMirrorRuntime(cfg, *dataDir, logger)
	if err != nil {
		logger.Fatalf("init mirror: %v", err)
	}
	defer mirror.Close()

	g, err := resumeState(params, *dataDir, strings.TrimSpace(*snapPath), *loadLatest, logger)
	if err != nil {
		logger.Fatalf("resume: %v", err)
	}
	logger.Printf("tip height=%d digest=%s", g.Height, g.DigestHex())

	journal, err := steplog.Open(journalPath(*dataDir))
	if err != nil {
		logger.Fatalf("open journal: %v", err)
	}
	defer journal.Close()

	hub := observer.NewHub(params.Network, params.StateVersion)
	eng := &engine{
		g:             g,
		params:        params,
		dataDir:       *dataDir,
		log:           logger,
		journal:       journal,
		idx:           idx,
		hub:           hub,
		mirror:        mirror,
		snapshotEvery: cfg.SnapshotEvery,
		snapshotKeep:  cfg.SnapshotKeep,
	}

	ingestSrv, err := ingest.NewServer(eng, *schemaDir, logger)
	if err != nil {
		logger.Fatalf("ingest: %v", err)
	}
	obsSrv := observer.NewServer(hub, logger)

	ctx, cancel := signalContext()
	defer cancel()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		height, _ := eng.Tip()

		fmt.Fprintf(rw, "# HELP crownhunt_tip_height Height of the applied chain tip.\n")
		fmt.Fprintf(rw, "# TYPE crownhunt_tip_height gauge\n")
		fmt.Fprintf(rw, "crownhunt_tip_height{network=%q} %d\n", params.Network, height)

		fmt.Fprintf(rw, "# HELP crownhunt_players Registered players at the tip.\n")
		fmt.Fprintf(rw, "# TYPE crownhunt_players gauge\n")
		fmt.Fprintf(rw, "crownhunt_players{network=%q} %d\n", params.Network, eng.PlayerCount())

		fmt.Fprintf(rw, "# HELP crownhunt_observers Connected observer sessions.\n")
		fmt.Fprintf(rw, "# TYPE crownhunt_observers gauge\n")
		fmt.Fprintf(rw, "crownhunt_observers{network=%q} %d\n", params.Network, hub.Sessions())

		writeMirrorMetrics(rw, mirror)
	})

	mux.HandleFunc("/v1/step", ingestSrv.Handler())
	mux.HandleFunc("/v1/observer/ws", obsSrv.Handler())

	if cfg.EnableAdminHTTP {
		// Local-only admin endpoints.
		mux.HandleFunc("/admin/v1/state", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			height, digest := eng.Tip()
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(struct {
				Network   string `json:"network"`
				Height    int64  `json:"height"`
				Digest    string `json:"digest"`
				Players   int    `json:"players"`
				Observers int    `json:"observers"`
			}{params.Network, height, digest, eng.PlayerCount(), hub.Sessions()})
		})
		mux.HandleFunc("/admin/v1/snapshot", func(rw http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				rw.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			height := eng.ForceSnapshot()
			rw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true, "height": height})
		})
	} else {
		logger.Printf("admin endpoints disabled (CH_ENABLE_ADMIN_HTTP=false)")
	}
	if cfg.EnablePprofHTTP {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func journalPath(dataDir string) string {
	return filepath.Join(dataDir, "steps", "steps.jsonl.zst")
}

// resumeState restores the tip: the newest snapshot if one exists, then
// every journaled step past it, verifying digests along the way.
func resumeState(params chain.Params, dataDir, snapPath string, loadLatest bool, logger *log.Logger) (*state.GameState, error) {
	g := state.NewGame(params)

	if snapPath == "" && loadLatest {
		path, height, err := snapshot.Latest(filepath.Join(dataDir, "snapshots"))
		if err != nil {
			return nil, err
		}
		if height >= 0 {
			snapPath = path
		}
	}
	if snapPath != "" {
		hdr, loaded, err := snapshot.Read(snapPath)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		if hdr.Network != params.Network {
			return nil, fmt.Errorf("snapshot network mismatch: params=%s snap=%s", params.Network, hdr.Network)
		}
		g = loaded
		logger.Printf("resumed from snapshot=%s height=%d", filepath.Base(snapPath), g.Height)
	}

	jp := journalPath(dataDir)
	if _, err := os.Stat(jp); os.IsNotExist(err) {
		return g, nil
	}
	var replayed int
	err := steplog.Replay(jp, func(rec steplog.Record) error {
		if rec.Step.Height <= g.Height {
			return nil
		}
		if rec.Step.Height != g.Height+1 {
			return fmt.Errorf("journal gap: tip %d, next record %d", g.Height, rec.Step.Height)
		}
		data, err := rec.Step.ToStepData()
		if err != nil {
			return err
		}
		next, _, err := state.PerformStep(g, data, params)
		if err != nil {
			return fmt.Errorf("replay height %d: %w", rec.Step.Height, err)
		}
		if got := next.DigestHex(); got != rec.Digest {
			return fmt.Errorf("replay digest mismatch at height %d: got=%s want=%s", rec.Step.Height, got, rec.Digest)
		}
		g = next
		replayed++
		return nil
	})
	if err != nil {
		return nil, err
	}
	if replayed > 0 {
		logger.Printf("replayed %d journaled steps, tip height=%d", replayed, g.Height)
	}
	return g, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
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

func writeMirrorMetrics(rw http.ResponseWriter, mirror *mirrorRuntime) {
	if mirror == nil || !mirror.enabled {
		return
	}
	s := mirror.Stats()

	fmt.Fprintf(rw, "# HELP crownhunt_mirror_queue_depth Current mirror queue depth.\n")
	fmt.Fprintf(rw, "# TYPE crownhunt_mirror_queue_depth gauge\n")
	fmt.Fprintf(rw, "crownhunt_mirror_queue_depth %d\n", s.QueueDepth)

	fmt.Fprintf(rw, "# HELP crownhunt_mirror_enqueued_total Total mirror enqueue attempts.\n")
	fmt.Fprintf(rw, "# TYPE crownhunt_mirror_enqueued_total counter\n")
	fmt.Fprintf(rw, "crownhunt_mirror_enqueued_total %d\n", s.EnqueuedTotal)

	fmt.Fprintf(rw, "# HELP crownhunt_mirror_dropped_total Total mirror files dropped under saturation.\n")
	fmt.Fprintf(rw, "# TYPE crownhunt_mirror_dropped_total counter\n")
	fmt.Fprintf(rw, "crownhunt_mirror_dropped_total %d\n", s.DroppedTotal)

	fmt.Fprintf(rw, "# HELP crownhunt_mirror_upload_success_total Total successful mirror uploads.\n")
	fmt.Fprintf(rw, "# TYPE crownhunt_mirror_upload_success_total counter\n")
	fmt.Fprintf(rw, "crownhunt_mirror_upload_success_total %d\n", s.UploadSuccessTotal)

	fmt.Fprintf(rw, "# HELP crownhunt_mirror_upload_fail_total Total failed mirror uploads after retry.\n")
	fmt.Fprintf(rw, "# TYPE crownhunt_mirror_upload_fail_total counter\n")
	fmt.Fprintf(rw, "crownhunt_mirror_upload_fail_total %d\n", s.UploadFailTotal)
}
