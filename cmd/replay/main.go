// Command replay re-executes a step journal against the deterministic
// engine and verifies that every recorded digest reproduces.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"crownhunt/internal/chain"
	"crownhunt/internal/game/state"
	"crownhunt/internal/persistence/snapshot"
	"crownhunt/internal/persistence/steplog"
)

func main() {
	var (
		paramsPath = flag.String("params", "./configs/params.yaml", "chain parameters file")
		snapPath   = flag.String("snapshot", "", "snapshot to start from (optional, default: genesis)")
		stepsPath  = flag.String("steps", "./data/steps/steps.jsonl.zst", "step journal to verify")
		fromHeight = flag.Int64("from_height", 0, "start verifying digests from this height (inclusive)")
		toHeight   = flag.Int64("to_height", 0, "stop after this height (0 = to the end)")
	)
	flag.Parse()

	params, err := chain.Load(*paramsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load params:", err)
		os.Exit(1)
	}

	g := state.NewGame(params)
	if *snapPath != "" {
		hdr, loaded, err := snapshot.Read(*snapPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read snapshot:", err)
			os.Exit(1)
		}
		if hdr.Network != params.Network {
			fmt.Fprintf(os.Stderr, "snapshot network mismatch: params=%s snap=%s\n", params.Network, hdr.Network)
			os.Exit(1)
		}
		g = loaded
		fmt.Printf("snapshot v%d network=%s height=%d digest=%s\n",
			hdr.Version, hdr.Network, hdr.Height, hdr.Digest)
	}

	var checked, applied int64
	err = steplog.Replay(*stepsPath, func(rec steplog.Record) error {
		if rec.Step.Height <= g.Height {
			return nil
		}
		if *toHeight != 0 && rec.Step.Height > *toHeight {
			return errDone
		}
		if rec.Step.Height != g.Height+1 {
			return fmt.Errorf("journal gap: tip %d, next record %d (file=%s)",
				g.Height, rec.Step.Height, filepath.Base(*stepsPath))
		}
		data, err := rec.Step.ToStepData()
		if err != nil {
			return err
		}
		next, _, err := state.PerformStep(g, data, params)
		if err != nil {
			return fmt.Errorf("height %d: %w", rec.Step.Height, err)
		}
		g = next
		applied++
		if g.Height >= *fromHeight {
			checked++
			if got := g.DigestHex(); got != rec.Digest {
				return fmt.Errorf("digest mismatch at height %d: got=%s want=%s", g.Height, got, rec.Digest)
			}
		}
		return nil
	})
	if err != nil && err != errDone {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}

	fmt.Printf("replay ok: applied=%d blocks checked=%d digests tip=%d money=%d\n",
		applied, checked, g.Height, g.TotalMoney())
}

var errDone = fmt.Errorf("done")
