package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"wastelands.ai/internal/persistence/snapshot"
	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/multiworld"
	"wastelands.ai/internal/sim/tuning"
)

type resetOptions struct {
	ConfigDir string
	DataDir   string
	WorldID   string
	ID        string
	Path      string
	Seed      int64
}

func resetCmd(args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	configDir := fs.String("configs", "./configs", "config directory")
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id")
	id := fs.String("id", "", "structure id to stamp again")
	path := fs.String("path", "", "snapshot path (optional; defaults to latest)")
	seed := fs.Int64("seed", 0, "base seed the snapshot was generated with (0: use tuning.yaml)")
	_ = fs.Parse(args)

	opts := resetOptions{
		ConfigDir: *configDir,
		DataDir:   *dataDir,
		WorldID:   strings.TrimSpace(*worldID),
		ID:        strings.TrimSpace(*id),
		Path:      strings.TrimSpace(*path),
		Seed:      *seed,
	}
	if opts.WorldID == "" || opts.ID == "" {
		fmt.Fprintln(os.Stderr, "missing -world or -id")
		os.Exit(2)
	}
	p, err := resetStructure(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reset:", err)
		os.Exit(1)
	}
	printJSON(map[string]any{"id": opts.ID, "world": opts.WorldID, "path": p})
}

// resetStructure loads a world snapshot, stamps one structure again at its
// recorded origin and rotation, and rewrites the snapshot in place.
func resetStructure(opts resetOptions) (string, error) {
	p := opts.Path
	if p == "" {
		p = latestSnapshot(filepath.Join(opts.DataDir, "snapshots", opts.WorldID))
		if p == "" {
			return "", errors.New("no snapshots found")
		}
	}

	tune, err := tuning.Load(filepath.Join(opts.ConfigDir, "tuning.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("load tuning: %w", err)
		}
		tune = tuning.Defaults()
	}
	if opts.Seed != 0 {
		tune.WorldGen.Seed = opts.Seed
	}
	cats, err := catalogs.Load(opts.ConfigDir)
	if err != nil {
		return "", fmt.Errorf("load catalogs: %w", err)
	}
	worldsPath := filepath.Join(opts.ConfigDir, "worlds.yaml")
	if _, err := os.Stat(worldsPath); err != nil {
		worldsPath = ""
	}
	mcfg, err := multiworld.Load(worldsPath)
	if err != nil {
		return "", err
	}
	mgr, err := multiworld.NewManager(mcfg, tune, cats, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return "", err
	}
	defer mgr.Close()
	w, ok := mgr.World(opts.WorldID)
	if !ok {
		return "", fmt.Errorf("unknown or disabled world %q", opts.WorldID)
	}

	snap, err := snapshot.ReadSnapshot(p)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}
	if err := w.ImportSnapshot(snap); err != nil {
		return "", fmt.Errorf("import snapshot: %w", err)
	}
	if err := w.Engine().ResetStructure(opts.ID); err != nil {
		return "", fmt.Errorf("structure %s: %w", opts.ID, err)
	}
	if err := snapshot.WriteSnapshot(p, w.ExportSnapshot()); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return p, nil
}
