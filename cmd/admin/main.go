package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"wastelands.ai/internal/persistence/packfetch"
	"wastelands.ai/internal/persistence/snapshot"
	"wastelands.ai/internal/sim/catalogs"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "serve":
			serveCmd(os.Args[2:])
			return
		case "fetch":
			fetchCmd(os.Args[2:])
			return
		case "db":
			dbCmd(os.Args[2:])
			return
		case "snapshot":
			snapshotCmd(os.Args[2:])
			return
		case "reset":
			resetCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "snapshots")
	if *worldID != "" {
		base = filepath.Join(base, *worldID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func fetchCmd(args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	src := fs.String("src", "", "pack address (path, https archive, git::, s3::)")
	dst := fs.String("dst", "./data/packs/blueprints", "destination directory (replaced)")
	configDir := fs.String("configs", "./configs", "config directory (for blocks.json)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*src) == "" {
		fmt.Fprintln(os.Stderr, "missing -src")
		os.Exit(2)
	}
	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	n, err := packfetch.Fetch(context.Background(), *src, *dst, &cats.Blocks)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fetch:", err)
		os.Exit(1)
	}
	fmt.Printf("fetched %d blueprints into %s\n", n, *dst)
}

func snapshotCmd(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -path)")
	path := fs.String("path", "", "snapshot path (optional; defaults to latest)")
	full := fs.Bool("full", false, "decode the whole snapshot and print counts")
	_ = fs.Parse(args)

	p := strings.TrimSpace(*path)
	if p == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -path")
			os.Exit(2)
		}
		p = latestSnapshot(filepath.Join(*dataDir, "snapshots", *worldID))
		if p == "" {
			fmt.Fprintln(os.Stderr, "no snapshots found")
			os.Exit(2)
		}
	}

	if !*full {
		h, err := snapshot.ReadHeader(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "read header:", err)
			os.Exit(1)
		}
		printJSON(map[string]any{"path": p, "header": h})
		return
	}
	snap, err := snapshot.ReadSnapshot(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}
	outposts := 0
	for _, s := range snap.Structures {
		if s.Category == "trader_outpost" {
			outposts++
		}
	}
	printJSON(map[string]any{
		"path":           p,
		"header":         snap.Header,
		"seed":           snap.Seed,
		"chunks":         len(snap.Chunks),
		"nodes":          len(snap.Nodes),
		"structures":     len(snap.Structures),
		"outposts":       outposts,
		"rejected_cells": len(snap.RejectedCells),
	})
}

// latestSnapshot returns the highest-tick <tick>.layout.zst in dir.
func latestSnapshot(dir string) string {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var best string
	var bestTick uint64
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".layout.zst") {
			continue
		}
		base := strings.TrimSuffix(name, ".layout.zst")
		tick, err := strconv.ParseUint(base, 10, 64)
		if err != nil {
			continue
		}
		if best == "" || tick > bestTick {
			bestTick = tick
			best = filepath.Join(dir, name)
		}
	}
	return best
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
