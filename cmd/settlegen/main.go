package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"wastelands.ai/internal/persistence/archive"
	"wastelands.ai/internal/persistence/indexdb"
	persistlog "wastelands.ai/internal/persistence/log"
	"wastelands.ai/internal/persistence/packfetch"
	"wastelands.ai/internal/persistence/r2s3"
	"wastelands.ai/internal/persistence/snapshot"
	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/multiworld"
	"wastelands.ai/internal/sim/tuning"
	"wastelands.ai/internal/sim/world"
)

type options struct {
	ConfigDir     string
	DataDir       string
	WorldID       string
	Seed          int64
	FromTile      [2]int
	ToTile        [2]int
	MaxTicks      int
	DBPath        string
	SnapshotDir   string
	KeepSnapshots int
	BlueprintPack string
}

func main() {
	var (
		configDir     = flag.String("configs", "./configs", "config directory")
		dataDir       = flag.String("data", "./data", "runtime data directory")
		worldID       = flag.String("world", "", "world id (default: every enabled world)")
		seed          = flag.Int64("seed", 0, "base seed (0: use tuning.yaml)")
		fromTile      = flag.String("from_tile", "0,0", "first tile of the square: tx,tz")
		toTile        = flag.String("to_tile", "3,3", "last tile of the square (inclusive): tx,tz")
		maxTicks      = flag.Int("ticks", 10000, "max ticks to run while draining the pipeline")
		dbPath        = flag.String("db", "", "layout index path (default: <data>/index/layout.sqlite; \"none\" disables)")
		snapDir       = flag.String("snapshot", "", "snapshot output directory (default: <data>/snapshots)")
		keepSnaps     = flag.Int("keep_snapshots", 0, "live snapshots to keep per world; older ones move to <data>/archives (0 keeps all)")
		blueprintPack = flag.String("blueprint_pack", "", "go-getter address of a blueprint pack to fetch before generating")
		logLevel      = flag.String("log_level", "info", "debug|info|warn|error")
	)
	flag.Parse()

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintln(os.Stderr, "bad -log_level:", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	from, err := parseTile(*fromTile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -from_tile:", err)
		os.Exit(2)
	}
	to, err := parseTile(*toTile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad -to_tile:", err)
		os.Exit(2)
	}

	opts := options{
		ConfigDir:     *configDir,
		DataDir:       *dataDir,
		WorldID:       strings.TrimSpace(*worldID),
		Seed:          *seed,
		FromTile:      from,
		ToTile:        to,
		MaxTicks:      *maxTicks,
		DBPath:        strings.TrimSpace(*dbPath),
		SnapshotDir:   strings.TrimSpace(*snapDir),
		KeepSnapshots: *keepSnaps,
		BlueprintPack: strings.TrimSpace(*blueprintPack),
	}
	if err := run(context.Background(), opts, logger, os.Stdout); err != nil {
		logger.Error("settlegen failed", "err", err)
		os.Exit(1)
	}
}

// parseTile parses "tx,tz".
func parseTile(s string) ([2]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return [2]int{}, fmt.Errorf("want tx,tz, got %q", s)
	}
	var out [2]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return [2]int{}, fmt.Errorf("tile %q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

func run(ctx context.Context, opts options, logger *slog.Logger, out io.Writer) error {
	started := time.Now()
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	tune, err := tuning.Load(filepath.Join(opts.ConfigDir, "tuning.yaml"))
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("load tuning: %w", err)
		}
		logger.Info("tuning.yaml not found; using defaults", "configs", opts.ConfigDir)
		tune = tuning.Defaults()
	}
	if opts.Seed != 0 {
		tune.WorldGen.Seed = opts.Seed
	}

	cats, err := catalogs.Load(opts.ConfigDir)
	if err != nil {
		return fmt.Errorf("load catalogs: %w", err)
	}
	if opts.BlueprintPack != "" {
		dst := filepath.Join(opts.DataDir, "packs", "blueprints")
		n, err := packfetch.Fetch(ctx, opts.BlueprintPack, dst, &cats.Blocks)
		if err != nil {
			return err
		}
		if err := catalogs.LoadBlueprints(dst, &cats.Blocks, &cats.Blueprints); err != nil {
			return fmt.Errorf("load fetched pack: %w", err)
		}
		logger.Info("blueprint pack fetched", "src", opts.BlueprintPack, "blueprints", n)
	}

	worldsPath := filepath.Join(opts.ConfigDir, "worlds.yaml")
	if _, err := os.Stat(worldsPath); err != nil {
		worldsPath = ""
	}
	mcfg, err := multiworld.Load(worldsPath)
	if err != nil {
		return err
	}

	mgr, err := multiworld.NewManager(mcfg, tune, cats, logger)
	if err != nil {
		return err
	}
	defer mgr.Close()

	targets := mgr.WorldIDs()
	if opts.WorldID != "" {
		if _, ok := mgr.World(opts.WorldID); !ok {
			return fmt.Errorf("unknown or disabled world %q", opts.WorldID)
		}
		targets = []string{opts.WorldID}
	}

	var idx *indexdb.SQLiteIndex
	if opts.DBPath != "none" {
		path := opts.DBPath
		if path == "" {
			path = filepath.Join(opts.DataDir, "index", "layout.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		idx, err = indexdb.OpenSQLite(path)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer idx.Close()
		if err := idx.UpsertCatalogs(opts.ConfigDir, cats, tune); err != nil {
			logger.Warn("index: upsert catalogs", "err", err)
		}
		if _, err := mgr.Restore(ctx, idx); err != nil {
			return fmt.Errorf("restore layout: %w", err)
		}
		mgr.SetSaver(idx)
	}

	var mirror *r2s3.Mirror
	if s3cfg, ok := r2s3.ConfigFromEnv(); ok {
		client, err := r2s3.New(s3cfg)
		if err != nil {
			return fmt.Errorf("snapshot mirror: %w", err)
		}
		mirror = r2s3.NewMirror(client, opts.DataDir, s3cfg.Prefix, 2, 256, logger)
		defer mirror.Close()
	}

	events := persistlog.NewEventLogger(opts.DataDir)
	defer events.Close()
	mgr.SetNotifier(world.MultiNotifier{events})

	for _, id := range targets {
		for tx := min(opts.FromTile[0], opts.ToTile[0]); tx <= max(opts.FromTile[0], opts.ToTile[0]); tx++ {
			for tz := min(opts.FromTile[1], opts.ToTile[1]); tz <= max(opts.FromTile[1], opts.ToTile[1]); tz++ {
				mgr.GenerateTile(id, tx, tz)
			}
		}
	}
	ticks := mgr.Drain(opts.MaxTicks)

	snapDir := opts.SnapshotDir
	if snapDir == "" {
		snapDir = filepath.Join(opts.DataDir, "snapshots")
	}
	for _, id := range targets {
		w, _ := mgr.World(id)
		snap := w.ExportSnapshot()
		path := filepath.Join(snapDir, id, fmt.Sprintf("%d.layout.zst", snap.Header.Tick))
		if err := snapshot.WriteSnapshot(path, snap); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		if idx != nil {
			idx.RecordSnapshot(path, snap)
		}
		mirror.Enqueue(path)
		if retired, err := archive.Retire(filepath.Join(snapDir, id), filepath.Join(opts.DataDir, "archives", id), opts.KeepSnapshots); err != nil {
			logger.Warn("archive snapshots", "world", id, "err", err)
		} else if len(retired) > 0 {
			logger.Info("snapshots archived", "world", id, "count", len(retired))
		}

		st := w.Stats()
		fmt.Fprintf(out, "%s: tiles=%d road_tiles=%d nodes=%d structures=%d outposts_rejected=%d repainted=%d pending=%d snapshot=%s\n",
			id, st.TilesHandled, st.RoadTiles, st.NodesCreated, st.StructuresPlaced, st.OutpostsRejected, st.BlocksRepainted, w.PendingTasks(), path)
	}

	if idx != nil {
		if err := idx.Flush(ctx); err != nil {
			return fmt.Errorf("flush index: %w", err)
		}
		if d := idx.Stats().DropTotal; d > 0 {
			logger.Warn("index dropped writes", "count", d)
		}
	}
	logger.Info("done", "worlds", len(targets), "ticks", ticks, "elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}
