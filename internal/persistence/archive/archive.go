// Package archive retires old layout snapshots out of the live snapshot
// directory.
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"wastelands.ai/internal/persistence/snapshot"
)

const suffix = ".layout.zst"

type Meta struct {
	WorldID    string `json:"world_id"`
	Tick       uint64 `json:"tick"`
	Snapshot   string `json:"snapshot"`
	ArchivedAt string `json:"archived_at"`
}

// Retire keeps the newest keep snapshots in snapDir (named <tick>.layout.zst)
// and moves the rest to archiveDir/<tick>/ with a meta.json beside each. It
// returns the archived paths, oldest first. keep <= 0 archives nothing.
func Retire(snapDir, archiveDir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	ticks, err := listTicks(snapDir)
	if err != nil {
		return nil, err
	}
	if len(ticks) <= keep {
		return nil, nil
	}

	var out []string
	for _, tick := range ticks[:len(ticks)-keep] {
		src := filepath.Join(snapDir, strconv.FormatUint(tick, 10)+suffix)
		h, err := snapshot.ReadHeader(src)
		if err != nil {
			return out, fmt.Errorf("archive %s: %w", filepath.Base(src), err)
		}
		dir := filepath.Join(archiveDir, strconv.FormatUint(tick, 10))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return out, err
		}
		dst := filepath.Join(dir, filepath.Base(src))
		if err := moveFile(src, dst); err != nil {
			return out, err
		}
		meta := Meta{
			WorldID:    h.WorldID,
			Tick:       h.Tick,
			Snapshot:   filepath.Base(dst),
			ArchivedAt: time.Now().UTC().Format(time.RFC3339Nano),
		}
		if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
			_ = os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644)
		}
		out = append(out, dst)
	}
	return out, nil
}

// listTicks returns the ticks of the snapshots in dir, ascending.
func listTicks(dir string) ([]uint64, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ticks []uint64
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		tick, err := strconv.ParseUint(strings.TrimSuffix(name, suffix), 10, 64)
		if err != nil {
			continue
		}
		ticks = append(ticks, tick)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	return ticks, nil
}

func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
