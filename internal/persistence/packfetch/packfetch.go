// Package packfetch downloads blueprint packs into the config tree.
package packfetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	getter "github.com/hashicorp/go-getter"

	"wastelands.ai/internal/sim/catalogs"
)

// Fetch downloads the pack at src (any go-getter address: local path,
// http archive, git::, s3::) into dst, replacing what was there, and
// validates every blueprint in it against blocks. It returns the number
// of blueprints found.
func Fetch(ctx context.Context, src, dst string, blocks *catalogs.BlockCatalog) (int, error) {
	if src == "" || dst == "" {
		return 0, fmt.Errorf("packfetch: src and dst are required")
	}
	dst, err := filepath.Abs(dst)
	if err != nil {
		return 0, err
	}
	if err := os.RemoveAll(dst); err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, err
	}
	pwd, err := os.Getwd()
	if err != nil {
		return 0, err
	}
	// Local directories arrive as a symlink to src, remote ones as a copy.
	c := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeDir,
	}
	if err := c.Get(); err != nil {
		return 0, fmt.Errorf("packfetch: get %s: %w", src, err)
	}

	var bps catalogs.BlueprintCatalog
	if err := catalogs.LoadBlueprints(dst, blocks, &bps); err != nil {
		return 0, fmt.Errorf("packfetch: invalid pack: %w", err)
	}
	if len(bps.ByID) == 0 {
		return 0, fmt.Errorf("packfetch: %s holds no blueprints", src)
	}
	return len(bps.ByID), nil
}
