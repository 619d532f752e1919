package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Blocks.Palette[0] != "AIR" {
		t.Fatalf("palette[0]=%q want AIR", c.Blocks.Palette[0])
	}
	for _, name := range []string{"BLACK_CONCRETE", "GRAY_CONCRETE", "STONE", "GRASS_BLOCK", "SNOW_BLOCK"} {
		if _, ok := c.Blocks.Lookup(name); !ok {
			t.Fatalf("missing block %s", name)
		}
	}
	for _, cat := range []string{"residential", "commercial", "industrial", "trader_outpost"} {
		if len(c.Blueprints.ByCategory[cat]) == 0 {
			t.Fatalf("no blueprints for category %s", cat)
		}
	}
	water := c.Blocks.Def(c.Blocks.Index["WATER"])
	if !water.Liquid || water.Solid {
		t.Fatalf("WATER flags wrong: %+v", water)
	}
}

func writeFile(t *testing.T, p, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func testBlocks(t *testing.T) *BlockCatalog {
	t.Helper()
	p := filepath.Join(t.TempDir(), "blocks.json")
	writeFile(t, p, `[{"id":"AIR"},{"id":"STONE","solid":true}]`)
	var b BlockCatalog
	if err := loadBlocks(p, &b); err != nil {
		t.Fatalf("loadBlocks: %v", err)
	}
	return &b
}

func TestLoadBlueprints_SchemaRejectsMissingSize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "residential", "bad.json"),
		`{"id":"bad","category":"residential","blocks":[{"pos":[0,0,0],"block":"STONE"}]}`)
	var out BlueprintCatalog
	if err := LoadBlueprints(dir, testBlocks(t), &out); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestLoadBlueprints_RejectsOutOfBoundsAndUnknownBlocks(t *testing.T) {
	blocks := testBlocks(t)

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"),
		`{"id":"a","category":"industrial","size":[1,1,1],"blocks":[{"pos":[1,0,0],"block":"STONE"}]}`)
	var out BlueprintCatalog
	if err := LoadBlueprints(dir, blocks, &out); err == nil {
		t.Fatalf("expected bounds error")
	}

	dir = t.TempDir()
	writeFile(t, filepath.Join(dir, "b.json"),
		`{"id":"b","category":"industrial","size":[1,1,1],"blocks":[{"pos":[0,0,0],"block":"GOLD"}]}`)
	if err := LoadBlueprints(dir, blocks, &out); err == nil {
		t.Fatalf("expected unknown block error")
	}
}

func TestLoadBlueprints_MissingDirIsEmpty(t *testing.T) {
	var out BlueprintCatalog
	if err := LoadBlueprints(filepath.Join(t.TempDir(), "nope"), nil, &out); err != nil {
		t.Fatalf("LoadBlueprints: %v", err)
	}
	if len(out.ByID) != 0 || out.Digest == "" {
		t.Fatalf("unexpected catalog: %+v", out)
	}
}

func TestLoadBlueprints_FollowsSymlinkedRoot(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "industrial", "shed.json"),
		`{"id":"shed","category":"industrial","size":[1,1,1],"blocks":[{"pos":[0,0,0],"block":"STONE"}]}`)
	link := filepath.Join(t.TempDir(), "pack")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	var out BlueprintCatalog
	if err := LoadBlueprints(link, testBlocks(t), &out); err != nil {
		t.Fatalf("LoadBlueprints: %v", err)
	}
	if _, ok := out.ByID["shed"]; !ok || len(out.ByCategory["industrial"]) != 1 {
		t.Fatalf("blueprint behind symlinked root not loaded: %+v", out.ByID)
	}
}
