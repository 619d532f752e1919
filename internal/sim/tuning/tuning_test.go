package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	raw := []byte("roads:\n  main_spacing: 256\ntraders:\n  chance: 0.25\n")
	if err := os.WriteFile(p, raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tu, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.Roads.MainSpacing != 256 {
		t.Fatalf("main spacing: got %d want 256", tu.Roads.MainSpacing)
	}
	if tu.Roads.SecondarySpacing != 128 {
		t.Fatalf("secondary spacing: got %d want default 128", tu.Roads.SecondarySpacing)
	}
	if tu.Traders.Chance != 0.25 {
		t.Fatalf("chance: got %v want 0.25", tu.Traders.Chance)
	}
	if tu.Traders.Spacing != 300 {
		t.Fatalf("trader spacing: got %d want 300", tu.Traders.Spacing)
	}
}

func TestLoad_RejectsBadYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(p, []byte("roads: [1,2"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNormalize_RepairsInvalidValues(t *testing.T) {
	tu := Defaults()
	tu.Roads.MainSpacing = 0
	tu.Traders.Chance = 3
	tu.Traders.MaxOffset = 10
	tu.Pipeline.RoadDelay = 5
	tu.Pipeline.BiomeDelay = 1
	tu.Normalize()

	d := Defaults()
	if tu.Roads.MainSpacing != d.Roads.MainSpacing {
		t.Fatalf("main spacing not repaired: %d", tu.Roads.MainSpacing)
	}
	if tu.Traders.Chance != d.Traders.Chance {
		t.Fatalf("chance not repaired: %v", tu.Traders.Chance)
	}
	if tu.Traders.MinOffset != 50 || tu.Traders.MaxOffset != 70 {
		t.Fatalf("offset range not repaired: %d..%d", tu.Traders.MinOffset, tu.Traders.MaxOffset)
	}
	if tu.Pipeline.BiomeDelay <= tu.Pipeline.RoadDelay {
		t.Fatalf("biome delay %d must follow road delay %d", tu.Pipeline.BiomeDelay, tu.Pipeline.RoadDelay)
	}
}

func TestLoad_RepoConfig(t *testing.T) {
	tu, err := Load(filepath.Join("..", "..", "..", "configs", "tuning.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tu.Roads.MainSpacing != 512 || tu.Roads.SecondarySpacing != 128 {
		t.Fatalf("unexpected spacings: %d/%d", tu.Roads.MainSpacing, tu.Roads.SecondarySpacing)
	}
}
