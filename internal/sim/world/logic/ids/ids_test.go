package ids

import "testing"

func TestNodeKeyRoundTrip(t *testing.T) {
	key := NodeKey("overworld", 520, -9)
	w, x, z, ok := ParseNodeKey(key)
	if !ok {
		t.Fatalf("ParseNodeKey failed for %q", key)
	}
	if w != "overworld" || x != 520 || z != -9 {
		t.Fatalf("unexpected parse result: w=%q x=%d z=%d", w, x, z)
	}
}

func TestParseNodeKeyRejectsInvalid(t *testing.T) {
	for _, tc := range []string{"", "overworld", "@1,2", "w@1", "w@1,x"} {
		if _, _, _, ok := ParseNodeKey(tc); ok {
			t.Fatalf("expected parse failure for %q", tc)
		}
	}
}

func TestStructureID_StableAndDistinct(t *testing.T) {
	a := StructureID("overworld", "village", 100, 200, 90)
	b := StructureID("overworld", "village", 100, 200, 90)
	if a != b {
		t.Fatalf("ids differ for same inputs: %s vs %s", a, b)
	}
	for _, other := range []string{
		StructureID("nether", "village", 100, 200, 90),
		StructureID("overworld", "ruins", 100, 200, 90),
		StructureID("overworld", "village", 101, 200, 90),
		StructureID("overworld", "village", 100, 200, 180),
	} {
		if other == a {
			t.Fatalf("expected distinct id, got %s twice", a)
		}
	}
}
