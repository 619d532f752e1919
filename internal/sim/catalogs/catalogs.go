package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type Catalogs struct {
	Blocks     BlockCatalog
	Blueprints BlueprintCatalog
}

type BlockCatalog struct {
	Palette       []string
	Index         map[string]uint16
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID      string `json:"id"`
	Solid   bool   `json:"solid"`
	Liquid  bool   `json:"liquid,omitempty"`
	Foliage bool   `json:"foliage,omitempty"`
}

type BlueprintCatalog struct {
	ByID map[string]BlueprintDef
	// Category -> sorted blueprint ids.
	ByCategory map[string][]string
	Digest     string
}

type BlueprintDef struct {
	ID       string    `json:"id"`
	Category string    `json:"category"`
	Author   string    `json:"author"`
	Version  string    `json:"version"`
	Size     [3]int    `json:"size"`
	Blocks   []BPBlock `json:"blocks"`
}

type BPBlock struct {
	Pos   [3]int `json:"pos"`
	Block string `json:"block"`
}

const blueprintSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "category", "size", "blocks"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "category": {"type": "string", "minLength": 1},
    "author": {"type": "string"},
    "version": {"type": "string"},
    "size": {
      "type": "array",
      "items": {"type": "integer", "minimum": 1},
      "minItems": 3,
      "maxItems": 3
    },
    "blocks": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["pos", "block"],
        "properties": {
          "pos": {
            "type": "array",
            "items": {"type": "integer", "minimum": 0},
            "minItems": 3,
            "maxItems": 3
          },
          "block": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	if err := LoadBlueprints(filepath.Join(configDir, "blueprints"), &c.Blocks, &c.Blueprints); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		if d.Solid && d.Liquid {
			return fmt.Errorf("blocks.json: %s is both solid and liquid", d.ID)
		}
		out.Defs[d.ID] = d
	}

	ids := make([]string, 0, len(out.Defs))
	for id := range out.Defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	// Ensure AIR exists and is palette id 0.
	if _, ok := out.Defs["AIR"]; !ok {
		return fmt.Errorf("blocks.json: missing AIR")
	}
	ids = append([]string{"AIR"}, filterOut(ids, "AIR")...)

	out.Palette = ids
	out.Index = make(map[string]uint16, len(ids))
	for i, id := range ids {
		out.Index[id] = uint16(i)
	}
	palJSON, _ := json.Marshal(ids)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

// Def returns the definition for a palette id; unknown ids read as AIR.
func (b *BlockCatalog) Def(id uint16) BlockDef {
	if int(id) >= len(b.Palette) {
		return BlockDef{ID: "AIR"}
	}
	return b.Defs[b.Palette[id]]
}

// Lookup resolves a block name to its palette id.
func (b *BlockCatalog) Lookup(name string) (uint16, bool) {
	id, ok := b.Index[name]
	return id, ok
}

// LoadBlueprints reads every *.json under dir (recursively), validates it
// against the blueprint schema and the block catalog, and groups by category.
// A missing directory yields an empty catalog.
func LoadBlueprints(dir string, blocks *BlockCatalog, out *BlueprintCatalog) error {
	out.ByID = map[string]BlueprintDef{}
	out.ByCategory = map[string][]string{}

	schema, err := jsonschema.CompileString("blueprint.schema.json", blueprintSchema)
	if err != nil {
		return fmt.Errorf("blueprint schema: %w", err)
	}

	if _, statErr := os.Stat(dir); statErr != nil && os.IsNotExist(statErr) {
		out.Digest = sha256Hex(nil)
		return nil
	}
	// WalkDir does not descend a symlinked root; fetched local packs are links.
	if root, err := filepath.EvalSymlinks(dir); err == nil {
		dir = root
	}
	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(files)

	var concat bytes.Buffer
	for _, p := range files {
		b, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		concat.Write(b)
		concat.WriteByte('\n')

		var doc any
		if err := json.Unmarshal(b, &doc); err != nil {
			return fmt.Errorf("blueprint %s: %w", filepath.Base(p), err)
		}
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("blueprint %s: %w", filepath.Base(p), err)
		}
		var bp BlueprintDef
		if err := json.Unmarshal(b, &bp); err != nil {
			return fmt.Errorf("blueprint %s: %w", filepath.Base(p), err)
		}
		if err := checkBlueprint(bp, blocks); err != nil {
			return fmt.Errorf("blueprint %s: %w", filepath.Base(p), err)
		}
		if _, dup := out.ByID[bp.ID]; dup {
			return fmt.Errorf("blueprint %s: duplicate id %q", filepath.Base(p), bp.ID)
		}
		out.ByID[bp.ID] = bp
		out.ByCategory[bp.Category] = append(out.ByCategory[bp.Category], bp.ID)
	}
	for _, ids := range out.ByCategory {
		sort.Strings(ids)
	}
	out.Digest = sha256Hex(concat.Bytes())
	return nil
}

func checkBlueprint(bp BlueprintDef, blocks *BlockCatalog) error {
	for i, b := range bp.Blocks {
		for axis := 0; axis < 3; axis++ {
			if b.Pos[axis] >= bp.Size[axis] {
				return fmt.Errorf("block %d at %v outside size %v", i, b.Pos, bp.Size)
			}
		}
		if blocks != nil {
			if _, ok := blocks.Index[b.Block]; !ok {
				return fmt.Errorf("block %d: unknown block %q", i, b.Block)
			}
		}
	}
	return nil
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
