package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

// LayoutV1 is a full dump of one world's generated layout.
type LayoutV1 struct {
	Header Header `json:"header"`

	Seed int64 `json:"seed"`
	MinY int   `json:"min_y"`
	MaxY int   `json:"max_y"`

	// Palette at write time; block ids in Chunks index into it.
	Palette []string `json:"palette"`

	Chunks     []ChunkV1     `json:"chunks"`
	Nodes      []NodeV1      `json:"nodes"`
	Structures []StructureV1 `json:"structures"`

	// Trader cells that were rejected this session.
	RejectedCells [][2]int `json:"rejected_cells,omitempty"`
}

type ChunkV1 struct {
	CX     int      `json:"cx"`
	CZ     int      `json:"cz"`
	Height int      `json:"height"`
	Blocks []uint16 `json:"blocks"`
}

type NodeV1 struct {
	X     int      `json:"x"`
	Y     int      `json:"y"`
	Z     int      `json:"z"`
	Tier  string   `json:"tier"`
	Links []string `json:"links,omitempty"`
}

type StructureV1 struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Pos         [3]int `json:"pos"`
	Size        [3]int `json:"size"`
	Rotation    int    `json:"rotation"`
	BlueprintID string `json:"blueprint_id,omitempty"`
	QuestID     string `json:"quest_id,omitempty"`
	Open        bool   `json:"open,omitempty"`
	Anchor      [3]int `json:"anchor,omitempty"`
	CreatedTick uint64 `json:"created_tick"`
}

func WriteSnapshot(path string, snap LayoutV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader returns only the JSON header line of a snapshot.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (LayoutV1, error) {
	var snap LayoutV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Header is duplicated inside the gob payload.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
