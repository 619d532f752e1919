package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"wastelands.ai/internal/persistence/snapshot"
	"wastelands.ai/internal/sim/catalogs"
	"wastelands.ai/internal/sim/tuning"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

// SQLiteIndex persists the layout of every world. Saves are queued to a
// single writer goroutine and committed in batches; loads and queries read
// the database directly.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
	drops  atomic.Uint64
}

type reqKind int

const (
	reqStructure reqKind = iota + 1
	reqNode
	reqOutpost
	reqSnapshot
	reqFlush
)

type req struct {
	kind reqKind

	structure modelpkg.Structure
	node      modelpkg.RoadNode
	outpost   outpostRow
	snapshot  snapshotRow
	ack       chan struct{}
}

type outpostRow struct {
	ID        string
	Open      bool
	UpdatedAt string
}

type snapshotRow struct {
	WorldID    string
	Tick       uint64
	Path       string
	Seed       int64
	Chunks     int
	Nodes      int
	Structures int
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	return openSQLite(path, 65536)
}

func openSQLite(path string, buffer int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, buffer),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS structures (
			id TEXT PRIMARY KEY,
			world_id TEXT NOT NULL,
			category TEXT NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			sx INTEGER NOT NULL,
			sy INTEGER NOT NULL,
			sz INTEGER NOT NULL,
			rotation INTEGER NOT NULL,
			blueprint_id TEXT,
			quest_id TEXT,
			anchor_x INTEGER NOT NULL,
			anchor_z INTEGER NOT NULL,
			created_tick INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_structures_world_category ON structures(world_id, category);`,
		`CREATE INDEX IF NOT EXISTS idx_structures_world_pos ON structures(world_id, x, z);`,
		`CREATE TABLE IF NOT EXISTS road_nodes (
			world_id TEXT NOT NULL,
			x INTEGER NOT NULL,
			z INTEGER NOT NULL,
			y INTEGER NOT NULL,
			tier TEXT NOT NULL,
			links_json TEXT NOT NULL,
			PRIMARY KEY (world_id, x, z)
		);`,
		`CREATE TABLE IF NOT EXISTS outposts (
			structure_id TEXT PRIMARY KEY,
			open INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			world_id TEXT NOT NULL,
			tick INTEGER NOT NULL,
			path TEXT NOT NULL,
			seed INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			nodes INTEGER NOT NULL,
			structures INTEGER NOT NULL,
			PRIMARY KEY (world_id, tick)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// enqueue never blocks the caller; requests are dropped when the writer
// falls behind.
func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.drops.Add(1)
	}
}

func (s *SQLiteIndex) SaveStructure(st modelpkg.Structure) {
	s.enqueue(req{kind: reqStructure, structure: st})
	if st.IsOutpost() {
		s.SaveOutpostState(st.ID, st.Open)
	}
}

func (s *SQLiteIndex) SaveNode(n modelpkg.RoadNode) {
	n.Links = append([]string(nil), n.Links...)
	s.enqueue(req{kind: reqNode, node: n})
}

func (s *SQLiteIndex) SaveOutpostState(id string, open bool) {
	s.enqueue(req{kind: reqOutpost, outpost: outpostRow{
		ID:        id,
		Open:      open,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}})
}

func (s *SQLiteIndex) RecordSnapshot(path string, snap snapshot.LayoutV1) {
	s.enqueue(req{kind: reqSnapshot, snapshot: snapshotRow{
		WorldID:    snap.Header.WorldID,
		Tick:       snap.Header.Tick,
		Path:       path,
		Seed:       snap.Seed,
		Chunks:     len(snap.Chunks),
		Nodes:      len(snap.Nodes),
		Structures: len(snap.Structures),
	}})
}

// Flush waits until every save queued before the call is committed.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	if s == nil || s.closed.Load() {
		return nil
	}
	ack := make(chan struct{})
	select {
	case s.ch <- req{kind: reqFlush, ack: ack}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Stats struct {
	QueueDepth    int
	QueueCapacity int
	DropTotal     uint64
}

func (s *SQLiteIndex) Stats() Stats {
	return Stats{
		QueueDepth:    len(s.ch),
		QueueCapacity: cap(s.ch),
		DropTotal:     s.drops.Load(),
	}
}

func (s *SQLiteIndex) UpsertCatalogs(configDir string, cats *catalogs.Catalogs, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if configDir != "" {
		if b, err := os.ReadFile(filepath.Join(configDir, "blocks.json")); err == nil {
			rows = append(rows, kv{name: "blocks_defs", digest: cats.Blocks.DefsDigest, json: b})
		}
	}
	if b, _ := json.Marshal(cats.Blocks.Palette); len(b) > 0 {
		rows = append(rows, kv{name: "blocks_palette", digest: cats.Blocks.PaletteDigest, json: b})
	}
	{
		bps := make([]catalogs.BlueprintDef, 0, len(cats.Blueprints.ByID))
		for _, bp := range cats.Blueprints.ByID {
			bps = append(bps, bp)
		}
		sort.Slice(bps, func(i, j int) bool { return bps[i].ID < bps[j].ID })
		if b, _ := json.Marshal(bps); len(b) > 0 {
			rows = append(rows, kv{name: "blueprints", digest: cats.Blueprints.Digest, json: b})
		}
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.name == "" || r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertStructure, _ := s.db.Prepare(`INSERT OR IGNORE INTO structures(id,world_id,category,x,y,z,sx,sy,sz,rotation,blueprint_id,quest_id,anchor_x,anchor_z,created_tick) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	upsertNode, _ := s.db.Prepare(`INSERT OR REPLACE INTO road_nodes(world_id,x,z,y,tier,links_json) VALUES(?,?,?,?,?,?)`)
	upsertOutpost, _ := s.db.Prepare(`INSERT OR REPLACE INTO outposts(structure_id,open,updated_at) VALUES(?,?,?)`)
	insertSnapshot, _ := s.db.Prepare(`INSERT OR REPLACE INTO snapshots(world_id,tick,path,seed,chunks,nodes,structures) VALUES(?,?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertStructure, upsertNode, upsertOutpost, insertSnapshot} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 500
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		if r.kind == reqFlush {
			commit()
			close(r.ack)
			continue
		}
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqStructure:
			st := r.structure
			exec(insertStructure,
				st.ID,
				st.World,
				string(st.Category),
				st.Origin.X, st.Origin.Y, st.Origin.Z,
				st.Footprint.SX, st.Footprint.SY, st.Footprint.SZ,
				st.Rotation,
				st.BlueprintID,
				st.QuestID,
				st.Anchor.X, st.Anchor.Z,
				int64(st.CreatedTick),
			)
		case reqNode:
			n := r.node
			links, _ := json.Marshal(n.Links)
			exec(upsertNode, n.World, n.X, n.Z, n.Y, n.Tier.String(), string(links))
		case reqOutpost:
			o := r.outpost
			open := 0
			if o.Open {
				open = 1
			}
			exec(upsertOutpost, o.ID, open, o.UpdatedAt)
		case reqSnapshot:
			sn := r.snapshot
			exec(insertSnapshot, sn.WorldID, int64(sn.Tick), sn.Path, sn.Seed, sn.Chunks, sn.Nodes, sn.Structures)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
