// Package httpapi serves a read-only JSON view of the persisted layout.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"wastelands.ai/internal/persistence/indexdb"
	modelpkg "wastelands.ai/internal/sim/world/kernel/model"
)

// Store is the query side of the layout index.
type Store interface {
	QueryStructures(ctx context.Context, f indexdb.StructureFilter) ([]modelpkg.Structure, error)
	QueryStructuresNear(ctx context.Context, world string, x, z, radius int) ([]modelpkg.Structure, error)
	QueryNodes(ctx context.Context, world string) ([]modelpkg.RoadNode, error)
}

const maxRadius = 4096

type Server struct {
	store Store
	log   *slog.Logger
}

func NewServer(store Store, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{store: store, log: log}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Get("/structures", s.listStructures)
		r.Get("/structures/near", s.nearStructures)
		r.Get("/nodes", s.listNodes)
	})
	return r
}

type structureJSON struct {
	ID          string `json:"id"`
	World       string `json:"world"`
	Category    string `json:"category"`
	Pos         [3]int `json:"pos"`
	Size        [3]int `json:"size"`
	Rotation    int    `json:"rotation"`
	BlueprintID string `json:"blueprint_id,omitempty"`
	QuestID     string `json:"quest_id,omitempty"`
	Open        *bool  `json:"open,omitempty"`
	CreatedTick uint64 `json:"created_tick"`
}

type nodeJSON struct {
	World string   `json:"world"`
	Pos   [3]int   `json:"pos"`
	Tier  string   `json:"tier"`
	Links []string `json:"links"`
}

func toStructureJSON(in []modelpkg.Structure) []structureJSON {
	out := make([]structureJSON, 0, len(in))
	for _, s := range in {
		j := structureJSON{
			ID:          s.ID,
			World:       s.World,
			Category:    string(s.Category),
			Pos:         s.Origin.ToArray(),
			Size:        [3]int{s.Footprint.SX, s.Footprint.SY, s.Footprint.SZ},
			Rotation:    s.Rotation,
			BlueprintID: s.BlueprintID,
			QuestID:     s.QuestID,
			CreatedTick: s.CreatedTick,
		}
		if s.IsOutpost() {
			open := s.Open
			j.Open = &open
		}
		out = append(out, j)
	}
	return out
}

// listStructures handles GET /api/structures?world=&type=&limit=
func (s *Server) listStructures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := indexdb.StructureFilter{World: q.Get("world"), Category: q.Get("type")}
	if f.Category != "" {
		if _, ok := modelpkg.ParseCategory(f.Category); !ok {
			respondError(w, http.StatusBadRequest, "unknown type")
			return
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		f.Limit = n
	}
	res, err := s.store.QueryStructures(r.Context(), f)
	if err != nil {
		s.log.Warn("structure query failed", "err", err)
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	respondJSON(w, http.StatusOK, toStructureJSON(res))
}

// nearStructures handles GET /api/structures/near?world=&x=&z=&r=
func (s *Server) nearStructures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	world := q.Get("world")
	if world == "" {
		respondError(w, http.StatusBadRequest, "world is required")
		return
	}
	var vals [3]int
	for i, key := range []string{"x", "z", "r"} {
		n, err := strconv.Atoi(q.Get(key))
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid "+key)
			return
		}
		vals[i] = n
	}
	if vals[2] < 0 || vals[2] > maxRadius {
		respondError(w, http.StatusBadRequest, "r out of range")
		return
	}
	res, err := s.store.QueryStructuresNear(r.Context(), world, vals[0], vals[1], vals[2])
	if err != nil {
		s.log.Warn("near query failed", "err", err)
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	respondJSON(w, http.StatusOK, toStructureJSON(res))
}

// listNodes handles GET /api/nodes?world=
func (s *Server) listNodes(w http.ResponseWriter, r *http.Request) {
	world := r.URL.Query().Get("world")
	if world == "" {
		respondError(w, http.StatusBadRequest, "world is required")
		return
	}
	nodes, err := s.store.QueryNodes(r.Context(), world)
	if err != nil {
		s.log.Warn("node query failed", "err", err)
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}
	out := make([]nodeJSON, 0, len(nodes))
	for _, n := range nodes {
		links := n.Links
		if links == nil {
			links = []string{}
		}
		out = append(out, nodeJSON{World: n.World, Pos: [3]int{n.X, n.Y, n.Z}, Tier: n.Tier.String(), Links: links})
	}
	respondJSON(w, http.StatusOK, out)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
