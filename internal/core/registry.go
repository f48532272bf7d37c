package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/koyo/danmu/internal/domain"
)

// RoomInfo is the inspection view of one room.
type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"member_count"`
	IsLive      bool          `json:"is_live"`
}

// Registry exclusively owns the roomID→Room mapping. Rooms are created
// lazily on first join and drop themselves the moment they empty; a room
// with zero members is never retrievable.
type Registry struct {
	mu    sync.RWMutex
	cfg   RoomConfig
	rooms map[domain.RoomID]*Room
}

func NewRegistry(cfg RoomConfig) *Registry {
	if cfg.BacklogLimit <= 0 {
		cfg.BacklogLimit = 1000
	}
	if cfg.ActivityWindow <= 0 {
		cfg.ActivityWindow = 30 * time.Second
	}
	return &Registry{cfg: cfg, rooms: make(map[domain.RoomID]*Room)}
}

// GetOrCreate returns the live room for id, creating one when absent. A
// tombstoned room (emptied but still referenced somewhere) is replaced,
// so at most one live instance per id ever exists.
func (g *Registry) GetOrCreate(id domain.RoomID) *Room {
	g.mu.RLock()
	room, ok := g.rooms[id]
	g.mu.RUnlock()
	if ok && !room.isClosed() {
		return room
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if room, ok = g.rooms[id]; ok && !room.isClosed() {
		return room
	}
	room = newRoom(id, g.cfg, g.drop)
	g.rooms[id] = room
	log.Info().Str("module", "core.registry").Str("room", string(id)).Msg("room created")
	return room
}

// Get is the non-creating lookup used for inspection.
func (g *Registry) Get(id domain.RoomID) (*Room, bool) {
	g.mu.RLock()
	room, ok := g.rooms[id]
	g.mu.RUnlock()
	if !ok || room.isClosed() {
		return nil, false
	}
	return room, true
}

// Remove deletes the entry for id. Idempotent; absent ids are fine.
func (g *Registry) Remove(id domain.RoomID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, id)
}

// drop unmaps exactly the room that emptied. A successor under the same
// id created in the meantime stays untouched.
func (g *Registry) drop(r *Room) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rooms[r.id] == r {
		delete(g.rooms, r.id)
		log.Info().Str("module", "core.registry").Str("room", string(r.id)).Msg("room removed")
	}
}

func (g *Registry) List() []RoomInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]RoomInfo, 0, len(g.rooms))
	for id, r := range g.rooms {
		live, viewers := r.Status()
		out = append(out, RoomInfo{ID: id, MemberCount: viewers, IsLive: live})
	}
	return out
}
