// Package app glues sessions, rooms and policy into the broadcast
// gateway the transport adapters talk to.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/koyo/danmu/internal/core"
	"github.com/koyo/danmu/internal/domain"
)

type sessionEntry struct {
	Identity domain.Identity
	Room     domain.RoomID
	Conn     core.Sender
	Cancel   context.CancelFunc
}

// SessionRegistry tracks every live connection: its resolved identity,
// the one room it currently occupies (if any) and its transport.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[core.SessionID]*sessionEntry)}
}

func (r *SessionRegistry) Bind(sid core.SessionID, ident domain.Identity, conn core.Sender, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{Identity: ident, Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).
		Str("user", string(ident.ID)).Str("role", string(ident.Role)).Msg("bound session")
}

// Unbind removes the session and returns its last state, once. The
// second caller in a disconnect race gets ok=false and does nothing.
// The session context is released here so a clean disconnect does not
// leave a child context registered for the life of the server.
func (r *SessionRegistry) Unbind(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[sid]
	if !ok {
		return "", false
	}
	delete(r.sessions, sid)
	if entry.Cancel != nil {
		entry.Cancel()
	}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("unbound session")
	return entry.Room, true
}

func (r *SessionRegistry) Identity(sid core.SessionID) (domain.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Identity, true
	}
	return domain.Identity{}, false
}

func (r *SessionRegistry) Conn(sid core.SessionID) (core.Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Conn, true
	}
	return nil, false
}

// RoomOf reports the room the session currently occupies, if any.
func (r *SessionRegistry) RoomOf(sid core.SessionID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

func (r *SessionRegistry) setRoom(sid core.SessionID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.Room = room
	}
}

func (r *SessionRegistry) clearRoom(sid core.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		e.Room = ""
	}
}

// Cancel fires the session's context cancel, which tears the transport
// down; cleanup then arrives through the normal disconnect path.
func (r *SessionRegistry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.sessions").Str("sid", string(sid)).Msg("canceled session")
	return true
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
