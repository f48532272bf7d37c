// Package core owns the room state: membership, backlog, live flag. It
// never touches transport resources beyond the Sender it is handed.
package core

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/koyo/danmu/internal/domain"
)

// RoomConfig carries the per-room tuning shared by every room the
// registry creates.
type RoomConfig struct {
	BacklogLimit   int
	ActivityWindow time.Duration
	Filter         *Filter
}

// MemberView is a read-only presence entry (no transport fields).
// IsActive is computed at snapshot time.
type MemberView struct {
	ID       domain.UserID `json:"id"`
	Name     string        `json:"name"`
	Role     domain.Role   `json:"role"`
	JoinedAt int64         `json:"joined_at"`
	IsActive bool          `json:"is_active"`
}

// JoinResult is what a freshly admitted member needs to render the room.
// Backlog is a copy; later posts never rewrite it.
type JoinResult struct {
	Backlog []domain.Message
	Count   int
	IsLive  bool
	Users   []MemberView
}

type memberEntry struct {
	meta *domain.Member
	conn Sender
}

// Room is the aggregate for one live feed's chat. All state mutation and
// every broadcast happen under one mutex, so members observe a single
// total order of events.
type Room struct {
	id        domain.RoomID
	createdAt time.Time
	cfg       RoomConfig
	onEmpty   func(*Room)

	mu      sync.Mutex
	closed  bool
	members map[SessionID]*memberEntry
	history *backlog
	live    bool
}

func newRoom(id domain.RoomID, cfg RoomConfig, onEmpty func(*Room)) *Room {
	return &Room{
		id:        id,
		createdAt: time.Now(),
		cfg:       cfg,
		onEmpty:   onEmpty,
		members:   make(map[SessionID]*memberEntry),
		history:   newBacklog(cfg.BacklogLimit),
	}
}

func (r *Room) ID() domain.RoomID    { return r.id }
func (r *Room) CreatedAt() time.Time { return r.createdAt }

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Status reports the live flag and viewer count together, as one read.
func (r *Room) Status() (live bool, viewers int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live, len(r.members)
}

func (r *Room) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Join admits a member and tells everyone, the newcomer included, the new
// count. Named joins additionally announce the user to the room. Returns
// ErrRoomClosed when the room emptied out from under the caller; retry
// against the registry.
func (r *Room) Join(sid SessionID, ident domain.Identity, conn Sender) (JoinResult, PublishResult, error) {
	now := time.Now()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return JoinResult{}, PublishResult{}, ErrRoomClosed
	}
	r.members[sid] = &memberEntry{meta: domain.NewMember(ident, now), conn: conn}
	res := JoinResult{
		Backlog: r.history.snapshot(),
		Count:   len(r.members),
		IsLive:  r.live,
		Users:   r.namedViews(now),
	}
	var pub PublishResult
	if f, ok := Encode(NewMembershipCount(len(r.members))); ok {
		pub.merge(r.fanout(f))
	}
	if !ident.IsGuest() {
		if f, ok := Encode(NewUserOnline(ident)); ok {
			pub.merge(r.fanout(f))
		}
	}
	r.mu.Unlock()

	log.Info().Str("module", "core.room").Str("room", string(r.id)).
		Str("sid", string(sid)).Str("user", string(ident.ID)).
		Int("count", res.Count).Msg("member joined")
	return res, pub, nil
}

// Leave removes the member if present; disconnect races make double
// leaves normal, so an absent sid is a no-op. The room dissolves the
// moment its last member goes.
func (r *Room) Leave(sid SessionID) (remaining int, pub PublishResult, removed bool) {
	r.mu.Lock()
	entry, ok := r.members[sid]
	if !ok {
		n := len(r.members)
		r.mu.Unlock()
		return n, PublishResult{}, false
	}
	delete(r.members, sid)
	remaining = len(r.members)
	if remaining == 0 {
		r.closed = true
		r.mu.Unlock()
		if r.onEmpty != nil {
			r.onEmpty(r)
		}
		log.Info().Str("module", "core.room").Str("room", string(r.id)).Msg("room emptied, dissolved")
		return 0, PublishResult{}, true
	}
	if f, ok := Encode(NewMembershipCount(remaining)); ok {
		pub.merge(r.fanout(f))
	}
	if !entry.meta.IsGuest() {
		if f, ok := Encode(NewUserOffline(entry.meta.ID)); ok {
			pub.merge(r.fanout(f))
		}
	}
	r.mu.Unlock()

	log.Info().Str("module", "core.room").Str("room", string(r.id)).
		Str("sid", string(sid)).Int("count", remaining).Msg("member left")
	return remaining, pub, true
}

// Post filters the text, appends to the backlog and fans the message out
// to every member, sender included; there is no separate local echo.
// Guests get ErrPermissionDenied and nothing is stored or broadcast.
func (r *Room) Post(sid SessionID, text string, kind domain.MessageKind, effect json.RawMessage) (domain.Message, PublishResult, error) {
	now := time.Now()
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return domain.Message{}, PublishResult{}, ErrRoomClosed
	}
	entry, ok := r.members[sid]
	if !ok {
		r.mu.Unlock()
		return domain.Message{}, PublishResult{}, ErrNotMember
	}
	if entry.meta.IsGuest() {
		r.mu.Unlock()
		return domain.Message{}, PublishResult{}, ErrPermissionDenied
	}
	entry.meta.LastActivity = now

	msg := domain.NewMessage(r.cfg.Filter.Apply(text), kind, effect, entry.meta.Identity, now)
	r.history.push(msg)

	var pub PublishResult
	if f, ok := Encode(NewMessagePosted(msg)); ok {
		pub = r.fanout(f)
	}
	r.mu.Unlock()

	log.Debug().Str("module", "core.room").Str("room", string(r.id)).
		Str("msg", msg.ID).Int("sent_to", pub.SentTo).Int("dropped", len(pub.Dropped)).
		Msg("message posted")
	return msg, pub, nil
}

// SetLiveStatus flips the live flag and tells the room. Setting the
// current value again is a no-op, so periodic re-appliers stay quiet.
func (r *Room) SetLiveStatus(live bool) (changed bool, pub PublishResult) {
	r.mu.Lock()
	if r.closed || r.live == live {
		r.mu.Unlock()
		return false, PublishResult{}
	}
	r.live = live
	if f, ok := Encode(NewStatusChanged(r.id, live, len(r.members))); ok {
		pub = r.fanout(f)
	}
	r.mu.Unlock()

	log.Info().Str("module", "core.room").Str("room", string(r.id)).
		Bool("live", live).Msg("live status changed")
	return true, pub
}

// Heartbeat refreshes the member's activity stamp. Deliberately silent:
// activity is read lazily on snapshots, never pushed per change.
func (r *Room) Heartbeat(sid SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.members[sid]
	if !ok {
		return false
	}
	entry.meta.LastActivity = time.Now()
	return true
}

// SnapshotMembers lists named members for presence display. Guests count
// toward viewers but never appear in identity-revealing listings.
func (r *Room) SnapshotMembers() []MemberView {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namedViews(now)
}

// namedViews must be called with r.mu held.
func (r *Room) namedViews(now time.Time) []MemberView {
	out := make([]MemberView, 0, len(r.members))
	for _, e := range r.members {
		if e.meta.IsGuest() {
			continue
		}
		out = append(out, MemberView{
			ID:       e.meta.ID,
			Name:     e.meta.DisplayName,
			Role:     e.meta.Role,
			JoinedAt: e.meta.JoinedAt.UnixMilli(),
			IsActive: e.meta.ActiveAt(now, r.cfg.ActivityWindow),
		})
	}
	return out
}

// fanout must be called with r.mu held; this is what serializes the event
// order every member observes.
func (r *Room) fanout(f Frame) PublishResult {
	var res PublishResult
	for sid, e := range r.members {
		if err := e.conn.TrySend(f); err != nil {
			res.Dropped = append(res.Dropped, sid)
			continue
		}
		res.SentTo++
	}
	return res
}
