package app

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/koyo/danmu/internal/core"
	"github.com/koyo/danmu/internal/domain"
)

var (
	// ErrNoRoom means the operation needs a current room and none is set
	// (post before join). The connection stays usable.
	ErrNoRoom = errors.New("no current room")

	// ErrUnknownSession means the sid was never bound or already torn down.
	ErrUnknownSession = errors.New("unknown session")
)

// StatusInfo is the answer to a status inquiry; absent rooms read as
// offline and empty without being created.
type StatusInfo struct {
	Room        domain.RoomID
	IsLive      bool
	ViewerCount int
}

// Gateway is the broadcast gateway: one instance per process, wiring
// connection sessions to rooms. Transport adapters call it; it holds no
// locks across room operations.
type Gateway struct {
	Sessions *SessionRegistry
	Rooms    *core.Registry
	Policy   Policy
}

func NewGateway(rooms *core.Registry, policy Policy) *Gateway {
	return &Gateway{
		Sessions: NewSessionRegistry(),
		Rooms:    rooms,
		Policy:   policy,
	}
}

// Connect binds a freshly accepted transport connection.
func (g *Gateway) Connect(sid core.SessionID, ident domain.Identity, conn core.Sender, cancel context.CancelFunc) {
	g.Sessions.Bind(sid, ident, conn, cancel)
}

// JoinRoom puts the session into roomID, leaving its previous room first;
// a session occupies at most one room, never two in parallel. The retry
// loop covers a join racing the destruction of the same room.
func (g *Gateway) JoinRoom(sid core.SessionID, roomID domain.RoomID) (core.JoinResult, error) {
	ident, ok := g.Sessions.Identity(sid)
	if !ok {
		return core.JoinResult{}, ErrUnknownSession
	}
	conn, ok := g.Sessions.Conn(sid)
	if !ok {
		return core.JoinResult{}, ErrUnknownSession
	}
	if _, ok := g.Sessions.RoomOf(sid); ok {
		g.LeaveRoom(sid)
	}

	for {
		room := g.Rooms.GetOrCreate(roomID)
		res, pub, err := room.Join(sid, ident, conn)
		if errors.Is(err, core.ErrRoomClosed) {
			continue
		}
		if err != nil {
			return core.JoinResult{}, err
		}
		g.Sessions.setRoom(sid, roomID)
		g.applyPolicy(roomID, pub)
		return res, nil
	}
}

// LeaveRoom takes the session out of its current room, if any. Idempotent.
func (g *Gateway) LeaveRoom(sid core.SessionID) bool {
	roomID, ok := g.Sessions.RoomOf(sid)
	if !ok {
		return false
	}
	g.Sessions.clearRoom(sid)
	room, ok := g.Rooms.Get(roomID)
	if !ok {
		return false
	}
	_, pub, removed := room.Leave(sid)
	g.applyPolicy(roomID, pub)
	return removed
}

// Post sends a chat message to the session's current room. Permission and
// filtering live in the room; this only routes and reports.
func (g *Gateway) Post(sid core.SessionID, text string, kind domain.MessageKind, effect json.RawMessage) (domain.Message, error) {
	roomID, ok := g.Sessions.RoomOf(sid)
	if !ok {
		return domain.Message{}, ErrNoRoom
	}
	room, ok := g.Rooms.Get(roomID)
	if !ok {
		g.Sessions.clearRoom(sid)
		return domain.Message{}, ErrNoRoom
	}
	msg, pub, err := room.Post(sid, text, kind, effect)
	if err != nil {
		if errors.Is(err, core.ErrNotMember) || errors.Is(err, core.ErrRoomClosed) {
			g.Sessions.clearRoom(sid)
			return domain.Message{}, ErrNoRoom
		}
		return domain.Message{}, err
	}
	g.applyPolicy(roomID, pub)
	return msg, nil
}

// Heartbeat refreshes activity in the current room; harmless when the
// session has not joined one yet.
func (g *Gateway) Heartbeat(sid core.SessionID) {
	roomID, ok := g.Sessions.RoomOf(sid)
	if !ok {
		return
	}
	if room, ok := g.Rooms.Get(roomID); ok {
		room.Heartbeat(sid)
	}
}

// Status answers a liveness inquiry without creating anything. An empty
// roomID means "the room I'm in".
func (g *Gateway) Status(sid core.SessionID, roomID domain.RoomID) StatusInfo {
	if roomID == "" {
		roomID, _ = g.Sessions.RoomOf(sid)
	}
	info := StatusInfo{Room: roomID}
	if room, ok := g.Rooms.Get(roomID); ok {
		info.IsLive, info.ViewerCount = room.Status()
	}
	return info
}

// SetLiveStatus flips a room's live flag from the outside (admin action
// or media watcher). Non-creating: a room nobody watches has nobody to
// tell, and empty rooms must not persist.
func (g *Gateway) SetLiveStatus(roomID domain.RoomID, live bool) bool {
	room, ok := g.Rooms.Get(roomID)
	if !ok {
		return false
	}
	changed, pub := room.SetLiveStatus(live)
	g.applyPolicy(roomID, pub)
	return changed
}

// Disconnect runs the cleanup path exactly once per connection, however
// many leave/disconnect signals the transport delivers.
func (g *Gateway) Disconnect(sid core.SessionID) {
	roomID, ok := g.Sessions.Unbind(sid)
	if !ok {
		return
	}
	if roomID == "" {
		return
	}
	if room, ok := g.Rooms.Get(roomID); ok {
		_, pub, _ := room.Leave(sid)
		g.applyPolicy(roomID, pub)
	}
}

// applyPolicy handles members whose buffers overflowed during a
// broadcast. Kicking removes membership immediately and cancels the
// session; secondary drops caused by the kick broadcasts are logged but
// not chased recursively.
func (g *Gateway) applyPolicy(roomID domain.RoomID, pub core.PublishResult) {
	if g.Policy == nil {
		return
	}
	for _, sid := range pub.Dropped {
		switch g.Policy.OnBackPressure(roomID, sid) {
		case KickMember:
			log.Warn().Str("module", "app.gateway").Str("sid", string(sid)).
				Str("room", string(roomID)).Msg("kicking slow member")
			g.Sessions.clearRoom(sid)
			if room, ok := g.Rooms.Get(roomID); ok {
				_, pub2, _ := room.Leave(sid)
				if len(pub2.Dropped) > 0 {
					log.Warn().Str("module", "app.gateway").Int("dropped", len(pub2.Dropped)).
						Msg("drops during kick broadcast")
				}
			}
			g.Sessions.Cancel(sid)
		case DropFrame, NoAction:
		}
	}
}
