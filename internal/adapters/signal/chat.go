package signal

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/koyo/danmu/internal/app"
	"github.com/koyo/danmu/internal/core"
	"github.com/koyo/danmu/internal/domain"
)

func (ctl *Controller) handleJoin(sid core.SessionID, conn *WsConn, data []byte) {
	var p struct {
		Type string `json:"type"`
		Room string `json:"room"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.reject(conn, core.ReasonBadPayload)
		return
	}

	roomID := domain.RoomID(p.Room)
	if roomID == "" {
		roomID = ctl.DefaultRoom
	}

	res, err := ctl.GW.JoinRoom(sid, roomID)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("join failed")
		ctl.reject(conn, core.ReasonInvalidState)
		return
	}

	// Count and online-user deltas arrive via the room broadcast the join
	// itself triggered; the direct reply carries what only the joiner needs.
	ctl.sendEvent(conn, core.NewBacklogSnapshot(res.Backlog))
	ctl.sendEvent(conn, core.NewPresence(res.Users))
	ctl.sendEvent(conn, core.NewStatusChanged(roomID, res.IsLive, res.Count))
}

// handleLeave has no direct reply; the departure shows up for everyone
// else through the room's membership_count broadcast.
func (ctl *Controller) handleLeave(sid core.SessionID) {
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("leave")
	ctl.GW.LeaveRoom(sid)
}

func (ctl *Controller) handlePost(sid core.SessionID, conn *WsConn, data []byte) {
	var p struct {
		Type   string          `json:"type"`
		Text   string          `json:"text"`
		Kind   string          `json:"kind"`
		Effect json.RawMessage `json:"effect"`
	}
	if err := json.Unmarshal(data, &p); err != nil || p.Text == "" {
		log.Warn().Err(err).Str("module", "signal").Msg("bad message payload")
		ctl.reject(conn, core.ReasonBadPayload)
		return
	}

	if ctl.Limiter != nil {
		if ident, ok := ctl.GW.Sessions.Identity(sid); ok && !ident.IsGuest() {
			if !ctl.Limiter.Allow(ident.ID) {
				log.Info().Str("module", "signal").Str("user", string(ident.ID)).Msg("post rate limited")
				ctl.reject(conn, core.ReasonRateLimited)
				return
			}
		}
	}

	_, err := ctl.GW.Post(sid, p.Text, domain.MessageKind(p.Kind), p.Effect)
	switch {
	case err == nil:
		// The sender sees its own post through the room broadcast.
	case errors.Is(err, core.ErrPermissionDenied):
		ctl.reject(conn, core.ReasonPermissionDenied)
	case errors.Is(err, app.ErrNoRoom):
		ctl.reject(conn, core.ReasonInvalidState)
	default:
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("post failed")
	}
}
