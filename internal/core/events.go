package core

import (
	"encoding/json"

	"github.com/koyo/danmu/internal/domain"
	"github.com/rs/zerolog/log"
)

// Outbound event vocabulary. Every payload carries a "type" tag so clients
// can dispatch without peeking further into the body.
const (
	EvBacklogSnapshot = "backlog_snapshot"
	EvMembershipCount = "membership_count"
	EvMessagePosted   = "message_posted"
	EvStatusChanged   = "status_changed"
	EvRejected        = "rejected"
	EvUserOnline      = "user_online"
	EvUserOffline     = "user_offline"
	EvPresence        = "presence"
)

// Rejection reasons carried by EvRejected.
const (
	ReasonPermissionDenied = "permission_denied"
	ReasonInvalidState     = "invalid_state"
	ReasonRateLimited      = "rate_limited"
	ReasonBadPayload       = "bad_payload"
)

type BacklogSnapshotEvent struct {
	Type     string           `json:"type"`
	Messages []domain.Message `json:"messages"`
}

type MembershipCountEvent struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type MessagePostedEvent struct {
	Type    string         `json:"type"`
	Message domain.Message `json:"message"`
}

type StatusChangedEvent struct {
	Type        string        `json:"type"`
	IsLive      bool          `json:"is_live"`
	ViewerCount int           `json:"viewer_count"`
	Room        domain.RoomID `json:"room"`
}

type RejectedEvent struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type UserOnlineEvent struct {
	Type string          `json:"type"`
	User domain.Identity `json:"user"`
}

type UserOfflineEvent struct {
	Type   string        `json:"type"`
	UserID domain.UserID `json:"user_id"`
}

type PresenceEvent struct {
	Type  string       `json:"type"`
	Users []MemberView `json:"users"`
	Count int          `json:"count"`
}

func NewBacklogSnapshot(msgs []domain.Message) BacklogSnapshotEvent {
	return BacklogSnapshotEvent{Type: EvBacklogSnapshot, Messages: msgs}
}

func NewMembershipCount(n int) MembershipCountEvent {
	return MembershipCountEvent{Type: EvMembershipCount, Count: n}
}

func NewMessagePosted(m domain.Message) MessagePostedEvent {
	return MessagePostedEvent{Type: EvMessagePosted, Message: m}
}

func NewStatusChanged(room domain.RoomID, live bool, viewers int) StatusChangedEvent {
	return StatusChangedEvent{Type: EvStatusChanged, IsLive: live, ViewerCount: viewers, Room: room}
}

func NewRejected(reason string) RejectedEvent {
	return RejectedEvent{Type: EvRejected, Reason: reason}
}

func NewUserOnline(u domain.Identity) UserOnlineEvent {
	return UserOnlineEvent{Type: EvUserOnline, User: u}
}

func NewUserOffline(id domain.UserID) UserOfflineEvent {
	return UserOfflineEvent{Type: EvUserOffline, UserID: id}
}

func NewPresence(users []MemberView) PresenceEvent {
	return PresenceEvent{Type: EvPresence, Users: users, Count: len(users)}
}

// Encode marshals an event once so every member of a room receives the
// identical bytes. Events are plain structs; a marshal failure is a
// programming error, logged and swallowed.
func Encode(v any) (Frame, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "core.events").Msg("encode event")
		return nil, false
	}
	return Frame(b), true
}
