package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type MessageKind string

const (
	KindNormal  MessageKind = "normal"
	KindSpecial MessageKind = "special"
)

// Author is the identity snapshot embedded in a message. Copied at post
// time so later renames never rewrite history.
type Author struct {
	ID       UserID `json:"id"`
	Nickname string `json:"nickname"`
	Role     Role   `json:"role"`
}

// Message is one danmaku entry. Immutable once created; the room backlog
// only ever appends and evicts, never mutates.
type Message struct {
	ID     string          `json:"id"`
	Text   string          `json:"text"`
	Kind   MessageKind     `json:"kind"`
	Effect json.RawMessage `json:"effect,omitempty"`
	Author Author          `json:"user"`
	SentAt int64           `json:"timestamp"`
}

// NewMessage stamps id and send time. Text must already be filtered.
func NewMessage(text string, kind MessageKind, effect json.RawMessage, from Identity, now time.Time) Message {
	if kind == "" {
		kind = KindNormal
	}
	return Message{
		ID:     newMessageID(now),
		Text:   text,
		Kind:   kind,
		Effect: effect,
		Author: Author{ID: from.ID, Nickname: from.DisplayName, Role: from.Role},
		SentAt: now.UnixMilli(),
	}
}

// newMessageID yields "dm-<unix millis>-<suffix>": unique, and the millisecond
// prefix keeps ids sorting consistently with admission order.
func newMessageID(now time.Time) string {
	return fmt.Sprintf("dm-%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}
