package domain

import "time"

// Member represents a connection's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	Identity
	JoinedAt     time.Time
	LastActivity time.Time
}

// NewMember avoids raw literals in the room aggregate and keeps construction obvious.
func NewMember(ident Identity, now time.Time) *Member {
	return &Member{Identity: ident, JoinedAt: now, LastActivity: now}
}

// ActiveAt reports whether the member showed activity within the window.
// Derived on read; nothing stores this flag.
func (m *Member) ActiveAt(now time.Time, window time.Duration) bool {
	return now.Sub(m.LastActivity) < window
}
