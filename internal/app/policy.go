package app

import (
	"github.com/koyo/danmu/internal/core"
	"github.com/koyo/danmu/internal/domain"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what to do with a member whose send buffer overflowed
// during a broadcast.
type Policy interface {
	OnBackPressure(room domain.RoomID, sid core.SessionID) BackpressureAction
}

// KickSlowPolicy drops members that cannot keep up. A viewer that lost
// frames is out of order anyway; reconnecting gets a fresh backlog.
type KickSlowPolicy struct{}

func (KickSlowPolicy) OnBackPressure(domain.RoomID, core.SessionID) BackpressureAction {
	return KickMember
}
