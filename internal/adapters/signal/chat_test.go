package signal

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/koyo/danmu/internal/app"
	"github.com/koyo/danmu/internal/core"
	"github.com/koyo/danmu/internal/domain"
	"github.com/koyo/danmu/internal/identity"
)

func testController() *Controller {
	gw := app.NewGateway(core.NewRegistry(core.RoomConfig{}), nil)
	resolver := identity.ResolverFunc(func(context.Context, string) domain.Identity {
		return domain.NewGuest("t")
	})
	return NewController(gw, resolver, nil, 0, time.Minute)
}

func drain(t *testing.T, c *WsConn) []map[string]any {
	t.Helper()
	var out []map[string]any
	for {
		select {
		case f := <-c.send:
			var m map[string]any
			if err := json.Unmarshal(f, &m); err != nil {
				t.Fatalf("bad frame %s: %v", f, err)
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

// A join that fails (here: the session vanished in a disconnect race)
// must answer with an explicit rejection, not silence.
func TestFailedJoinIsRejected(t *testing.T) {
	ctl := testController()
	conn := &WsConn{send: make(chan core.Frame, 8)}

	ctl.handleJoin("ghost", conn, []byte(`{"type":"join_room","room":"live"}`))

	events := drain(t, conn)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %+v", len(events), events)
	}
	if events[0]["type"] != core.EvRejected || events[0]["reason"] != core.ReasonInvalidState {
		t.Errorf("event = %+v, want rejected{invalid_state}", events[0])
	}
}

// Leaving is acknowledged only through the room's own broadcasts; the
// leaver gets no direct reply outside the event vocabulary.
func TestLeaveHasNoDirectReply(t *testing.T) {
	ctl := testController()
	conn := &WsConn{send: make(chan core.Frame, 8)}
	ctl.GW.Connect("s1", domain.Identity{ID: "u1", DisplayName: "u1", Role: domain.RoleMember}, conn, nil)
	if _, err := ctl.GW.JoinRoom("s1", "live"); err != nil {
		t.Fatal(err)
	}
	drain(t, conn)

	ctl.handleLeave("s1")

	if events := drain(t, conn); len(events) != 0 {
		t.Errorf("leave produced direct replies: %+v", events)
	}
}
