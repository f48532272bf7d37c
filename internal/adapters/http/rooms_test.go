package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/koyo/danmu/internal/adapters/signal"
	"github.com/koyo/danmu/internal/app"
	"github.com/koyo/danmu/internal/config"
	"github.com/koyo/danmu/internal/core"
	"github.com/koyo/danmu/internal/domain"
	"github.com/koyo/danmu/internal/identity"
)

type nullConn struct{}

func (nullConn) TrySend(core.Frame) error { return nil }
func (nullConn) Close()                   {}

// fakeResolver: "admin-token" is an admin, anything else is a guest.
var fakeResolver = identity.ResolverFunc(func(_ context.Context, token string) domain.Identity {
	if token == "admin-token" {
		return domain.Identity{ID: "u-admin", DisplayName: "boss", Role: domain.RoleAdmin}
	}
	return domain.NewGuest("t")
})

func testServer(t *testing.T) (*httptest.Server, *app.Gateway) {
	t.Helper()
	gw := app.NewGateway(core.NewRegistry(core.RoomConfig{}), nil)
	cfg := &config.Config{Mode: "release", StaticPath: t.TempDir(), Secret: "test"}
	ctl := signal.NewController(gw, fakeResolver, nil, 0, time.Minute)

	srv := httptest.NewServer(SetupRouter(context.Background(), cfg, gw, fakeResolver, ctl))
	t.Cleanup(srv.Close)
	return srv, gw
}

func populate(t *testing.T, gw *app.Gateway, roomID domain.RoomID) {
	t.Helper()
	gw.Connect("s1", domain.Identity{ID: "u1", DisplayName: "alice", Role: domain.RoleMember}, nullConn{}, nil)
	if _, err := gw.JoinRoom("s1", roomID); err != nil {
		t.Fatal(err)
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestRoomListAndInfo(t *testing.T) {
	srv, gw := testServer(t)
	populate(t, gw, "live")

	var list struct {
		Rooms []core.RoomInfo `json:"rooms"`
	}
	if code := getJSON(t, srv.URL+"/api/rooms", &list); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if len(list.Rooms) != 1 || list.Rooms[0].ID != "live" || list.Rooms[0].MemberCount != 1 {
		t.Errorf("rooms = %+v", list.Rooms)
	}

	var info struct {
		ID          string `json:"id"`
		MemberCount int    `json:"member_count"`
		IsLive      bool   `json:"is_live"`
	}
	if code := getJSON(t, srv.URL+"/api/rooms/live", &info); code != http.StatusOK {
		t.Fatalf("info status = %d", code)
	}
	if info.ID != "live" || info.MemberCount != 1 || info.IsLive {
		t.Errorf("info = %+v", info)
	}

	if code := getJSON(t, srv.URL+"/api/rooms/absent", nil); code != http.StatusNotFound {
		t.Errorf("absent room status = %d, want 404", code)
	}
}

func TestMemberListingExcludesGuests(t *testing.T) {
	srv, gw := testServer(t)
	populate(t, gw, "live")
	gw.Connect("s2", domain.NewGuest("g"), nullConn{}, nil)
	if _, err := gw.JoinRoom("s2", "live"); err != nil {
		t.Fatal(err)
	}

	var members []core.MemberView
	if code := getJSON(t, srv.URL+"/api/rooms/live/members", &members); code != http.StatusOK {
		t.Fatalf("members status = %d", code)
	}
	if len(members) != 1 || members[0].ID != "u1" {
		t.Errorf("members = %+v", members)
	}
}

func setStatus(t *testing.T, url, token string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(`{"is_live":true}`))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestStatusUpdateRequiresAdmin(t *testing.T) {
	srv, gw := testServer(t)
	populate(t, gw, "live")
	url := srv.URL + "/api/rooms/live/status"

	if code := setStatus(t, url, ""); code != http.StatusForbidden {
		t.Errorf("anonymous status = %d, want 403", code)
	}
	if code := setStatus(t, url, "viewer-token"); code != http.StatusForbidden {
		t.Errorf("non-admin status = %d, want 403", code)
	}
	if code := setStatus(t, url, "admin-token"); code != http.StatusOK {
		t.Errorf("admin status = %d, want 200", code)
	}

	info := gw.Status("", "live")
	if !info.IsLive {
		t.Error("admin update did not go live")
	}
}

func TestStatusInquiryIsNonCreating(t *testing.T) {
	srv, gw := testServer(t)

	var body struct {
		IsLive      bool `json:"is_live"`
		ViewerCount int  `json:"viewer_count"`
	}
	if code := getJSON(t, srv.URL+"/api/rooms/nowhere/status", &body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if body.IsLive || body.ViewerCount != 0 {
		t.Errorf("body = %+v", body)
	}
	if _, ok := gw.Rooms.Get("nowhere"); ok {
		t.Error("status inquiry created the room")
	}
}
