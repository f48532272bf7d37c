// Package signal is the websocket gateway: it accepts connections, runs
// the identity handshake and shuttles events between clients and rooms.
package signal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/koyo/danmu/internal/app"
	"github.com/koyo/danmu/internal/core"
	"github.com/koyo/danmu/internal/domain"
	"github.com/koyo/danmu/internal/identity"
)

var ErrBackpressure = errors.New("backpressure")

const (
	sessionGuestID   = "guest_id"
	sessionGuestName = "guest_name"
)

type Controller struct {
	GW          *app.Gateway
	Resolver    identity.Resolver
	Limiter     *RateLimiter
	ReadLimit   int64
	PingPeriod  time.Duration
	DefaultRoom domain.RoomID
}

func NewController(gw *app.Gateway, resolver identity.Resolver, limiter *RateLimiter, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		GW:          gw,
		Resolver:    resolver,
		Limiter:     limiter,
		ReadLimit:   readLimit,
		PingPeriod:  pingPeriod,
		DefaultRoom: "live",
	}
}

// WsConn wraps one websocket with a bounded send queue. TrySend never
// blocks; a full queue reports backpressure and lets policy decide.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle runs the per-connection handshake: resolve identity (before the
// upgrade, while we can still set cookies), upgrade, bind the session and
// start the pumps.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	ident := ctl.resolveIdentity(c)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	sid := core.SessionID(uuid.NewString())
	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	log.Info().Str("module", "signal").Str("sid", string(sid)).
		Str("user", string(ident.ID)).Str("role", string(ident.Role)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	ctl.GW.Connect(sid, ident, conn, cancel)

	go ctl.writePump(ctx, sid, conn)
	go ctl.readPump(ctx, sid, conn)
}

// resolveIdentity never refuses a connection: no token means guest, a bad
// token means guest. A minted guest identity is kept in the cookie
// session so reconnecting guests stay one viewer, not many.
func (ctl *Controller) resolveIdentity(c *gin.Context) domain.Identity {
	token := bearerToken(c)
	if token != "" {
		return ctl.Resolver.Resolve(c.Request.Context(), token)
	}

	sess := sessions.Default(c)
	if id, ok := sess.Get(sessionGuestID).(string); ok && id != "" {
		name, _ := sess.Get(sessionGuestName).(string)
		if name == "" {
			name = "guest"
		}
		return domain.Identity{ID: domain.UserID(id), DisplayName: name, Role: domain.RoleGuest}
	}

	ident := ctl.Resolver.Resolve(c.Request.Context(), "")
	sess.Set(sessionGuestID, string(ident.ID))
	sess.Set(sessionGuestName, ident.DisplayName)
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("persist guest session")
	}
	return ident
}

func bearerToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func (ctl *Controller) sendEvent(c *WsConn, v any) {
	f, ok := core.Encode(v)
	if !ok {
		return
	}
	_ = c.TrySend(f)
}

func (ctl *Controller) reject(c *WsConn, reason string) {
	ctl.sendEvent(c, core.NewRejected(reason))
}
