// Package http wires the REST and websocket-upgrade routes.
package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/koyo/danmu/internal/adapters/signal"
	"github.com/koyo/danmu/internal/app"
	"github.com/koyo/danmu/internal/config"
	"github.com/koyo/danmu/internal/domain"
	"github.com/koyo/danmu/internal/identity"
)

func SetupRouter(ctx context.Context, cfg *config.Config, gw *app.Gateway, resolver identity.Resolver, ctl *signal.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("DanmuSessions", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	registerRoomRoutes(api, gw, resolver)

	api.GET("/ws", func(c *gin.Context) {
		ctl.Handle(ctx, c)
	})

	return r
}

// requireAdmin gates mutating endpoints behind the same identity resolver
// the websocket handshake uses. Guests and members get 403, not silence.
func requireAdmin(resolver identity.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		auth := c.GetHeader("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		}
		ident := resolver.Resolve(c.Request.Context(), token)
		if ident.Role != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Set("identity", ident)
		c.Next()
	}
}
