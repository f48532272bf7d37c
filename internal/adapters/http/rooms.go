package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/koyo/danmu/internal/app"
	"github.com/koyo/danmu/internal/domain"
	"github.com/koyo/danmu/internal/identity"
)

// registerRoomRoutes exposes the inspection surface plus the admin
// live-status switch. All lookups are non-creating: inspecting a room
// nobody watches must not allocate it.
func registerRoomRoutes(api *gin.RouterGroup, gw *app.Gateway, resolver identity.Resolver) {
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": gw.Rooms.List()})
	})

	api.GET("/rooms/:id", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		room, ok := gw.Rooms.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		live, viewers := room.Status()
		c.JSON(http.StatusOK, gin.H{
			"id":           id,
			"member_count": viewers,
			"is_live":      live,
			"created_at":   room.CreatedAt().UnixMilli(),
		})
	})

	api.GET("/rooms/:id/members", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		room, ok := gw.Rooms.Get(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusOK, room.SnapshotMembers())
	})

	api.GET("/rooms/:id/status", func(c *gin.Context) {
		id := domain.RoomID(c.Param("id"))
		info := gw.Status("", id)
		c.JSON(http.StatusOK, gin.H{
			"room":         info.Room,
			"is_live":      info.IsLive,
			"viewer_count": info.ViewerCount,
		})
	})

	api.POST("/rooms/:id/status", requireAdmin(resolver), func(c *gin.Context) {
		var req struct {
			IsLive *bool `json:"is_live"`
		}
		if err := c.BindJSON(&req); err != nil || req.IsLive == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing is_live"})
			return
		}
		id := domain.RoomID(c.Param("id"))
		if _, ok := gw.Rooms.Get(id); !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		changed := gw.SetLiveStatus(id, *req.IsLive)
		c.JSON(http.StatusOK, gin.H{"room": id, "is_live": *req.IsLive, "changed": changed})
	})
}
