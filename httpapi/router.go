package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	wstransport "chat-relay/transport/ws"
)

// SetupRouter mounts the REST endpoints and the realtime WebSocket
// endpoint on one gin engine.
func SetupRouter(ctx context.Context, api *API, realtime *wstransport.Handler, debug bool) *gin.Engine {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if debug {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	group := r.Group("/api")
	group.POST("/register", api.register)
	group.POST("/login", api.login)
	group.GET("/users/:me", api.listUsers)
	group.GET("/users/:me/groups", api.listGroups)
	group.POST("/groups", api.createGroup)
	group.GET("/messages/:me/:peer", api.messageHistory)
	group.GET("/healthz", api.healthz)

	r.GET("/ws", func(c *gin.Context) {
		realtime.Handle(ctx, c)
	})

	return r
}
