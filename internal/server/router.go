package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vimeet/internal/coordinator"
	"vimeet/internal/handler"
)

// Deps are the router's external collaborators ("thin external
// collaborators" around the core coordinator).
type Deps struct {
	Coordinator *coordinator.Coordinator
	StaticDir   string
}

// NewRouter builds the gin engine that implements the HTTP surface:
// the root redirect, the WebSocket upgrade, and static asset serving.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/static/websocket.html")
	})

	wsHandler := &handler.WebSocketHandler{Coordinator: deps.Coordinator}
	r.GET("/ws/:room/:name/", wsHandler.Serve)

	staticDir := deps.StaticDir
	if staticDir == "" {
		staticDir = "static"
	}
	r.Static("/static", staticDir)

	return r
}
