// Package handler wires gin HTTP routes to the session/coordinator
// core. It is the thin external collaborator kept out of the
// core: all it does is perform the WebSocket upgrade and hand the
// connection to a new Session.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"vimeet/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler upgrades GET /ws/:room/:name/ requests and runs one
// Session per connection.
type WebSocketHandler struct {
	Coordinator session.Coordinator
}

// Serve handles one upgrade request. room and name come straight from
// the URL path — there is no authentication, so the path
// is the sole identity claim.
func (h *WebSocketHandler) Serve(c *gin.Context) {
	room := c.Param("room")
	name := c.Param("name")
	if room == "" || name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sess := session.New(h.Coordinator, name, room)
	sess.Serve(conn)
}
