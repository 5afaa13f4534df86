package routes

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/gabble-chat/gabble/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     checkOrigin,
}

// ChatWS upgrades the request to a websocket, attaches the connection to the
// hub, and runs the pumps. The connection stays anonymous until its first
// login frame.
func (h *RouteHandler) ChatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := hub.NewClient(conn, h.hub, h, r.RemoteAddr)
	h.hub.Attach(client)

	go client.WritePump()
	client.ReadPump()
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}
