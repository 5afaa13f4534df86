// package routes contains the exposed API endpoints
package routes

import (
	"github.com/gabble-chat/gabble/internal/chat"
	"github.com/gabble-chat/gabble/internal/hub"
)

// RouteHandler provides the dependencies for any endpoint, and is the reciever
// of the endpoint handling functions
type RouteHandler struct {
	hub      *hub.Hub
	messages *chat.Manager
	history  *chat.History

	// identities allowed to clear the global scope; empty means anyone
	admins []string
}

// NewRouteHandler creates the reciever for all endpoint handling functions
func NewRouteHandler(h *hub.Hub, messages *chat.Manager, history *chat.History, admins []string) *RouteHandler {
	return &RouteHandler{
		hub:      h,
		messages: messages,
		history:  history,
		admins:   admins,
	}
}
