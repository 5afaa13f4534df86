package routes

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/samber/lo"

	"github.com/gabble-chat/gabble/internal/hub"
	"github.com/gabble-chat/gabble/internal/schemas"
	"github.com/gabble-chat/gabble/internal/validation"
)

// HandleFrame dispatches one inbound event from a connection. Invalid frames
// are dropped with a server-side log line and no client notification; store
// failures are logged and reported back to the originating connection only.
func (h *RouteHandler) HandleFrame(c *hub.Client, frame schemas.Frame) {
	if frame.Event == schemas.EventLogin {
		h.handleLogin(c, frame.Payload)
		return
	}

	identity := c.Identity()
	if identity == "" {
		log.Printf("dropping %s frame from anonymous connection", frame.Event)
		return
	}

	switch frame.Event {
	case schemas.EventJoinScope:
		h.handleJoinScope(c, identity, frame.Payload)
	case schemas.EventSendMessage:
		h.handleSendMessage(c, identity, frame.Payload)
	case schemas.EventDeleteMessage:
		h.handleDeleteMessage(c, identity, frame.Payload)
	case schemas.EventClearGlobal:
		h.handleClearGlobal(c, identity)
	case schemas.EventTypingStart:
		h.handleTyping(identity, frame.Payload, true)
	case schemas.EventTypingStop:
		h.handleTyping(identity, frame.Payload, false)
	default:
		log.Printf("unknown event %q from %q", frame.Event, identity)
	}
}

func (h *RouteHandler) handleLogin(c *hub.Client, payload json.RawMessage) {
	req, err := decode[schemas.LoginRequest](payload)
	if err != nil {
		log.Printf("dropping malformed login: %v", err)
		return
	}
	if err := validation.CheckLogin(req); err != nil {
		log.Printf("dropping login: %v", err)
		return
	}

	if err := h.hub.Register(c, req.Identity); err != nil {
		if errors.Is(err, hub.ErrIdentityOnline) {
			h.notifyError(c, "identity already online")
			c.Close()
			return
		}
		log.Printf("error registering %q: %v", req.Identity, err)
		return
	}

	if err := c.SendFrame(schemas.EventLoginAck, schemas.LoginAck{Identity: req.Identity}); err != nil {
		log.Printf("error acking login for %q: %v", req.Identity, err)
	}
}

func (h *RouteHandler) handleJoinScope(c *hub.Client, identity string, payload json.RawMessage) {
	req, err := decode[schemas.JoinScopeRequest](payload)
	if err != nil {
		log.Printf("dropping malformed joinScope from %q: %v", identity, err)
		return
	}
	if err := validation.CheckJoinScope(req); err != nil {
		log.Printf("dropping joinScope from %q: %v", identity, err)
		return
	}

	messages, err := h.history.Read(req.Scope, identity, req.Target)
	if err != nil {
		log.Printf("error reading %s history for %q: %v", req.Scope, identity, err)
		h.notifyError(c, "history unavailable")
		return
	}

	result := schemas.HistoryResult{Scope: req.Scope, Target: req.Target, Messages: messages}
	if err := c.SendFrame(schemas.EventHistoryResult, result); err != nil {
		log.Printf("error sending history to %q: %v", identity, err)
	}
}

func (h *RouteHandler) handleSendMessage(c *hub.Client, identity string, payload json.RawMessage) {
	req, err := decode[schemas.SendMessageRequest](payload)
	if err != nil {
		log.Printf("dropping malformed sendMessage from %q: %v", identity, err)
		return
	}
	if err := validation.CheckSendMessage(req); err != nil {
		log.Printf("dropping sendMessage from %q: %v", identity, err)
		return
	}

	env, err := h.messages.Create(identity, req.Scope, req.Target, req.Body, req.Kind, req.ReplyTo)
	if err != nil {
		log.Printf("error persisting message from %q: %v", identity, err)
		h.notifyError(c, "message not saved")
		return
	}

	frame, err := schemas.NewFrame(schemas.EventMessageCreated, env)
	if err != nil {
		log.Printf("error encoding messageCreated: %v", err)
		return
	}
	h.route(frame, env.Scope, identity, env.Counterpart)
}

func (h *RouteHandler) handleDeleteMessage(c *hub.Client, identity string, payload json.RawMessage) {
	req, err := decode[schemas.DeleteMessageRequest](payload)
	if err != nil {
		log.Printf("dropping malformed deleteMessage from %q: %v", identity, err)
		return
	}
	if err := validation.CheckDeleteMessage(req); err != nil {
		log.Printf("dropping deleteMessage from %q: %v", identity, err)
		return
	}

	deleted, err := h.messages.Delete(identity, req.Id, req.Scope)
	if err != nil {
		log.Printf("error deleting message %d for %q: %v", req.Id, identity, err)
		h.notifyError(c, "delete failed")
		return
	}
	if !deleted {
		// wrong id or wrong author; the message, if any, stays intact
		return
	}

	frame, err := schemas.NewFrame(schemas.EventMessageDeleted, schemas.MessageDeleted{Id: req.Id, Scope: req.Scope})
	if err != nil {
		log.Printf("error encoding messageDeleted: %v", err)
		return
	}
	h.route(frame, req.Scope, identity, req.Target)
}

func (h *RouteHandler) handleClearGlobal(c *hub.Client, identity string) {
	if len(h.admins) > 0 && !lo.Contains(h.admins, identity) {
		log.Printf("ignoring clearGlobal from non-admin %q", identity)
		return
	}

	cleared, err := h.messages.ClearGlobal()
	if err != nil {
		log.Printf("error clearing global scope for %q: %v", identity, err)
		h.notifyError(c, "clear failed")
		return
	}
	log.Printf("%q cleared the global scope (%d messages)", identity, cleared)

	frame, err := schemas.NewFrame(schemas.EventGlobalCleared, struct{}{})
	if err != nil {
		log.Printf("error encoding globalCleared: %v", err)
		return
	}
	h.hub.PublishGlobal(frame)
}

func (h *RouteHandler) handleTyping(identity string, payload json.RawMessage, active bool) {
	req, err := decode[schemas.TypingRequest](payload)
	if err != nil {
		log.Printf("dropping malformed typing frame from %q: %v", identity, err)
		return
	}
	if err := validation.CheckTyping(req); err != nil {
		log.Printf("dropping typing frame from %q: %v", identity, err)
		return
	}

	signal := schemas.TypingSignal{Identity: identity, Scope: req.Scope, Active: active}
	frame, err := schemas.NewFrame(schemas.EventTypingSignal, signal)
	if err != nil {
		log.Printf("error encoding typingSignal: %v", err)
		return
	}
	h.route(frame, req.Scope, identity, req.Target)
}

// route fans an encoded frame out to the delivery set of a scope.
func (h *RouteHandler) route(frame []byte, scope schemas.Scope, author, counterpart string) {
	if scope == schemas.ScopeDirect {
		h.hub.PublishDirect(frame, author, counterpart)
		return
	}
	h.hub.PublishGlobal(frame)
}

func (h *RouteHandler) notifyError(c *hub.Client, reason string) {
	if err := c.SendFrame(schemas.EventError, schemas.ErrorNotice{Reason: reason}); err != nil {
		log.Printf("error notifying connection: %v", err)
	}
}

func decode[T any](payload json.RawMessage) (T, error) {
	var data T
	if len(payload) == 0 {
		return data, errors.New("missing payload")
	}
	err := json.Unmarshal(payload, &data)
	return data, err
}
