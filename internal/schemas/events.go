package schemas

import (
	"encoding/json"
	"fmt"
)

// Inbound event names.
const (
	EventLogin         = "login"
	EventJoinScope     = "joinScope"
	EventSendMessage   = "sendMessage"
	EventDeleteMessage = "deleteMessage"
	EventClearGlobal   = "clearGlobal"
	EventTypingStart   = "typingStart"
	EventTypingStop    = "typingStop"
)

// Outbound event names.
const (
	EventLoginAck       = "loginAck"
	EventPresenceUpdate = "presenceUpdate"
	EventHistoryResult  = "historyResult"
	EventMessageCreated = "messageCreated"
	EventMessageDeleted = "messageDeleted"
	EventGlobalCleared  = "globalCleared"
	EventTypingSignal   = "typingSignal"
	EventError          = "error"
)

// Frame is the wire shape of every event in both directions.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewFrame encodes an outbound event frame ready to be queued on a
// connection's send channel.
func NewFrame(event string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error encoding %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Payload: raw})
}

// LoginRequest binds the connection to a display identity.
type LoginRequest struct {
	Identity string `json:"identity" validate:"required"`
}

// JoinScopeRequest asks for the history of one scope.
type JoinScopeRequest struct {
	Scope  Scope  `json:"scope" validate:"required,oneof=global direct"`
	Target string `json:"target" validate:"required_if=Scope direct"`
}

// SendMessageRequest creates and routes a message.
type SendMessageRequest struct {
	Scope   Scope  `json:"scope" validate:"required,oneof=global direct"`
	Target  string `json:"target" validate:"required_if=Scope direct"`
	Body    string `json:"body" validate:"required"`
	Kind    Kind   `json:"kind" validate:"required,oneof=text image"`
	ReplyTo *int64 `json:"replyTo,omitempty"`
}

// DeleteMessageRequest deletes one message. The scope tag makes the delete
// unambiguous even though the two tables assign ids independently.
type DeleteMessageRequest struct {
	Id     int64  `json:"id" validate:"required"`
	Scope  Scope  `json:"scope" validate:"required,oneof=global direct"`
	Target string `json:"target" validate:"required_if=Scope direct"`
}

// TypingRequest marks the sender as typing (or no longer typing) in a scope.
type TypingRequest struct {
	Scope  Scope  `json:"scope" validate:"required,oneof=global direct"`
	Target string `json:"target" validate:"required_if=Scope direct"`
}

// PresenceEntry is one identity's liveness in a presenceUpdate frame.
type PresenceEntry struct {
	Identity string `json:"identity"`
	IsOnline bool   `json:"isOnline"`
}

// LoginAck confirms the identity a connection is now bound to.
type LoginAck struct {
	Identity string `json:"identity"`
}

// HistoryResult carries the windowed history of one scope.
type HistoryResult struct {
	Scope    Scope      `json:"scope"`
	Target   string     `json:"target,omitempty"`
	Messages []Envelope `json:"messages"`
}

// MessageDeleted announces a successful delete.
type MessageDeleted struct {
	Id    int64 `json:"id"`
	Scope Scope `json:"scope"`
}

// TypingSignal is the broadcast form of a typing start/stop.
type TypingSignal struct {
	Identity string `json:"identity"`
	Scope    Scope  `json:"scope"`
	Active   bool   `json:"active"`
}

// ErrorNotice tells the originating connection that an operation failed.
type ErrorNotice struct {
	Reason string `json:"reason"`
}
