// Package validation checks inbound event payloads before they reach the
// registry or the store. Invalid events are dropped by the caller; clients
// are not notified.
package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/gabble-chat/gabble/internal/schemas"
)

var validate = validator.New()

// ErrBlankIdentity rejects identities that are empty after trimming.
var ErrBlankIdentity = errors.New("blank identity")

// CheckLogin validates a login payload. Identities are opaque display names;
// the only requirement is that one is actually present.
func CheckLogin(req schemas.LoginRequest) error {
	if strings.TrimSpace(req.Identity) == "" {
		return ErrBlankIdentity
	}
	return validate.Struct(req)
}

// CheckJoinScope validates a history request. Direct scope requires a target.
func CheckJoinScope(req schemas.JoinScopeRequest) error {
	return validate.Struct(req)
}

// CheckSendMessage validates a message creation request.
func CheckSendMessage(req schemas.SendMessageRequest) error {
	return validate.Struct(req)
}

// CheckDeleteMessage validates a delete request. The scope tag is mandatory so
// the delete targets exactly one table.
func CheckDeleteMessage(req schemas.DeleteMessageRequest) error {
	return validate.Struct(req)
}

// CheckTyping validates a typing start/stop request.
func CheckTyping(req schemas.TypingRequest) error {
	return validate.Struct(req)
}
