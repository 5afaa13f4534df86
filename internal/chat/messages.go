// Package chat implements the message lifecycle (create, delete, clear) and
// retention-windowed history reads on top of the data access layer.
package chat

import (
	"database/sql"
	"errors"
	"time"

	"github.com/gabble-chat/gabble/internal/dal"
	"github.com/gabble-chat/gabble/internal/schemas"
)

// ErrEmptyAuthor rejects message creation with no bound identity.
var ErrEmptyAuthor = errors.New("empty author")

// Manager owns the message lifecycle. It assigns creation timestamps,
// delegates durability to the store, and enforces authorship on delete.
type Manager struct {
	db  *sql.DB
	now func() time.Time
}

// NewManager creates a Manager backed by db.
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db, now: time.Now}
}

// Create persists a message and returns its canonical envelope, including the
// store-assigned id. Counterpart is only consulted for direct scope.
func (m *Manager) Create(author string, scope schemas.Scope, counterpart, body string, kind schemas.Kind, replyTo *int64) (*schemas.Envelope, error) {
	if author == "" {
		return nil, ErrEmptyAuthor
	}

	env := &schemas.Envelope{
		Author:    author,
		Scope:     scope,
		Body:      body,
		Kind:      kind,
		CreatedAt: m.now().Unix(),
		ReplyTo:   replyTo,
	}

	var err error
	switch scope {
	case schemas.ScopeDirect:
		env.Counterpart = counterpart
		err = dal.InsertDirect(m.db, env)
	default:
		err = dal.InsertGlobal(m.db, env)
	}
	if err != nil {
		return nil, err
	}
	return env, nil
}

// Delete removes the message with id from the given scope iff requester
// authored it. A miss (wrong id or wrong author) reports false with no error;
// the message, if any, stays intact.
func (m *Manager) Delete(requester string, id int64, scope schemas.Scope) (bool, error) {
	var (
		affected int64
		err      error
	)
	switch scope {
	case schemas.ScopeDirect:
		affected, err = dal.DeleteDirect(m.db, id, requester)
	default:
		affected, err = dal.DeleteGlobal(m.db, id, requester)
	}
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ClearGlobal wipes every global message. Who may invoke it is a policy
// decision made by the caller; direct messages are never affected.
func (m *Manager) ClearGlobal() (int64, error) {
	return dal.ClearGlobal(m.db)
}
