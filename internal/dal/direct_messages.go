package dal

import (
	"database/sql"
	"fmt"

	"github.com/gabble-chat/gabble/internal/schemas"
)

// InsertDirect appends a message to the direct table and fills in the id the
// store assigned to it.
func InsertDirect(db *sql.DB, m *schemas.Envelope) error {
	err := db.QueryRow(
		"INSERT INTO direct_messages (author, counterpart, body, kind, created_at, reply_to) VALUES (?, ?, ?, ?, ?, ?) RETURNING id",
		m.Author, m.Counterpart, m.Body, string(m.Kind), m.CreatedAt, m.ReplyTo,
	).Scan(&m.Id)
	if err != nil {
		return fmt.Errorf("error inserting direct message: %w", err)
	}
	return nil
}

// QueryDirect returns the conversation between identityA and identityB created
// at or after since, ascending by id. Direction-agnostic: rows authored by
// either party to the other match.
func QueryDirect(db *sql.DB, identityA, identityB string, since int64) ([]schemas.Envelope, error) {
	rows, err := db.Query(
		`SELECT id, author, counterpart, body, kind, created_at, reply_to FROM direct_messages
		 WHERE ((author = ? AND counterpart = ?) OR (author = ? AND counterpart = ?)) AND created_at >= ?
		 ORDER BY id ASC`,
		identityA, identityB, identityB, identityA, since,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying direct messages: %w", err)
	}
	defer rows.Close()

	messages := []schemas.Envelope{}
	for rows.Next() {
		var (
			m       schemas.Envelope
			kind    string
			replyTo sql.NullInt64
		)
		if err := rows.Scan(&m.Id, &m.Author, &m.Counterpart, &m.Body, &kind, &m.CreatedAt, &replyTo); err != nil {
			return nil, fmt.Errorf("error scanning direct message: %w", err)
		}
		m.Scope = schemas.ScopeDirect
		m.Kind = schemas.Kind(kind)
		if replyTo.Valid {
			m.ReplyTo = &replyTo.Int64
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DeleteDirect removes one direct message iff author wrote it.
func DeleteDirect(db *sql.DB, id int64, author string) (int64, error) {
	result, err := db.Exec("DELETE FROM direct_messages WHERE id = ? AND author = ?", id, author)
	if err != nil {
		return 0, fmt.Errorf("error deleting direct message: %w", err)
	}
	return result.RowsAffected()
}

// PurgeDirectBefore removes direct messages created before cutoff.
func PurgeDirectBefore(db *sql.DB, cutoff int64) (int64, error) {
	result, err := db.Exec("DELETE FROM direct_messages WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("error purging direct messages: %w", err)
	}
	return result.RowsAffected()
}
