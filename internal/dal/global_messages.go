// package dal is the data access layer. It contains functions that perform SQL
// queries and logic that cannot be decoupled from the queries. Files correspond
// to SQL tables
package dal

import (
	"database/sql"
	"fmt"

	"github.com/gabble-chat/gabble/internal/schemas"
)

// InsertGlobal appends a message to the global table and fills in the id the
// store assigned to it.
func InsertGlobal(db *sql.DB, m *schemas.Envelope) error {
	err := db.QueryRow(
		"INSERT INTO global_messages (author, body, kind, created_at, reply_to) VALUES (?, ?, ?, ?, ?) RETURNING id",
		m.Author, m.Body, string(m.Kind), m.CreatedAt, m.ReplyTo,
	).Scan(&m.Id)
	if err != nil {
		return fmt.Errorf("error inserting global message: %w", err)
	}
	return nil
}

// QueryGlobal returns every global message created at or after since,
// ascending by id.
func QueryGlobal(db *sql.DB, since int64) ([]schemas.Envelope, error) {
	rows, err := db.Query(
		"SELECT id, author, body, kind, created_at, reply_to FROM global_messages WHERE created_at >= ? ORDER BY id ASC",
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("error querying global messages: %w", err)
	}
	defer rows.Close()

	messages := []schemas.Envelope{}
	for rows.Next() {
		var (
			m       schemas.Envelope
			kind    string
			replyTo sql.NullInt64
		)
		if err := rows.Scan(&m.Id, &m.Author, &m.Body, &kind, &m.CreatedAt, &replyTo); err != nil {
			return nil, fmt.Errorf("error scanning global message: %w", err)
		}
		m.Scope = schemas.ScopeGlobal
		m.Kind = schemas.Kind(kind)
		if replyTo.Valid {
			m.ReplyTo = &replyTo.Int64
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// DeleteGlobal removes one global message iff author wrote it. The authorship
// condition lives in the statement itself so it can never be checked against
// stale state.
func DeleteGlobal(db *sql.DB, id int64, author string) (int64, error) {
	result, err := db.Exec("DELETE FROM global_messages WHERE id = ? AND author = ?", id, author)
	if err != nil {
		return 0, fmt.Errorf("error deleting global message: %w", err)
	}
	return result.RowsAffected()
}

// ClearGlobal wipes the global table and reports how many rows it removed.
// Direct messages are never touched.
func ClearGlobal(db *sql.DB) (int64, error) {
	result, err := db.Exec("DELETE FROM global_messages")
	if err != nil {
		return 0, fmt.Errorf("error clearing global messages: %w", err)
	}
	return result.RowsAffected()
}

// PurgeGlobalBefore removes global messages created before cutoff.
func PurgeGlobalBefore(db *sql.DB, cutoff int64) (int64, error) {
	result, err := db.Exec("DELETE FROM global_messages WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("error purging global messages: %w", err)
	}
	return result.RowsAffected()
}
