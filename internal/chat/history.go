package chat

import (
	"database/sql"
	"time"

	"github.com/gabble-chat/gabble/internal/dal"
	"github.com/gabble-chat/gabble/internal/schemas"
)

// DefaultRetention bounds history reads when no window is configured.
const DefaultRetention = 14 * 24 * time.Hour

// History serves chronologically-ordered reads of one scope, bounded by the
// retention window.
type History struct {
	db        *sql.DB
	retention time.Duration
	now       func() time.Time
}

// NewHistory creates a History with the given retention window. A
// non-positive retention falls back to DefaultRetention.
func NewHistory(db *sql.DB, retention time.Duration) *History {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &History{db: db, retention: retention, now: time.Now}
}

// Read returns the envelopes visible to identity in the given scope, ascending
// by id, no older than the retention window. For direct scope the conversation
// with target is matched in both directions.
func (h *History) Read(scope schemas.Scope, identity, target string) ([]schemas.Envelope, error) {
	since := h.now().Add(-h.retention).Unix()
	if scope == schemas.ScopeDirect {
		return dal.QueryDirect(h.db, identity, target, since)
	}
	return dal.QueryGlobal(h.db, since)
}
