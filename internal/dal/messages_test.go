package dal

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gabble-chat/gabble/internal/db"
	"github.com/gabble-chat/gabble/internal/schemas"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func globalMessage(author, body string, createdAt int64) *schemas.Envelope {
	return &schemas.Envelope{
		Author:    author,
		Scope:     schemas.ScopeGlobal,
		Body:      body,
		Kind:      schemas.KindText,
		CreatedAt: createdAt,
	}
}

func directMessage(author, counterpart, body string, createdAt int64) *schemas.Envelope {
	return &schemas.Envelope{
		Author:      author,
		Scope:       schemas.ScopeDirect,
		Counterpart: counterpart,
		Body:        body,
		Kind:        schemas.KindText,
		CreatedAt:   createdAt,
	}
}

func TestGlobalRoundTrip(t *testing.T) {
	req := require.New(t)
	d := openTestDB(t)

	replyTo := int64(7)
	m := globalMessage("ann", "hello", 1000)
	m.ReplyTo = &replyTo
	req.NoError(InsertGlobal(d, m))
	req.Greater(m.Id, int64(0))

	rows, err := QueryGlobal(d, 0)
	req.NoError(err)
	req.Len(rows, 1)
	req.Equal(m.Id, rows[0].Id)
	req.Equal("ann", rows[0].Author)
	req.Equal("hello", rows[0].Body)
	req.Equal(schemas.KindText, rows[0].Kind)
	req.Equal(schemas.ScopeGlobal, rows[0].Scope)
	req.Equal(int64(1000), rows[0].CreatedAt)
	req.NotNil(rows[0].ReplyTo)
	req.Equal(int64(7), *rows[0].ReplyTo)
}

func TestGlobalIdsAscend(t *testing.T) {
	req := require.New(t)
	d := openTestDB(t)

	for _, body := range []string{"one", "two", "three"} {
		req.NoError(InsertGlobal(d, globalMessage("ann", body, 1000)))
	}

	rows, err := QueryGlobal(d, 0)
	req.NoError(err)
	req.Len(rows, 3)
	for i := 1; i < len(rows); i++ {
		req.Greater(rows[i].Id, rows[i-1].Id)
	}
}

func TestGlobalSinceFilter(t *testing.T) {
	req := require.New(t)
	d := openTestDB(t)

	req.NoError(InsertGlobal(d, globalMessage("ann", "old", 100)))
	req.NoError(InsertGlobal(d, globalMessage("ann", "new", 2000)))

	rows, err := QueryGlobal(d, 1000)
	req.NoError(err)
	req.Len(rows, 1)
	req.Equal("new", rows[0].Body)
}

func TestDirectDirectionAgnostic(t *testing.T) {
	req := require.New(t)
	d := openTestDB(t)

	req.NoError(InsertDirect(d, directMessage("ann", "bob", "hi bob", 1000)))
	req.NoError(InsertDirect(d, directMessage("bob", "ann", "hi ann", 1001)))
	req.NoError(InsertDirect(d, directMessage("ann", "cara", "hi cara", 1002)))

	forward, err := QueryDirect(d, "ann", "bob", 0)
	req.NoError(err)
	req.Len(forward, 2)
	req.Equal("hi bob", forward[0].Body)
	req.Equal("hi ann", forward[1].Body)

	reverse, err := QueryDirect(d, "bob", "ann", 0)
	req.NoError(err)
	req.Equal(forward, reverse)

	// a third identity's conversation with either party stays separate
	other, err := QueryDirect(d, "cara", "bob", 0)
	req.NoError(err)
	req.Empty(other)
}

func TestDeleteRequiresAuthor(t *testing.T) {
	req := require.New(t)
	d := openTestDB(t)

	m := globalMessage("ann", "mine", 1000)
	req.NoError(InsertGlobal(d, m))

	affected, err := DeleteGlobal(d, m.Id, "bob")
	req.NoError(err)
	req.Zero(affected)

	rows, err := QueryGlobal(d, 0)
	req.NoError(err)
	req.Len(rows, 1)
	req.Equal(*m, rows[0])

	affected, err = DeleteGlobal(d, m.Id, "ann")
	req.NoError(err)
	req.Equal(int64(1), affected)

	rows, err = QueryGlobal(d, 0)
	req.NoError(err)
	req.Empty(rows)
}

func TestDeleteDirectRequiresAuthor(t *testing.T) {
	req := require.New(t)
	d := openTestDB(t)

	m := directMessage("ann", "bob", "secret", 1000)
	req.NoError(InsertDirect(d, m))

	affected, err := DeleteDirect(d, m.Id, "bob")
	req.NoError(err)
	req.Zero(affected)

	affected, err = DeleteDirect(d, m.Id, "ann")
	req.NoError(err)
	req.Equal(int64(1), affected)
}

func TestClearGlobalLeavesDirect(t *testing.T) {
	req := require.New(t)
	d := openTestDB(t)

	req.NoError(InsertGlobal(d, globalMessage("ann", "one", 1000)))
	req.NoError(InsertGlobal(d, globalMessage("bob", "two", 1001)))
	req.NoError(InsertDirect(d, directMessage("ann", "bob", "kept", 1002)))

	cleared, err := ClearGlobal(d)
	req.NoError(err)
	req.Equal(int64(2), cleared)

	globals, err := QueryGlobal(d, 0)
	req.NoError(err)
	req.Empty(globals)

	directs, err := QueryDirect(d, "ann", "bob", 0)
	req.NoError(err)
	req.Len(directs, 1)
	req.Equal("kept", directs[0].Body)
}

func TestPurgeBefore(t *testing.T) {
	req := require.New(t)
	d := openTestDB(t)

	req.NoError(InsertGlobal(d, globalMessage("ann", "stale", 100)))
	req.NoError(InsertGlobal(d, globalMessage("ann", "fresh", 2000)))
	req.NoError(InsertDirect(d, directMessage("ann", "bob", "stale", 100)))
	req.NoError(InsertDirect(d, directMessage("ann", "bob", "fresh", 2000)))

	globals, err := PurgeGlobalBefore(d, 1000)
	req.NoError(err)
	req.Equal(int64(1), globals)

	directs, err := PurgeDirectBefore(d, 1000)
	req.NoError(err)
	req.Equal(int64(1), directs)

	remaining, err := QueryGlobal(d, 0)
	req.NoError(err)
	req.Len(remaining, 1)
	req.Equal("fresh", remaining[0].Body)
}
