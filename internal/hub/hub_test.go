package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gabble-chat/gabble/internal/schemas"
)

// attached creates a connectionless client already in the session table.
// Pumps are never started; frames pile up in the send queue for inspection.
func attached(t *testing.T, h *Hub) *Client {
	t.Helper()
	c := NewClient(nil, h, nil, "test")
	h.Attach(c)
	return c
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func queuedEvents(t *testing.T, c *Client) []string {
	t.Helper()
	events := []string{}
	for {
		select {
		case raw := <-c.send:
			var frame schemas.Frame
			require.NoError(t, json.Unmarshal(raw, &frame))
			events = append(events, frame.Event)
		default:
			return events
		}
	}
}

func TestRegisterTracksPresence(t *testing.T) {
	req := require.New(t)
	h := New(PolicyAllow, nil, 0)

	ann := attached(t, h)
	bob := attached(t, h)
	req.NoError(h.Register(ann, "ann"))
	req.NoError(h.Register(bob, "bob"))

	req.True(h.IsOnline("ann"))
	req.True(h.IsOnline("bob"))
	req.False(h.IsOnline("cara"))
	req.Equal([]string{"ann", "bob"}, h.OnlineIdentities())
}

func TestRegisterRejectsEmptyIdentity(t *testing.T) {
	req := require.New(t)
	h := New(PolicyAllow, nil, 0)

	c := attached(t, h)
	req.ErrorIs(h.Register(c, ""), ErrEmptyIdentity)
	req.Empty(h.OnlineIdentities())
}

func TestIdentityOfflineAfterLastDetach(t *testing.T) {
	req := require.New(t)
	h := New(PolicyAllow, nil, 0)

	first := attached(t, h)
	second := attached(t, h)
	req.NoError(h.Register(first, "ann"))
	req.NoError(h.Register(second, "ann"))
	req.True(h.IsOnline("ann"))

	h.Detach(first)
	req.True(h.IsOnline("ann"))

	h.Detach(second)
	req.False(h.IsOnline("ann"))
	req.Empty(h.OnlineIdentities())
}

func TestRebindRemovesPriorIdentity(t *testing.T) {
	req := require.New(t)
	h := New(PolicyAllow, nil, 0)

	c := attached(t, h)
	req.NoError(h.Register(c, "ann"))
	req.NoError(h.Register(c, "annika"))

	req.False(h.IsOnline("ann"))
	req.True(h.IsOnline("annika"))
	req.Equal("annika", c.Identity())
}

func TestPolicyRejectRefusesSecondLogin(t *testing.T) {
	req := require.New(t)
	h := New(PolicyReject, nil, 0)

	first := attached(t, h)
	second := attached(t, h)
	req.NoError(h.Register(first, "ann"))
	req.ErrorIs(h.Register(second, "ann"), ErrIdentityOnline)
	req.Empty(second.Identity())
}

func TestPolicyEvictReplacesPriorConnection(t *testing.T) {
	req := require.New(t)
	h := New(PolicyEvict, nil, 0)

	first := attached(t, h)
	second := attached(t, h)
	req.NoError(h.Register(first, "ann"))
	req.NoError(h.Register(second, "ann"))

	// the evicted transport unwinds through its read pump; simulate it
	h.Detach(first)
	req.True(h.IsOnline("ann"))
	req.Equal("ann", second.Identity())
}

func TestPublishGlobalReachesMembersOnly(t *testing.T) {
	req := require.New(t)
	h := New(PolicyAllow, nil, 0)

	member := attached(t, h)
	anonymous := attached(t, h)
	req.NoError(h.Register(member, "ann"))
	drain(member)

	h.PublishGlobal([]byte(`{"event":"x"}`))

	req.Equal([]string{"x"}, queuedEvents(t, member))
	req.Empty(queuedEvents(t, anonymous))
}

func TestPublishDirectDeliversOncePerConnection(t *testing.T) {
	req := require.New(t)
	h := New(PolicyAllow, nil, 0)

	ann := attached(t, h)
	bob := attached(t, h)
	cara := attached(t, h)
	req.NoError(h.Register(ann, "ann"))
	req.NoError(h.Register(bob, "bob"))
	req.NoError(h.Register(cara, "cara"))
	drain(ann)
	drain(bob)
	drain(cara)

	h.PublishDirect([]byte(`{"event":"x"}`), "ann", "bob")
	req.Equal([]string{"x"}, queuedEvents(t, ann))
	req.Equal([]string{"x"}, queuedEvents(t, bob))
	req.Empty(queuedEvents(t, cara))

	// self-messaging: overlapping personal channels still deliver once
	h.PublishDirect([]byte(`{"event":"y"}`), "ann", "ann")
	req.Equal([]string{"y"}, queuedEvents(t, ann))
}

func TestRegisterBroadcastsPresence(t *testing.T) {
	req := require.New(t)
	h := New(PolicyAllow, nil, 0)

	ann := attached(t, h)
	req.NoError(h.Register(ann, "ann"))
	drain(ann)

	bob := attached(t, h)
	req.NoError(h.Register(bob, "bob"))

	events := queuedEvents(t, ann)
	req.Contains(events, schemas.EventPresenceUpdate)
}

func TestPresenceEntriesWithRoster(t *testing.T) {
	req := require.New(t)
	h := New(PolicyAllow, []string{"ann", "bob"}, 0)

	ann := attached(t, h)
	req.NoError(h.Register(ann, "ann"))

	entries := h.PresenceEntries()
	req.Equal([]schemas.PresenceEntry{
		{Identity: "ann", IsOnline: true},
		{Identity: "bob", IsOnline: false},
	}, entries)
}

func TestPresenceEntriesWithoutRoster(t *testing.T) {
	req := require.New(t)
	h := New(PolicyAllow, nil, 0)

	bob := attached(t, h)
	ann := attached(t, h)
	req.NoError(h.Register(bob, "bob"))
	req.NoError(h.Register(ann, "ann"))

	entries := h.PresenceEntries()
	req.Equal([]schemas.PresenceEntry{
		{Identity: "ann", IsOnline: true},
		{Identity: "bob", IsOnline: true},
	}, entries)
}
