// Package hub tracks live connections, their bound identities, and channel
// membership, and fans outbound frames onto them. It is the single routing
// authority: one Hub owns every connection in the process.
package hub

import (
	"errors"
	"log"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/gabble-chat/gabble/internal/schemas"
)

// LoginPolicy decides what happens when an identity that is already online
// logs in again on a new connection.
type LoginPolicy string

const (
	// PolicyAllow adds a second live connection for the identity.
	PolicyAllow LoginPolicy = "allow"
	// PolicyEvict closes the identity's prior connections first.
	PolicyEvict LoginPolicy = "evict"
	// PolicyReject refuses the new login.
	PolicyReject LoginPolicy = "reject"
)

var (
	// ErrEmptyIdentity rejects registration without a display name.
	ErrEmptyIdentity = errors.New("empty identity")
	// ErrIdentityOnline is returned under PolicyReject when the identity
	// already has a live connection.
	ErrIdentityOnline = errors.New("identity already online")
)

// Hub is the connection registry and routing fabric. All membership state is
// guarded by one mutex so a routing read never observes a half-updated
// membership set. No other component keeps a copy of this mapping.
type Hub struct {
	mu sync.RWMutex

	// every open connection, authenticated or not
	sessions map[*Client]struct{}
	// the global channel: every authenticated connection
	members map[*Client]struct{}
	// personal channels: identity -> connections currently bound to it
	personal map[string]map[*Client]struct{}

	policy         LoginPolicy
	roster         []string
	maxMessageSize int64
}

// New creates a Hub. roster, when non-empty, fixes the set of identities
// reported in presence updates; otherwise only online identities appear.
func New(policy LoginPolicy, roster []string, maxMessageSize int64) *Hub {
	if policy == "" {
		policy = PolicyAllow
	}
	return &Hub{
		sessions:       make(map[*Client]struct{}),
		members:        make(map[*Client]struct{}),
		personal:       make(map[string]map[*Client]struct{}),
		policy:         policy,
		roster:         roster,
		maxMessageSize: maxMessageSize,
	}
}

// Attach adds a freshly-opened connection to the session table. The
// connection joins no channels until it registers an identity.
func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	h.sessions[c] = struct{}{}
	h.mu.Unlock()
	log.Printf("connection %s attached from %s. total sessions: %d", c.id, c.addr, h.sessionCount())
}

// Register binds c to identity, adding it to the global channel and the
// identity's personal channel. Re-registering an already-bound connection
// removes its prior bindings first. Registration triggers a presence
// broadcast.
func (h *Hub) Register(c *Client, identity string) error {
	if identity == "" {
		return ErrEmptyIdentity
	}

	var evicted []*Client

	h.mu.Lock()
	if _, open := h.sessions[c]; !open {
		h.mu.Unlock()
		return errors.New("connection no longer attached")
	}

	if c.identity != identity {
		switch h.policy {
		case PolicyReject:
			if len(h.personal[identity]) > 0 {
				h.mu.Unlock()
				return ErrIdentityOnline
			}
		case PolicyEvict:
			for prior := range h.personal[identity] {
				evicted = append(evicted, prior)
			}
		}
	}

	h.removeBindingsLocked(c)
	c.identity = identity
	h.members[c] = struct{}{}
	if h.personal[identity] == nil {
		h.personal[identity] = make(map[*Client]struct{})
	}
	h.personal[identity][c] = struct{}{}
	h.mu.Unlock()

	// closing outside the lock; each eviction unwinds through Detach via the
	// evicted connection's own read pump
	for _, prior := range evicted {
		prior.Close()
	}

	log.Printf("connection %s registered as %q", c.id, identity)
	h.BroadcastPresence()
	return nil
}

// Detach removes the connection from the session table and from every
// channel, and closes its send queue. Called exactly once when the transport
// session ends. If the owning identity has no remaining connection it goes
// offline, which triggers a presence broadcast.
func (h *Hub) Detach(c *Client) {
	h.mu.Lock()
	_, wasAttached := h.sessions[c]
	delete(h.sessions, c)
	wasMember := h.removeBindingsLocked(c)
	alreadyClosed := c.closed
	c.closed = true
	h.mu.Unlock()

	if !alreadyClosed {
		close(c.send)
	}
	if wasAttached {
		log.Printf("connection %s detached. total sessions: %d", c.id, h.sessionCount())
	}
	if wasMember {
		h.BroadcastPresence()
	}
}

// removeBindingsLocked strips c from the global channel and its personal
// channel. Reports whether c was an authenticated member. Caller holds mu.
func (h *Hub) removeBindingsLocked(c *Client) bool {
	_, wasMember := h.members[c]
	delete(h.members, c)
	if c.identity != "" {
		if set := h.personal[c.identity]; set != nil {
			delete(set, c)
			if len(set) == 0 {
				delete(h.personal, c.identity)
			}
		}
	}
	return wasMember
}

// IsOnline reports whether identity has at least one live connection.
func (h *Hub) IsOnline(identity string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.personal[identity]) > 0
}

// OnlineIdentities returns the identities with at least one live connection,
// sorted for deterministic presence frames.
func (h *Hub) OnlineIdentities() []string {
	h.mu.RLock()
	online := lo.Keys(h.personal)
	h.mu.RUnlock()
	sort.Strings(online)
	return online
}

// PresenceEntries computes the current presence set. With a fixed roster each
// known identity is annotated online/offline; otherwise the set is exactly
// the online identities.
func (h *Hub) PresenceEntries() []schemas.PresenceEntry {
	online := h.OnlineIdentities()
	if len(h.roster) > 0 {
		return lo.Map(h.roster, func(identity string, _ int) schemas.PresenceEntry {
			return schemas.PresenceEntry{Identity: identity, IsOnline: lo.Contains(online, identity)}
		})
	}
	return lo.Map(online, func(identity string, _ int) schemas.PresenceEntry {
		return schemas.PresenceEntry{Identity: identity, IsOnline: true}
	})
}

// BroadcastPresence emits the full presence set to every authenticated
// connection. Full-set replacement on every change; there is no delta mode.
func (h *Hub) BroadcastPresence() {
	frame, err := schemas.NewFrame(schemas.EventPresenceUpdate, h.PresenceEntries())
	if err != nil {
		log.Printf("error encoding presence update: %v", err)
		return
	}
	h.PublishGlobal(frame)
}

// PublishGlobal delivers an encoded frame to every member of the global
// channel. Fire and forget: no acknowledgement, no retry.
func (h *Hub) PublishGlobal(frame []byte) {
	h.deliver(h.globalSnapshot(), frame)
}

// PublishDirect delivers an encoded frame once to every connection bound to
// either identity. Overlapping memberships (self-messaging) still produce a
// single delivery per connection.
func (h *Hub) PublishDirect(frame []byte, identityA, identityB string) {
	h.mu.RLock()
	union := make(map[*Client]struct{}, len(h.personal[identityA])+len(h.personal[identityB]))
	for c := range h.personal[identityA] {
		union[c] = struct{}{}
	}
	for c := range h.personal[identityB] {
		union[c] = struct{}{}
	}
	targets := lo.Keys(union)
	h.mu.RUnlock()

	h.deliver(targets, frame)
}

func (h *Hub) globalSnapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return lo.Keys(h.members)
}

func (h *Hub) deliver(targets []*Client, frame []byte) {
	for _, c := range targets {
		if !h.safeSend(c, frame) {
			// a full or closed send queue marks the connection dead; its read
			// pump unwinds the membership through Detach
			log.Printf("connection %s dropped a frame, closing", c.id)
			c.Close()
		}
	}
}

// safeSend queues frame on c without blocking. The membership check and the
// send happen under one read lock so Detach cannot close the queue mid-send.
func (h *Hub) safeSend(c *Client, frame []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, open := h.sessions[c]; !open || c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// CloseAll closes every live connection. Used during graceful shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	sessions := lo.Keys(h.sessions)
	h.mu.RUnlock()

	for _, c := range sessions {
		c.Close()
	}
	log.Printf("closed %d connections", len(sessions))
}

func (h *Hub) sessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}
