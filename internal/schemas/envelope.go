// Package schemas defines the canonical message envelope and the JSON event
// frames exchanged with clients. Storage column names never appear here;
// every row read from the store is normalized into an Envelope before it
// reaches routing or a client.
package schemas

// Scope selects the delivery set of a message.
type Scope string

const (
	// ScopeGlobal delivers to every authenticated connection.
	ScopeGlobal Scope = "global"
	// ScopeDirect delivers to exactly two identities: author and counterpart.
	ScopeDirect Scope = "direct"
)

// Kind tags the encoding of a message body.
type Kind string

const (
	KindText Kind = "text"
	// KindImage bodies carry the image as an encoded text payload.
	KindImage Kind = "image"
)

// Envelope is the canonical representation of a stored message. Ids are
// assigned by the store and increase monotonically per scope; the two scopes
// have independent id sequences.
type Envelope struct {
	Id          int64  `json:"id"`
	Author      string `json:"author"`
	Scope       Scope  `json:"scope"`
	Counterpart string `json:"counterpart,omitempty"`
	Body        string `json:"body"`
	Kind        Kind   `json:"kind"`
	CreatedAt   int64  `json:"createdAt"`
	ReplyTo     *int64 `json:"replyTo,omitempty"`
}
