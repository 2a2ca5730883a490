package core

import "github.com/openmortal/mortalnet/internal/proto"

// EventKind tags the inputs the hub loop consumes.
type EventKind int

const (
	// EventJoin admits a freshly accepted connection.
	EventJoin EventKind = iota
	// EventMessage carries one parsed protocol line from a client.
	EventMessage
	// EventLeave removes a client whose reader has exited.
	EventLeave
	// EventReload re-reads the ban list and MOTD from disk.
	EventReload
)

// Event is the hub's sole mutation input. Join, Message and Leave carry the
// originating client; Reload carries nothing.
type Event struct {
	Kind   EventKind
	Client *Client
	Msg    *proto.Message
}
