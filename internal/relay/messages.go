package relay

import "endless-runner/internal/protocol"

// Conn is one connected client as seen by the relay. Send must not block
// for long; the transport owns buffering.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Join registers a new connection. The assigned id comes back on Reply;
// an empty id means the init frame could not be delivered.
type Join struct {
	Conn  Conn
	Reply chan<- JoinResult
}

type JoinResult struct {
	PlayerID string
}

// Message is a decoded event from a registered player.
type Message struct {
	PlayerID string
	Event    protocol.ClientEvent
}

// Leave is issued when a connection closes.
type Leave struct {
	PlayerID string
}

// Query asks for a read-only snapshot of the registry.
type Query struct {
	Reply chan<- Snapshot
}

// Snapshot is the registry as seen between two commands.
type Snapshot struct {
	Players         []protocol.PlayerState `json:"players"`
	RecentObstacles int                    `json:"recentObstacles"`
	Relayed         uint64                 `json:"relayed"`
}
