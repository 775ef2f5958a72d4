package admission

import (
	"net"
	"time"

	"github.com/google/uuid"
)

// Connection carries a live client socket plus the accounting metadata
// the dispatcher stamps on it at accept time. It is exclusively owned by
// whichever component currently holds it: the dispatcher before submit,
// the queue while pending, a worker after dequeue.
type Connection struct {
	Conn        net.Conn
	ArrivalTime time.Time
	RequestID   uint64
	// TraceID correlates this connection's lifecycle across log lines.
	// It never appears on the wire — the six Stat-* headers are the only
	// accounting data a client observes.
	TraceID string
}

// NewConnection stamps ArrivalTime at the moment of acceptance, before
// any queue interaction, as required.
func NewConnection(conn net.Conn, requestID uint64) *Connection {
	return &Connection{
		Conn:        conn,
		ArrivalTime: time.Now(),
		RequestID:   requestID,
		TraceID:     uuid.NewString(),
	}
}

// Close closes the underlying socket. Safe to call more than once.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
