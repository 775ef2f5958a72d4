// Package dispatcher runs the single-threaded accept loop: the producer
// side of the admission/dispatch subsystem. It never parses a request or
// writes a response — it only decides, via the admission queue, whether a
// freshly accepted socket gets a worker or gets closed immediately.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"

	"github.com/rs/zerolog"

	"http10admit/internal/admission"
)

// Dispatcher owns the listener and feeds accepted connections to the
// admission queue. Exactly one goroutine ever calls Serve for a given
// Dispatcher.
type Dispatcher struct {
	ln     net.Listener
	q      *admission.Queue
	nextID uint64
	log    zerolog.Logger
}

// New builds a Dispatcher that accepts on ln and admits into q.
func New(ln net.Listener, q *admission.Queue, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{ln: ln, q: q, log: log}
}

// Serve runs the accept loop until ctx is done or the listener is closed.
// It returns nil on a clean shutdown (listener closed because ctx was
// canceled) and a wrapped error for any other accept failure.
func (d *Dispatcher) Serve(ctx context.Context) error {
	for {
		conn, err := d.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("dispatcher: accept: %w", err)
		}
		d.admit(conn)
	}
}

func (d *Dispatcher) admit(conn net.Conn) {
	id := atomic.AddUint64(&d.nextID, 1)
	c := admission.NewConnection(conn, id)
	log := d.log.With().Uint64("request_id", c.RequestID).Str("trace_id", c.TraceID).Logger()

	res := d.q.TryAdmit(c)
	switch res.Outcome {
	case admission.Admitted:
		log.Debug().Msg("admission: admitted")
	case admission.Rejected:
		log.Debug().Msg("admission: rejected, closing with no response")
		closeNoResponse(res.Evicted, log)
	case admission.AdmittedAfterEviction:
		log.Debug().Int("evicted_count", len(res.Evicted)).Msg("admission: admitted after eviction")
		closeNoResponse(res.Evicted, log)
	}
}

// closeNoResponse closes every evicted connection without writing a
// single byte, matching the spec's "reset/EOF with zero bytes read"
// contract for a dropped socket.
func closeNoResponse(evicted []*admission.Connection, log zerolog.Logger) {
	for _, c := range evicted {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Uint64("evicted_request_id", c.RequestID).Msg("dispatcher: close on evicted connection failed")
		}
	}
}
