// Package workerpool runs the fixed set of worker goroutines that drain
// the admission queue, invoke the request handler, and render accounting
// headers onto every response.
package workerpool

import (
	"bufio"
	"context"
	"time"

	"github.com/rs/zerolog"

	"http10admit/internal/accounting"
	"http10admit/internal/admission"
	"http10admit/internal/handler"
	"http10admit/internal/httpserver"
)

// worker holds one goroutine's private counters. They are incremented
// and read only by their owning goroutine — no cross-thread
// synchronization is needed or used, by design.
type worker struct {
	id      int
	total   uint64
	static  uint64
	dynamic uint64
}

// classifyAndIncrement bumps this worker's counters for a successful
// response and returns the post-increment snapshot. Error responses (the
// handler.KindError case) increment nothing and the pre-request values
// are returned instead.
func (w *worker) classifyAndIncrement(kind handler.Kind) (total, static, dynamic uint64) {
	switch kind {
	case handler.KindStatic:
		w.static++
		w.total++
	case handler.KindDynamic:
		w.dynamic++
		w.total++
	case handler.KindError:
		// no increment
	}
	return w.total, w.static, w.dynamic
}

// Pool is the fixed set of W worker goroutines.
type Pool struct {
	size int
	q    *admission.Queue
	h    *handler.Handler
	log  zerolog.Logger
}

// New builds a Pool of size workers draining q via h.
func New(size int, q *admission.Queue, h *handler.Handler, log zerolog.Logger) *Pool {
	return &Pool{size: size, q: q, h: h, log: log}
}

// Run launches all W worker goroutines. It returns immediately. A worker
// checks ctx only after finishing a request, and exits then if ctx is
// done; a worker waiting in Dequeue is not woken by ctx and stays blocked
// until another connection is admitted. There is no draining of the
// pending queue on shutdown.
func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.size; i++ {
		go p.loop(ctx, i)
	}
}

func (p *Pool) loop(ctx context.Context, id int) {
	w := &worker{id: id}
	log := p.log.With().Int("thread_id", id).Logger()
	for {
		c := p.q.Dequeue()
		dispatchTime := time.Since(c.ArrivalTime)
		p.handleOne(ctx, w, log, c, dispatchTime)

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (p *Pool) handleOne(ctx context.Context, w *worker, log zerolog.Logger, c *admission.Connection, dispatchTime time.Duration) {
	defer func() {
		_ = c.Close()
		p.q.Complete()
	}()

	reader := bufio.NewReader(c.Conn)
	req, err := httpserver.ParseRequest(reader)
	if err != nil {
		log.Warn().Err(err).Uint64("request_id", c.RequestID).Str("trace_id", c.TraceID).Msg("malformed request on admitted connection")
		return
	}

	resp := p.h.Handle(ctx, req.Method, req.Target)
	total, static, dynamic := w.classifyAndIncrement(resp.Kind)

	headers := accounting.Headers(accounting.Snapshot{
		Arrival:      c.ArrivalTime,
		DispatchTime: dispatchTime,
		ThreadID:     w.id,
		Total:        total,
		Static:       static,
		Dynamic:      dynamic,
	})

	if err := httpserver.WriteResponse(c.Conn, resp.Status, resp.ContentType, resp.Body, headers); err != nil {
		log.Warn().Err(err).Uint64("request_id", c.RequestID).Msg("write failed mid-response")
	}
}
