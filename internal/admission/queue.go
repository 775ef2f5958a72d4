package admission

import (
	"math/rand"
	"sync"
	"time"

	"github.com/ef-ds/deque"
	"github.com/rs/zerolog"
)

// Outcome classifies the result of a TryAdmit call.
type Outcome int

const (
	// Admitted means the new connection was enqueued; Evicted is empty.
	Admitted Outcome = iota
	// Rejected means the new connection was not admitted; Evicted holds
	// exactly that connection, which the caller must close without
	// writing a response.
	Rejected
	// AdmittedAfterEviction means the new connection was enqueued after
	// evicting Evicted to make room; the caller must close each of them
	// without writing a response.
	AdmittedAfterEviction
)

// AdmitResult is the return value of TryAdmit.
type AdmitResult struct {
	Outcome Outcome
	Evicted []*Connection
}

// Queue is the bounded admission queue: an ordered, capacity-limited
// sequence of pending Connection records plus an occupancy counter
// (pending + active) that — not queue length alone — gates admission.
//
// The pending FIFO is a double-ended queue (github.com/ef-ds/deque) so
// drop-head can pop the oldest pending record in O(1) and drop-random can
// drain/rebuild it around a Fisher–Yates selection. One mutex serializes
// every operation; two condition variables share it, exactly as the
// design calls for: notEmpty (dequeue waits on it, any admission signals
// it) and notFull (a block-mode producer waits on it, complete signals
// it).
type Queue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	capacity int
	policy   Policy
	pending  deque.Deque
	active   int

	rng *rand.Rand
	log zerolog.Logger
}

// NewQueue creates a Queue with the given capacity and fixed policy.
func NewQueue(capacity int, policy Policy, log zerolog.Logger) *Queue {
	q := &Queue{
		capacity: capacity,
		policy:   policy,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		log:      log,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// occupancyLocked returns pending + active. Caller must hold q.mu.
func (q *Queue) occupancyLocked() int {
	return q.pending.Len() + q.active
}

// TryAdmit decides the fate of a newly accepted connection per the
// configured policy. It is atomic with respect to the occupancy counter:
// no dequeue or complete can interleave with the decision.
func (q *Queue) TryAdmit(c *Connection) AdmitResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.policy == Block && q.occupancyLocked() >= q.capacity {
		q.notFull.Wait()
	}

	if q.occupancyLocked() < q.capacity {
		q.pushLocked(c)
		return AdmitResult{Outcome: Admitted}
	}

	switch q.policy {
	case DropTail:
		q.log.Debug().Uint64("request_id", c.RequestID).Msg("admission: drop-tail reject")
		return AdmitResult{Outcome: Rejected, Evicted: []*Connection{c}}

	case DropHead:
		if q.pending.Len() == 0 {
			return AdmitResult{Outcome: Rejected, Evicted: []*Connection{c}}
		}
		oldest := q.popFrontLocked()
		q.pushLocked(c)
		q.log.Debug().Uint64("evicted_request_id", oldest.RequestID).Msg("admission: drop-head eviction")
		return AdmitResult{Outcome: AdmittedAfterEviction, Evicted: []*Connection{oldest}}

	case DropRandom:
		k := (q.pending.Len() + 1) / 2 // ceil(pending/2)
		if k == 0 {
			return AdmitResult{Outcome: Rejected, Evicted: []*Connection{c}}
		}
		evicted := q.evictRandomLocked(k)
		q.pushLocked(c)
		q.log.Debug().Int("evicted_count", len(evicted)).Msg("admission: drop-random eviction batch")
		return AdmitResult{Outcome: AdmittedAfterEviction, Evicted: evicted}

	default: // Block: unreachable here, the wait loop above only exits with room available.
		q.pushLocked(c)
		return AdmitResult{Outcome: Admitted}
	}
}

// pushLocked admits c onto the back of the pending FIFO and wakes one
// waiting worker. Caller must hold q.mu.
func (q *Queue) pushLocked(c *Connection) {
	q.pending.PushBack(c)
	q.notEmpty.Signal()
}

// popFrontLocked removes and returns the oldest pending connection.
// Caller must hold q.mu and have verified q.pending.Len() > 0.
func (q *Queue) popFrontLocked() *Connection {
	v, _ := q.pending.PopFront()
	return v.(*Connection)
}

// evictRandomLocked drains the pending deque, selects k indices via a
// Fisher–Yates partial shuffle, removes those k connections, and rebuilds
// the deque from the survivors in their original relative order. Caller
// must hold q.mu.
func (q *Queue) evictRandomLocked(k int) []*Connection {
	n := q.pending.Len()
	items := make([]*Connection, 0, n)
	for {
		v, ok := q.pending.PopFront()
		if !ok {
			break
		}
		items = append(items, v.(*Connection))
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	q.rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	evict := make(map[int]bool, k)
	for i := 0; i < k; i++ {
		evict[idx[i]] = true
	}

	evicted := make([]*Connection, 0, k)
	for i, item := range items {
		if evict[i] {
			evicted = append(evicted, item)
		} else {
			q.pending.PushBack(item)
		}
	}
	return evicted
}

// Dequeue suspends until at least one connection is pending, then
// atomically moves the oldest one from pending to active. Occupancy is
// unchanged across the move.
func (q *Queue) Dequeue() *Connection {
	q.mu.Lock()
	defer q.mu.Unlock()
	for q.pending.Len() == 0 {
		q.notEmpty.Wait()
	}
	c := q.popFrontLocked()
	q.active++
	return c
}

// Complete is called by a worker immediately after its response has been
// fully written and the socket closed. It releases the active slot and
// wakes one block-mode producer, if any is waiting.
func (q *Queue) Complete() {
	q.mu.Lock()
	q.active--
	q.mu.Unlock()
	q.notFull.Signal()
}

// Occupancy, Pending and Active report a point-in-time snapshot, useful
// for tests and operational metrics.
func (q *Queue) Occupancy() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.occupancyLocked()
}

func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}

func (q *Queue) Active() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active
}

func (q *Queue) Capacity() int { return q.capacity }

func (q *Queue) Policy() Policy { return q.policy }
