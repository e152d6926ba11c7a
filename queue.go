package smtpsink

import (
	"crypto/rand"
	"sync"

	"github.com/oklog/ulid/v2"
)

// Queue is the process-wide, thread-safe capture queue described in
// §5: a FIFO of completed Messages. Producers (one per live
// connection) and consumers (test code) may act concurrently; Offer
// enqueues an entire per-connection transaction list atomically with
// respect to Snapshot and Poll, so an observer never sees a partial
// transaction.
type Queue struct {
	mu       sync.Mutex
	messages []*Message
}

// NewQueue returns an empty capture queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Offer appends an entire transaction's worth of Messages to the queue
// under a single critical section, and assigns each one a sortable ID.
// Called once per connection, with the full list collected by the
// Driver, never per-Message — this is what makes the append atomic
// with respect to Snapshot/Poll observers.
func (q *Queue) Offer(msgs []*Message) {
	if len(msgs) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, m := range msgs {
		m.setID(newMessageID())
		q.messages = append(q.messages, m)
	}
}

// Poll destructively drains and returns every Message currently queued.
func (q *Queue) Poll() []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.messages
	q.messages = nil
	return drained
}

// Snapshot returns a non-destructive copy of the queue's current contents.
func (q *Queue) Snapshot() []*Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*Message, len(q.messages))
	copy(out, q.messages)
	return out
}

// Clear empties the queue. Idempotent: clearing an empty queue is a no-op.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = nil
}

// Len returns the number of Messages currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

func newMessageID() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
