package ili9341

import (
	"sync/atomic"
	"time"
)

// task is one wire command: an opcode byte followed by an optional payload.
// Tasks are immutable once committed; only finished payloads ever cross to
// the consumer side.
type task struct {
	cmd  byte
	data []byte
}

// taskQueue is a single-producer single-consumer ring buffer of pending wire
// tasks. head and tail advance modulo the capacity; one slot is always kept
// free so that head == tail unambiguously means empty and
// (tail+1)%cap == head means full. The producer only writes tail, the
// consumer only writes head, and each reads the other's cursor atomically,
// which gives the acquire/release pairing needed to hand slots across the
// goroutine boundary.
type taskQueue struct {
	slots []task
	head  atomic.Uint32 // next slot to consume
	tail  atomic.Uint32 // next slot to fill

	// bytes is the payload volume committed but not yet transferred,
	// used for the backpressure drain estimate.
	bytes atomic.Int64
}

func newTaskQueue(capacity int) *taskQueue {
	return &taskQueue{slots: make([]task, capacity)}
}

func (q *taskQueue) capacity() int {
	return len(q.slots)
}

// pending returns the number of committed, unconsumed tasks.
func (q *taskQueue) pending() int {
	head := q.head.Load()
	tail := q.tail.Load()
	n := uint32(len(q.slots))
	return int((tail + n - head) % n)
}

// queuedBytes returns the payload bytes awaiting transfer.
func (q *taskQueue) queuedBytes() int64 {
	return q.bytes.Load()
}

// push commits a task. It returns false when the queue is full; backpressure
// pacing is supposed to prevent that from ever happening, so callers treat a
// false return as a degraded frame, not an error.
func (q *taskQueue) push(t task) bool {
	tail := q.tail.Load()
	n := uint32(len(q.slots))
	next := (tail + 1) % n
	if next == q.head.Load() {
		return false
	}
	q.slots[tail] = t
	q.bytes.Add(int64(len(t.data)) + 1)
	q.tail.Store(next)
	return true
}

// peek returns the oldest task without consuming it. Consumer side only;
// the task remains pending until release() so that pending() reflects work
// still in flight on the bus.
func (q *taskQueue) peek() (task, bool) {
	head := q.head.Load()
	if head == q.tail.Load() {
		return task{}, false
	}
	return q.slots[head], true
}

// release consumes the task returned by the last peek. Consumer side only.
func (q *taskQueue) release() {
	head := q.head.Load()
	if head == q.tail.Load() {
		return
	}
	t := q.slots[head]
	q.slots[head] = task{} // drop the payload reference
	q.bytes.Add(-(int64(len(t.data)) + 1))
	q.head.Store((head + 1) % uint32(len(q.slots)))
}

// pop removes and returns the oldest task.
func (q *taskQueue) pop() (task, bool) {
	t, ok := q.peek()
	if ok {
		q.release()
	}
	return t, ok
}

// drainEstimate converts the queued byte count into the time the bus needs
// to empty the queue at usecsPerByte.
func (q *taskQueue) drainEstimate(usecsPerByte float64) time.Duration {
	return time.Duration(float64(q.queuedBytes()) * usecsPerByte * float64(time.Microsecond))
}

// spanExceeds reports whether the unconsumed region extends past mark, where
// mark is a tail cursor captured at some earlier frame boundary. Used to
// count how many submitted frames are still in flight.
func (q *taskQueue) spanExceeds(mark uint32) bool {
	head := q.head.Load()
	tail := q.tail.Load()
	n := uint32(len(q.slots))
	return (tail+n-head)%n > (tail+n-mark)%n
}
