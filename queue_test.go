package ili9341

import (
	"testing"
)

func TestQueueFIFO(t *testing.T) {
	q := newTaskQueue(8)

	// 6 tasks in, 6 out: pending returns to 0 and a subsequent enqueue
	// succeeds without wraparound corruption.
	for i := 0; i < 6; i++ {
		if !q.push(task{cmd: byte(i), data: []byte{byte(i)}}) {
			t.Fatalf("push %d failed", i)
		}
	}
	if got := q.pending(); got != 6 {
		t.Fatalf("pending = %d, want 6", got)
	}
	for i := 0; i < 6; i++ {
		tk, ok := q.pop()
		if !ok {
			t.Fatalf("pop %d failed", i)
		}
		if tk.cmd != byte(i) {
			t.Fatalf("pop %d returned cmd %d, want %d (FIFO violated)", i, tk.cmd, i)
		}
	}
	if got := q.pending(); got != 0 {
		t.Fatalf("pending = %d after drain, want 0", got)
	}
	if !q.push(task{cmd: 0xAA}) {
		t.Fatal("push after drain failed")
	}
	if tk, ok := q.pop(); !ok || tk.cmd != 0xAA {
		t.Fatalf("pop after wraparound = (%+v, %v)", tk, ok)
	}
}

func TestQueueFullKeepsOneSlotFree(t *testing.T) {
	q := newTaskQueue(4)
	for i := 0; i < 3; i++ {
		if !q.push(task{cmd: byte(i)}) {
			t.Fatalf("push %d failed", i)
		}
	}
	// Capacity 4 holds at most 3 tasks so empty and full stay
	// distinguishable.
	if q.push(task{cmd: 99}) {
		t.Fatal("push into full queue succeeded")
	}
	if got := q.pending(); got != 3 {
		t.Fatalf("pending = %d, want 3", got)
	}

	// Consuming one frees exactly one slot.
	if _, ok := q.pop(); !ok {
		t.Fatal("pop failed")
	}
	if !q.push(task{cmd: 3}) {
		t.Fatal("push after pop failed")
	}
	if q.push(task{cmd: 99}) {
		t.Fatal("queue accepted a task past capacity")
	}
}

func TestQueuePendingNeverExceedsCapacity(t *testing.T) {
	q := newTaskQueue(8)
	for i := 0; i < 100; i++ {
		q.push(task{cmd: byte(i)})
		if i%3 == 0 {
			q.pop()
		}
		if p := q.pending(); p >= q.capacity() {
			t.Fatalf("pending %d >= capacity %d", p, q.capacity())
		}
	}
}

func TestQueueBytesAccounting(t *testing.T) {
	q := newTaskQueue(8)
	q.push(task{cmd: 1, data: make([]byte, 10)})
	q.push(task{cmd: 2, data: make([]byte, 5)})
	// Each task costs its payload plus the opcode byte.
	if got := q.queuedBytes(); got != 17 {
		t.Fatalf("queuedBytes = %d, want 17", got)
	}

	// peek leaves the bytes pending until release.
	if _, ok := q.peek(); !ok {
		t.Fatal("peek failed")
	}
	if got := q.queuedBytes(); got != 17 {
		t.Fatalf("queuedBytes after peek = %d, want 17", got)
	}
	q.release()
	if got := q.queuedBytes(); got != 6 {
		t.Fatalf("queuedBytes after release = %d, want 6", got)
	}
	q.pop()
	if got := q.queuedBytes(); got != 0 {
		t.Fatalf("queuedBytes after drain = %d, want 0", got)
	}
}

func TestQueueSpanExceeds(t *testing.T) {
	q := newTaskQueue(16)

	// Frame 1: 3 tasks.
	for i := 0; i < 3; i++ {
		q.push(task{cmd: 1})
	}
	frame1End := q.tail.Load()
	// Frame 2: 3 tasks.
	for i := 0; i < 3; i++ {
		q.push(task{cmd: 2})
	}

	// Nothing consumed: the unconsumed region reaches back before the end
	// of frame 1, so both frames are still outstanding.
	if !q.spanExceeds(frame1End) {
		t.Error("expected outstanding work beyond the older frame boundary")
	}
	// Once frame 1 is fully consumed only frame 2 remains and the mark is
	// no longer exceeded.
	for i := 0; i < 3; i++ {
		q.pop()
	}
	if q.spanExceeds(frame1End) {
		t.Error("consumed frame still reported outstanding")
	}
}

func TestQueueWraparoundStress(t *testing.T) {
	q := newTaskQueue(8)
	next := byte(0)
	expect := byte(0)
	for i := 0; i < 1000; i++ {
		if q.push(task{cmd: next}) {
			next++
		}
		if i%2 == 1 {
			if tk, ok := q.pop(); ok {
				if tk.cmd != expect {
					t.Fatalf("iteration %d: got cmd %d, want %d", i, tk.cmd, expect)
				}
				expect++
			}
		}
	}
}
