package channel

import (
	"errors"
	"sync"
	"time"
)

// ErrChannelClosed is returned when sending on a closed queue, or when
// receiving from a queue that is closed and fully drained.
var ErrChannelClosed = errors.New("channel is closed")

// initialCapacity is the ring buffer size allocated by New.
const initialCapacity = 16

// Queue is an unbounded multi-producer, multi-consumer FIFO.
//
// Send never blocks. Receive blocks until a value is available or the queue
// has been closed and drained. Each sent value is delivered to exactly one
// receiver.
type Queue[T any] interface {
	// Send appends a value to the tail of the queue.
	Send(value T) error

	// Receive removes and returns the value at the head of the queue,
	// blocking while the queue is empty and open.
	Receive() (T, error)

	// TryReceive removes the head value without blocking.
	// The boolean is false when no value was available.
	TryReceive() (T, bool, error)

	// Close closes the queue for sending. Values already queued remain
	// receivable. Close is idempotent.
	Close() error

	// IsClosed returns true if the queue is closed.
	IsClosed() bool

	// Len returns the current number of queued values.
	Len() int

	// Stats returns queue statistics.
	Stats() Stats
}

// Stats holds statistics about queue usage.
type Stats struct {
	// SendCount is the total number of accepted values.
	SendCount int64

	// ReceiveCount is the total number of delivered values.
	ReceiveCount int64

	// HighWatermark is the largest queue length observed.
	HighWatermark int

	// LastSendTime is the timestamp of the last accepted send.
	LastSendTime time.Time

	// LastReceiveTime is the timestamp of the last delivered value.
	LastReceiveTime time.Time
}

// unboundedQueue implements Queue with a growable ring buffer.
type unboundedQueue[T any] struct {
	mu       sync.Mutex
	recvCond *sync.Cond

	buffer []T
	head   int
	count  int
	closed bool

	stats Stats
}

// New creates an empty, open Queue.
func New[T any]() Queue[T] {
	q := &unboundedQueue[T]{
		buffer: make([]T, initialCapacity),
	}
	q.recvCond = sync.NewCond(&q.mu)
	return q
}

// Send implements Queue.Send.
func (q *unboundedQueue[T]) Send(value T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrChannelClosed
	}

	if q.count == len(q.buffer) {
		q.growLocked()
	}
	q.buffer[(q.head+q.count)%len(q.buffer)] = value
	q.count++

	q.stats.SendCount++
	q.stats.LastSendTime = time.Now()
	if q.count > q.stats.HighWatermark {
		q.stats.HighWatermark = q.count
	}

	q.recvCond.Signal()
	return nil
}

// Receive implements Queue.Receive.
func (q *unboundedQueue[T]) Receive() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.recvCond.Wait()
	}

	if q.count == 0 {
		var zero T
		return zero, ErrChannelClosed
	}

	return q.removeLocked(), nil
}

// TryReceive implements Queue.TryReceive.
func (q *unboundedQueue[T]) TryReceive() (T, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if q.count == 0 {
		if q.closed {
			return zero, false, ErrChannelClosed
		}
		return zero, false, nil
	}

	return q.removeLocked(), true, nil
}

// Close implements Queue.Close.
func (q *unboundedQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.recvCond.Broadcast()

	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *unboundedQueue[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len implements Queue.Len.
func (q *unboundedQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Stats implements Queue.Stats.
func (q *unboundedQueue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// removeLocked pops the head value (must hold lock, count > 0).
func (q *unboundedQueue[T]) removeLocked() T {
	value := q.buffer[q.head]
	var zero T
	q.buffer[q.head] = zero // Clear reference
	q.head = (q.head + 1) % len(q.buffer)
	q.count--

	q.stats.ReceiveCount++
	q.stats.LastReceiveTime = time.Now()

	return value
}

// growLocked doubles the buffer, unwrapping the ring so head is at 0 (must hold lock).
func (q *unboundedQueue[T]) growLocked() {
	grown := make([]T, len(q.buffer)*2)
	n := copy(grown, q.buffer[q.head:])
	copy(grown[n:], q.buffer[:q.head])
	q.buffer = grown
	q.head = 0
}
