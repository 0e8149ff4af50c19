// Package workqueue provides the bounded blocking queues that feed the
// resolution workers, and the side set used to avoid scheduling the
// same key twice.
package workqueue

import (
	"context"
	"sync"
)

// Queue is a bounded FIFO. Enqueue blocks while the queue is full and
// Dequeue blocks while it is empty. Clear drops everything and releases
// blocked producers with a discard.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      []T
	head     int
	count    int
	gen      uint64 // bumped by Clear; blocked producers compare against it
	closed   bool
}

// New creates a queue holding at most capacity tokens.
func New[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue[T]{buf: make([]T, capacity)}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// wakeOnDone broadcasts both conditions when ctx ends so waiters can
// observe cancellation.
func (q *Queue[T]) wakeOnDone(ctx context.Context) func() bool {
	return context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.notEmpty.Broadcast()
		q.notFull.Broadcast()
		q.mu.Unlock()
	})
}

// Enqueue appends t, blocking while the queue is full. It returns false
// when the token was discarded: Clear ran while waiting, ctx ended, or
// the queue is closed.
func (q *Queue[T]) Enqueue(ctx context.Context, t T) bool {
	stop := q.wakeOnDone(ctx)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	gen := q.gen
	for q.count == len(q.buf) {
		if q.closed || ctx.Err() != nil || q.gen != gen {
			return false
		}
		q.notFull.Wait()
	}
	if q.closed || ctx.Err() != nil || q.gen != gen {
		return false
	}
	q.pushLocked(t)
	return true
}

// TryEnqueue appends t only if there is room. It never blocks.
func (q *Queue[T]) TryEnqueue(t T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.count == len(q.buf) {
		return false
	}
	q.pushLocked(t)
	return true
}

func (q *Queue[T]) pushLocked(t T) {
	q.buf[(q.head+q.count)%len(q.buf)] = t
	q.count++
	q.notEmpty.Signal()
}

// Dequeue removes the oldest token, blocking until one is available.
// It returns false when ctx ends or the queue is closed.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, bool) {
	stop := q.wakeOnDone(ctx)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for q.count == 0 {
		if q.closed || ctx.Err() != nil {
			var zero T
			return zero, false
		}
		q.notEmpty.Wait()
	}
	if ctx.Err() != nil {
		var zero T
		return zero, false
	}
	return q.popLocked(), true
}

// TryDequeue removes the oldest token if there is one.
func (q *Queue[T]) TryDequeue() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count == 0 {
		var zero T
		return zero, false
	}
	return q.popLocked(), true
}

func (q *Queue[T]) popLocked() T {
	var zero T
	t := q.buf[q.head]
	q.buf[q.head] = zero
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	q.notFull.Signal()
	return t
}

// Clear empties the queue and returns how many tokens were dropped.
// Producers blocked at capacity return with a discard.
func (q *Queue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := q.count
	q.resetLocked()
	q.gen++
	q.notFull.Broadcast()
	return n
}

// Drain empties the queue and returns the removed tokens in FIFO order.
func (q *Queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]T, 0, q.count)
	for i := 0; i < q.count; i++ {
		out = append(out, q.buf[(q.head+i)%len(q.buf)])
	}
	q.resetLocked()
	q.gen++
	q.notFull.Broadcast()
	return out
}

func (q *Queue[T]) resetLocked() {
	var zero T
	for i := range q.buf {
		q.buf[i] = zero
	}
	q.head = 0
	q.count = 0
}

// Close releases every waiter. Later Enqueue calls are discarded and
// Dequeue returns false once the queue is empty.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	q.mu.Unlock()
}

// Len returns the number of queued tokens.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// Cap returns the queue capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf)
}
