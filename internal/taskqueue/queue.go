// Package taskqueue serializes work per resource key.
//
// Tasks that share a key run one at a time in submission order. Tasks with
// different keys run concurrently. Each task reports through its own Future,
// so a failing task never blocks or fails the tasks queued behind it.
package taskqueue

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/colin969/exodos-launcher/internal/errors"
)

// ErrClosed is returned by futures of tasks enqueued after Shutdown.
var ErrClosed = errors.Internalf("task queue is shut down")

// Queue runs tasks grouped by resource key.
type Queue struct {
	logger *slog.Logger
	// base is handed to every task. It is never cancelled: once enqueued a
	// task runs to completion.
	base context.Context

	mu     sync.Mutex
	lanes  map[string]*lane
	closed bool
	// active counts queued and running tasks. idle is closed whenever
	// active drops to zero.
	active int
	idle   chan struct{}
}

// lane is the FIFO of one key. A lane exists while it has work.
type lane struct {
	pending []func(context.Context)
	running bool
}

// New creates an empty queue.
func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Queue{
		logger: logger,
		base:   context.Background(),
		lanes:  make(map[string]*lane),
	}
}

// Future is the pending result of an enqueued task.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(value T, err error) {
	f.value, f.err = value, err
	close(f.done)
}

// Done is closed when the task has finished.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes or ctx ends. A ctx error only stops
// the wait; the task itself keeps running.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Enqueue appends task to the FIFO of key and returns its future.
func Enqueue[T any](q *Queue, key string, task func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	job := func(ctx context.Context) {
		value, err := runTask(ctx, q.logger, key, task)
		f.resolve(value, err)
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		var zero T
		f.resolve(zero, ErrClosed)
		return f
	}
	if q.active == 0 {
		q.idle = make(chan struct{})
	}
	q.active++
	l, running := q.lanes[key]
	if !running {
		l = &lane{}
		q.lanes[key] = l
	}
	l.pending = append(l.pending, job)
	q.mu.Unlock()

	if !running {
		go q.drainLane(key, l)
	}
	return f
}

// Do enqueues a task without a result value.
func Do(q *Queue, key string, task func(ctx context.Context) error) *Future[struct{}] {
	return Enqueue(q, key, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, task(ctx)
	})
}

// drainLane runs the jobs of one key until its FIFO is empty.
func (q *Queue) drainLane(key string, l *lane) {
	for {
		q.mu.Lock()
		if len(l.pending) == 0 {
			delete(q.lanes, key)
			q.mu.Unlock()
			return
		}
		job := l.pending[0]
		l.pending[0] = nil
		l.pending = l.pending[1:]
		l.running = true
		q.mu.Unlock()

		job(q.base)

		q.mu.Lock()
		l.running = false
		q.active--
		if q.active == 0 {
			close(q.idle)
		}
		q.mu.Unlock()
	}
}

func runTask[T any](ctx context.Context, logger *slog.Logger, key string, task func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("queued task panicked",
				"key", key,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			err = errors.Internalf("task for %s panicked: %v", key, r)
		}
	}()

	value, err = task(ctx)
	if err != nil {
		logger.Debug("queued task failed", "key", key, "error", err)
	}
	return value, err
}

// Backlog returns the number of queued or running tasks per busy key.
func (q *Queue) Backlog() map[string]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[string]int, len(q.lanes))
	for key, l := range q.lanes {
		n := len(l.pending)
		if l.running {
			n++
		}
		if n > 0 {
			out[key] = n
		}
	}
	return out
}

// Drain waits until no task is queued or running.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	if q.active == 0 {
		q.mu.Unlock()
		return nil
	}
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks and drains the ones already queued.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	if err := q.Drain(ctx); err != nil {
		q.logger.Warn("task queue shutdown before drain finished", "error", err)
		return err
	}
	return nil
}
