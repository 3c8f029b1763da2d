// Package dispatch serializes message processing per user while letting
// unrelated users run concurrently.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
)

// Task is one unit of per-user work bound to a single inbound message. Tasks
// run exactly once and are never retried; anything they need to report back
// must travel through their own closure.
type Task func(ctx context.Context)

// Dispatcher guarantees strict FIFO, non-overlapping execution of one user's
// tasks. The user map is the only shared mutable structure; every pending-list
// and busy-flag mutation happens under the mutex, so claiming a drain is a
// single atomic transition relative to concurrent enqueues.
type Dispatcher struct {
	log *slog.Logger

	mu    sync.Mutex
	users map[string]*userQueue
	wg    sync.WaitGroup
}

type userQueue struct {
	pending []queuedTask
	busy    bool
}

// queuedTask pins the context the task was enqueued under, so a drain started
// by an earlier message never substitutes its own context for later ones.
type queuedTask struct {
	ctx  context.Context
	task Task
}

// New constructs an empty dispatcher.
func New(log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		log:   log.With("component", "dispatch"),
		users: make(map[string]*userQueue),
	}
}

// Enqueue appends a task to the user's queue and starts a drain goroutine if
// the user has no active one. The busy flag flips inside the same critical
// section as the append, so two near-simultaneous enqueues for one user can
// never claim two drains.
func (d *Dispatcher) Enqueue(ctx context.Context, userID string, task Task) {
	if task == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.Lock()
	queue, ok := d.users[userID]
	if !ok {
		queue = &userQueue{}
		d.users[userID] = queue
	}
	queue.pending = append(queue.pending, queuedTask{ctx: ctx, task: task})

	if queue.busy {
		d.mu.Unlock()
		return
	}
	queue.busy = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.drain(userID, queue)
}

// drain runs the user's tasks in arrival order until the queue empties, then
// removes the user's entry. Each task runs under the context it was enqueued
// with. A task that fails only costs that one message; the remaining queued
// tasks still run.
func (d *Dispatcher) drain(userID string, queue *userQueue) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		if len(queue.pending) == 0 {
			queue.busy = false
			delete(d.users, userID)
			d.mu.Unlock()
			return
		}
		next := queue.pending[0]
		queue.pending = queue.pending[1:]
		d.mu.Unlock()

		d.runTask(next.ctx, userID, next.task)
	}
}

func (d *Dispatcher) runTask(ctx context.Context, userID string, task Task) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.log.Error("Task panicked", "user_id", userID, "panic", recovered)
		}
	}()

	task(ctx)
}

// ActiveUsers reports how many users currently have queued or running tasks.
func (d *Dispatcher) ActiveUsers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.users)
}

// Wait blocks until every started drain goroutine has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
