package assetdb

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/mwantia/assetdb/data"
)

// Task is one unit of work executed by the task queue.
type Task struct {
	Name string
	// Silent tasks are read-only queries: no start/finish lines, no watcher
	// toggling and no index sync.
	Silent bool
	Run    func(ctx context.Context) (any, error)
}

// Callback receives the result of a task before the next task starts.
type Callback func(result any, err error)

type job struct {
	ctx  context.Context
	task Task
	cb   Callback
}

// taskQueue is an unbounded FIFO drained by a single worker.
type taskQueue struct {
	mu      sync.Mutex
	pending []*job
	closed  bool

	wake chan struct{}
	done chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

func (q *taskQueue) push(j *job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return data.ErrClosed
	}
	q.pending = append(q.pending, j)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return nil
}

func (q *taskQueue) pop() (*job, bool) {
	for {
		q.mu.Lock()
		if len(q.pending) > 0 {
			j := q.pending[0]
			q.pending[0] = nil
			q.pending = q.pending[1:]
			q.mu.Unlock()
			return j, true
		}
		if q.closed {
			q.mu.Unlock()
			return nil, false
		}
		q.mu.Unlock()

		<-q.wake
	}
}

func (q *taskQueue) run(exec func(*job)) {
	defer close(q.done)

	for {
		j, ok := q.pop()
		if !ok {
			return
		}
		exec(j)
	}
}

// close stops accepting tasks and waits until every queued task has run.
// It must not be called from inside a task or callback.
func (q *taskQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	<-q.done
}

// Submit appends a task to the queue. The callback, if any, runs on the queue
// worker after the task finished and before the next task starts.
func (db *AssetDB) Submit(task Task, cb Callback) error {
	return db.submit(context.Background(), task, cb)
}

func (db *AssetDB) submit(ctx context.Context, task Task, cb Callback) error {
	if task.Run == nil {
		return fmt.Errorf("task %s has no run function", task.Name)
	}

	return db.queue.push(&job{
		ctx:  context.WithoutCancel(ctx),
		task: task,
		cb:   cb,
	})
}

type taskResult struct {
	value any
	err   error
}

// do submits a task and waits for its result. ctx only bounds the wait.
func do[T any](ctx context.Context, db *AssetDB, task Task) (T, error) {
	var zero T

	ch := make(chan taskResult, 1)
	err := db.submit(ctx, task, func(value any, err error) {
		ch <- taskResult{value: value, err: err}
	})
	if err != nil {
		return zero, err
	}

	select {
	case res := <-ch:
		if res.err != nil {
			return zero, res.err
		}
		if res.value == nil {
			return zero, nil
		}
		value, ok := res.value.(T)
		if !ok {
			return zero, fmt.Errorf("task %s returned %T", task.Name, res.value)
		}
		return value, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (db *AssetDB) exec(j *job) {
	task := j.task
	name := task.Name
	db.current.Store(&name)

	if !task.Silent {
		if db.opts.Watcher != nil {
			db.opts.Watcher.Disable()
		}
		db.logger().Debug("start")
	}

	value, err := db.runTask(j.ctx, task)

	if !task.Silent {
		if err != nil {
			db.logger().Error("failed: %v", err)
		} else {
			db.logger().Debug("done")
		}

		db.syncIndex(j.ctx)

		if db.opts.Watcher != nil && (db.opts.Focus == nil || !db.opts.Focus()) {
			db.opts.Watcher.Enable()
		}
	}

	db.current.Store(nil)

	if j.cb != nil {
		j.cb(value, err)
	}
}

func (db *AssetDB) runTask(ctx context.Context, task Task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			db.logger().Error("panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()

	return task.Run(ctx)
}

// taskLogger prefixes every line with the name of the running task.
type taskLogger struct {
	base Logger
	name string
}

func (l *taskLogger) prefix(msg string) string {
	return "[db-task][" + l.name + "] " + msg
}

func (l *taskLogger) Debug(msg string, args ...any) { l.base.Debug(l.prefix(msg), args...) }
func (l *taskLogger) Info(msg string, args ...any)  { l.base.Info(l.prefix(msg), args...) }
func (l *taskLogger) Warn(msg string, args ...any)  { l.base.Warn(l.prefix(msg), args...) }
func (l *taskLogger) Error(msg string, args ...any) { l.base.Error(l.prefix(msg), args...) }

// logger returns the database logger, tagged with the running task if there is one.
func (db *AssetDB) logger() Logger {
	if name := db.current.Load(); name != nil {
		return &taskLogger{base: db.log, name: *name}
	}
	return db.log
}
