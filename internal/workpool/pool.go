// Package workpool runs mutating work on a fixed set of background workers
// so callers never block on network or disk I/O.
package workpool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"musicreplacer/internal/logging"
	"musicreplacer/internal/services"
)

var (
	// ErrPoolClosed is returned by Submit after Close.
	ErrPoolClosed = errors.New("work pool closed")
	// ErrQueueFull is returned by Submit when every queue slot is taken.
	ErrQueueFull = errors.New("work pool queue full")
)

const historyLimit = 512

// Status is the lifecycle state of a task.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Task is a snapshot of a submitted unit of work.
type Task struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Submitted time.Time `json:"submitted"`
	Started   time.Time `json:"started,omitzero"`
	Finished  time.Time `json:"finished,omitzero"`
}

// Done reports whether the task reached a terminal state.
func (t Task) Done() bool {
	return t.Status == StatusSucceeded || t.Status == StatusFailed
}

type job struct {
	id string
	fn func(ctx context.Context) error
}

// Pool executes submitted functions on a fixed number of workers.
type Pool struct {
	logger *slog.Logger
	queue  chan job

	mu       sync.Mutex
	idle     *sync.Cond
	closed   bool
	inflight int
	tasks    map[string]*Task
	finished []string

	workers sync.WaitGroup
}

// New starts a pool with the given worker count and queue capacity.
// Non-positive values fall back to one worker and one slot.
func New(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 1
	}
	p := &Pool{
		logger: logging.NewComponentLogger(logger, "workpool"),
		queue:  make(chan job, queueSize),
		tasks:  make(map[string]*Task),
	}
	p.idle = sync.NewCond(&p.mu)
	for i := 0; i < workers; i++ {
		p.workers.Add(1)
		go p.work()
	}
	return p
}

// Submit enqueues fn and returns its task ID without waiting for it to run.
func (p *Pool) Submit(label string, fn func(ctx context.Context) error) (string, error) {
	if fn == nil {
		return "", services.Wrap(services.ErrValidation, "workpool", "submit", "nil task", nil)
	}
	id := uuid.NewString()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", ErrPoolClosed
	}
	select {
	case p.queue <- job{id: id, fn: fn}:
	default:
		return "", services.Wrap(services.ErrTransient, "workpool", "submit",
			fmt.Sprintf("%d tasks already queued", cap(p.queue)), ErrQueueFull)
	}
	p.inflight++
	p.tasks[id] = &Task{ID: id, Label: label, Status: StatusQueued, Submitted: time.Now()}
	p.logger.Debug("task queued", logging.String(logging.FieldTaskID, id), logging.String("label", label))
	return id, nil
}

// Task returns the current snapshot of the task with the given ID.
func (p *Pool) Task(id string) (Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	task, ok := p.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Tasks returns snapshots of every tracked task, oldest first.
func (p *Pool) Tasks() []Task {
	p.mu.Lock()
	out := make([]Task, 0, len(p.tasks))
	for _, task := range p.tasks {
		out = append(out, *task)
	}
	p.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Submitted.Before(out[j].Submitted) })
	return out
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.inflight > 0 {
		p.idle.Wait()
	}
}

// Close stops accepting work, drains the queue, and waits for the workers.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.workers.Wait()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.workers.Wait()
}

func (p *Pool) work() {
	defer p.workers.Done()
	for j := range p.queue {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	p.mark(j.id, func(t *Task) {
		t.Status = StatusRunning
		t.Started = time.Now()
	})

	ctx := services.WithTaskID(context.Background(), j.id)
	logger := p.logger.With(logging.String(logging.FieldTaskID, j.id))
	err := p.invoke(ctx, j.fn)
	if err != nil {
		logging.WarnWithContext(logger, "task failed", "task_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
			logging.String(logging.FieldImpact, "operation abandoned"),
		)
	}

	p.mu.Lock()
	if task, ok := p.tasks[j.id]; ok {
		task.Finished = time.Now()
		task.Status = StatusSucceeded
		if err != nil {
			task.Status = StatusFailed
			task.Error = err.Error()
		}
		logger.Debug("task finished",
			logging.String("status", string(task.Status)),
			logging.Duration("elapsed", task.Finished.Sub(task.Started)),
		)
	}
	p.remember(j.id)
	p.inflight--
	if p.inflight == 0 {
		p.idle.Broadcast()
	}
	p.mu.Unlock()
}

func (p *Pool) invoke(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("task panicked",
				logging.String(logging.FieldTaskID, taskID(ctx)),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return fn(ctx)
}

func (p *Pool) mark(id string, update func(*Task)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if task, ok := p.tasks[id]; ok {
		update(task)
	}
}

// remember records a finished task and evicts the oldest finished ones past
// historyLimit. Callers hold p.mu.
func (p *Pool) remember(id string) {
	p.finished = append(p.finished, id)
	for len(p.finished) > historyLimit {
		delete(p.tasks, p.finished[0])
		p.finished = p.finished[1:]
	}
}

func taskID(ctx context.Context) string {
	id, _ := services.TaskIDFromContext(ctx)
	return id
}
