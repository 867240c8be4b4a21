package client

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultWindow is the quiet period after the last edit of a field before
// it is sent
const DefaultWindow = 500 * time.Millisecond

const sendTimeout = 30 * time.Second

var ErrClosed = errors.New("coalescer is closed")

// Sink receives the coalescer's edits. *Store satisfies it: Stage and Amend
// apply optimistically, Commit sends.
type Sink interface {
	Stage(taskID string, fields Fields) (uuid.UUID, error)
	Amend(id uuid.UUID, fields Fields) error
	Commit(ctx context.Context, ids ...uuid.UUID) error
}

type fieldKey struct {
	taskID string
	field  Field
}

// pendingEdit is one (task, field) waiting out its quiet window
type pendingEdit struct {
	op    uuid.UUID
	timer *time.Timer
	gen   uint64
}

// taskQueue serializes sends for one task. At most one batch is in flight.
type taskQueue struct {
	ready   []uuid.UUID
	running bool
	idle    chan struct{}
	errs    []error
}

// Coalescer batches rapid edits of the same task field into one request.
// Every Stage is visible immediately through the Sink; only the value
// current when the field's window expires (or the task is flushed) is sent.
type Coalescer struct {
	sink   Sink
	window time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	pending map[fieldKey]*pendingEdit
	queues  map[string]*taskQueue
	onError func(taskID string, err error)
	closed  bool
	seq     uint64
}

// NewCoalescer creates a coalescer. window <= 0 selects DefaultWindow.
func NewCoalescer(sink Sink, window time.Duration) *Coalescer {
	if window <= 0 {
		window = DefaultWindow
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Coalescer{
		sink:    sink,
		window:  window,
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[fieldKey]*pendingEdit),
		queues:  make(map[string]*taskQueue),
	}
}

// OnError registers a callback for sends that fail in the background
func (c *Coalescer) OnError(fn func(taskID string, err error)) {
	c.mu.Lock()
	c.onError = fn
	c.mu.Unlock()
}

// Stage records value for (taskID, field) and restarts that field's window.
// A value staged while an earlier one is in flight is queued behind it.
func (c *Coalescer) Stage(taskID string, field Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	key := fieldKey{taskID: taskID, field: field}
	edit := c.pending[key]
	if edit != nil {
		edit.timer.Stop()
		if err := c.sink.Amend(edit.op, Fields{field: value}); err != nil {
			// Someone committed the op directly; start a new one.
			edit = nil
		}
	}
	if edit == nil {
		id, err := c.sink.Stage(taskID, Fields{field: value})
		if err != nil {
			delete(c.pending, key)
			return err
		}
		edit = &pendingEdit{op: id}
		c.pending[key] = edit
	}

	c.seq++
	gen := c.seq
	edit.gen = gen
	edit.timer = time.AfterFunc(c.window, func() { c.fire(key, gen) })
	return nil
}

// Pending returns the number of fields of taskID still inside their window
func (c *Coalescer) Pending(taskID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.pending {
		if key.taskID == taskID {
			n++
		}
	}
	return n
}

func (c *Coalescer) fire(key fieldKey, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	edit := c.pending[key]
	if edit == nil || edit.gen != gen {
		return
	}
	delete(c.pending, key)
	c.enqueueLocked(key.taskID, edit.op)
}

func (c *Coalescer) enqueueLocked(taskID string, id uuid.UUID) {
	q := c.queues[taskID]
	if q == nil {
		q = &taskQueue{}
		c.queues[taskID] = q
	}
	q.ready = append(q.ready, id)
	if !q.running {
		q.running = true
		q.idle = make(chan struct{})
		go c.drain(taskID, q)
	}
}

// drain sends queued batches for one task until the queue is empty
func (c *Coalescer) drain(taskID string, q *taskQueue) {
	for {
		c.mu.Lock()
		if len(q.ready) == 0 {
			q.running = false
			close(q.idle)
			c.mu.Unlock()
			return
		}
		batch := q.ready
		q.ready = nil
		onError := c.onError
		c.mu.Unlock()

		ctx, cancel := context.WithTimeout(c.ctx, sendTimeout)
		err := c.sink.Commit(ctx, batch...)
		cancel()
		if err == nil {
			continue
		}

		c.mu.Lock()
		q.errs = append(q.errs, err)
		c.mu.Unlock()
		if onError != nil {
			onError(taskID, err)
		}
	}
}

// Flush sends every pending field of taskID now and waits until the task's
// queue is empty. It returns the send errors for the task since the last
// Flush.
func (c *Coalescer) Flush(ctx context.Context, taskID string) error {
	c.mu.Lock()
	var keys []fieldKey
	for key := range c.pending {
		if key.taskID == taskID {
			keys = append(keys, key)
		}
	}
	slices.SortFunc(keys, func(a, b fieldKey) int { return cmp.Compare(a.field, b.field) })
	for _, key := range keys {
		edit := c.pending[key]
		edit.timer.Stop()
		delete(c.pending, key)
		c.enqueueLocked(taskID, edit.op)
	}

	q := c.queues[taskID]
	var idle chan struct{}
	if q != nil && q.running {
		idle = q.idle
	}
	c.mu.Unlock()

	if idle != nil {
		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if q == nil {
		return nil
	}
	errs := q.errs
	q.errs = nil
	return errors.Join(errs...)
}

// Close flushes every task and rejects further edits
func (c *Coalescer) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	seen := make(map[string]bool)
	var tasks []string
	for key := range c.pending {
		if !seen[key.taskID] {
			seen[key.taskID] = true
			tasks = append(tasks, key.taskID)
		}
	}
	for taskID := range c.queues {
		if !seen[taskID] {
			seen[taskID] = true
			tasks = append(tasks, taskID)
		}
	}
	c.mu.Unlock()

	slices.Sort(tasks)
	var errs []error
	for _, taskID := range tasks {
		if err := c.Flush(ctx, taskID); err != nil {
			errs = append(errs, err)
		}
	}
	c.cancel()
	return errors.Join(errs...)
}
