package task

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrQueueClosed = errors.New("task queue is closed")
	ErrQueueFull   = errors.New("task queue is full")
)

// QueueStats counts what happened to submissions since the queue was made.
type QueueStats struct {
	Accepted int
	Rejected int
	Buffered int
	Capacity int
}

// TaskQueue buffers batch jobs between Submit and the workers. Enqueue never
// blocks: an HTTP caller gets ErrQueueFull instead of waiting on a batch
// that may run for minutes.
type TaskQueue struct {
	ch     chan Task
	logger *slog.Logger

	mu       sync.Mutex
	closed   bool
	accepted int
	rejected int
}

// NewTaskQueue creates a queue holding up to size tasks (at least one).
func NewTaskQueue(size int, logger *slog.Logger) *TaskQueue {
	return &TaskQueue{
		ch:     make(chan Task, max(size, 1)),
		logger: logger.With("component", "task_queue"),
	}
}

// Enqueue adds task, or fails with ErrQueueFull or ErrQueueClosed.
func (q *TaskQueue) Enqueue(task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.rejected++
		return ErrQueueClosed
	}
	select {
	case q.ch <- task:
		q.accepted++
		q.logger.Debug("task enqueued", "task_id", task.ID(), "buffered", len(q.ch))
		return nil
	default:
		q.rejected++
		q.logger.Warn("task rejected, queue full", "task_id", task.ID(), "capacity", cap(q.ch))
		return fmt.Errorf("%w: %d tasks waiting", ErrQueueFull, cap(q.ch))
	}
}

// Close stops accepting tasks. Buffered tasks are still delivered by Tasks.
// Close is idempotent.
func (q *TaskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
	q.logger.Info("task queue closed", "buffered", len(q.ch))
}

// Tasks is the channel workers receive from. It is closed by Close.
func (q *TaskQueue) Tasks() <-chan Task {
	return q.ch
}

// Len returns the number of buffered tasks.
func (q *TaskQueue) Len() int {
	return len(q.ch)
}

// Stats returns the submission counters.
func (q *TaskQueue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return QueueStats{
		Accepted: q.accepted,
		Rejected: q.rejected,
		Buffered: len(q.ch),
		Capacity: cap(q.ch),
	}
}
