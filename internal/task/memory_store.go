package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is a TaskStore kept in process memory. It is used when no
// database is configured; tasks do not survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]*Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SaveTask stores a task in its current status.
func (s *MemoryStore) SaveTask(ctx context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.records[task.ID()] = &Record{
		ID:        task.ID(),
		Type:      task.Type(),
		Payload:   json.RawMessage(append([]byte(nil), task.Payload()...)),
		Status:    task.Status(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return nil
}

// UpdateTaskStatus sets the status and error message of a task.
func (s *MemoryStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	rec.Status = status
	rec.Error = errorMsg
	rec.UpdatedAt = s.now()
	return nil
}

// SaveTaskResult stores the output of a task.
func (s *MemoryStore) SaveTaskResult(ctx context.Context, taskID uuid.UUID, result []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[taskID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	rec.Result = json.RawMessage(append([]byte(nil), result...))
	rec.UpdatedAt = s.now()
	return nil
}

// GetTask returns a copy of the stored task.
func (s *MemoryStore) GetTask(ctx context.Context, taskID uuid.UUID) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	cp := *rec
	return &cp, nil
}

// GetPendingTasks returns pending tasks, oldest first.
func (s *MemoryStore) GetPendingTasks(ctx context.Context) ([]Record, error) {
	return s.filter(func(r *Record) bool { return r.Status == TaskStatusPending }), nil
}

// GetProcessingTasks returns processing tasks last updated more than
// olderThan ago. A zero olderThan returns all of them.
func (s *MemoryStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error) {
	cutoff := s.now().Add(-olderThan)
	return s.filter(func(r *Record) bool {
		if r.Status != TaskStatusProcessing {
			return false
		}
		return olderThan == 0 || r.UpdatedAt.Before(cutoff)
	}), nil
}

func (s *MemoryStore) filter(keep func(*Record) bool) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

var _ TaskStore = (*MemoryStore)(nil)
