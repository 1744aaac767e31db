package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/portrait-generator/internal/domain"
)

// BatchGenerator is the part of the portrait generator a batch task needs.
type BatchGenerator interface {
	Batch(ctx context.Context, subjects []string, styles []domain.Style, force bool) ([]*domain.PortraitResult, error)
}

// BatchPayload is the input of a portrait batch task.
type BatchPayload struct {
	Subjects []string       `json:"subjects"`
	Styles   []domain.Style `json:"styles,omitempty"`
	Force    bool           `json:"force,omitempty"`
}

// Validate checks the payload before a task is created from it.
func (p BatchPayload) Validate() error {
	if len(p.Subjects) == 0 {
		return fmt.Errorf("%w: subjects cannot be empty", domain.ErrValidation)
	}
	for _, name := range p.Subjects {
		if err := domain.ValidateSubjectName(name); err != nil {
			return err
		}
	}
	for _, s := range p.Styles {
		if !s.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidStyle, s)
		}
	}
	return nil
}

// BatchResult is stored as the result of a finished batch task.
type BatchResult struct {
	Total     int                      `json:"total"`
	Succeeded int                      `json:"succeeded"`
	Results   []*domain.PortraitResult `json:"results"`
}

// BatchGenerationTask generates portraits for several subjects.
type BatchGenerationTask struct {
	id        uuid.UUID
	payload   BatchPayload
	generator BatchGenerator
	logger    *slog.Logger

	mu     sync.RWMutex
	status TaskStatus
	result []byte
}

// ID returns the task's unique identifier
func (t *BatchGenerationTask) ID() uuid.UUID { return t.id }

// Type returns TaskTypePortraitBatch.
func (t *BatchGenerationTask) Type() string { return TaskTypePortraitBatch }

// Payload returns the batch request as JSON.
func (t *BatchGenerationTask) Payload() []byte {
	data, _ := json.Marshal(t.payload)
	return data
}

// Status returns the current task status
func (t *BatchGenerationTask) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Result returns the JSON encoded BatchResult, or nil before Execute finishes.
func (t *BatchGenerationTask) Result() []byte {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.result
}

// Execute runs the batch. Subjects that fail are reported in the result; the
// task itself fails only when the batch cannot run or every subject failed.
func (t *BatchGenerationTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)
	log := t.logger.With("task_id", t.id, "subjects", len(t.payload.Subjects))
	log.InfoContext(ctx, "starting portrait batch")

	results, err := t.generator.Batch(ctx, t.payload.Subjects, t.payload.Styles, t.payload.Force)

	summary := BatchResult{Total: len(t.payload.Subjects), Results: results}
	for _, r := range results {
		if r.Success {
			summary.Succeeded++
		}
	}
	data, marshalErr := json.Marshal(summary)
	if marshalErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to encode batch result: %w", marshalErr))
	}

	t.mu.Lock()
	t.result = data
	t.mu.Unlock()

	if err == nil && summary.Succeeded == 0 {
		err = fmt.Errorf("no portraits generated for %d subjects", summary.Total)
	}
	if err != nil {
		t.setStatus(TaskStatusFailed)
		return fmt.Errorf("portrait batch failed: %w", err)
	}

	t.setStatus(TaskStatusCompleted)
	log.InfoContext(ctx, "portrait batch complete", "succeeded", summary.Succeeded)
	return nil
}

func (t *BatchGenerationTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// BatchTaskFactory creates batch tasks for new requests and for recovery.
type BatchTaskFactory struct {
	generator BatchGenerator
	logger    *slog.Logger
}

// NewBatchTaskFactory creates a BatchTaskFactory.
func NewBatchTaskFactory(generator BatchGenerator, logger *slog.Logger) *BatchTaskFactory {
	return &BatchTaskFactory{
		generator: generator,
		logger:    logger.With("component", "batch_task"),
	}
}

// New creates a pending task for payload. A nil id gets a fresh one.
func (f *BatchTaskFactory) New(id uuid.UUID, payload BatchPayload) (*BatchGenerationTask, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &BatchGenerationTask{
		id:        id,
		payload:   payload,
		generator: f.generator,
		logger:    f.logger,
		status:    TaskStatusPending,
	}, nil
}

// FromRecord rebuilds a stored batch task.
func (f *BatchTaskFactory) FromRecord(rec Record) (Task, error) {
	if rec.Type != TaskTypePortraitBatch {
		return nil, fmt.Errorf("unsupported task type %q", rec.Type)
	}
	var payload BatchPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode batch payload: %w", err)
	}
	return f.New(rec.ID, payload)
}

var _ Factory = (*BatchTaskFactory)(nil)
