package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/portrait-generator/internal/events"
)

// BatchRequest is the payload of an events.TypeBatchRequested event. JobID
// is chosen by the publisher so it can report the job before it runs.
type BatchRequest struct {
	JobID uuid.UUID `json:"job_id"`
	BatchPayload
}

// Submitter accepts tasks for background execution.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// BatchEventHandler turns batch request events into submitted tasks.
type BatchEventHandler struct {
	factory   *BatchTaskFactory
	submitter Submitter
	logger    *slog.Logger
}

// NewBatchEventHandler creates a handler that builds tasks with factory and
// hands them to submitter.
func NewBatchEventHandler(factory *BatchTaskFactory, submitter Submitter, logger *slog.Logger) *BatchEventHandler {
	return &BatchEventHandler{
		factory:   factory,
		submitter: submitter,
		logger:    logger.With("component", "batch_event_handler"),
	}
}

// Handle decodes the request, creates the task and submits it.
func (h *BatchEventHandler) Handle(ctx context.Context, event *events.Event) error {
	var req BatchRequest
	if err := event.Decode(&req); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode batch request", "event_id", event.ID, "error", err)
		return err
	}

	task, err := h.factory.New(req.JobID, req.BatchPayload)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected batch request", "event_id", event.ID, "error", err)
		return fmt.Errorf("failed to create batch task: %w", err)
	}

	if err := h.submitter.Submit(ctx, task); err != nil {
		h.logger.ErrorContext(ctx, "failed to submit batch task",
			"event_id", event.ID,
			"task_id", task.ID(),
			"error", err)
		return fmt.Errorf("failed to submit batch task: %w", err)
	}

	h.logger.InfoContext(ctx, "batch task submitted",
		"event_id", event.ID,
		"task_id", task.ID(),
		"subjects", len(req.Subjects))
	return nil
}

// Register subscribes the handler to batch request events.
func (h *BatchEventHandler) Register(bus *events.Bus) {
	bus.Subscribe(events.TypeBatchRequested, h)
}

var _ events.Handler = (*BatchEventHandler)(nil)
