package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
	"github.com/phrazzld/portrait-generator/internal/task"
)

// TaskStore implements task.TaskStore on the tasks table.
type TaskStore struct {
	db DBTX
}

// NewTaskStore creates a TaskStore.
func NewTaskStore(db DBTX) *TaskStore {
	return &TaskStore{db: db}
}

// SaveTask inserts a task in its current status.
func (s *TaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContext(ctx)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`
	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, query, t.ID(), t.Type(), t.Payload(), t.Status(), now); err != nil {
		log.Error("failed to save task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		return fmt.Errorf("failed to save task: %w", MapError(err))
	}
	return nil
}

// UpdateTaskStatus sets the status and error message of a task.
func (s *TaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	query := `
		UPDATE tasks
		SET status = $1, error_message = NULLIF($2, ''), updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, status, errorMsg, time.Now().UTC(), taskID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", MapError(err))
	}
	return s.notFound(CheckRowsAffected(result, "task"))
}

// SaveTaskResult stores the JSON output of a task.
func (s *TaskStore) SaveTaskResult(ctx context.Context, taskID uuid.UUID, result []byte) error {
	query := `UPDATE tasks SET result = $1, updated_at = $2 WHERE id = $3`
	res, err := s.db.ExecContext(ctx, query, result, time.Now().UTC(), taskID)
	if err != nil {
		return fmt.Errorf("failed to save task result: %w", MapError(err))
	}
	return s.notFound(CheckRowsAffected(res, "task"))
}

// GetTask loads one task.
func (s *TaskStore) GetTask(ctx context.Context, taskID uuid.UUID) (*task.Record, error) {
	row := s.db.QueryRowContext(ctx, selectTasks+` WHERE id = $1`, taskID)
	rec, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", task.ErrTaskNotFound, taskID)
		}
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return rec, nil
}

// GetPendingTasks retrieves all tasks with "pending" status
func (s *TaskStore) GetPendingTasks(ctx context.Context) ([]task.Record, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status last updated
// more than olderThan ago. Zero returns all of them.
func (s *TaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Record, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

const selectTasks = `
	SELECT id, type, payload, status, result, error_message, created_at, updated_at
	FROM tasks`

func (s *TaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Record, error) {
	query := selectTasks + ` WHERE status = $1`
	args := []any{status}
	if olderThan > 0 {
		query += ` AND updated_at < $2`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContext(ctx).Error("failed to query tasks by status", "status", status, "error", err)
		return nil, fmt.Errorf("failed to query tasks by status: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []task.Record
	for rows.Next() {
		rec, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*task.Record, error) {
	var (
		rec    task.Record
		result []byte
		errMsg sql.NullString
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Type,
		&rec.Payload,
		&rec.Status,
		&result,
		&errMsg,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Result = result
	rec.Error = errMsg.String
	return &rec, nil
}

func (s *TaskStore) notFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", task.ErrTaskNotFound, err)
	}
	return err
}

var _ task.TaskStore = (*TaskStore)(nil)
