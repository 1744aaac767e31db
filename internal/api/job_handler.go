package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/portrait-generator/internal/api/shared"
	"github.com/phrazzld/portrait-generator/internal/events"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
	"github.com/phrazzld/portrait-generator/internal/task"
)

// JobReader looks up background jobs.
type JobReader interface {
	Get(ctx context.Context, id string) (*task.Record, error)
}

// JobHandler serves the /api/v1/jobs routes. New jobs are requested through
// the event bus so the handler does not depend on the task runner.
type JobHandler struct {
	publisher events.Publisher
	jobs      JobReader
	basePath  string
	logger    *slog.Logger
}

// NewJobHandler creates a JobHandler. basePath is the mount point used to
// build status URLs.
func NewJobHandler(publisher events.Publisher, jobs JobReader, basePath string, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		publisher: publisher,
		jobs:      jobs,
		basePath:  basePath,
		logger:    logger.With("component", "job_handler"),
	}
}

// Routes mounts the handler under a chi router.
func (h *JobHandler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
}

// Create handles POST /api/v1/jobs and answers 202 with the job ID.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	styles, err := parseStyles(req.Styles)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	jobID := uuid.New()
	event, err := events.New(events.TypeBatchRequested, task.BatchRequest{
		JobID: jobID,
		BatchPayload: task.BatchPayload{
			Subjects: req.Subjects,
			Styles:   styles,
			Force:    req.Force,
		},
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create job")
		return
	}
	if err := h.publisher.Publish(r.Context(), event); err != nil {
		HandleAPIError(w, r, err, "Failed to create job")
		return
	}

	logger.FromContextOr(r.Context(), h.logger).InfoContext(r.Context(), "batch job accepted",
		"job_id", jobID,
		"subjects", len(req.Subjects))

	statusURL := h.basePath + "/" + jobID.String()
	w.Header().Set("Location", statusURL)
	shared.RespondWithJSON(w, r, http.StatusAccepted, JobAcceptedResponse{
		ID:        jobID,
		Status:    string(task.TaskStatusPending),
		StatusURL: statusURL,
	})
}

// Get handles GET /api/v1/jobs/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load job")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, JobResponse{
		ID:        rec.ID,
		Type:      rec.Type,
		Status:    string(rec.Status),
		Error:     rec.Error,
		Result:    rec.Result,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	})
}
