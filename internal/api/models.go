package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/portrait-generator/internal/domain"
)

// GenerateRequest is the body of POST /api/v1/portraits.
type GenerateRequest struct {
	Subject string   `json:"subject"          validate:"required,min=2,max=100"`
	Styles  []string `json:"styles,omitempty" validate:"omitempty,max=4,dive,oneof=BW Sepia Color Painting"`
	Force   bool     `json:"force,omitempty"`
}

// Validate applies the subject name rules beyond the struct tags.
func (r GenerateRequest) Validate() error {
	return domain.ValidateSubjectName(r.Subject)
}

// BatchRequest is the body of POST /api/v1/portraits/batch and POST /api/v1/jobs.
type BatchRequest struct {
	Subjects []string `json:"subjects"         validate:"required,min=1,max=100,dive,required,min=2,max=100"`
	Styles   []string `json:"styles,omitempty" validate:"omitempty,max=4,dive,oneof=BW Sepia Color Painting"`
	Force    bool     `json:"force,omitempty"`
}

// Validate applies the subject name rules to every subject.
func (r BatchRequest) Validate() error {
	for _, name := range r.Subjects {
		if err := domain.ValidateSubjectName(name); err != nil {
			return err
		}
	}
	return nil
}

// PortraitResponse is a generation result with its duration in seconds.
type PortraitResponse struct {
	*domain.PortraitResult
	GenerationTime float64 `json:"generation_time"`
}

func newPortraitResponse(r *domain.PortraitResult) PortraitResponse {
	return PortraitResponse{PortraitResult: r, GenerationTime: r.GenerationSeconds()}
}

// BatchResponse is the outcome of a synchronous batch.
type BatchResponse struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Results   []PortraitResponse `json:"results"`
}

// StatusResponse reports which styles of a subject exist.
type StatusResponse struct {
	Subject  string                `json:"subject"`
	Styles   map[domain.Style]bool `json:"styles"`
	Complete bool                  `json:"complete"`
}

// HistoryResponse lists ledger entries for a subject.
type HistoryResponse struct {
	Subject     string                    `json:"subject"`
	Generations []domain.GenerationRecord `json:"generations"`
}

// JobAcceptedResponse is returned when a batch job is queued.
type JobAcceptedResponse struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	StatusURL string    `json:"status_url"`
}

// JobResponse is the state of a batch job.
type JobResponse struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// HealthCheck is the outcome of one dependency check.
type HealthCheck struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Model     string                 `json:"model,omitempty"`
	Checks    map[string]HealthCheck `json:"checks"`
	Timestamp time.Time              `json:"timestamp"`
}
