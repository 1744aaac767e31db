package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/portrait-generator/internal/api/shared"
	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
	"github.com/phrazzld/portrait-generator/internal/prompt"
)

// PortraitService generates portraits and reports which exist.
type PortraitService interface {
	Generate(ctx context.Context, subject string, styles []domain.Style, force bool) (*domain.PortraitResult, error)
	Batch(ctx context.Context, subjects []string, styles []domain.Style, force bool) ([]*domain.PortraitResult, error)
	CheckExisting(subject string) map[domain.Style]bool
}

// PortraitFiles reads generated files.
type PortraitFiles interface {
	ReadImage(subject string, style domain.Style) ([]byte, error)
	ReadPrompt(subject string, style domain.Style) ([]byte, error)
}

// HistoryReader returns ledger entries for a subject.
type HistoryReader interface {
	History(ctx context.Context, subject string, limit int) ([]domain.GenerationRecord, error)
}

// ErrHistoryUnavailable is returned by the history endpoint when no database
// is configured.
var ErrHistoryUnavailable = errors.New("generation history requires a database")

// PortraitHandler serves the /api/v1/portraits routes.
type PortraitHandler struct {
	service PortraitService
	files   PortraitFiles
	history HistoryReader
	logger  *slog.Logger
}

// NewPortraitHandler creates a PortraitHandler. history may be nil.
func NewPortraitHandler(
	service PortraitService,
	files PortraitFiles,
	history HistoryReader,
	logger *slog.Logger,
) *PortraitHandler {
	return &PortraitHandler{
		service: service,
		files:   files,
		history: history,
		logger:  logger.With("component", "portrait_handler"),
	}
}

// Routes mounts the handler under a chi router.
func (h *PortraitHandler) Routes(r chi.Router) {
	r.Post("/", h.Generate)
	r.Post("/batch", h.Batch)
	r.Get("/{subject}", h.Status)
	r.Get("/{subject}/history", h.History)
	r.Get("/{subject}/{style}", h.Download)
	r.Get("/{subject}/{style}/prompt", h.Prompt)
}

// Generate handles POST /api/v1/portraits. It blocks until every requested
// style is done.
func (h *PortraitHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
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

	log := logger.FromContextOr(r.Context(), h.logger)
	log.InfoContext(r.Context(), "portrait requested", "subject", req.Subject, "styles", styles, "force", req.Force)

	result, err := h.service.Generate(r.Context(), req.Subject, styles, req.Force)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate portrait")
		return
	}

	status := http.StatusOK
	if !result.Success {
		// The body still carries the per-style files and evaluations.
		status = http.StatusMultiStatus
	}
	shared.RespondWithJSON(w, r, status, newPortraitResponse(result))
}

// Batch handles POST /api/v1/portraits/batch. Subjects are generated one
// after another; failures are reported per subject.
func (h *PortraitHandler) Batch(w http.ResponseWriter, r *http.Request) {
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

	results, err := h.service.Batch(r.Context(), req.Subjects, styles, req.Force)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate portraits")
		return
	}

	resp := BatchResponse{Total: len(results), Results: make([]PortraitResponse, 0, len(results))}
	for _, result := range results {
		if result.Success {
			resp.Succeeded++
		}
		resp.Results = append(resp.Results, newPortraitResponse(result))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Status handles GET /api/v1/portraits/{subject}.
func (h *PortraitHandler) Status(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	styles := h.service.CheckExisting(subject)
	complete := len(styles) > 0
	for _, exists := range styles {
		complete = complete && exists
	}
	shared.RespondWithJSON(w, r, http.StatusOK, StatusResponse{Subject: subject, Styles: styles, Complete: complete})
}

// Download handles GET /api/v1/portraits/{subject}/{style}.
func (h *PortraitHandler) Download(w http.ResponseWriter, r *http.Request) {
	subject, style, ok := h.subjectAndStyle(w, r)
	if !ok {
		return
	}
	data, err := h.files.ReadImage(subject, style)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read portrait")
		return
	}
	w.Header().Set("Content-Disposition", `inline; filename="`+domain.ImageFilename(subject, style)+`"`)
	shared.RespondWithBytes(w, r, "image/png", data)
}

// Prompt handles GET /api/v1/portraits/{subject}/{style}/prompt. With
// ?format=html the stored Markdown is rendered.
func (h *PortraitHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	subject, style, ok := h.subjectAndStyle(w, r)
	if !ok {
		return
	}
	data, err := h.files.ReadPrompt(subject, style)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read prompt")
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "markdown":
		shared.RespondWithBytes(w, r, "text/markdown; charset=utf-8", data)
	case "html":
		html, err := prompt.RenderHTML(data)
		if err != nil {
			HandleAPIError(w, r, err, "Failed to render prompt")
			return
		}
		shared.RespondWithBytes(w, r, "text/html; charset=utf-8", html)
	default:
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid format: must be markdown or html")
	}
}

// History handles GET /api/v1/portraits/{subject}/history?limit=N.
func (h *PortraitHandler) History(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}
	if h.history == nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusNotImplemented, "Generation history is not enabled", ErrHistoryUnavailable)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit: must be between 1 and 500")
			return
		}
		limit = n
	}

	records, err := h.history.History(r.Context(), subject, limit)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load generation history")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, HistoryResponse{Subject: subject, Generations: records})
}

func (h *PortraitHandler) subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	subject := chi.URLParam(r, "subject")
	if err := domain.ValidateSubjectName(subject); err != nil {
		HandleAPIError(w, r, err, "")
		return "", false
	}
	return subject, true
}

func (h *PortraitHandler) subjectAndStyle(w http.ResponseWriter, r *http.Request) (string, domain.Style, bool) {
	subject, ok := h.subject(w, r)
	if !ok {
		return "", "", false
	}
	style, err := domain.ParseStyle(chi.URLParam(r, "style"))
	if err != nil {
		HandleAPIError(w, r, err, "")
		return "", "", false
	}
	return subject, style, true
}

// parseStyles leaves an empty list empty so the generator picks every style.
func parseStyles(values []string) ([]domain.Style, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return domain.ParseStyles(values)
}
