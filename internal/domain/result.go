package domain

import (
	"time"

	"github.com/google/uuid"
)

// Score keys used in EvaluationResult.Scores.
const (
	ScoreTechnical          = "technical"
	ScoreVisualQuality      = "visual_quality"
	ScoreHolisticQuality    = "holistic_quality"
	ScoreStyleAdherence     = "style_adherence"
	ScoreHistoricalAccuracy = "historical_accuracy"
	ScoreOverall            = "overall"
)

// EvaluationResult is the quality verdict for one generated portrait.
type EvaluationResult struct {
	Passed          bool               `json:"passed"`
	Scores          map[string]float64 `json:"scores"`
	Feedback        []string           `json:"feedback"`
	Issues          []string           `json:"issues"`
	Recommendations []string           `json:"recommendations"`
}

// OverallScore returns the mean of all scores, or 0 when none were recorded.
func (e EvaluationResult) OverallScore() float64 {
	if len(e.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, v := range e.Scores {
		sum += v
	}
	return sum / float64(len(e.Scores))
}

// FailedEvaluation builds the verdict recorded for a style that could not be
// generated at all.
func FailedEvaluation(message string) EvaluationResult {
	return EvaluationResult{
		Passed:          false,
		Scores:          map[string]float64{},
		Feedback:        []string{},
		Issues:          []string{message},
		Recommendations: []string{"Retry generation"},
	}
}

// ValidationResult is the outcome of the checks run before an image request.
type ValidationResult struct {
	IsValid         bool             `json:"is_valid"`
	Confidence      float64          `json:"confidence"`
	Issues          []string         `json:"issues"`
	Warnings        []string         `json:"warnings"`
	Recommendations []string         `json:"recommendations"`
	FactChecks      map[string]bool  `json:"fact_checks"`
	References      ReferenceSummary `json:"references"`
}

// ReferenceSummary aggregates the reference image checks of a validation run.
type ReferenceSummary struct {
	Total          int     `json:"total"`
	AuthenticCount int     `json:"authentic_count"`
	AverageQuality float64 `json:"average_quality"`
}

// PortraitResult is the outcome of generating one subject in one or more styles.
// It carries one evaluation entry per requested style.
type PortraitResult struct {
	Subject        string                     `json:"subject"`
	Files          map[Style]string           `json:"files"`
	Prompts        map[Style]string           `json:"prompts"`
	Metadata       *SubjectData               `json:"metadata,omitempty"`
	Evaluation     map[Style]EvaluationResult `json:"evaluation"`
	Attempts       map[Style]int              `json:"attempts"`
	Skipped        map[Style]bool             `json:"skipped,omitempty"`
	GenerationTime time.Duration              `json:"-"`
	Success        bool                       `json:"success"`
	Errors         []string                   `json:"errors"`
}

// NewPortraitResult creates an empty result for the given subject.
func NewPortraitResult(subject string) *PortraitResult {
	return &PortraitResult{
		Subject:    subject,
		Files:      make(map[Style]string),
		Prompts:    make(map[Style]string),
		Evaluation: make(map[Style]EvaluationResult),
		Attempts:   make(map[Style]int),
		Skipped:    make(map[Style]bool),
		Errors:     []string{},
	}
}

// GenerationSeconds exposes the elapsed time as fractional seconds.
func (r *PortraitResult) GenerationSeconds() float64 {
	return r.GenerationTime.Seconds()
}

// AllPassed reports whether every recorded evaluation passed.
func (r *PortraitResult) AllPassed() bool {
	if len(r.Evaluation) == 0 {
		return false
	}
	for _, e := range r.Evaluation {
		if !e.Passed {
			return false
		}
	}
	return true
}

// PassedCount returns the number of styles whose evaluation passed.
func (r *PortraitResult) PassedCount() int {
	n := 0
	for _, e := range r.Evaluation {
		if e.Passed {
			n++
		}
	}
	return n
}

// GenerationRecord is one line of the generation ledger: the outcome of one
// style of one subject.
type GenerationRecord struct {
	ID           uuid.UUID `json:"id"`
	Subject      string    `json:"subject"`
	Style        Style     `json:"style"`
	File         string    `json:"file,omitempty"`
	Attempts     int       `json:"attempts"`
	Passed       bool      `json:"passed"`
	Skipped      bool      `json:"skipped"`
	OverallScore float64   `json:"overall_score"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewGenerationRecord builds a ledger entry from a style's outcome.
func NewGenerationRecord(r *PortraitResult, style Style) GenerationRecord {
	eval := r.Evaluation[style]
	rec := GenerationRecord{
		ID:           uuid.New(),
		Subject:      r.Subject,
		Style:        style,
		File:         r.Files[style],
		Attempts:     r.Attempts[style],
		Passed:       eval.Passed,
		Skipped:      r.Skipped[style],
		OverallScore: eval.OverallScore(),
		CreatedAt:    time.Now().UTC(),
	}
	if rec.File == "" && len(eval.Issues) > 0 {
		rec.Error = eval.Issues[0]
	}
	return rec
}
