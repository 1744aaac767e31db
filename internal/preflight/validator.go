package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/generation"
	"github.com/phrazzld/portrait-generator/internal/reference"
)

// Limits applied to subject data and prompts.
const (
	MinNameLength   = 3
	MinBirthYear    = 1000
	MaxLifespan     = 150
	MinPromptLength = 50

	// ValidConfidence is the confidence a result must exceed to be valid.
	ValidConfidence = 0.5
)

var (
	negativeVerdict = regexp.MustCompile(`\b(incorrect|inaccurate|false|no|wrong)\b`)

	problematicPromptWords = []string{"cartoon", "anime", "sketch", "drawing"}
)

// Validator runs pre-generation checks.
type Validator struct {
	querier      generation.TextQuerier
	feasibility  generation.FeasibilityChecker
	factChecking bool
	logger       *slog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithFactChecking verifies birth year, death year and era with grounded
// queries through querier.
func WithFactChecking(querier generation.TextQuerier) Option {
	return func(v *Validator) {
		v.querier = querier
		v.factChecking = querier != nil
	}
}

// WithFeasibilityCheck asks the model to predict problems with the prompt.
// An infeasible verdict adds its predicted issues as warnings.
func WithFeasibilityCheck(checker generation.FeasibilityChecker) Option {
	return func(v *Validator) {
		v.feasibility = checker
	}
}

// NewValidator creates a Validator.
func NewValidator(logger *slog.Logger, opts ...Option) (*Validator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	v := &Validator{logger: logger.With("component", "preflight")}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Validate runs every check and returns the combined verdict.
func (v *Validator) Validate(
	ctx context.Context,
	subject *domain.SubjectData,
	style domain.Style,
	prompt string,
	refs []domain.ReferenceImage,
) domain.ValidationResult {
	result := domain.ValidationResult{
		Issues:          []string{},
		Warnings:        []string{},
		Recommendations: []string{},
		FactChecks:      map[string]bool{},
	}
	if subject == nil {
		result.Issues = append(result.Issues, "Subject data is missing")
		result.Recommendations = append(result.Recommendations, "Resolve all issues before proceeding with generation")
		return result
	}

	result.Issues = append(result.Issues, SubjectIssues(subject)...)

	if v.factChecking {
		result.FactChecks = v.factCheck(ctx, subject)
		for _, key := range factCheckOrder {
			if ok, checked := result.FactChecks[key]; checked && !ok {
				result.Issues = append(result.Issues, "Fact-check failed: "+key)
			}
		}
	}

	result.Issues = append(result.Issues, StyleIssues(style)...)

	promptIssues, promptWarnings := PromptFindings(prompt, subject)
	result.Issues = append(result.Issues, promptIssues...)
	result.Warnings = append(result.Warnings, promptWarnings...)

	if len(refs) > 0 {
		result.References = reference.Summarize(refs)
		result.Warnings = append(result.Warnings, ReferenceWarnings(refs)...)
	}

	result.Warnings = append(result.Warnings, Pitfalls(subject, style)...)

	if v.feasibility != nil {
		check := v.feasibility.PreGenerationCheck(ctx, prompt, map[string]string{
			"subject": subject.Name,
			"era":     subject.Era,
			"style":   string(style),
		})
		if !check.Feasible {
			for _, issue := range check.PredictedIssues {
				result.Warnings = append(result.Warnings, "Predicted issue: "+issue)
			}
		}
	}

	result.Recommendations = recommendations(subject, result.Issues, result.Warnings)
	result.Confidence = Confidence(len(result.Issues), len(result.Warnings), failedChecks(result.FactChecks))
	result.IsValid = len(result.Issues) == 0 && result.Confidence > ValidConfidence

	v.logger.InfoContext(ctx, "pre-generation validation complete",
		"subject", subject.Name,
		"style", style,
		"valid", result.IsValid,
		"confidence", result.Confidence,
		"issues", len(result.Issues),
		"warnings", len(result.Warnings))
	return result
}

// SubjectIssues checks biographical data for obvious errors.
func SubjectIssues(s *domain.SubjectData) []string {
	var issues []string
	if len(strings.TrimSpace(s.Name)) < MinNameLength {
		issues = append(issues, "Subject name is too short or empty")
	}
	if strings.TrimSpace(s.Era) == "" {
		issues = append(issues, "Historical era not specified")
	}
	if s.BirthYear < MinBirthYear {
		issues = append(issues, "Invalid or missing birth year")
	}
	if s.DeathYear != nil {
		if *s.DeathYear < s.BirthYear {
			issues = append(issues, "Death year precedes birth year")
		}
		if *s.DeathYear-s.BirthYear > MaxLifespan {
			issues = append(issues, fmt.Sprintf("Lifespan exceeds %d years (likely data error)", MaxLifespan))
		}
	}
	return issues
}

// StyleIssues rejects unsupported styles.
func StyleIssues(style domain.Style) []string {
	if style.Valid() {
		return nil
	}
	return []string{fmt.Sprintf("Invalid style '%s'. Must be one of: BW, Sepia, Color, Painting", style)}
}

// PromptFindings checks prompt length and content.
func PromptFindings(prompt string, s *domain.SubjectData) (issues, warnings []string) {
	if len(strings.TrimSpace(prompt)) < MinPromptLength {
		issues = append(issues, fmt.Sprintf("Prompt is too short (minimum %d characters)", MinPromptLength))
	}
	if !strings.Contains(prompt, s.Name) {
		warnings = append(warnings, "Subject name not found in prompt")
	}
	if !strings.Contains(prompt, s.Era) {
		warnings = append(warnings, "Historical era not mentioned in prompt")
	}
	lower := strings.ToLower(prompt)
	for _, word := range problematicPromptWords {
		if strings.Contains(lower, word) {
			warnings = append(warnings, fmt.Sprintf("Prompt contains '%s' which may affect photorealism", word))
		}
	}
	return issues, warnings
}

// ReferenceWarnings flags weak reference images.
func ReferenceWarnings(refs []domain.ReferenceImage) []string {
	var warnings []string
	for _, ref := range refs {
		if ref.AuthenticityScore < reference.AuthenticityThreshold {
			warnings = append(warnings, fmt.Sprintf("Low authenticity score for %s: %.2f", ref.Source, ref.AuthenticityScore))
		}
		if ref.QualityScore < 0.6 {
			warnings = append(warnings, fmt.Sprintf("Low quality score for %s: %.2f", ref.Source, ref.QualityScore))
		}
		if !ref.EraMatch {
			warnings = append(warnings, fmt.Sprintf("Reference from %s may not match era", ref.Source))
		}
	}

	summary := reference.Summarize(refs)
	if summary.Total > 0 && summary.AverageQuality < 0.7 {
		warnings = append(warnings, fmt.Sprintf("Average reference quality is low: %.2f", summary.AverageQuality))
	}
	if summary.Total >= 2 && summary.AuthenticCount < 2 {
		warnings = append(warnings, "Fewer than 2 authentic references available")
	}
	return warnings
}

// Pitfalls warns about combinations that tend to produce poor portraits.
func Pitfalls(s *domain.SubjectData, style domain.Style) []string {
	var warnings []string
	if s.BirthYear < 1800 {
		warnings = append(warnings, fmt.Sprintf("Subject from %d - limited photographic references available", s.BirthYear))
	}
	if s.BirthYear > 1950 {
		warnings = append(warnings, "Recent subject - be mindful of copyright and privacy concerns")
	}
	if style == domain.StyleBW && s.BirthYear > 1950 {
		warnings = append(warnings, "Generating BW portrait for color photography era - consider Color style")
	}
	if style == domain.StyleSepia && s.BirthYear > 1930 {
		warnings = append(warnings, "Sepia style uncommon for subjects born after 1930")
	}
	return warnings
}

// Confidence starts at 1 and deducts 0.25 per issue, 0.05 per warning and
// 0.15 per failed fact check, clamped to [0, 1].
func Confidence(issues, warnings, failedChecks int) float64 {
	c := 1.0 - 0.25*float64(issues) - 0.05*float64(warnings) - 0.15*float64(failedChecks)
	return max(0, min(1, c))
}

func recommendations(s *domain.SubjectData, issues, warnings []string) []string {
	var recs []string
	if len(issues) > 0 {
		recs = append(recs, "Resolve all issues before proceeding with generation")
	}
	if len(warnings) > 0 {
		recs = append(recs, "Review warnings and consider adjustments")
	}
	if s.BirthYear < 1850 {
		recs = append(recs, "Consider Painting style for pre-photography era subjects")
	}
	if len(warnings) > 3 {
		recs = append(recs, "Multiple warnings detected - consider revising inputs")
	}
	if len(recs) == 0 {
		recs = append(recs, "All validation checks passed - proceed with generation")
	}
	return recs
}

func failedChecks(checks map[string]bool) int {
	n := 0
	for _, ok := range checks {
		if !ok {
			n++
		}
	}
	return n
}
