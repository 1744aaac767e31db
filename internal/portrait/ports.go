package portrait

import (
	"context"
	"image"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/generation"
)

// Researcher produces biographical data for a subject. Forget drops any
// cached answer so a forced regeneration researches afresh.
type Researcher interface {
	Research(ctx context.Context, name string) (*domain.SubjectData, error)
	Forget(name string)
}

// ReferenceFinder locates and downloads reference photographs. Cleanup
// removes the downloads once every style of the subject is done.
type ReferenceFinder interface {
	Find(ctx context.Context, subject *domain.SubjectData, maxImages int) []domain.ReferenceImage
	Download(ctx context.Context, subjectName string, images []domain.ReferenceImage) []generation.ReferenceData
	Cleanup(ctx context.Context, images []domain.ReferenceImage)
}

// PromptBuilder renders the prompt for one style.
type PromptBuilder interface {
	ForSubject(
		ctx context.Context,
		subject *domain.SubjectData,
		style domain.Style,
		refs []domain.ReferenceImage,
	) (string, error)
}

// Validator checks a request before an image call is spent on it.
type Validator interface {
	Validate(
		ctx context.Context,
		subject *domain.SubjectData,
		style domain.Style,
		prompt string,
		refs []domain.ReferenceImage,
	) domain.ValidationResult
}

// Evaluator scores finished portraits.
type Evaluator interface {
	Evaluate(
		ctx context.Context,
		img image.Image,
		subject *domain.SubjectData,
		style domain.Style,
	) (domain.EvaluationResult, error)
	EvaluateLocal(img image.Image, style domain.Style) domain.EvaluationResult
}

// Recorder appends style outcomes to the generation ledger.
type Recorder interface {
	RecordGeneration(ctx context.Context, rec domain.GenerationRecord) error
}
