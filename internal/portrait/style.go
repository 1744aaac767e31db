package portrait

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/generation"
	"github.com/phrazzld/portrait-generator/internal/overlay"
	"github.com/phrazzld/portrait-generator/internal/prompt"
)

// styleOutcome is what one style worker hands back to the result accumulator.
type styleOutcome struct {
	file       string
	promptFile string
	evaluation domain.EvaluationResult
	attempts   int
	err        error
}

func (o styleOutcome) apply(result *domain.PortraitResult, style domain.Style) {
	result.Attempts[style] = o.attempts
	result.Evaluation[style] = o.evaluation
	if o.file != "" {
		result.Files[style] = o.file
	}
	if o.promptFile != "" {
		result.Prompts[style] = o.promptFile
	}
	if o.err != nil {
		result.Errors = append(result.Errors, o.err.Error())
	}
}

// generateStyle runs the retry loop for one style. The image API is called
// at most MaxAttempts times. The last rendered image is written even when it
// fails evaluation.
func (g *Generator) generateStyle(
	ctx context.Context,
	subject *domain.SubjectData,
	style domain.Style,
	refs []domain.ReferenceImage,
	refData []generation.ReferenceData,
) styleOutcome {
	log := g.logger.With("subject", subject.Name, "style", style)

	fail := func(attempts int, err error) styleOutcome {
		err = fmt.Errorf("failed to generate %s portrait: %w", style, err)
		log.ErrorContext(ctx, "style generation failed", "attempts", attempts, "error", err)
		return styleOutcome{
			evaluation: domain.FailedEvaluation(err.Error()),
			attempts:   attempts,
			err:        err,
		}
	}

	if err := subject.Validate(); err != nil {
		return fail(0, err)
	}

	text, err := g.prompts.ForSubject(ctx, subject, style, refs)
	if err != nil {
		return fail(0, err)
	}

	var preflight []string
	if g.validator != nil {
		preflight = g.preflight(ctx, subject, style, text, refs)
	}

	var (
		rendered     image.Image
		renderPrompt string
		evaluation   domain.EvaluationResult
		lastErr      error
		attempts     int
	)
	for attempts < g.opts.MaxAttempts {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		attempts++
		log.InfoContext(ctx, "generation attempt", "attempt", attempts, "max_attempts", g.opts.MaxAttempts)

		img, err := g.render(ctx, subject, style, text, refData)
		var reason string
		if err != nil {
			lastErr = err
			reason = err.Error()
			log.WarnContext(ctx, "generation attempt failed", "attempt", attempts, "error", err)
		} else {
			rendered, renderPrompt = img, text
			lastErr = nil
			evaluation = g.evaluate(ctx, img, subject, style)
			if evaluation.Passed {
				break
			}
			reason = failureReason(evaluation)
			log.WarnContext(ctx, "portrait failed evaluation", "attempt", attempts, "issues", evaluation.Issues)
		}

		if attempts < g.opts.MaxAttempts && g.opts.SmartRetry {
			text = prompt.RefineForRetry(text, reason)
		}
	}

	if rendered == nil {
		if lastErr == nil {
			lastErr = fmt.Errorf("%w: no attempt was made", generation.ErrGenerationFailed)
		}
		out := fail(attempts, lastErr)
		if g.opts.SavePrompts {
			out.promptFile = g.savePrompt(ctx, subject.Name, style, text)
		}
		return out
	}

	file, err := g.store.SaveImage(subject.Name, style, rendered)
	if err != nil {
		return fail(attempts, err)
	}

	out := styleOutcome{file: file, attempts: attempts}
	if g.opts.SavePrompts {
		out.promptFile = g.savePrompt(ctx, subject.Name, style, renderPrompt)
	}
	evaluation.Feedback = append(evaluation.Feedback, preflight...)
	out.evaluation = evaluation

	log.InfoContext(ctx, "style complete",
		"passed", evaluation.Passed,
		"attempts", attempts,
		"score", evaluation.OverallScore())
	return out
}

// render makes one image call and post-processes the result.
func (g *Generator) render(
	ctx context.Context,
	subject *domain.SubjectData,
	style domain.Style,
	text string,
	refData []generation.ReferenceData,
) (image.Image, error) {
	res, err := g.images.GenerateImage(ctx, generation.ImageRequest{
		Prompt:       text,
		AspectRatio:  generation.PortraitAspectRatio,
		References:   refData,
		UseGrounding: g.opts.Grounding,
	})
	if err != nil {
		return nil, err
	}
	if res == nil || len(res.Data) == 0 {
		return nil, generation.ErrNoImage
	}

	img, err := overlay.Decode(res.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", generation.ErrInvalidResponse, err)
	}

	styled, err := overlay.ApplyStyle(img, style)
	if err != nil {
		return nil, err
	}
	final, err := g.overlay.Apply(styled, subject.Name, subject.FormattedYears(), overlay.DefaultOptions())
	if err != nil {
		return nil, err
	}
	return final, nil
}

func (g *Generator) evaluate(
	ctx context.Context,
	img image.Image,
	subject *domain.SubjectData,
	style domain.Style,
) domain.EvaluationResult {
	if g.evaluator == nil {
		return domain.EvaluationResult{
			Passed:   true,
			Scores:   map[string]float64{},
			Feedback: []string{"Evaluation disabled"},
		}
	}
	result, err := g.evaluator.Evaluate(ctx, img, subject, style)
	if err != nil {
		return domain.FailedEvaluation(fmt.Sprintf("Evaluation failed: %v", err))
	}
	return result
}

// preflight runs the advisory validation and returns the feedback lines to
// attach to the evaluation. It never blocks generation.
func (g *Generator) preflight(
	ctx context.Context,
	subject *domain.SubjectData,
	style domain.Style,
	text string,
	refs []domain.ReferenceImage,
) []string {
	v := g.validator.Validate(ctx, subject, style, text, refs)
	if v.IsValid {
		return nil
	}
	g.logger.WarnContext(ctx, "pre-generation validation failed, continuing",
		"subject", subject.Name,
		"style", style,
		"confidence", v.Confidence,
		"issues", v.Issues)

	feedback := []string{fmt.Sprintf("Pre-generation validation confidence %.2f", v.Confidence)}
	for _, issue := range v.Issues {
		feedback = append(feedback, "Pre-generation issue: "+issue)
	}
	return feedback
}

func (g *Generator) savePrompt(ctx context.Context, name string, style domain.Style, text string) string {
	path, err := g.store.SavePrompt(name, style, text)
	if err != nil {
		g.logger.WarnContext(ctx, "failed to save prompt", "subject", name, "style", style, "error", err)
		return ""
	}
	return path
}

func failureReason(e domain.EvaluationResult) string {
	if len(e.Issues) == 0 {
		return "quality evaluation failed"
	}
	return "quality evaluation failed: " + strings.Join(e.Issues, "; ")
}
