package evaluation

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/generation"
)

// rubricPrompt asks the text model to grade a portrait. Later passes are
// asked to stay consistent with earlier ones.
func rubricPrompt(subject *domain.SubjectData, style domain.Style, pass int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate this %s portrait of %s (%s).\n\n", style, subject.Name, subject.FormattedYears())
	fmt.Fprintf(&b, `EVALUATION CRITERIA:
1. Overall Quality (0.0-1.0):
   - Image clarity and resolution
   - Professional composition
   - Technical excellence

2. Style Adherence (0.0-1.0):
   - Matches requested %s style
   - Appropriate color/tone for style
   - Artistic consistency

3. Historical Accuracy (0.0-1.0):
   - Era-appropriate clothing (%s)
   - Period-correct hairstyle and grooming
   - No anachronisms visible
   - Culturally appropriate representation

4. Visual Coherence:
   - Realistic lighting and shadows
   - Anatomically correct proportions
   - Physics-aware rendering (fabric, hair, skin)
   - Professional portrait composition

Please provide:
QUALITY_SCORE: [0.0-1.0]
STYLE_SCORE: [0.0-1.0]
ACCURACY_SCORE: [0.0-1.0]
FEEDBACK: [Positive aspects]
ISSUES: [Problems found]
RECOMMENDATIONS: [Suggested improvements]
`, style, subject.Era)

	if pass > 0 {
		fmt.Fprintf(&b, "\nThis is pass %d - verify consistency with previous assessment.\n", pass+1)
	}
	return b.String()
}

// rubricScores is the average of all rubric passes.
type rubricScores struct {
	quality, style, accuracy float64

	feedback, issues, recommendations []string
}

// synthesize averages the scores reported across passes and merges their
// lists. Scores no pass reported default to 0.80.
func synthesize(responses []string) rubricScores {
	var quality, style, accuracy []float64
	var out rubricScores

	for _, resp := range responses {
		if v := generation.ExtractScore(resp, "QUALITY_SCORE", -1); v >= 0 {
			quality = append(quality, v)
		}
		if v := generation.ExtractScore(resp, "STYLE_SCORE", -1); v >= 0 {
			style = append(style, v)
		}
		if v := generation.ExtractScore(resp, "ACCURACY_SCORE", -1); v >= 0 {
			accuracy = append(accuracy, v)
		}
		out.feedback = append(out.feedback, generation.ExtractList(resp, "FEEDBACK")...)
		out.issues = append(out.issues, withoutNone(generation.ExtractList(resp, "ISSUES"))...)
		out.recommendations = append(out.recommendations, generation.ExtractList(resp, "RECOMMENDATIONS")...)
	}

	out.quality = mean(quality, rubricFallback)
	out.style = mean(style, rubricFallback)
	out.accuracy = mean(accuracy, rubricFallback)
	out.feedback = dedupe(out.feedback)
	out.issues = dedupe(out.issues)
	out.recommendations = dedupe(out.recommendations)
	return out
}

// applyRubric runs the configured number of rubric passes and merges the
// averaged result into r. If every pass fails, the holistic quality score
// falls back to 0.80 and the heuristic scores stand.
func (e *Evaluator) applyRubric(
	ctx context.Context,
	r *domain.EvaluationResult,
	subject *domain.SubjectData,
	style domain.Style,
) {
	passes := max(1, e.profile.Evaluation.ReasoningPasses)

	responses := make([]string, 0, passes)
	for pass := range passes {
		resp, err := e.querier.QueryText(ctx, rubricPrompt(subject, style, pass))
		if err != nil {
			e.logger.WarnContext(ctx, "rubric pass failed", "pass", pass+1, "error", err)
			continue
		}
		responses = append(responses, resp)
	}

	if len(responses) == 0 {
		r.Scores[domain.ScoreHolisticQuality] = rubricFallback
		return
	}

	s := synthesize(responses)
	r.Scores[domain.ScoreHolisticQuality] = s.quality
	r.Scores[domain.ScoreStyleAdherence] = s.style
	r.Scores[domain.ScoreHistoricalAccuracy] = s.accuracy
	r.Feedback = append(r.Feedback, s.feedback...)
	r.Issues = append(r.Issues, s.issues...)
	r.Recommendations = append(r.Recommendations, s.recommendations...)

	e.logger.DebugContext(ctx, "rubric scores",
		"passes", len(responses),
		"keys", sortedKeys(r.Scores),
		"quality", s.quality,
		"style", s.style,
		"accuracy", s.accuracy)
}

// applyFactCheck verifies period details with a grounded query and replaces
// the historical accuracy score with the model's verdict when it gives one.
func (e *Evaluator) applyFactCheck(
	ctx context.Context,
	r *domain.EvaluationResult,
	subject *domain.SubjectData,
	style domain.Style,
) {
	query := fmt.Sprintf(`Use Google Search to verify the visual accuracy of this %s portrait of %s.

Check:
1. Does the clothing match %s fashion?
2. Is the hairstyle appropriate for the time period?
3. Are there any anachronistic elements?
4. Does it match known historical photographs or descriptions?

Provide:
ACCURACY_SCORE: [0.0-1.0]
VERIFIED_ELEMENTS: [What matches historical records]
CONCERNS: [Any inaccuracies or anachronisms]
`, style, subject.Name, subject.Era)

	resp, err := e.querier.QueryWithGrounding(ctx, query)
	if err != nil {
		e.logger.WarnContext(ctx, "fact check failed", "error", err)
		return
	}

	if v := generation.ExtractScore(resp, "ACCURACY_SCORE", -1); v >= 0 {
		r.Scores[domain.ScoreHistoricalAccuracy] = v
	}
	for _, item := range generation.ExtractList(resp, "VERIFIED_ELEMENTS") {
		r.Feedback = append(r.Feedback, "✓ Verified: "+item)
	}
	r.Issues = append(r.Issues, withoutNone(generation.ExtractList(resp, "CONCERNS"))...)
}

func mean(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
