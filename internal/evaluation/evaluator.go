package evaluation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/generation"
)

// Pass thresholds applied to every evaluation.
const (
	MinTechnicalScore     = 0.95
	MinVisualQualityScore = 0.85
	MinAccuracyScore      = 0.80
	MinStyleScore         = 0.80

	// rubricFallback is used for rubric scores the model did not report.
	rubricFallback = 0.80
)

// Evaluator scores portraits for one model profile.
type Evaluator struct {
	profile generation.Profile
	querier generation.TextQuerier
	width   int
	height  int
	logger  *slog.Logger
}

// NewEvaluator creates an Evaluator expecting images framed like
// width x height and no smaller than that.
// querier may be nil, in which case only local heuristics are used.
func NewEvaluator(
	profile generation.Profile,
	querier generation.TextQuerier,
	width, height int,
	logger *slog.Logger,
) (*Evaluator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("expected resolution must be positive, got %dx%d", width, height)
	}
	return &Evaluator{
		profile: profile,
		querier: querier,
		width:   width,
		height:  height,
		logger:  logger.With("component", "evaluator"),
	}, nil
}

// Holistic reports whether model-graded evaluation is used.
func (e *Evaluator) Holistic() bool {
	return e.querier != nil &&
		e.profile.Evaluation.UseHolisticReasoning &&
		e.profile.Capabilities.InternalReasoning
}

// Evaluate scores img. Model queries that fail fall back to heuristic or
// default scores; Evaluate itself only fails on missing input.
func (e *Evaluator) Evaluate(
	ctx context.Context,
	img image.Image,
	subject *domain.SubjectData,
	style domain.Style,
) (domain.EvaluationResult, error) {
	if img == nil {
		return domain.EvaluationResult{}, errors.New("image cannot be nil")
	}
	if subject == nil {
		return domain.EvaluationResult{}, errors.New("subject data cannot be nil")
	}

	r := e.local(img, style)

	if e.Holistic() {
		e.applyRubric(ctx, &r, subject, style)
		if e.profile.Evaluation.EnableFactChecking && e.profile.SupportsGrounding() {
			e.applyFactCheck(ctx, &r, subject, style)
		}
		r.Scores[domain.ScoreOverall] = e.weightedScore(r.Scores)
	}

	r.Passed = e.passed(r.Scores)

	e.logger.InfoContext(ctx, "evaluation complete",
		"subject", subject.Name,
		"style", style,
		"passed", r.Passed,
		"holistic", e.Holistic())
	return r, nil
}

// EvaluateLocal scores img with local heuristics only. It never calls the
// model and is used for portraits that already exist on disk.
func (e *Evaluator) EvaluateLocal(img image.Image, style domain.Style) domain.EvaluationResult {
	if img == nil {
		return domain.FailedEvaluation("image cannot be nil")
	}
	r := e.local(img, style)
	r.Passed = e.passed(r.Scores)
	return r
}

func (e *Evaluator) local(img image.Image, style domain.Style) domain.EvaluationResult {
	r := domain.EvaluationResult{
		Scores:          map[string]float64{},
		Feedback:        []string{},
		Issues:          []string{},
		Recommendations: []string{},
	}

	checks := TechnicalChecks(img, e.width, e.height)
	r.Scores[domain.ScoreTechnical] = TechnicalScore(checks)
	for _, c := range checks {
		if c.Passed {
			r.Feedback = append(r.Feedback, "✓ "+c.Name)
		} else {
			r.Issues = append(r.Issues, "✗ "+c.Name)
			r.Recommendations = append(r.Recommendations, "Fix "+c.Name)
		}
	}

	visual := VisualQuality(img)
	r.Scores[domain.ScoreVisualQuality] = visual
	if visual >= MinVisualQualityScore {
		r.Feedback = append(r.Feedback, fmt.Sprintf("✓ Visual quality: %.2f", visual))
	} else {
		r.Issues = append(r.Issues, fmt.Sprintf("✗ Visual quality below threshold: %.2f", visual))
		r.Recommendations = append(r.Recommendations, "Regenerate image with improved prompt")
	}

	styleScore := StyleAdherence(img, style)
	r.Scores[domain.ScoreStyleAdherence] = styleScore
	if styleScore >= MinStyleScore {
		r.Feedback = append(r.Feedback, fmt.Sprintf("✓ Style adherence: %.2f", styleScore))
	} else {
		r.Issues = append(r.Issues, fmt.Sprintf("✗ Style adherence low: %.2f", styleScore))
	}

	accuracy := HistoricalAccuracy(img)
	r.Scores[domain.ScoreHistoricalAccuracy] = accuracy
	if accuracy >= MinAccuracyScore {
		r.Feedback = append(r.Feedback, fmt.Sprintf("✓ Historical accuracy: %.2f", accuracy))
	} else {
		r.Issues = append(r.Issues, fmt.Sprintf("✗ Historical accuracy low: %.2f", accuracy))
		r.Recommendations = append(r.Recommendations, "Review era-appropriate details")
	}

	return r
}

// passed applies the fixed gates and, in holistic mode, the profile's
// quality threshold on the weighted overall score. The model's holistic
// quality score stands in for the pixel heuristic when present.
func (e *Evaluator) passed(scores map[string]float64) bool {
	visual, ok := scores[domain.ScoreHolisticQuality]
	if !ok {
		visual = scores[domain.ScoreVisualQuality]
	}

	ok = scores[domain.ScoreTechnical] >= MinTechnicalScore &&
		visual >= MinVisualQualityScore &&
		scores[domain.ScoreHistoricalAccuracy] >= MinAccuracyScore
	if !ok {
		return false
	}

	if overall, holistic := scores[domain.ScoreOverall]; holistic {
		return overall >= e.profile.Generation.QualityThreshold
	}
	return true
}

// weightedScore combines technical, visual, style and accuracy with the
// profile's weights, normalised by the weights actually present.
func (e *Evaluator) weightedScore(scores map[string]float64) float64 {
	w := e.profile.Evaluation
	visualKey := domain.ScoreVisualQuality
	if _, ok := scores[domain.ScoreHolisticQuality]; ok {
		visualKey = domain.ScoreHolisticQuality
	}

	weights := map[string]float64{
		domain.ScoreTechnical:          w.TechnicalWeight,
		visualKey:                      w.VisualQualityWeight,
		domain.ScoreStyleAdherence:     w.StyleAdherenceWeight,
		domain.ScoreHistoricalAccuracy: w.HistoricalAccuracyWeight,
	}

	var sum, total float64
	for key, weight := range weights {
		score, ok := scores[key]
		if !ok {
			continue
		}
		sum += score * weight
		total += weight
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// dedupe returns the distinct values of items in first-seen order.
func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// withoutNone drops the "none" placeholder models emit for empty lists.
func withoutNone(items []string) []string {
	var out []string
	for _, item := range items {
		if strings.EqualFold(item, "none") || strings.EqualFold(item, "n/a") {
			continue
		}
		out = append(out, item)
	}
	return out
}

// sortedKeys is used for stable log output.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
