package portrait

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/generation"
	"github.com/phrazzld/portrait-generator/internal/overlay"
	"github.com/phrazzld/portrait-generator/internal/storage"
	"golang.org/x/sync/errgroup"
)

// ErrNoSubjects is returned by Batch for an empty subject list.
var ErrNoSubjects = errors.New("subject list cannot be empty")

// Dependencies are the collaborators of a Generator. References, Validator,
// Evaluator and Recorder are optional.
type Dependencies struct {
	Images     generation.ImageGenerator
	Researcher Researcher
	References ReferenceFinder
	Prompts    PromptBuilder
	Validator  Validator
	Evaluator  Evaluator
	Recorder   Recorder
	Overlay    *overlay.Engine
	Store      *storage.Store
	Logger     *slog.Logger
}

// Generator produces portraits and writes them to the output store.
type Generator struct {
	images     generation.ImageGenerator
	researcher Researcher
	references ReferenceFinder
	prompts    PromptBuilder
	validator  Validator
	evaluator  Evaluator
	recorder   Recorder
	overlay    *overlay.Engine
	store      *storage.Store
	opts       Options
	logger     *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(deps Dependencies, opts Options) (*Generator, error) {
	switch {
	case deps.Images == nil:
		return nil, errors.New("image generator cannot be nil")
	case deps.Researcher == nil:
		return nil, errors.New("researcher cannot be nil")
	case deps.Prompts == nil:
		return nil, errors.New("prompt builder cannot be nil")
	case deps.Overlay == nil:
		return nil, errors.New("overlay engine cannot be nil")
	case deps.Store == nil:
		return nil, errors.New("output store cannot be nil")
	case deps.Logger == nil:
		return nil, errors.New("logger cannot be nil")
	}

	return &Generator{
		images:     deps.Images,
		researcher: deps.Researcher,
		references: deps.References,
		prompts:    deps.Prompts,
		validator:  deps.Validator,
		evaluator:  deps.Evaluator,
		recorder:   deps.Recorder,
		overlay:    deps.Overlay,
		store:      deps.Store,
		opts:       opts.withDefaults(),
		logger:     deps.Logger.With("component", "portrait_generator"),
	}, nil
}

// Generate produces the requested styles of one subject. An empty style list
// means every style. Styles whose portrait already exists are skipped unless
// force is set; when every style is skipped no network call is made.
//
// Generate returns an error only for invalid input. Failures while
// generating are reported through the result's Success flag and Errors.
func (g *Generator) Generate(
	ctx context.Context,
	subjectName string,
	styles []domain.Style,
	force bool,
) (*domain.PortraitResult, error) {
	if err := domain.ValidateSubjectName(subjectName); err != nil {
		return nil, err
	}
	subjectName = strings.TrimSpace(subjectName)
	styles, err := normalizeStyles(styles)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result := domain.NewPortraitResult(subjectName)
	log := g.logger.With("subject", subjectName)

	var pending []domain.Style
	for _, style := range styles {
		if !force && g.store.Exists(subjectName, style) {
			g.recordSkipped(ctx, result, style)
			continue
		}
		pending = append(pending, style)
	}

	if len(pending) == 0 {
		log.InfoContext(ctx, "all portraits exist, skipping generation", "styles", styles)
		return g.finish(ctx, result, styles, start), nil
	}

	log.InfoContext(ctx, "generating portraits", "styles", pending, "skipped", len(styles)-len(pending))

	if force {
		g.researcher.Forget(subjectName)
	}

	subject, err := g.researcher.Research(ctx, subjectName)
	if err != nil {
		msg := fmt.Sprintf("Research failed: %v", err)
		log.ErrorContext(ctx, "research failed", "error", err)
		result.Errors = append(result.Errors, msg)
		for _, style := range pending {
			result.Evaluation[style] = domain.FailedEvaluation(msg)
		}
		return g.finish(ctx, result, styles, start), nil
	}
	result.Metadata = subject

	refs, refData := g.findReferences(ctx, subject)

	var (
		mu    sync.Mutex
		group errgroup.Group
	)
	group.SetLimit(min(g.opts.MaxWorkers, len(pending)))
	for i, style := range pending {
		group.Go(func() error {
			log.InfoContext(ctx, "generating style", "style", style, "index", i+1, "of", len(pending))
			out := g.generateStyle(ctx, subject, style, refs, refData)

			mu.Lock()
			defer mu.Unlock()
			out.apply(result, style)
			return nil
		})
	}
	_ = group.Wait()

	if g.references != nil && len(refs) > 0 {
		g.references.Cleanup(ctx, refs)
	}

	return g.finish(ctx, result, styles, start), nil
}

// Batch generates each subject in turn. Invalid subjects produce a failed
// result instead of stopping the batch.
func (g *Generator) Batch(
	ctx context.Context,
	subjects []string,
	styles []domain.Style,
	force bool,
) ([]*domain.PortraitResult, error) {
	if len(subjects) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, ErrNoSubjects)
	}

	g.logger.InfoContext(ctx, "starting batch", "subjects", len(subjects))
	results := make([]*domain.PortraitResult, 0, len(subjects))
	succeeded := 0
	for i, name := range subjects {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := g.Generate(ctx, name, styles, force)
		if err != nil {
			result = domain.NewPortraitResult(name)
			result.Errors = append(result.Errors, err.Error())
		}
		if result.Success {
			succeeded++
		}
		g.logger.InfoContext(ctx, "batch subject complete",
			"subject", name,
			"index", i+1,
			"of", len(subjects),
			"success", result.Success)
		results = append(results, result)
	}

	g.logger.InfoContext(ctx, "batch complete", "succeeded", succeeded, "total", len(results))
	return results, nil
}

// CheckExisting reports which styles of a subject are already on disk.
func (g *Generator) CheckExisting(subjectName string) map[domain.Style]bool {
	return g.store.Status(subjectName, domain.AllStyles())
}

// recordSkipped fills in a style whose portrait exists. The existing image
// is scored with local heuristics only.
func (g *Generator) recordSkipped(ctx context.Context, result *domain.PortraitResult, style domain.Style) {
	result.Skipped[style] = true
	result.Attempts[style] = 0
	result.Files[style] = g.store.ImagePath(result.Subject, style)
	if _, err := g.store.ReadPrompt(result.Subject, style); err == nil {
		result.Prompts[style] = g.store.PromptPath(result.Subject, style)
	}

	if g.evaluator == nil {
		result.Evaluation[style] = domain.EvaluationResult{
			Passed:   true,
			Scores:   map[string]float64{},
			Feedback: []string{"Existing portrait reused"},
		}
		return
	}

	img, err := g.store.LoadImage(result.Subject, style)
	if err != nil {
		g.logger.WarnContext(ctx, "failed to load existing portrait", "subject", result.Subject, "style", style, "error", err)
		result.Evaluation[style] = domain.FailedEvaluation(fmt.Sprintf("Existing %s portrait unreadable: %v", style, err))
		return
	}
	result.Evaluation[style] = g.evaluator.EvaluateLocal(img, style)
}

func (g *Generator) findReferences(
	ctx context.Context,
	subject *domain.SubjectData,
) ([]domain.ReferenceImage, []generation.ReferenceData) {
	if g.references == nil || g.opts.ReferenceLimit == 0 {
		return nil, nil
	}
	refs := g.references.Find(ctx, subject, g.opts.ReferenceLimit)
	if len(refs) == 0 {
		g.logger.InfoContext(ctx, "no reference images found", "subject", subject.Name)
		return refs, nil
	}
	data := g.references.Download(ctx, subject.Name, refs)
	g.logger.InfoContext(ctx, "reference images ready",
		"subject", subject.Name,
		"found", len(refs),
		"downloaded", len(data))
	return refs, data
}

// finish computes success and the elapsed time, then writes the ledger.
func (g *Generator) finish(
	ctx context.Context,
	result *domain.PortraitResult,
	styles []domain.Style,
	start time.Time,
) *domain.PortraitResult {
	complete := true
	for _, style := range styles {
		if result.Files[style] == "" {
			complete = false
		}
	}
	result.Success = complete && len(result.Errors) == 0
	result.GenerationTime = time.Since(start)

	if g.recorder != nil {
		for _, style := range styles {
			if err := g.recorder.RecordGeneration(ctx, domain.NewGenerationRecord(result, style)); err != nil {
				g.logger.WarnContext(ctx, "failed to record generation", "subject", result.Subject, "style", style, "error", err)
			}
		}
	}

	g.logger.InfoContext(ctx, "portrait generation complete",
		"subject", result.Subject,
		"success", result.Success,
		"files", len(result.Files),
		"passed", result.PassedCount(),
		"errors", len(result.Errors),
		"duration_ms", result.GenerationTime.Milliseconds())
	return result
}

func normalizeStyles(styles []domain.Style) ([]domain.Style, error) {
	if len(styles) == 0 {
		return domain.AllStyles(), nil
	}
	seen := make(map[domain.Style]bool, len(styles))
	out := make([]domain.Style, 0, len(styles))
	for _, s := range styles {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStyle, s)
		}
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out, nil
}
