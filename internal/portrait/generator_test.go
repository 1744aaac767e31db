package portrait_test

import (
	"context"
	"errors"
	"image"
	"strings"
	"sync"
	"testing"

	"github.com/phrazzld/portrait-generator/internal/config"
	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/evaluation"
	"github.com/phrazzld/portrait-generator/internal/generation"
	"github.com/phrazzld/portrait-generator/internal/mocks"
	"github.com/phrazzld/portrait-generator/internal/overlay"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
	"github.com/phrazzld/portrait-generator/internal/portrait"
	"github.com/phrazzld/portrait-generator/internal/prompt"
	"github.com/phrazzld/portrait-generator/internal/storage"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSubject = "Ada Lovelace"

type stubResearcher struct {
	mu      sync.Mutex
	calls   int
	forgets []string
	err     error
}

func (s *stubResearcher) Forget(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forgets = append(s.forgets, name)
}

func (s *stubResearcher) Research(_ context.Context, name string) (*domain.SubjectData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.SubjectData{
		Name:      name,
		BirthYear: 1815,
		DeathYear: domain.IntPtr(1852),
		Era:       "Victorian Era",
	}, nil
}

func (s *stubResearcher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubEvaluator struct {
	mu     sync.Mutex
	pass   func(style domain.Style, call int) bool
	calls  map[domain.Style]int
	locals int
}

func (s *stubEvaluator) Evaluate(
	_ context.Context,
	_ image.Image,
	_ *domain.SubjectData,
	style domain.Style,
) (domain.EvaluationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[domain.Style]int{}
	}
	s.calls[style]++

	passed := s.pass == nil || s.pass(style, s.calls[style])
	r := domain.EvaluationResult{
		Passed: passed,
		Scores: map[string]float64{domain.ScoreOverall: 0.95},
	}
	if !passed {
		r.Scores[domain.ScoreOverall] = 0.40
		r.Issues = []string{"too blurry"}
	}
	return r, nil
}

func (s *stubEvaluator) EvaluateLocal(_ image.Image, _ domain.Style) domain.EvaluationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locals++
	return domain.EvaluationResult{Passed: true, Scores: map[string]float64{domain.ScoreTechnical: 1}}
}

type stubFinder struct {
	refs    []domain.ReferenceImage
	data    []generation.ReferenceData
	limit   int
	cleaned []domain.ReferenceImage
}

func (s *stubFinder) Find(_ context.Context, _ *domain.SubjectData, maxImages int) []domain.ReferenceImage {
	s.limit = maxImages
	return s.refs
}

func (s *stubFinder) Download(context.Context, string, []domain.ReferenceImage) []generation.ReferenceData {
	return s.data
}

func (s *stubFinder) Cleanup(_ context.Context, images []domain.ReferenceImage) {
	s.cleaned = append(s.cleaned, images...)
}

type stubValidator struct {
	result domain.ValidationResult
}

func (s stubValidator) Validate(
	context.Context,
	*domain.SubjectData,
	domain.Style,
	string,
	[]domain.ReferenceImage,
) domain.ValidationResult {
	return s.result
}

type stubRecorder struct {
	mu      sync.Mutex
	records []domain.GenerationRecord
	err     error
}

func (s *stubRecorder) RecordGeneration(_ context.Context, rec domain.GenerationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return s.err
}

type fixture struct {
	gen        *portrait.Generator
	images     *mocks.MockImageGenerator
	researcher *stubResearcher
	evaluator  *stubEvaluator
	recorder   *stubRecorder
	store      *storage.Store
}

func newFixture(
	t *testing.T,
	images *mocks.MockImageGenerator,
	opts portrait.Options,
	customize func(*portrait.Dependencies),
) *fixture {
	t.Helper()
	log := logger.Discard()

	store, err := storage.NewStore(afero.NewMemMapFs(), "out", log)
	require.NoError(t, err)
	engine, err := overlay.NewEngine(log)
	require.NoError(t, err)
	builder, err := prompt.NewBuilder(generation.ProfileFor(generation.ModelGemini2Flash), log)
	require.NoError(t, err)

	f := &fixture{
		images:     images,
		researcher: &stubResearcher{},
		evaluator:  &stubEvaluator{},
		recorder:   &stubRecorder{},
		store:      store,
	}
	deps := portrait.Dependencies{
		Images:     images,
		Researcher: f.researcher,
		Prompts:    builder,
		Evaluator:  f.evaluator,
		Recorder:   f.recorder,
		Overlay:    engine,
		Store:      store,
		Logger:     log,
	}
	if customize != nil {
		customize(&deps)
	}

	f.gen, err = portrait.NewGenerator(deps, opts)
	require.NoError(t, err)
	return f
}

func defaultOptions() portrait.Options {
	return portrait.Options{MaxAttempts: 2, MaxWorkers: 4, SmartRetry: true, SavePrompts: true}
}

func TestGenerateAllStyles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)

	result, err := f.gen.Generate(context.Background(), testSubject, nil, false)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 4, f.images.Calls())
	assert.Equal(t, 1, f.researcher.count())
	require.NotNil(t, result.Metadata)
	assert.Equal(t, 1815, result.Metadata.BirthYear)

	for _, style := range domain.AllStyles() {
		assert.Equal(t, "out/AdaLovelace_"+string(style)+".png", result.Files[style])
		assert.Equal(t, "out/AdaLovelace_"+string(style)+"_prompt.md", result.Prompts[style])
		assert.Equal(t, 1, result.Attempts[style])
		assert.True(t, result.Evaluation[style].Passed)
		assert.False(t, result.Skipped[style])
		assert.True(t, f.store.Exists(testSubject, style))
	}
	assert.True(t, result.AllPassed())

	for _, req := range f.images.Requests() {
		assert.Equal(t, generation.PortraitAspectRatio, req.AspectRatio)
		assert.Contains(t, req.Prompt, testSubject)
	}

	assert.Len(t, f.recorder.records, 4)
}

func TestGenerateWritesOverlay(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(200, 200), defaultOptions(), nil)

	_, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StyleBW}, false)
	require.NoError(t, err)

	img, err := f.store.LoadImage(testSubject, domain.StyleBW)
	require.NoError(t, err)
	assert.True(t, overlay.Validate(img), "saved portrait carries the title bar")

	r, g, b := overlay.RGB(img, 5, 5)
	assert.True(t, r == g && g == b, "BW portrait is grayscale")
}

func TestGenerateSkipsExistingWithoutNetworkCalls(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)
	ctx := context.Background()

	_, err := f.gen.Generate(ctx, testSubject, nil, false)
	require.NoError(t, err)
	require.Equal(t, 4, f.images.Calls())
	require.Equal(t, 1, f.researcher.count())

	f.images.Reset()
	result, err := f.gen.Generate(ctx, testSubject, nil, false)
	require.NoError(t, err)

	assert.Zero(t, f.images.Calls(), "no image calls")
	assert.Equal(t, 1, f.researcher.count(), "no research call")
	assert.True(t, result.Success)
	assert.Nil(t, result.Metadata)
	assert.Len(t, result.Evaluation, 4)
	assert.Equal(t, 4, f.evaluator.locals)
	for _, style := range domain.AllStyles() {
		assert.True(t, result.Skipped[style])
		assert.Zero(t, result.Attempts[style])
		assert.NotEmpty(t, result.Files[style])
		assert.NotEmpty(t, result.Prompts[style])
	}
}

func TestGenerateNonLatinSubjectsKeepSeparateFiles(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)
	ctx := context.Background()
	bw := []domain.Style{domain.StyleBW}

	first, err := f.gen.Generate(ctx, "毛泽东", bw, false)
	require.NoError(t, err)
	f.images.Reset()

	second, err := f.gen.Generate(ctx, "孙中山", bw, false)
	require.NoError(t, err)

	assert.Equal(t, 1, f.images.Calls(), "second subject is generated, not reused")
	assert.False(t, second.Skipped[domain.StyleBW])
	assert.Equal(t, "out/孙中山_BW.png", second.Files[domain.StyleBW])
	assert.NotEqual(t, first.Files[domain.StyleBW], second.Files[domain.StyleBW])
}

func TestGenerateForceRegenerates(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)
	ctx := context.Background()

	_, err := f.gen.Generate(ctx, testSubject, []domain.Style{domain.StyleColor}, false)
	require.NoError(t, err)

	result, err := f.gen.Generate(ctx, testSubject, []domain.Style{domain.StyleColor}, true)
	require.NoError(t, err)

	assert.Equal(t, 2, f.images.Calls())
	assert.Equal(t, 2, f.researcher.count())
	assert.False(t, result.Skipped[domain.StyleColor])
	assert.Equal(t, []string{testSubject}, f.researcher.forgets, "only the forced run drops cached research")
}

func TestGeneratePartialSkip(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)
	ctx := context.Background()

	_, err := f.gen.Generate(ctx, testSubject, []domain.Style{domain.StyleBW}, false)
	require.NoError(t, err)
	f.images.Reset()

	result, err := f.gen.Generate(ctx, testSubject, []domain.Style{domain.StyleBW, domain.StyleSepia}, false)
	require.NoError(t, err)

	assert.Equal(t, 1, f.images.Calls())
	assert.True(t, result.Skipped[domain.StyleBW])
	assert.False(t, result.Skipped[domain.StyleSepia])
	assert.Len(t, result.Evaluation, 2)
	assert.True(t, result.Success)
}

func TestGenerateRetryIsBounded(t *testing.T) {
	t.Parallel()

	opts := defaultOptions()
	opts.MaxAttempts = 3
	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), opts, nil)
	f.evaluator.pass = func(domain.Style, int) bool { return false }

	result, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StylePainting}, false)
	require.NoError(t, err)

	assert.Equal(t, 3, f.images.Calls())
	assert.Equal(t, 3, result.Attempts[domain.StylePainting])
	assert.False(t, result.Evaluation[domain.StylePainting].Passed)
	assert.Equal(t, []string{"too blurry"}, result.Evaluation[domain.StylePainting].Issues)
	assert.True(t, f.store.Exists(testSubject, domain.StylePainting), "last rendered image is kept")
	assert.False(t, result.AllPassed())

	reqs := f.images.Requests()
	assert.False(t, strings.Contains(reqs[0].Prompt, "RETRY REFINEMENT"))
	assert.True(t, strings.HasPrefix(reqs[1].Prompt, "\nRETRY REFINEMENT:"))
	assert.Contains(t, reqs[1].Prompt, "too blurry")
	assert.Equal(t, 2, strings.Count(reqs[2].Prompt, "RETRY REFINEMENT:"))
}

func TestGeneratePortraitFramePassesRealEvaluator(t *testing.T) {
	t.Parallel()

	images := &mocks.MockImageGenerator{Result: &generation.ImageResult{
		Data:     mocks.DetailedPNG(300, 400),
		MIMEType: "image/png",
	}}
	eval, err := evaluation.NewEvaluator(generation.ProfileFor(generation.ModelGemini2Flash), nil, 300, 400, logger.Discard())
	require.NoError(t, err)

	opts := defaultOptions()
	opts.MaxAttempts = 3
	f := newFixture(t, images, opts, func(d *portrait.Dependencies) { d.Evaluator = eval })
	ctx := context.Background()
	styles := []domain.Style{domain.StyleColor}

	result, err := f.gen.Generate(ctx, testSubject, styles, false)
	require.NoError(t, err)

	assert.Equal(t, 1, images.Calls(), "a passing first attempt is not retried")
	assert.Equal(t, 1, result.Attempts[domain.StyleColor])
	assert.True(t, result.Evaluation[domain.StyleColor].Passed, "issues: %v", result.Evaluation[domain.StyleColor].Issues)

	reused, err := f.gen.Generate(ctx, testSubject, styles, false)
	require.NoError(t, err)
	assert.True(t, reused.Skipped[domain.StyleColor])
	assert.True(t, reused.Evaluation[domain.StyleColor].Passed, "reused portrait passes local scoring")
}

func TestGenerateRetryRecovers(t *testing.T) {
	t.Parallel()

	png := mocks.GradientPNG(64, 64)
	calls := 0
	images := &mocks.MockImageGenerator{
		GenerateImageFn: func(context.Context, generation.ImageRequest) (*generation.ImageResult, error) {
			calls++
			if calls == 1 {
				return nil, generation.ErrRateLimited
			}
			return &generation.ImageResult{Data: png, MIMEType: "image/png"}, nil
		},
	}
	f := newFixture(t, images, defaultOptions(), nil)

	result, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StyleColor}, false)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.Attempts[domain.StyleColor])
	assert.True(t, result.Evaluation[domain.StyleColor].Passed)

	reqs := images.Requests()
	require.Len(t, reqs, 2)
	assert.Contains(t, reqs[1].Prompt, "Previous attempt failed with: rate limited")

	saved, err := f.store.ReadPrompt(testSubject, domain.StyleColor)
	require.NoError(t, err)
	assert.Equal(t, reqs[1].Prompt, string(saved), "saved prompt is the one that produced the image")
}

func TestGenerateWithoutSmartRetryKeepsPrompt(t *testing.T) {
	t.Parallel()

	opts := defaultOptions()
	opts.SmartRetry = false
	f := newFixture(t, mocks.NewMockImageGeneratorWithError(generation.ErrContentBlocked), opts, nil)

	result, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StyleBW}, false)
	require.NoError(t, err)

	reqs := f.images.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, reqs[0].Prompt, reqs[1].Prompt)
	assert.False(t, result.Success)
}

func TestGenerateParallelFailuresAreIsolated(t *testing.T) {
	t.Parallel()

	png := mocks.GradientPNG(64, 64)
	images := &mocks.MockImageGenerator{
		GenerateImageFn: func(_ context.Context, req generation.ImageRequest) (*generation.ImageResult, error) {
			if strings.Contains(req.Prompt, "STYLE: Sepia") {
				return nil, generation.ErrContentBlocked
			}
			return &generation.ImageResult{Data: png, MIMEType: "image/png"}, nil
		},
	}
	f := newFixture(t, images, defaultOptions(), nil)

	result, err := f.gen.Generate(context.Background(), testSubject, nil, false)
	require.NoError(t, err)

	assert.Len(t, result.Evaluation, 4, "one entry per style")
	assert.Len(t, result.Attempts, 4)
	assert.Len(t, result.Files, 3)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "failed to generate Sepia portrait")

	sepia := result.Evaluation[domain.StyleSepia]
	assert.False(t, sepia.Passed)
	assert.Equal(t, []string{"Retry generation"}, sepia.Recommendations)
	assert.Equal(t, 2, result.Attempts[domain.StyleSepia])
	assert.Equal(t, 5, f.images.Calls())
	assert.True(t, f.store.Exists(testSubject, domain.StylePainting))
	assert.False(t, f.store.Exists(testSubject, domain.StyleSepia))
}

func TestGenerateAllStylesFail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithError(errors.New("boom")), defaultOptions(), nil)

	result, err := f.gen.Generate(context.Background(), testSubject, nil, false)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Len(t, result.Evaluation, 4)
	assert.Len(t, result.Errors, 4)
	assert.Empty(t, result.Files)
	assert.Equal(t, 8, f.images.Calls())
	assert.Len(t, result.Prompts, 4, "prompts are kept for inspection")
}

func TestGenerateResearchFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)
	f.researcher.err = errors.New("quota exhausted")

	result, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StyleBW, domain.StyleColor}, false)
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Zero(t, f.images.Calls())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "quota exhausted")
	assert.Len(t, result.Evaluation, 2)
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)

	_, err := f.gen.Generate(context.Background(), "A", nil, false)
	assert.ErrorIs(t, err, domain.ErrInvalidSubjectName)

	_, err = f.gen.Generate(context.Background(), "Ada/Lovelace", nil, false)
	assert.ErrorIs(t, err, domain.ErrInvalidSubjectName)

	_, err = f.gen.Generate(context.Background(), testSubject, []domain.Style{"bw"}, false)
	assert.ErrorIs(t, err, domain.ErrInvalidStyle)

	assert.Zero(t, f.images.Calls())
	assert.Zero(t, f.researcher.count())
}

func TestGenerateUsesReferencesAndGrounding(t *testing.T) {
	t.Parallel()

	finder := &stubFinder{
		refs: []domain.ReferenceImage{{URL: "https://example.org/a.jpg", Source: "example.org"}},
		data: []generation.ReferenceData{{Data: []byte{1, 2, 3}, MIMEType: "image/jpeg"}},
	}
	opts := defaultOptions()
	opts.ReferenceLimit = 3
	opts.Grounding = true
	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), opts, func(d *portrait.Dependencies) {
		d.References = finder
	})

	_, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StyleColor}, false)
	require.NoError(t, err)

	assert.Equal(t, 3, finder.limit)
	reqs := f.images.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, finder.data, reqs[0].References)
	assert.True(t, reqs[0].UseGrounding)
	assert.Equal(t, finder.refs, finder.cleaned, "downloads are removed once the subject is done")
}

func TestGeneratePreflightIsAdvisory(t *testing.T) {
	t.Parallel()

	validator := stubValidator{result: domain.ValidationResult{
		IsValid:    false,
		Confidence: 0.4,
		Issues:     []string{"Prompt is too short (minimum 50 characters)"},
	}}
	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), func(d *portrait.Dependencies) {
		d.Validator = validator
	})

	result, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StyleBW}, false)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, f.images.Calls())
	assert.Equal(t, []string{
		"Pre-generation validation confidence 0.40",
		"Pre-generation issue: Prompt is too short (minimum 50 characters)",
	}, result.Evaluation[domain.StyleBW].Feedback)
}

func TestGenerateWithoutEvaluator(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), func(d *portrait.Dependencies) {
		d.Evaluator = nil
		d.Recorder = nil
	})

	result, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StyleBW}, false)
	require.NoError(t, err)
	assert.True(t, result.Evaluation[domain.StyleBW].Passed)
	assert.Equal(t, 1, result.Attempts[domain.StyleBW])
}

func TestGenerateRecorderErrorsAreIgnored(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)
	f.recorder.err = errors.New("database down")

	result, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StyleBW}, false)
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.Len(t, f.recorder.records, 1)
	assert.Equal(t, domain.StyleBW, f.recorder.records[0].Style)
	assert.True(t, f.recorder.records[0].Passed)
}

func TestGenerateCancelledContext(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := f.gen.Generate(ctx, testSubject, []domain.Style{domain.StyleBW}, false)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Zero(t, f.images.Calls())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], context.Canceled.Error())
}

func TestBatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)

	results, err := f.gen.Batch(context.Background(), []string{"Ada Lovelace", "?", "Alan Turing"}, []domain.Style{domain.StyleBW}, false)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.NotEmpty(t, results[1].Errors)
	assert.True(t, results[2].Success)
	assert.Equal(t, 2, f.images.Calls())

	_, err = f.gen.Batch(context.Background(), nil, nil, false)
	assert.ErrorIs(t, err, portrait.ErrNoSubjects)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckExisting(t *testing.T) {
	t.Parallel()

	f := newFixture(t, mocks.NewMockImageGeneratorWithImage(64, 64), defaultOptions(), nil)
	_, err := f.gen.Generate(context.Background(), testSubject, []domain.Style{domain.StylePainting}, false)
	require.NoError(t, err)

	assert.Equal(t, map[domain.Style]bool{
		domain.StyleBW:       false,
		domain.StyleSepia:    false,
		domain.StyleColor:    false,
		domain.StylePainting: true,
	}, f.gen.CheckExisting(testSubject))
}

func TestNewGeneratorValidation(t *testing.T) {
	t.Parallel()

	_, err := portrait.NewGenerator(portrait.Dependencies{}, portrait.Options{})
	assert.Error(t, err)
}

func TestOptionsFor(t *testing.T) {
	t.Parallel()

	profile := generation.ProfileFor(generation.ModelGemini3ProImage)
	cfg := config.GenerationConfig{MaxStyleWorkers: 2, SavePrompts: true, EnableReferences: true}

	opts := portrait.OptionsFor(profile, cfg)
	assert.Equal(t, profile.Generation.MaxGenerationAttempts, opts.MaxAttempts)
	assert.Equal(t, 2, opts.MaxWorkers)
	assert.Equal(t, profile.ReferenceLimit(), opts.ReferenceLimit)
	assert.True(t, opts.Grounding)
	assert.True(t, opts.SavePrompts)

	cfg.MaxGenerationAttempts = 4
	cfg.EnableReferences = false
	cfg.MaxStyleWorkers = 0
	opts = portrait.OptionsFor(generation.ProfileFor(generation.ModelGemini2Flash), cfg)
	assert.Equal(t, 4, opts.MaxAttempts)
	assert.Equal(t, portrait.MaxStyleWorkers, opts.MaxWorkers)
	assert.Zero(t, opts.ReferenceLimit)
	assert.False(t, opts.Grounding)
}
