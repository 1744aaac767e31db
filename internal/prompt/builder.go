package prompt

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/generation"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// maxReferencesListed caps the reference sources named in a prompt.
const maxReferencesListed = 5

// ErrMissingSubject is returned when a prompt is requested without subject data.
var ErrMissingSubject = errors.New("subject data is required to build a prompt")

// Context carries everything a full prompt is built from.
type Context struct {
	Subject    *domain.SubjectData
	Style      domain.Style
	References []domain.ReferenceImage

	NativeText   bool
	PhysicsAware bool
	FactChecking bool
}

// Builder renders prompts for one model profile.
type Builder struct {
	profile   generation.Profile
	templates *template.Template
	logger    *slog.Logger
}

// NewBuilder parses the embedded templates.
func NewBuilder(profile generation.Profile, logger *slog.Logger) (*Builder, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	funcs := template.FuncMap{
		"join":    strings.Join,
		"inc":     func(i int) int { return i + 1 },
		"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	}
	tmpl, err := template.New("portrait").Funcs(funcs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}

	return &Builder{
		profile:   profile,
		templates: tmpl,
		logger:    logger.With("component", "prompt_builder"),
	}, nil
}

// ForSubject picks the prompt the profile's model can make use of: the full
// prompt (plus reasoning directives when the model reasons internally) for
// models with grounding or reasoning, the simple prompt otherwise.
func (b *Builder) ForSubject(
	ctx context.Context,
	subject *domain.SubjectData,
	style domain.Style,
	refs []domain.ReferenceImage,
) (string, error) {
	caps := b.profile.Capabilities
	if !caps.GoogleSearchGrounding && !caps.InternalReasoning {
		return b.BuildSimple(subject, style)
	}

	prompt, err := b.Build(ctx, Context{
		Subject:      subject,
		Style:        style,
		References:   refs,
		NativeText:   caps.NativeTextRendering,
		PhysicsAware: caps.PhysicsAwareSynthesis,
		FactChecking: b.profile.SupportsGrounding(),
	})
	if err != nil {
		return "", err
	}

	if caps.InternalReasoning {
		gen := b.profile.Generation
		prompt = EnhanceWithReasoning(prompt, gen.EnableIterativeRefinement, gen.MaxInternalIterations)
	}
	return prompt, nil
}

// Build renders the full prompt. Sections are joined by blank lines in a
// fixed order; optional ones are included according to pc.
func (b *Builder) Build(ctx context.Context, pc Context) (string, error) {
	if pc.Subject == nil {
		return "", ErrMissingSubject
	}

	if len(pc.References) > maxReferencesListed {
		pc.References = pc.References[:maxReferencesListed]
	}

	b.logger.InfoContext(ctx, "building prompt",
		"subject", pc.Subject.Name,
		"style", pc.Style,
		"references", len(pc.References))

	sections := []string{"subject"}
	if len(pc.References) > 0 {
		sections = append(sections, "references")
	}
	sections = append(sections, "composition", styleSection(pc.Style))
	if pc.NativeText {
		sections = append(sections, "text")
	}
	sections = append(sections, "quality")
	if pc.PhysicsAware {
		sections = append(sections, "physics")
	}
	if pc.FactChecking {
		sections = append(sections, "factcheck")
	}
	sections = append(sections, "final")

	prompt, err := b.render(sections, pc)
	if err != nil {
		return "", err
	}

	b.logger.DebugContext(ctx, "built prompt", "length", len(prompt))
	return prompt, nil
}

// BuildSimple renders the short prompt used for models without advanced
// features: header, composition, style and quality sections only.
func (b *Builder) BuildSimple(subject *domain.SubjectData, style domain.Style) (string, error) {
	if subject == nil {
		return "", ErrMissingSubject
	}
	return b.render(
		[]string{"simple", "composition", styleSection(style), "quality"},
		Context{Subject: subject, Style: style},
	)
}

func (b *Builder) render(sections []string, pc Context) (string, error) {
	parts := make([]string, 0, len(sections))
	for _, name := range sections {
		if b.templates.Lookup(name) == nil {
			parts = append(parts, fmt.Sprintf("STYLE: %s portrait with photorealistic quality", pc.Style))
			continue
		}
		var sb strings.Builder
		if err := b.templates.ExecuteTemplate(&sb, name, pc); err != nil {
			return "", fmt.Errorf("failed to execute prompt section %q: %w", name, err)
		}
		parts = append(parts, strings.TrimSpace(sb.String()))
	}
	return strings.Join(parts, "\n\n"), nil
}

func styleSection(style domain.Style) string {
	return "style/" + string(style)
}
