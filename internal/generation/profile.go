package generation

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Model identifiers with built-in profiles.
const (
	ModelGemini3ProImage = "gemini-3-pro-image-preview"
	ModelGeminiExp1206   = "gemini-exp-1206"
	ModelGemini2Flash    = "gemini-2.0-flash-exp"

	// DefaultModel is used when no model is configured.
	DefaultModel = ModelGemini3ProImage
)

// Capabilities lists what a model can do beyond plain image generation.
type Capabilities struct {
	GoogleSearchGrounding bool
	MultiImageReference   bool
	MaxReferenceImages    int
	InternalReasoning     bool
	PhysicsAwareSynthesis bool
	NativeTextRendering   bool
	IterativeRefinement   bool
	SupportedResolutions  []string
	TypicalGenerationTime time.Duration
}

// GenerationSettings are the per-model defaults for the generation loop.
type GenerationSettings struct {
	EnablePreGenerationChecks bool
	EnableIterativeRefinement bool
	MaxInternalIterations     int
	QualityThreshold          float64
	ConfidenceThreshold       float64
	EnableSearchGrounding     bool
	EnableReferenceImages     bool
	MaxReferenceImagesToUse   int
	MaxGenerationAttempts     int
	EnableSmartRetry          bool
}

// EvaluationSettings are the per-model defaults for quality evaluation.
// The four weights sum to 1.
type EvaluationSettings struct {
	UseHolisticReasoning     bool
	ReasoningPasses          int
	EnableFactChecking       bool
	TechnicalWeight          float64
	VisualQualityWeight      float64
	StyleAdherenceWeight     float64
	HistoricalAccuracyWeight float64
}

// Profile is the complete capability and threshold set of one model.
type Profile struct {
	ModelName    string
	DisplayName  string
	Description  string
	Recommended  bool
	Capabilities Capabilities
	Generation   GenerationSettings
	Evaluation   EvaluationSettings
}

// SupportsGrounding reports whether search grounding is both available and enabled.
func (p Profile) SupportsGrounding() bool {
	return p.Capabilities.GoogleSearchGrounding && p.Generation.EnableSearchGrounding
}

// ReferenceLimit is the number of reference images worth sending to the model.
func (p Profile) ReferenceLimit() int {
	if !p.Capabilities.MultiImageReference || !p.Generation.EnableReferenceImages {
		return 0
	}
	if p.Generation.MaxReferenceImagesToUse > p.Capabilities.MaxReferenceImages {
		return p.Capabilities.MaxReferenceImages
	}
	return p.Generation.MaxReferenceImagesToUse
}

func equalWeights() EvaluationSettings {
	return EvaluationSettings{
		TechnicalWeight:          0.25,
		VisualQualityWeight:      0.25,
		StyleAdherenceWeight:     0.25,
		HistoricalAccuracyWeight: 0.25,
	}
}

var profiles = map[string]Profile{
	ModelGemini3ProImage: {
		ModelName:   ModelGemini3ProImage,
		DisplayName: "Gemini 3 Pro Image",
		Description: "Image model with search grounding, multi-image references and internal reasoning.",
		Recommended: true,
		Capabilities: Capabilities{
			GoogleSearchGrounding: true,
			MultiImageReference:   true,
			MaxReferenceImages:    14,
			InternalReasoning:     true,
			PhysicsAwareSynthesis: true,
			NativeTextRendering:   true,
			IterativeRefinement:   true,
			SupportedResolutions:  []string{"1024x1024", "1536x1536", "2048x2048", "4096x4096"},
			TypicalGenerationTime: 45 * time.Second,
		},
		Generation: GenerationSettings{
			EnablePreGenerationChecks: true,
			EnableIterativeRefinement: true,
			MaxInternalIterations:     3,
			QualityThreshold:          0.90,
			ConfidenceThreshold:       0.85,
			EnableSearchGrounding:     true,
			EnableReferenceImages:     true,
			MaxReferenceImagesToUse:   5,
			MaxGenerationAttempts:     2,
			EnableSmartRetry:          true,
		},
		Evaluation: func() EvaluationSettings {
			e := equalWeights()
			e.UseHolisticReasoning = true
			e.ReasoningPasses = 2
			e.EnableFactChecking = true
			return e
		}(),
	},
	ModelGeminiExp1206: {
		ModelName:   ModelGeminiExp1206,
		DisplayName: "Gemini Experimental 1206",
		Description: "Experimental image model without grounding or reasoning.",
		Capabilities: Capabilities{
			SupportedResolutions:  []string{"1024x1024"},
			TypicalGenerationTime: 30 * time.Second,
		},
		Generation: GenerationSettings{
			MaxInternalIterations: 1,
			QualityThreshold:      0.80,
			ConfidenceThreshold:   0.75,
			MaxGenerationAttempts: 2,
		},
		Evaluation: func() EvaluationSettings {
			e := equalWeights()
			e.ReasoningPasses = 1
			return e
		}(),
	},
	ModelGemini2Flash: {
		ModelName:   ModelGemini2Flash,
		DisplayName: "Gemini 2.0 Flash Experimental",
		Description: "Fast model with native image output, suited to quick iterations.",
		Capabilities: Capabilities{
			NativeTextRendering:   true,
			SupportedResolutions:  []string{"1024x1024"},
			TypicalGenerationTime: 20 * time.Second,
		},
		Generation: GenerationSettings{
			MaxInternalIterations: 1,
			QualityThreshold:      0.75,
			ConfidenceThreshold:   0.70,
			MaxGenerationAttempts: 2,
		},
		Evaluation: func() EvaluationSettings {
			e := equalWeights()
			e.ReasoningPasses = 1
			return e
		}(),
	},
}

// LookupProfile returns the profile registered for model.
func LookupProfile(model string) (Profile, error) {
	p, ok := profiles[model]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unsupported model %q (available: %s)",
			ErrInvalidConfig, model, strings.Join(ModelNames(), ", "))
	}
	return p, nil
}

// ProfileFor returns the profile for model, or a conservative legacy profile
// with every advanced capability disabled when the model is unknown.
func ProfileFor(model string) Profile {
	if p, err := LookupProfile(model); err == nil {
		return p
	}
	e := equalWeights()
	e.ReasoningPasses = 1
	return Profile{
		ModelName:   model,
		DisplayName: model,
		Description: "Unknown model; advanced features disabled.",
		Capabilities: Capabilities{
			SupportedResolutions:  []string{"1024x1024"},
			TypicalGenerationTime: 30 * time.Second,
		},
		Generation: GenerationSettings{
			MaxInternalIterations: 1,
			QualityThreshold:      0.85,
			ConfidenceThreshold:   0.75,
			MaxGenerationAttempts: 2,
		},
		Evaluation: e,
	}
}

// RecommendedModel returns the name of the recommended model.
func RecommendedModel() string {
	for _, name := range ModelNames() {
		if profiles[name].Recommended {
			return name
		}
	}
	return DefaultModel
}

// ModelNames lists the models with built-in profiles, sorted.
func ModelNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
