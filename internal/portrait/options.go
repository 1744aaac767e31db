package portrait

import (
	"github.com/phrazzld/portrait-generator/internal/config"
	"github.com/phrazzld/portrait-generator/internal/generation"
)

// Generation defaults used when neither configuration nor profile set them.
const (
	DefaultMaxAttempts = 2
	MaxStyleWorkers    = 4
)

// Options tune the generation loop.
type Options struct {
	// MaxAttempts bounds the image calls per style.
	MaxAttempts int
	// MaxWorkers bounds the styles generated at once. Capped at MaxStyleWorkers.
	MaxWorkers int
	// SmartRetry prefixes the prompt with the previous failure before a retry.
	SmartRetry bool
	// Grounding asks the image model to use search grounding.
	Grounding bool
	// ReferenceLimit is the number of reference images to look for. Zero disables them.
	ReferenceLimit int
	SavePrompts    bool
}

// OptionsFor combines the model profile with the configured overrides.
func OptionsFor(profile generation.Profile, cfg config.GenerationConfig) Options {
	opts := Options{
		MaxAttempts: profile.Generation.MaxGenerationAttempts,
		MaxWorkers:  cfg.MaxStyleWorkers,
		SmartRetry:  profile.Generation.EnableSmartRetry,
		Grounding:   profile.SupportsGrounding(),
		SavePrompts: cfg.SavePrompts,
	}
	if cfg.MaxGenerationAttempts > 0 {
		opts.MaxAttempts = cfg.MaxGenerationAttempts
	}
	if cfg.EnableReferences {
		opts.ReferenceLimit = profile.ReferenceLimit()
	}
	return opts.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.MaxWorkers <= 0 || o.MaxWorkers > MaxStyleWorkers {
		o.MaxWorkers = MaxStyleWorkers
	}
	if o.ReferenceLimit < 0 {
		o.ReferenceLimit = 0
	}
	return o
}
