package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/phrazzld/portrait-generator/internal/domain"
	"github.com/phrazzld/portrait-generator/internal/generation"
)

// Researcher looks up biographical data with a text model.
type Researcher struct {
	querier generation.TextQuerier
	logger  *slog.Logger

	// cache is nil when caching is disabled
	cache *cache.Cache
}

// NewResearcher creates a Researcher. A zero ttl disables caching.
func NewResearcher(querier generation.TextQuerier, logger *slog.Logger, ttl time.Duration) (*Researcher, error) {
	if querier == nil {
		return nil, errors.New("text querier cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	r := &Researcher{
		querier: querier,
		logger:  logger.With("component", "researcher"),
	}
	if ttl > 0 {
		r.cache = cache.New(ttl, 2*ttl)
	}
	return r, nil
}

// Research returns biographical data for name, from cache when possible.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - name: The subject's name as supplied by the user
//
// Returns:
//   - Validated SubjectData named as the caller asked; callers must not modify
//     its slices
//   - ErrResearchFailed when the model could not be queried, ErrResearchIncomplete
//     or domain.ErrInvalidSubjectData when the answer could not be used
func (r *Researcher) Research(ctx context.Context, name string) (*domain.SubjectData, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidSubjectName)
	}

	key := cacheKey(name)
	if r.cache != nil {
		if cached, ok := r.cache.Get(key); ok {
			r.logger.DebugContext(ctx, "research cache hit", "subject", name)
			data := *cached.(*domain.SubjectData)
			data.Name = strings.TrimSpace(name)
			return &data, nil
		}
	}

	r.logger.InfoContext(ctx, "researching subject", "subject", name)

	response, err := r.querier.QueryText(ctx, Prompt(name))
	if err != nil {
		return nil, fmt.Errorf("%w for %q: %w", ErrResearchFailed, name, err)
	}

	data, err := ParseResponse(name, response)
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to parse research response",
			"subject", name,
			"response_length", len(response),
			"error", err)
		return nil, fmt.Errorf("failed to parse research for %q: %w", name, err)
	}

	if r.cache != nil {
		r.cache.SetDefault(key, data)
	}

	r.logger.InfoContext(ctx, "research complete",
		"subject", data.Name,
		"years", data.FormattedYears(),
		"era", data.Era,
		"appearance_notes", len(data.AppearanceNotes))
	return data, nil
}

// Forget drops any cached research for name. The generator calls it when a
// portrait is regenerated on purpose.
func (r *Researcher) Forget(name string) {
	if r.cache != nil {
		r.cache.Delete(cacheKey(name))
	}
}

func cacheKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
