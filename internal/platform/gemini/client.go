package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/phrazzld/portrait-generator/internal/config"
	"github.com/phrazzld/portrait-generator/internal/generation"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// MinAPIKeyLength is the shortest key accepted before contacting the API.
const MinAPIKeyLength = 20

const (
	defaultMaxRetries     = 3
	defaultBaseDelay      = 2 * time.Second
	defaultRequestTimeout = 120 * time.Second
)

// modelsAPI is the subset of *genai.Models used by the client.
type modelsAPI interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Client talks to the Gemini API for both image and text generation.
type Client struct {
	logger *slog.Logger

	// models is the vendor SDK entry point, replaced by a fake in tests
	models modelsAPI

	imageModel string
	textModel  string
	profile    generation.Profile

	maxRetries     int
	baseDelay      time.Duration
	requestTimeout time.Duration

	inflight *semaphore.Weighted
	limiter  *rate.Limiter

	// sleep waits between retries; tests replace it to avoid real delays
	sleep func(ctx context.Context, d time.Duration) error

	rngMu sync.Mutex
	rng   *rand.Rand
}

var (
	_ generation.ImageGenerator     = (*Client)(nil)
	_ generation.TextQuerier        = (*Client)(nil)
	_ generation.FeasibilityChecker = (*Client)(nil)
)

// ValidateAPIKey rejects empty, short and placeholder keys.
func ValidateAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if len(key) < MinAPIKeyLength {
		return fmt.Errorf("%w: gemini API key appears to be invalid (too short)", generation.ErrInvalidConfig)
	}
	if strings.Contains(strings.ToLower(key), "your_") {
		return fmt.Errorf("%w: gemini API key is a placeholder", generation.ErrInvalidConfig)
	}
	return nil
}

// NewClient creates a new Client with the provided dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model names and retry settings
//
// Returns:
//   - A properly initialized Client or an error if initialization fails
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := ValidateAPIKey(cfg.GeminiAPIKey); err != nil {
		return nil, err
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	c := newClient(logger, cfg, client.Models)
	logger.InfoContext(ctx, "Initialized Gemini client",
		"model", c.imageModel,
		"text_model", c.textModel,
		"grounding", c.profile.SupportsGrounding())
	return c, nil
}

// newClient wires a Client around any modelsAPI implementation.
func newClient(logger *slog.Logger, cfg config.LLMConfig, models modelsAPI) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		logger.Warn("Invalid max retries value, using default", "max_retries", defaultMaxRetries)
		maxRetries = defaultMaxRetries
	}

	baseDelay := time.Duration(cfg.RetryDelaySeconds) * time.Second
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}

	timeout := cfg.RequestTimeout()
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	concurrency := cfg.MaxConcurrentRequests
	if concurrency < 1 {
		concurrency = 1
	}

	textModel := cfg.TextModelName
	if textModel == "" {
		textModel = generation.ModelGemini2Flash
	}
	imageModel := cfg.ModelName
	if imageModel == "" {
		imageModel = generation.DefaultModel
	}
	if _, err := generation.LookupProfile(imageModel); err != nil {
		logger.Warn("Unknown image model, advanced features disabled",
			"model", imageModel,
			"recommended", generation.RecommendedModel())
	}

	return &Client{
		logger:         logger.With("component", "gemini"),
		models:         models,
		imageModel:     imageModel,
		textModel:      textModel,
		profile:        generation.ProfileFor(imageModel),
		maxRetries:     maxRetries,
		baseDelay:      baseDelay,
		requestTimeout: timeout,
		inflight:       semaphore.NewWeighted(int64(concurrency)),
		limiter:        rate.NewLimiter(rate.Limit(concurrency), concurrency),
		sleep:          sleepContext,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Profile returns the capability profile of the configured image model.
func (c *Client) Profile() generation.Profile {
	return c.profile
}

// ImageModel returns the configured image model name.
func (c *Client) ImageModel() string {
	return c.imageModel
}

// acquire blocks until both the concurrency and the rate limit allow a call.
func (c *Client) acquire(ctx context.Context) (func(), error) {
	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		c.inflight.Release(1)
		return nil, err
	}
	return func() { c.inflight.Release(1) }, nil
}

func (c *Client) jitter() float64 {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	return c.rng.Float64()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
