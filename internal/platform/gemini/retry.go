package gemini

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/phrazzld/portrait-generator/internal/generation"
	"google.golang.org/genai"
)

// callWithRetry runs call with exponential backoff retry logic.
//
// It attempts the call up to maxRetries+1 times, using exponential backoff
// with jitter between retries for transient errors. Permanent errors (like
// content being blocked by safety filters or a response without an image)
// are returned immediately without retrying.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation and logging
//   - operation: A short name used in log records
//   - call: One API call; its error must already be classified
//
// Returns:
//   - nil on success
//   - An error if all retries fail or if a permanent error occurs
func (c *Client) callWithRetry(ctx context.Context, operation string, call func(ctx context.Context) error) error {
	attempt := 0
	for {
		attemptNum := attempt + 1 // For logging (1-based)
		c.logger.InfoContext(ctx, "Making Gemini API call",
			"operation", operation,
			"attempt", attemptNum,
			"max_attempts", c.maxRetries+1)

		err := c.callOnce(ctx, call)
		if err == nil {
			c.logger.InfoContext(ctx, "Gemini API call successful",
				"operation", operation,
				"attempt", attemptNum)
			return nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", generation.ErrTransientFailure, ctxErr)
		}

		c.logger.ErrorContext(ctx, "Gemini API call failed",
			"operation", operation,
			"attempt", attemptNum,
			"error", err)

		if !generation.IsTransient(err) {
			c.logger.WarnContext(ctx, "Permanent error occurred, not retrying",
				"operation", operation,
				"error_type", fmt.Sprintf("%T", errors.Unwrap(err)))
			return err
		}

		if attempt >= c.maxRetries {
			c.logger.WarnContext(ctx, "Maximum retry attempts reached",
				"operation", operation,
				"max_retries", c.maxRetries)
			return fmt.Errorf("exceeded maximum retry attempts (%d): %w", c.maxRetries, err)
		}

		delay := c.backoff(attempt)
		c.logger.InfoContext(ctx, "Retrying after delay",
			"operation", operation,
			"attempt", attemptNum,
			"delay_seconds", delay.Seconds())

		if err := c.sleep(ctx, delay); err != nil {
			c.logger.WarnContext(ctx, "API call cancelled during retry delay",
				"operation", operation,
				"attempt", attemptNum,
				"ctx_err", err)
			return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
		}

		attempt++
	}
}

// callOnce applies throttling and the per-request timeout around one call.
func (c *Client) callOnce(ctx context.Context, call func(ctx context.Context) error) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: waiting for request slot: %w", generation.ErrTransientFailure, err)
	}
	defer release()

	callCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	return call(callCtx)
}

// backoff returns baseDelay * 2^attempt * (0.5 + rand(0, 0.5)).
func (c *Client) backoff(attempt int) time.Duration {
	backoff := float64(c.baseDelay) * math.Pow(2, float64(attempt))
	jitterFactor := 0.5 + c.jitter()*0.5
	return time.Duration(backoff * jitterFactor)
}

// classifyError maps an SDK error onto the generation sentinel errors.
// Quota errors become ErrRateLimited, server side and network failures
// become ErrTransientFailure and the remaining client errors are permanent.
func classifyError(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED":
			return fmt.Errorf("%w: model %s: %w", generation.ErrRateLimited, model, err)
		case apiErr.Code >= http.StatusInternalServerError:
			return fmt.Errorf("%w: model %s: %w", generation.ErrTransientFailure, model, err)
		case apiErr.Code == http.StatusUnauthorized ||
			apiErr.Code == http.StatusForbidden ||
			apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: model %s: %w", generation.ErrInvalidConfig, model, err)
		default:
			return fmt.Errorf("%w: model %s: %w", generation.ErrGenerationFailed, model, err)
		}
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	return fmt.Errorf("%w: model %s: %w", generation.ErrTransientFailure, model, err)
}
