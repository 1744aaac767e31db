package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when image or text generation fails for any general reason
	ErrGenerationFailed = errors.New("generation failed")

	// ErrInvalidResponse is returned when the model response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by model safety filters")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrRateLimited is returned when the vendor rejects a call with a quota error
	ErrRateLimited = errors.New("rate limited by model provider")

	// ErrNoImage is returned when a response carries no inline image part
	ErrNoImage = errors.New("no image returned in response")

	// ErrEmptyPrompt is returned before any call is made for a blank prompt
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// IsTransient reports whether err is worth retrying at the transport level.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientFailure) || errors.Is(err, ErrRateLimited)
}
