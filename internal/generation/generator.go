package generation

import "context"

// PortraitAspectRatio is the frame used for every portrait.
const PortraitAspectRatio = "3:4"

// ReferenceData is an inline reference image sent along with a prompt.
type ReferenceData struct {
	Data     []byte
	MIMEType string
}

// ImageRequest describes one call to an image model.
type ImageRequest struct {
	Prompt       string
	AspectRatio  string
	References   []ReferenceData
	UseGrounding bool
}

// ImageResult is the first image returned by the model plus any text parts.
type ImageResult struct {
	Data     []byte
	MIMEType string
	Text     string
}

// ImageGenerator defines the interface for producing portrait images.
// This interface serves as a boundary between the application core and
// external image models, following the hexagonal architecture pattern.
type ImageGenerator interface {
	// GenerateImage sends the prompt to the image model and returns the
	// first image in the response.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - req: The prompt, aspect ratio and optional reference images
	//
	// Returns:
	//   - The raw image bytes and their MIME type
	//   - An error if the generation fails for any reason (see errors.go for specific types)
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// TextQuerier answers text prompts, optionally grounded with web search.
type TextQuerier interface {
	QueryText(ctx context.Context, prompt string) (string, error)
	QueryWithGrounding(ctx context.Context, prompt string) (string, error)
}

// FeasibilityCheck is a model's own assessment of an image request.
type FeasibilityCheck struct {
	Feasible        bool     `json:"feasible"`
	Confidence      float64  `json:"confidence"`
	PredictedIssues []string `json:"predicted_issues"`
	Recommendations []string `json:"recommendations"`
	Reasoning       string   `json:"reasoning,omitempty"`
}

// FeasibilityChecker predicts whether a prompt is likely to succeed before
// an image call is spent on it. Implementations never fail; they degrade to
// a feasible verdict with lower confidence.
type FeasibilityChecker interface {
	PreGenerationCheck(ctx context.Context, prompt string, details map[string]string) FeasibilityCheck
}
