package gemini

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/portrait-generator/internal/config"
	"github.com/phrazzld/portrait-generator/internal/platform/logger"
	"google.golang.org/genai"
)

// fakeResponse is one scripted reply of fakeModels.
type fakeResponse struct {
	resp *genai.GenerateContentResponse
	err  error
}

// fakeModels replays scripted responses and records every call.
type fakeModels struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []fakeCall
}

type fakeCall struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

func (f *fakeModels) GenerateContent(
	_ context.Context,
	model string,
	contents []*genai.Content,
	cfg *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fakeCall{model: model, contents: contents, config: cfg})
	if len(f.responses) == 0 {
		return nil, genai.APIError{Code: 500, Message: "no scripted response"}
	}
	next := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return next.resp, next.err
}

func (f *fakeModels) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeModels) lastCall() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:          "AIzaTestKeyThatIsLongEnough123",
		ModelName:             "gemini-3-pro-image-preview",
		TextModelName:         "gemini-2.0-flash-exp",
		MaxRetries:            3,
		RetryDelaySeconds:     1,
		MaxConcurrentRequests: 20,
		RequestTimeoutSeconds: 5,
	}
}

// newTestClient returns a client around models whose retry waits are
// recorded instead of slept.
func newTestClient(t *testing.T, cfg config.LLMConfig, models modelsAPI) (*Client, *[]time.Duration) {
	t.Helper()
	l, _ := logger.NewCaptureLogger(t)
	c := newClient(l, cfg, models)
	var waits []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return c, &waits
}

func imageResponse(data []byte, text string) *genai.GenerateContentResponse {
	parts := []*genai.Part{}
	if text != "" {
		parts = append(parts, &genai.Part{Text: text})
	}
	parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: data, MIMEType: "image/png"}})
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: text}}},
		}},
	}
}
