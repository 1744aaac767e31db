package mocks

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/phrazzld/portrait-generator/internal/generation"
)

// MockImageGenerator implements generation.ImageGenerator for testing
type MockImageGenerator struct {
	// GenerateImageFn allows test cases to mock the GenerateImage behavior
	GenerateImageFn func(ctx context.Context, req generation.ImageRequest) (*generation.ImageResult, error)

	// Default response values
	Result *generation.ImageResult
	Err    error

	mu       sync.Mutex
	requests []generation.ImageRequest
}

// GenerateImage implements the generation.ImageGenerator interface
func (m *MockImageGenerator) GenerateImage(
	ctx context.Context,
	req generation.ImageRequest,
) (*generation.ImageResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateImageFn != nil {
		return m.GenerateImageFn(ctx, req)
	}
	return m.Result, m.Err
}

// Calls returns how many times GenerateImage was called.
func (m *MockImageGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of every request received so far.
func (m *MockImageGenerator) Requests() []generation.ImageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]generation.ImageRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// Reset resets the call tracking state
func (m *MockImageGenerator) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

// NewMockImageGeneratorWithImage returns a generator that always answers
// with a PNG of the given size filled with a diagonal gradient.
func NewMockImageGeneratorWithImage(width, height int) *MockImageGenerator {
	return &MockImageGenerator{
		Result: &generation.ImageResult{
			Data:     GradientPNG(width, height),
			MIMEType: "image/png",
		},
	}
}

// NewMockImageGeneratorWithError creates a MockImageGenerator that returns the specified error
func NewMockImageGeneratorWithError(err error) *MockImageGenerator {
	return &MockImageGenerator{Err: err}
}

// GradientPNG encodes a colourful gradient image, useful wherever a
// realistic-looking generated image is needed.
func GradientPNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8((x * 255) / max(width-1, 1)),
				G: uint8((y * 255) / max(height-1, 1)),
				B: uint8(((x + y) * 127) / max(width+height-2, 1)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// DetailedPNG encodes a busy, mid-exposure colour pattern. Unlike the
// gradient it passes the local quality heuristics.
func DetailedPNG(width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(30 + (x*37+y*11)%200),
				G: uint8(30 + (x*53+y*7)%200),
				B: uint8(30 + (x*17+y*29)%200),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// MockTextQuerier implements generation.TextQuerier for testing
type MockTextQuerier struct {
	QueryTextFn          func(ctx context.Context, prompt string) (string, error)
	QueryWithGroundingFn func(ctx context.Context, prompt string) (string, error)

	// Default response values
	Response string
	Err      error

	mu       sync.Mutex
	prompts  []string
	grounded int
}

// QueryText implements the generation.TextQuerier interface
func (m *MockTextQuerier) QueryText(ctx context.Context, prompt string) (string, error) {
	m.record(prompt, false)
	if m.QueryTextFn != nil {
		return m.QueryTextFn(ctx, prompt)
	}
	return m.Response, m.Err
}

// QueryWithGrounding implements the generation.TextQuerier interface
func (m *MockTextQuerier) QueryWithGrounding(ctx context.Context, prompt string) (string, error) {
	m.record(prompt, true)
	if m.QueryWithGroundingFn != nil {
		return m.QueryWithGroundingFn(ctx, prompt)
	}
	if m.QueryTextFn != nil {
		return m.QueryTextFn(ctx, prompt)
	}
	return m.Response, m.Err
}

func (m *MockTextQuerier) record(prompt string, grounded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if grounded {
		m.grounded++
	}
}

// Calls returns the total number of queries, grounded or not.
func (m *MockTextQuerier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// GroundedCalls returns the number of grounded queries.
func (m *MockTextQuerier) GroundedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.grounded
}

// Prompts returns a copy of every prompt received so far.
func (m *MockTextQuerier) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
