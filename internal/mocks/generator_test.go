package mocks_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"github.com/phrazzld/portrait-generator/internal/generation"
	"github.com/phrazzld/portrait-generator/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockImageGenerator(t *testing.T) {
	t.Parallel()

	gen := mocks.NewMockImageGeneratorWithImage(16, 8)
	res, err := gen.GenerateImage(context.Background(), generation.ImageRequest{Prompt: "p1"})
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 8, img.Bounds().Dy())

	_, _ = gen.GenerateImage(context.Background(), generation.ImageRequest{Prompt: "p2"})
	assert.Equal(t, 2, gen.Calls())
	assert.Equal(t, "p2", gen.Requests()[1].Prompt)

	gen.Reset()
	assert.Zero(t, gen.Calls())
}

func TestMockImageGeneratorWithError(t *testing.T) {
	t.Parallel()

	gen := mocks.NewMockImageGeneratorWithError(generation.ErrContentBlocked)
	_, err := gen.GenerateImage(context.Background(), generation.ImageRequest{})
	assert.True(t, errors.Is(err, generation.ErrContentBlocked))
}

func TestMockTextQuerier(t *testing.T) {
	t.Parallel()

	q := &mocks.MockTextQuerier{
		Response: "plain",
		QueryWithGroundingFn: func(_ context.Context, prompt string) (string, error) {
			return "grounded:" + prompt, nil
		},
	}

	out, err := q.QueryText(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "plain", out)

	out, err = q.QueryWithGrounding(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, "grounded:b", out)

	assert.Equal(t, 2, q.Calls())
	assert.Equal(t, 1, q.GroundedCalls())
	assert.Equal(t, []string{"a", "b"}, q.Prompts())
}
