package gemini

import (
	"context"
	"strings"
	"testing"

	"github.com/phrazzld/portrait-generator/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestQueryText(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking...", Thought: true},
			{Text: "BIRTH YEAR: 1815"},
			{Text: "\nERA: Victorian"},
		}}}},
	}}}}
	c, _ := newTestClient(t, testLLMConfig(), models)

	text, err := c.QueryText(context.Background(), "Who was Ada Lovelace?")

	require.NoError(t, err)
	assert.Equal(t, "BIRTH YEAR: 1815\nERA: Victorian", text)
	call := models.lastCall()
	assert.Equal(t, "gemini-2.0-flash-exp", call.model)
	assert.Nil(t, call.config)
}

func TestQueryWithGrounding(t *testing.T) {
	t.Parallel()

	models := &fakeModels{responses: []fakeResponse{{resp: textResponse("authentic")}}}
	c, _ := newTestClient(t, testLLMConfig(), models)

	text, err := c.QueryWithGrounding(context.Background(), "Is this photo authentic?")

	require.NoError(t, err)
	assert.Equal(t, "authentic", text)
	call := models.lastCall()
	require.NotNil(t, call.config)
	require.Len(t, call.config.Tools, 1)
	assert.NotNil(t, call.config.Tools[0].GoogleSearch)
	assert.True(t, strings.HasSuffix(call.contents[0].Parts[0].Text, "up-to-date information."))
}

func TestQueryTextErrors(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, testLLMConfig(), &fakeModels{})
	_, err := c.QueryText(context.Background(), "")
	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)
	_, err = c.QueryWithGrounding(context.Background(), " ")
	assert.ErrorIs(t, err, generation.ErrEmptyPrompt)

	blocked := &fakeModels{responses: []fakeResponse{{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{FinishReason: genai.FinishReasonSafety}},
	}}}}
	c, _ = newTestClient(t, testLLMConfig(), blocked)
	_, err = c.QueryText(context.Background(), "hello")
	assert.ErrorIs(t, err, generation.ErrContentBlocked)

	empty := &fakeModels{responses: []fakeResponse{{resp: textResponse("   ")}}}
	c, _ = newTestClient(t, testLLMConfig(), empty)
	_, err = c.QueryText(context.Background(), "hello")
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestPreGenerationCheck(t *testing.T) {
	t.Parallel()

	reply := "FEASIBLE: yes\nCONFIDENCE: 0.82\nISSUES: [\"low light\"]\nRECOMMENDATIONS: [add rim light, crop tighter]"
	models := &fakeModels{responses: []fakeResponse{{resp: textResponse(reply)}}}
	c, _ := newTestClient(t, testLLMConfig(), models)

	check := c.PreGenerationCheck(context.Background(), "A portrait of Ada Lovelace", map[string]string{"era": "Victorian"})

	assert.True(t, check.Feasible)
	assert.InDelta(t, 0.82, check.Confidence, 1e-9)
	assert.Equal(t, []string{"low light"}, check.PredictedIssues)
	assert.Equal(t, []string{"add rim light", "crop tighter"}, check.Recommendations)
	sent := models.lastCall().contents[0].Parts[0].Text
	assert.Contains(t, sent, "PROMPT: A portrait of Ada Lovelace")
	assert.Contains(t, sent, "- era: Victorian")
}

func TestPreGenerationCheckFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("model without reasoning", func(t *testing.T) {
		t.Parallel()
		cfg := testLLMConfig()
		cfg.ModelName = "gemini-exp-1206"
		models := &fakeModels{}
		c, _ := newTestClient(t, cfg, models)

		check := c.PreGenerationCheck(context.Background(), "prompt", nil)

		assert.True(t, check.Feasible)
		assert.InDelta(t, 0.75, check.Confidence, 1e-9)
		assert.Zero(t, models.callCount())
	})

	t.Run("query failure", func(t *testing.T) {
		t.Parallel()
		cfg := testLLMConfig()
		cfg.MaxRetries = 0
		models := &fakeModels{responses: []fakeResponse{{err: genai.APIError{Code: 400, Message: "bad"}}}}
		c, _ := newTestClient(t, cfg, models)

		check := c.PreGenerationCheck(context.Background(), "prompt", nil)

		assert.True(t, check.Feasible)
		assert.InDelta(t, 0.60, check.Confidence, 1e-9)
		assert.Equal(t, []string{"Unable to perform full feasibility check"}, check.PredictedIssues)
	})
}

func TestModelInfo(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(t, testLLMConfig(), &fakeModels{})
	info := c.ModelInfo()

	assert.Equal(t, "gemini-3-pro-image-preview", info.Model)
	assert.Equal(t, "Google Gemini", info.Provider)
	assert.True(t, info.Capabilities["google_search_grounding"])
	assert.True(t, info.Settings["references_enabled"])
}
