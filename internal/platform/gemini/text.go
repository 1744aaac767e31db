package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/generation"
	"google.golang.org/genai"
)

const groundingInstruction = "\n\nUse Google Search to find accurate, up-to-date information."

// QueryText implements generation.TextQuerier using the text model.
func (c *Client) QueryText(ctx context.Context, prompt string) (string, error) {
	return c.queryText(ctx, "query_text", prompt, nil)
}

// QueryWithGrounding implements generation.TextQuerier with the Google
// Search tool attached.
func (c *Client) QueryWithGrounding(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", generation.ErrEmptyPrompt
	}
	genConfig := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	return c.queryText(ctx, "query_grounded", prompt+groundingInstruction, genConfig)
}

func (c *Client) queryText(
	ctx context.Context,
	operation string,
	prompt string,
	genConfig *genai.GenerateContentConfig,
) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", generation.ErrEmptyPrompt
	}

	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}

	var text string
	err := c.callWithRetry(ctx, operation, func(ctx context.Context) error {
		resp, err := c.models.GenerateContent(ctx, c.textModel, contents, genConfig)
		if err != nil {
			return classifyError(err, c.textModel)
		}
		parsed, err := extractText(resp)
		if err != nil {
			return err
		}
		text = parsed
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// extractText joins the non-thought text parts of the first usable candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		if candidate.FinishReason == genai.FinishReasonSafety {
			return "", fmt.Errorf("%w: content blocked by safety filters", generation.ErrContentBlocked)
		}
		if candidate.Content == nil {
			continue
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				b.WriteString(part.Text)
			}
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text, nil
		}
	}

	return "", fmt.Errorf("%w: no text in response", generation.ErrInvalidResponse)
}
