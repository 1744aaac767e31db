package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/generation"
	"google.golang.org/genai"
)

var validAspectRatios = map[string]bool{
	"1:1":  true,
	"3:4":  true,
	"4:3":  true,
	"9:16": true,
	"16:9": true,
}

// GenerateImage implements generation.ImageGenerator.
//
// Reference images are sent as inline parts ahead of the prompt, capped at
// the model's reference limit. Search grounding is attached only when the
// request asks for it and the model supports it.
func (c *Client) GenerateImage(ctx context.Context, req generation.ImageRequest) (*generation.ImageResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, generation.ErrEmptyPrompt
	}

	aspect := req.AspectRatio
	if aspect == "" {
		aspect = generation.PortraitAspectRatio
	}
	if !validAspectRatios[aspect] {
		return nil, fmt.Errorf("%w: invalid aspect ratio %q", generation.ErrInvalidConfig, aspect)
	}

	refs := req.References
	if limit := c.profile.Capabilities.MaxReferenceImages; !c.profile.Capabilities.MultiImageReference {
		refs = nil
	} else if len(refs) > limit {
		refs = refs[:limit]
	}

	parts := make([]*genai.Part, 0, len(refs)+1)
	for _, ref := range refs {
		if len(ref.Data) == 0 {
			continue
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: ref.Data, MIMEType: ref.MIMEType},
		})
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: aspect},
	}
	grounded := req.UseGrounding && c.profile.Capabilities.GoogleSearchGrounding
	if grounded {
		genConfig.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	c.logger.DebugContext(ctx, "Generating image",
		"model", c.imageModel,
		"aspect_ratio", aspect,
		"prompt_length", len(req.Prompt),
		"reference_images", len(parts)-1,
		"grounding", grounded)

	var result *generation.ImageResult
	err := c.callWithRetry(ctx, "generate_image", func(ctx context.Context) error {
		resp, err := c.models.GenerateContent(ctx, c.imageModel, contents, genConfig)
		if err != nil {
			return classifyError(err, c.imageModel)
		}
		parsed, err := parseImageResponse(resp)
		if err != nil {
			return err
		}
		result = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "Generated image",
		"model", c.imageModel,
		"mime_type", result.MIMEType,
		"bytes", len(result.Data))
	return result, nil
}

// parseImageResponse returns the first inline image of the response along
// with any non-thought text parts.
func parseImageResponse(resp *genai.GenerateContentResponse) (*generation.ImageResult, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", generation.ErrInvalidResponse)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", generation.ErrInvalidResponse)
	}

	var (
		result  *generation.ImageResult
		text    strings.Builder
		blocked bool
	)
	for _, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		if candidate.FinishReason == genai.FinishReasonSafety {
			blocked = true
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.Text != "" && !part.Thought {
				text.WriteString(part.Text)
			}
			if result == nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				result = &generation.ImageResult{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}
			}
		}
	}

	if result == nil {
		if blocked {
			return nil, fmt.Errorf("%w: image candidate stopped by safety filters", generation.ErrContentBlocked)
		}
		return nil, generation.ErrNoImage
	}

	result.Text = strings.TrimSpace(text.String())
	return result, nil
}
