package gemini

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/phrazzld/portrait-generator/internal/generation"
)

// Confidence values reported when the model cannot be asked.
const (
	defaultFeasibilityConfidence  = 0.75
	fallbackFeasibilityConfidence = 0.60
)

// PreGenerationCheck asks the text model whether prompt is likely to produce
// a good portrait. Models without internal reasoning are assumed feasible.
// Query failures never block generation; they yield a feasible result with
// reduced confidence.
func (c *Client) PreGenerationCheck(ctx context.Context, prompt string, details map[string]string) generation.FeasibilityCheck {
	if !c.profile.Capabilities.InternalReasoning {
		return generation.FeasibilityCheck{
			Feasible:        true,
			Confidence:      defaultFeasibilityConfidence,
			PredictedIssues: []string{},
			Recommendations: []string{},
			Reasoning:       "Pre-generation check not available for this model",
		}
	}

	response, err := c.QueryText(ctx, buildFeasibilityPrompt(prompt, details))
	if err != nil {
		c.logger.WarnContext(ctx, "Pre-generation check failed", "error", err)
		return generation.FeasibilityCheck{
			Feasible:        true,
			Confidence:      fallbackFeasibilityConfidence,
			PredictedIssues: []string{"Unable to perform full feasibility check"},
			Recommendations: []string{},
			Reasoning:       err.Error(),
		}
	}

	check := generation.FeasibilityCheck{
		Feasible:        strings.Contains(strings.ToLower(response), "feasible: yes"),
		Confidence:      generation.ExtractScore(response, "CONFIDENCE", defaultFeasibilityConfidence),
		PredictedIssues: nonNil(generation.ExtractList(response, "ISSUES")),
		Recommendations: nonNil(generation.ExtractList(response, "RECOMMENDATIONS")),
		Reasoning:       response,
	}

	c.logger.DebugContext(ctx, "Pre-generation check",
		"feasible", check.Feasible,
		"confidence", check.Confidence)
	return check
}

func buildFeasibilityPrompt(prompt string, details map[string]string) string {
	var b strings.Builder
	b.WriteString("Analyze this image generation request for feasibility:\n\n")
	fmt.Fprintf(&b, "PROMPT: %s\n\n", prompt)

	if len(details) > 0 {
		keys := make([]string, 0, len(details))
		for k := range details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("CONTEXT:\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "- %s: %s\n", k, details[k])
		}
		b.WriteString("\n")
	}

	b.WriteString(`Please assess:
1. Is this request clear and specific enough?
2. Are there any ambiguities or contradictions?
3. Will this likely produce a high-quality result?
4. What potential issues might arise?
5. What improvements would increase success likelihood?

Provide your assessment as:
FEASIBLE: yes/no
CONFIDENCE: 0.0-1.0
ISSUES: [list any predicted issues]
RECOMMENDATIONS: [list suggestions]
`)
	return b.String()
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// ModelInfo describes the configured models and their capabilities.
type ModelInfo struct {
	Model        string          `json:"model"`
	TextModel    string          `json:"text_model"`
	DisplayName  string          `json:"display_name"`
	Provider     string          `json:"provider"`
	Capabilities map[string]bool `json:"capabilities"`
	Settings     map[string]bool `json:"settings"`
}

// ModelInfo reports what the configured image model supports.
func (c *Client) ModelInfo() ModelInfo {
	caps := c.profile.Capabilities
	return ModelInfo{
		Model:       c.imageModel,
		TextModel:   c.textModel,
		DisplayName: c.profile.DisplayName,
		Provider:    "Google Gemini",
		Capabilities: map[string]bool{
			"image_generation":        true,
			"google_search_grounding": caps.GoogleSearchGrounding,
			"multi_image_reference":   caps.MultiImageReference,
			"internal_reasoning":      caps.InternalReasoning,
			"native_text_rendering":   caps.NativeTextRendering,
		},
		Settings: map[string]bool{
			"grounding_enabled":  c.profile.SupportsGrounding(),
			"reasoning_enabled":  caps.InternalReasoning && c.profile.Generation.EnableIterativeRefinement,
			"references_enabled": c.profile.ReferenceLimit() > 0,
		},
	}
}
