package prompt

import (
	"fmt"
	"strings"
)

// RetryReasonLimit is how much of a failure reason is quoted in a refined prompt.
const RetryReasonLimit = 100

// EnhanceWithReasoning appends internal reasoning, optional iterative
// refinement and self-assessment directives to a prompt.
func EnhanceWithReasoning(base string, iterate bool, maxIterations int) string {
	enhancements := []string{`
INTERNAL REASONING:
Before generating the final image, use your internal reasoning to:
1. Analyze the subject's historical context
2. Verify accuracy of all visual elements
3. Plan the composition and lighting
4. Consider era-appropriate details
5. Ensure no anachronisms are present`}

	if iterate && maxIterations > 1 {
		enhancements = append(enhancements, fmt.Sprintf(`
ITERATIVE REFINEMENT:
Perform up to %d internal iterations:
1. Generate initial composition
2. Self-evaluate for accuracy and quality
3. Refine details that don't meet standards
4. Verify historical authenticity
5. Finalize only when quality is optimal`, maxIterations))
	}

	enhancements = append(enhancements, `
QUALITY CHECKS:
Self-assess the generated image for:
- Historical accuracy (no anachronisms)
- Visual coherence (physics-aware rendering)
- Technical quality (resolution, clarity, lighting)
- Compositional balance
- Style adherence

Only output the final image when all quality criteria are met.`)

	return base + "\n\n" + strings.Join(enhancements, "\n")
}

// RefineForRetry prefixes prompt with a note about why the previous
// attempt failed. Only the first RetryReasonLimit characters of reason are
// quoted.
func RefineForRetry(prompt, reason string) string {
	runes := []rune(reason)
	if len(runes) > RetryReasonLimit {
		runes = runes[:RetryReasonLimit]
	}

	return fmt.Sprintf(`
RETRY REFINEMENT:
Previous attempt failed with: %s...

Please address this issue and ensure:
- All requirements are clearly achievable
- No contradictory instructions
- Simplified composition if needed
- Focus on core quality criteria

`, string(runes)) + prompt
}
