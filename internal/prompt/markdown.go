package prompt

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// RenderHTML converts a stored Markdown prompt to HTML.
func RenderHTML(markdown []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("failed to render prompt markdown: %w", err)
	}
	return buf.Bytes(), nil
}
