package agent

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/visionprobe/probe-cli/pkg/anthropic"
)

// extractText concatenates the text blocks of a message response.
func extractText(resp *anthropic.MessageResponse) string {
	if resp == nil {
		return ""
	}
	var parts []string
	for _, block := range resp.Content {
		if block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// decodeStage parses a stage response into its output schema.
func decodeStage[T any](text, stage string) (*T, error) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, eris.Errorf("agent: %s returned no JSON", stage)
	}
	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, eris.Wrapf(err, "agent: parse %s response", stage)
	}
	return &out, nil
}
