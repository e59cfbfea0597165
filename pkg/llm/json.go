package llm

import (
	"encoding/json"
	"strings"
)

// cleanJSONResponse strips markdown fences and surrounding prose so that
// only the payload between the outermost JSON brackets remains.
func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.IndexAny(content, "[{")
	end := strings.LastIndexAny(content, "]}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

// decodeSummaryItems parses untrusted model output into summary items.
// Unparsable content yields an empty slice, never an error.
func decodeSummaryItems(content string) []SummaryItem {
	cleaned := cleanJSONResponse(content)

	var items []SummaryItem
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return items
	}

	// Models occasionally return a single object instead of an array.
	var single SummaryItem
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil && single.Summary != "" {
		return []SummaryItem{single}
	}

	return nil
}
