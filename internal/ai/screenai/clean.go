package screenai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hirelens/hirelens/screening"
)

// CleanJSON strips markdown code fences that models wrap around JSON replies.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")

	return strings.TrimSpace(s)
}

// extractJSONObject falls back to the outermost {...} span when the model
// padded the reply with prose.
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// ParseAnalysis decodes a model reply into an Analysis, tolerating fenced
// and prose-padded output.
func ParseAnalysis(raw string) (*screening.Analysis, error) {
	cleaned := CleanJSON(raw)

	var analysis screening.Analysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		obj, ok := extractJSONObject(cleaned)
		if !ok {
			return nil, fmt.Errorf("model reply is not valid JSON: %w", err)
		}
		if err := json.Unmarshal([]byte(obj), &analysis); err != nil {
			return nil, fmt.Errorf("model reply is not valid JSON: %w", err)
		}
	}

	return &analysis, nil
}
