package ai

import (
	"encoding/json"
	"strings"
)

// Extract recovers a JSON object from model output. The whole text is tried
// first; failing that, the span from the first '{' to the last '}'. Nothing
// beyond that trimming is attempted, so truncated payloads yield false.
func Extract(raw string) (json.RawMessage, bool) {
	if obj, ok := parseObject(raw); ok {
		return obj, true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	return parseObject(raw[start : end+1])
}

func parseObject(s string) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return json.RawMessage(strings.TrimSpace(s)), true
}
