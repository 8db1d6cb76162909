package ai

import "strings"

// FallbackModel is used when neither the request nor the environment names one
const FallbackModel = "xiaomi/mimo-v2-flash:free"

// SelectModel picks the model for one request: a non-blank override wins,
// then the configured default, then FallbackModel.
func SelectModel(override, configured string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	if strings.TrimSpace(configured) != "" {
		return configured
	}
	return FallbackModel
}
