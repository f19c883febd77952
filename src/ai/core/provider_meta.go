package core

import (
	"strings"
)

var providerDefaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"gpt":       "gpt-4o-mini",
	"gemini":    "gemini-2.5-flash",
	"claude":    "claude-haiku-4-5",
	"anthropic": "claude-haiku-4-5",
	"deepseek":  "deepseek-chat",
	"grok":      "grok-4-fast-non-reasoning",
	"xai":       "grok-4-fast-non-reasoning",
}

// DefaultModelForProvider returns the baked-in default model for a provider key.
func DefaultModelForProvider(provider string) string {
	key := strings.ToLower(strings.TrimSpace(provider))
	if val, ok := providerDefaultModels[key]; ok {
		return val
	}
	return ""
}
