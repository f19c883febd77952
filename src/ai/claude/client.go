package claude

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stake-plus/crowdfund/src/ai/core"
	"github.com/stake-plus/crowdfund/src/webclient"
)

const (
	defaultModel       = "claude-haiku-4-5"
	defaultBaseURL     = "https://api.anthropic.com/v1"
	defaultMaxTokens   = 1024
	defaultTemperature = 0.3
	requestTimeout     = 60 * time.Second
)

func init() {
	core.RegisterProvider("claude", newClient, "anthropic")
}

type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	defaults   core.Options
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.ClaudeKey == "" {
		return nil, fmt.Errorf("claude: API key not configured")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &client{
		apiKey:     cfg.ClaudeKey,
		baseURL:    strings.TrimRight(core.ValueOrDefault(cfg.BaseURL, defaultBaseURL), "/"),
		httpClient: webclient.NewDefault(timeout),
		defaults: core.Options{
			Model:               core.ValueOrDefault(cfg.Model, defaultModel),
			Temperature:         core.OrFloat(cfg.Temperature, defaultTemperature),
			MaxCompletionTokens: core.OrInt(cfg.MaxCompletionTokens, defaultMaxTokens),
			SystemPrompt:        cfg.SystemPrompt,
		},
	}, nil
}

func (c *client) Respond(ctx context.Context, input string, opts core.Options) (string, error) {
	merged := core.Merge(c.defaults, opts)

	body := map[string]interface{}{
		"model":       merged.Model,
		"max_tokens":  merged.MaxCompletionTokens,
		"temperature": merged.Temperature,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]string{
					{"type": "text", "text": input},
				},
			},
		},
	}
	if merged.SystemPrompt != "" {
		body["system"] = merged.SystemPrompt
	}

	payload, err := webclient.PostJSON(ctx, c.httpClient, c.baseURL+"/messages", map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}, body)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("claude: parse error: %w", err)
	}

	var parts []string
	for _, block := range result.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("claude: empty response")
	}
	return strings.Join(parts, "\n"), nil
}
