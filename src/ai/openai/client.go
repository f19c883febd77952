package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

func init() {
	core.RegisterProvider("openai", newClient, "gpt", "chatgpt")
}

type client struct {
	name       string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	defaults   core.Options
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	return NewCompatible(Compatible{
		Name:         "openai",
		APIKey:       cfg.OpenAIKey,
		BaseURL:      defaultBaseURL,
		DefaultModel: "gpt-4o-mini",
	}, cfg)
}

// Compatible describes a vendor that serves the chat completions API.
type Compatible struct {
	Name         string
	APIKey       string
	BaseURL      string
	DefaultModel string
}

// NewCompatible builds a chat completions client for any OpenAI-compatible
// vendor. cfg.BaseURL, when set, wins over c.BaseURL.
func NewCompatible(c Compatible, cfg core.FactoryConfig) (core.Client, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("%s: API key not configured", c.Name)
	}

	return &client{
		name:       c.Name,
		apiKey:     c.APIKey,
		baseURL:    strings.TrimRight(core.ValueOrDefault(cfg.BaseURL, c.BaseURL), "/"),
		httpClient: webclient.NewDefault(timeoutOr(cfg.Timeout, 60*time.Second)),
		defaults: core.Options{
			Model:               core.ValueOrDefault(cfg.Model, c.DefaultModel),
			Temperature:         core.OrFloat(cfg.Temperature, 0.7),
			MaxCompletionTokens: core.OrInt(cfg.MaxCompletionTokens, 500),
			SystemPrompt:        cfg.SystemPrompt,
		},
	}, nil
}

func (c *client) Respond(ctx context.Context, input string, opts core.Options) (string, error) {
	merged := core.Merge(c.defaults, opts)
	messages := []map[string]string{}
	if merged.SystemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": merged.SystemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": input})

	reqBody := map[string]interface{}{
		"model":       merged.Model,
		"messages":    messages,
		"temperature": merged.Temperature,
		"max_tokens":  merged.MaxCompletionTokens,
	}
	body, err := webclient.PostJSON(ctx, c.httpClient, c.baseURL+"/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey}, reqBody)
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", c.name, err)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("%s: parse error: %w", c.name, err)
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s: empty response", c.name)
	}
	return result.Choices[0].Message.Content, nil
}

func timeoutOr(v, d time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return d
}
