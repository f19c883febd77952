package gemini

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
	defaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta"
	defaultModelName = "gemini-2.5-flash"
	defaultMaxTokens = 1024
)

func init() {
	core.RegisterProvider("gemini", newClient, "google")
}

type client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	defaults   core.Options
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.GeminiKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &client{
		apiKey:     cfg.GeminiKey,
		baseURL:    strings.TrimRight(core.ValueOrDefault(cfg.BaseURL, defaultBaseURL), "/"),
		httpClient: webclient.NewDefault(timeout),
		defaults: core.Options{
			Model:               core.ValueOrDefault(cfg.Model, defaultModelName),
			Temperature:         core.OrFloat(cfg.Temperature, 0.2),
			MaxCompletionTokens: core.OrInt(cfg.MaxCompletionTokens, defaultMaxTokens),
			SystemPrompt:        cfg.SystemPrompt,
		},
	}, nil
}

func (c *client) Respond(ctx context.Context, input string, opts core.Options) (string, error) {
	merged := core.Merge(c.defaults, opts)

	body := map[string]interface{}{
		"contents": []map[string]interface{}{{
			"role":  "user",
			"parts": []map[string]string{{"text": input}},
		}},
		"generationConfig": map[string]interface{}{
			"temperature":     merged.Temperature,
			"maxOutputTokens": merged.MaxCompletionTokens,
		},
	}
	if strings.TrimSpace(merged.SystemPrompt) != "" {
		body["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]string{{"text": merged.SystemPrompt}},
		}
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL, normalizeModel(merged.Model))
	payload, err := webclient.PostJSON(ctx, c.httpClient, url, map[string]string{"x-goog-api-key": c.apiKey}, body)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	var result generateContentResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", err
	}
	text := result.FirstText()
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text, nil
}

func normalizeModel(model string) string {
	model = strings.TrimSpace(model)
	if model == "" {
		return "models/" + defaultModelName
	}
	if strings.HasPrefix(model, "models/") {
		return model
	}
	return "models/" + model
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r generateContentResponse) FirstText() string {
	for _, cand := range r.Candidates {
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			sb.WriteString(part.Text)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			return text
		}
	}
	return ""
}
