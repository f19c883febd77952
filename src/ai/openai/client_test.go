package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/crowdfund/src/ai/core"
	"github.com/stake-plus/crowdfund/src/logging"
)

func TestRespondSendsSystemPromptAndParsesChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string              `json:"model"`
			Messages []map[string]string `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0]["role"])
		assert.Equal(t, "What is gas?", req.Messages[1]["content"])

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Gas is the fee."}}]}`))
	}))
	defer srv.Close()

	c, err := core.NewClient(core.FactoryConfig{Provider: "openai", OpenAIKey: "sk-test", BaseURL: srv.URL, SystemPrompt: "be brief"})
	require.NoError(t, err)

	out, err := c.Respond(context.Background(), "What is gas?", core.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Gas is the fee.", out)
}

func TestRespondSurfacesRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := newClient(core.FactoryConfig{OpenAIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Respond(context.Background(), "q", core.Options{})
	require.Error(t, err)
	assert.True(t, logging.IsRateLimit(err))
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := newClient(core.FactoryConfig{})
	assert.Error(t, err)
}
