package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/crowdfund/src/ai/core"
)

func TestRespond(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body, "systemInstruction")

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"A wallet "},{"text":"holds keys."}]}}]}`))
	}))
	defer srv.Close()

	c, err := newClient(core.FactoryConfig{GeminiKey: "g-key", BaseURL: srv.URL, SystemPrompt: "sys"})
	require.NoError(t, err)
	out, err := c.Respond(context.Background(), "What is a wallet?", core.Options{})
	require.NoError(t, err)
	assert.Equal(t, "A wallet holds keys.", out)
}

func TestNormalizeModel(t *testing.T) {
	assert.Equal(t, "models/gemini-pro", normalizeModel("gemini-pro"))
	assert.Equal(t, "models/x", normalizeModel("models/x"))
	assert.Equal(t, "models/"+defaultModelName, normalizeModel(""))
}
