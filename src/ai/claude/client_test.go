package claude

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
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "c-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sys", body["system"])

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"Donations go to escrow."}]}`))
	}))
	defer srv.Close()

	c, err := newClient(core.FactoryConfig{ClaudeKey: "c-key", BaseURL: srv.URL, SystemPrompt: "sys"})
	require.NoError(t, err)
	out, err := c.Respond(context.Background(), "Where do donations go?", core.Options{})
	require.NoError(t, err)
	assert.Equal(t, "Donations go to escrow.", out)
}

func TestRespondEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c, err := newClient(core.FactoryConfig{ClaudeKey: "c-key", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.Respond(context.Background(), "q", core.Options{})
	assert.Error(t, err)
}
