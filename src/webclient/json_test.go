package webclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_, _ = w.Write([]byte(`{"echo":"` + in["q"] + `"}`))
	}))
	defer srv.Close()

	body, err := PostJSON(context.Background(), NewDefault(time.Second), srv.URL,
		map[string]string{"Authorization": "Bearer k"}, map[string]string{"q": "gas"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"echo":"gas"}`, string(body))
}

func TestPostJSONStatusError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limit"}`))
	}))
	defer srv.Close()

	_, err := PostJSON(context.Background(), NewDefault(time.Second), srv.URL, nil, map[string]string{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, 1, calls)
}
