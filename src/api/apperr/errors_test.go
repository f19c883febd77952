package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", InvalidArg("title is required"), http.StatusBadRequest},
		{"auth", Unauthorized("bad signature"), http.StatusUnauthorized},
		{"missing", NotFound("post not found"), http.StatusNotFound},
		{"conflict", Conflict("post changed"), http.StatusConflict},
		{"timeout", Timeout("assistant timed out"), http.StatusServiceUnavailable},
		{"upstream", New(CodeUnavailable, "assistant unavailable"), http.StatusServiceUnavailable},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("store: %w", Internal("failed to load blogs", cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "failed to load blogs", MessageOf(err))
	assert.Equal(t, "internal server error", MessageOf(cause))
}
