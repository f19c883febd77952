package store

import (
	"errors"

	"github.com/stake-plus/crowdfund/src/api/apperr"
)

// Translate maps backend errors onto caller-facing application errors.
func Translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return apperr.NotFound(entity + " not found")
	case errors.Is(err, ErrInvalidID):
		return apperr.InvalidArg("invalid " + entity + " id")
	case errors.Is(err, ErrConflict):
		return apperr.Conflict(entity + " was modified concurrently, reload and retry")
	default:
		return apperr.Internal("failed to access "+entity, err)
	}
}
