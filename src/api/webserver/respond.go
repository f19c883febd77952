package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stake-plus/crowdfund/src/api/apperr"
)

// responder renders failures as {"success": false, "message": ...}. The raw
// cause is added under "error" outside production.
type responder struct {
	log        *zap.Logger
	production bool
}

func (r responder) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"success": false, "message": apperr.MessageOf(err)}
	if !r.production {
		body["error"] = err.Error()
	}
	if status >= http.StatusInternalServerError {
		r.log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func (r responder) badRequest(c *gin.Context, msg string, cause error) {
	if cause == nil {
		r.fail(c, apperr.InvalidArg(msg))
		return
	}
	r.fail(c, apperr.Wrap(apperr.CodeInvalidArgument, msg, cause))
}
