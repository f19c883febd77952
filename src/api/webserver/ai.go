package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/crowdfund/src/api/apperr"
	"github.com/stake-plus/crowdfund/src/api/assistant"
	"github.com/stake-plus/crowdfund/src/api/telemetry"
)

type AI struct {
	svc     *assistant.Service
	metrics *telemetry.Metrics
	resp    responder
}

func NewAI(svc *assistant.Service, metrics *telemetry.Metrics, resp responder) AI {
	return AI{svc: svc, metrics: metrics, resp: resp}
}

func (a AI) Ask(c *gin.Context) {
	var req struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.resp.badRequest(c, "question is required", err)
		return
	}
	answer, err := a.svc.Ask(c.Request.Context(), req.Question)
	if err != nil {
		a.observe(string(assistant.Classify(req.Question)), string(apperr.CodeOf(err)))
		a.resp.fail(c, err)
		return
	}
	outcome := "answered"
	if answer.Cached {
		outcome = "cached"
	}
	a.observe(string(answer.Kind), outcome)
	c.JSON(http.StatusOK, gin.H{"success": true, "data": answer.Text})
}

func (a AI) observe(kind, outcome string) {
	if a.metrics != nil {
		a.metrics.ObserveQuestion(kind, outcome)
	}
}

func (a AI) SuggestedQuestions(c *gin.Context) {
	groups, err := assistant.SuggestedQuestions(c.Query("level"))
	if err != nil {
		a.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": groups})
}
