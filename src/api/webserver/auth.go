package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/crowdfund/src/api/auth"
)

type Auth struct {
	svc  *auth.Service
	resp responder
}

func NewAuth(svc *auth.Service, resp responder) Auth {
	return Auth{svc: svc, resp: resp}
}

func (a Auth) Nonce(c *gin.Context) {
	var req struct {
		Address string `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.resp.badRequest(c, "address is required", err)
		return
	}
	nonce, err := a.svc.IssueNonce(c.Request.Context(), req.Address)
	if err != nil {
		a.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nonce": nonce})
}

func (a Auth) Verify(c *gin.Context) {
	var req struct {
		Address   string `json:"address"   binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		a.resp.badRequest(c, "address and signature are required", err)
		return
	}
	token, err := a.svc.Verify(c.Request.Context(), req.Address, req.Signature)
	if err != nil {
		a.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// Protected echoes the decoded claims of the caller's token.
func (a Auth) Protected(c *gin.Context) {
	claims, _ := c.Get(ctxClaims)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "access granted", "user": claims})
}
