package webserver

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stake-plus/crowdfund/src/api/assistant"
	"github.com/stake-plus/crowdfund/src/api/auth"
	"github.com/stake-plus/crowdfund/src/api/blogs"
	"github.com/stake-plus/crowdfund/src/api/telemetry"
	"github.com/stake-plus/crowdfund/src/api/updates"
	"github.com/stake-plus/crowdfund/src/api/uploads"
)

// Deps is everything the HTTP surface needs. Metrics, Limiter and Images may
// be nil.
type Deps struct {
	Log        *zap.Logger
	Production bool

	Auth      *auth.Service
	Tokens    *auth.Issuer
	Blogs     *blogs.Service
	Posts     *updates.Service
	Assistant *assistant.Service
	Images    uploads.Store

	Limiter     Limiter
	Metrics     *telemetry.Metrics
	CORSOrigins []string
}

func New(d Deps) *gin.Engine {
	if d.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	log := d.Log.Named("http")

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(RequestLogger(log), RecoverPanic(log))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware())
	}

	attachRoutes(r, d, responder{log: log, production: d.Production})
	return r
}
