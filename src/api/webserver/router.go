package webserver

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stake-plus/crowdfund/src/api/uploads"
)

func attachRoutes(r *gin.Engine, d Deps, resp responder) {
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}
	if len(d.CORSOrigins) == 0 || (len(d.CORSOrigins) == 1 && d.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = d.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", d.Metrics.Handler())
	}
	if d.Images != nil {
		r.GET(uploads.PublicPrefix+"*filepath", gin.WrapH(d.Images.Handler()))
	}

	authH := NewAuth(d.Auth, resp)
	blogH := NewBlogs(d.Blogs, resp)
	postH := NewPosts(d.Posts, resp)
	aiH := NewAI(d.Assistant, d.Metrics, resp)

	api := r.Group("/api")
	{
		api.POST("/auth/nonce", authH.Nonce)
		api.POST("/auth/verify", authH.Verify)
		api.GET("/protected", JWTMiddleware(d.Tokens), authH.Protected)
	}

	ai := api.Group("/ai", OptionalJWT(d.Tokens))
	{
		ask := []gin.HandlerFunc{}
		if d.Limiter != nil {
			ask = append(ask, RateLimitMiddleware(d.Limiter, d.Log))
		}
		ai.POST("/ask", append(ask, aiH.Ask)...)
		ai.GET("/suggested-questions", aiH.SuggestedQuestions)
	}

	blog := api.Group("/blog", OptionalJWT(d.Tokens))
	{
		blog.POST("/add-blog", limitBody, blogH.Create)
		blog.GET("/all-blogs", blogH.List)
		blog.DELETE("/remove-blog", blogH.Delete)
		blog.GET("/:id", blogH.Get)
		blog.PUT("/:id", limitBody, blogH.Update)
	}

	post := api.Group("/post", OptionalJWT(d.Tokens))
	{
		post.POST("/add-post", limitBody, postH.Create)
		post.GET("/all-posts", postH.List)
		post.DELETE("/remove-post", postH.Delete)
		post.POST("/add-comment", postH.AddComment)
		post.DELETE("/remove-comment", postH.RemoveComment)
		post.POST("/toggle-like", postH.ToggleLike)
		post.GET("/:id", postH.Get)
		post.PUT("/:id", limitBody, postH.Update)
	}
}
