package webserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/crowdfund/src/api/updates"
	"github.com/stake-plus/crowdfund/src/api/uploads"
)

type Posts struct {
	svc  *updates.Service
	resp responder
}

func NewPosts(svc *updates.Service, resp responder) Posts {
	return Posts{svc: svc, resp: resp}
}

func (p Posts) Create(c *gin.Context) {
	var in updates.CreateInput
	if isMultipart(c) {
		fhs, err := formFiles(c, "images")
		if err != nil {
			p.resp.badRequest(c, "invalid upload", err)
			return
		}
		if len(fhs) > updates.MaxImages {
			p.resp.badRequest(c, "a post can have at most 6 images", nil)
			return
		}
		images, closeImages, err := openImages(fhs)
		if err != nil {
			p.resp.badRequest(c, "invalid upload", err)
			return
		}
		defer closeImages()

		in = updates.CreateInput{
			CampaignID:  c.PostForm("campaignId"),
			Title:       c.PostForm("title"),
			Description: c.PostForm("description"),
		}
		p.create(c, in, images)
		return
	}

	var req struct {
		CampaignID  string `json:"campaignId"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		p.resp.badRequest(c, "invalid request body", err)
		return
	}
	in = updates.CreateInput{CampaignID: req.CampaignID, Title: req.Title, Description: req.Description}
	p.create(c, in, nil)
}

func (p Posts) create(c *gin.Context, in updates.CreateInput, images []uploads.Image) {
	post, err := p.svc.Create(c.Request.Context(), in, images)
	if err != nil {
		p.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (p Posts) List(c *gin.Context) {
	all, err := p.svc.List(c.Request.Context(), strings.TrimSpace(c.Query("campaignId")))
	if err != nil {
		p.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (p Posts) Get(c *gin.Context) {
	post, err := p.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		p.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Update accepts multipart (new files under "images") or JSON.
func (p Posts) Update(c *gin.Context) {
	var patch updates.Patch
	var images []uploads.Image
	if isMultipart(c) {
		fhs, err := formFiles(c, "images")
		if err != nil {
			p.resp.badRequest(c, "invalid upload", err)
			return
		}
		if len(fhs) > updates.MaxImages {
			p.resp.badRequest(c, "a post can have at most 6 images", nil)
			return
		}
		opened, closeImages, err := openImages(fhs)
		if err != nil {
			p.resp.badRequest(c, "invalid upload", err)
			return
		}
		defer closeImages()
		images = opened

		patch.Title, _ = formValue(c, "title")
		patch.Description, _ = formValue(c, "description")
		patch.RemoveImages = parseList(c.PostFormArray("removeImages"))
		if patch.Version, err = parseVersion(c.PostForm("version")); err != nil {
			p.resp.badRequest(c, "version must be an integer", err)
			return
		}
	} else {
		var req struct {
			Title        *string  `json:"title"`
			Description  *string  `json:"description"`
			RemoveImages []string `json:"removeImages"`
			Version      int64    `json:"version"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			p.resp.badRequest(c, "invalid request body", err)
			return
		}
		patch = updates.Patch{
			Title:        req.Title,
			Description:  req.Description,
			RemoveImages: req.RemoveImages,
			Version:      req.Version,
		}
	}

	post, err := p.svc.Update(c.Request.Context(), c.Param("id"), patch, images)
	if err != nil {
		p.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (p Posts) Delete(c *gin.Context) {
	if err := p.svc.Delete(c.Request.Context(), idFrom(c, "id", "postId", "_id")); err != nil {
		p.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "post deleted"})
}

func (p Posts) AddComment(c *gin.Context) {
	var req struct {
		PostID string `json:"postId" binding:"required"`
		UserID string `json:"userId"`
		Text   string `json:"text"   binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		p.resp.badRequest(c, "postId and text are required", err)
		return
	}
	user := req.UserID
	if user == "" {
		user = c.GetString(ctxAddr)
	}
	comment, err := p.svc.AddComment(c.Request.Context(), req.PostID, user, req.Text)
	if err != nil {
		p.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (p Posts) RemoveComment(c *gin.Context) {
	var req struct {
		PostID    string `json:"postId"    binding:"required"`
		CommentID string `json:"commentId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		p.resp.badRequest(c, "postId and commentId are required", err)
		return
	}
	if err := p.svc.RemoveComment(c.Request.Context(), req.PostID, req.CommentID); err != nil {
		p.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "comment removed"})
}

func (p Posts) ToggleLike(c *gin.Context) {
	var req struct {
		PostID string `json:"postId" binding:"required"`
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		p.resp.badRequest(c, "postId is required", err)
		return
	}
	user := req.UserID
	if user == "" {
		user = c.GetString(ctxAddr)
	}
	post, liked, err := p.svc.ToggleLike(c.Request.Context(), req.PostID, user)
	if err != nil {
		p.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes": len(post.Likes), "post": post})
}
