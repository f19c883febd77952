package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/crowdfund/src/api/blogs"
	"github.com/stake-plus/crowdfund/src/api/uploads"
)

type Blogs struct {
	svc  *blogs.Service
	resp responder
}

func NewBlogs(svc *blogs.Service, resp responder) Blogs {
	return Blogs{svc: svc, resp: resp}
}

func (b Blogs) Create(c *gin.Context) {
	if !isMultipart(c) {
		b.resp.badRequest(c, "expected multipart/form-data with an image", nil)
		return
	}
	fhs, err := formFiles(c, "image")
	if err != nil {
		b.resp.badRequest(c, "invalid upload", err)
		return
	}
	if len(fhs) > 1 {
		b.resp.badRequest(c, "a blog post takes exactly one image", nil)
		return
	}
	images, closeImages, err := openImages(fhs)
	if err != nil {
		b.resp.badRequest(c, "invalid upload", err)
		return
	}
	defer closeImages()

	var image *uploads.Image
	if len(images) == 1 {
		image = &images[0]
	}

	owner := c.PostForm("userAddress")
	if owner == "" {
		owner = c.GetString(ctxAddr)
	}
	post, err := b.svc.Create(c.Request.Context(), blogs.CreateInput{
		Title:       c.PostForm("title"),
		Content:     c.PostForm("content"),
		Author:      c.PostForm("author"),
		Tags:        parseList(c.PostFormArray("tags")),
		UserAddress: owner,
	}, image)
	if err != nil {
		b.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (b Blogs) List(c *gin.Context) {
	all, err := b.svc.List(c.Request.Context())
	if err != nil {
		b.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

func (b Blogs) Get(c *gin.Context) {
	post, err := b.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		b.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Update accepts multipart (optionally with a new image) or JSON.
func (b Blogs) Update(c *gin.Context) {
	var (
		patch blogs.Patch
		image *uploads.Image
	)
	if isMultipart(c) {
		fhs, err := formFiles(c, "image")
		if err != nil {
			b.resp.badRequest(c, "invalid upload", err)
			return
		}
		if len(fhs) > 1 {
			b.resp.badRequest(c, "a blog post takes exactly one image", nil)
			return
		}
		images, closeImages, err := openImages(fhs)
		if err != nil {
			b.resp.badRequest(c, "invalid upload", err)
			return
		}
		defer closeImages()
		if len(images) == 1 {
			image = &images[0]
		}

		patch.Title, _ = formValue(c, "title")
		patch.Content, _ = formValue(c, "content")
		patch.Author, _ = formValue(c, "author")
		if _, ok := c.GetPostFormArray("tags"); ok {
			patch.Tags = append([]string{}, parseList(c.PostFormArray("tags"))...)
		}
	} else {
		var req struct {
			Title   *string   `json:"title"`
			Content *string   `json:"content"`
			Author  *string   `json:"author"`
			Tags    *[]string `json:"tags"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			b.resp.badRequest(c, "invalid request body", err)
			return
		}
		patch = blogs.Patch{Title: req.Title, Content: req.Content, Author: req.Author}
		if req.Tags != nil {
			patch.Tags = append([]string{}, *req.Tags...)
		}
	}

	post, err := b.svc.Update(c.Request.Context(), c.Param("id"), patch, image)
	if err != nil {
		b.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (b Blogs) Delete(c *gin.Context) {
	if err := b.svc.Delete(c.Request.Context(), idFrom(c, "id", "blogId", "_id")); err != nil {
		b.resp.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "blog deleted"})
}
