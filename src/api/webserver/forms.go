package webserver

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stake-plus/crowdfund/src/api/blogs"
	"github.com/stake-plus/crowdfund/src/api/updates"
	"github.com/stake-plus/crowdfund/src/api/uploads"
)

// maxUploadBody caps a multipart request: the largest post plus form overhead.
const maxUploadBody = updates.MaxImages*uploads.MaxImageSize + 1<<20

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
	c.Next()
}

// openImages opens every file header; the returned closer releases them.
func openImages(fhs []*multipart.FileHeader) ([]uploads.Image, func(), error) {
	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	images := make([]uploads.Image, 0, len(fhs))
	for _, fh := range fhs {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		files = append(files, f)
		images = append(images, uploads.Image{Filename: fh.Filename, Size: fh.Size, Body: f})
	}
	return images, closeAll, nil
}

func formFiles(c *gin.Context, field string) ([]*multipart.FileHeader, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	return form.File[field], nil
}

// formValue returns the value and whether the field was sent at all.
func formValue(c *gin.Context, key string) (*string, bool) {
	v, ok := c.GetPostForm(key)
	if !ok {
		return nil, false
	}
	return &v, true
}

// parseList accepts a JSON array, a comma separated string or repeated fields.
func parseList(values []string) []string {
	var out []string
	for _, raw := range values {
		out = append(out, blogs.ParseTags(raw)...)
	}
	return out
}

func parseVersion(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// idFrom reads an entity id from the JSON body or the query string.
func idFrom(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(c.Query(k)); v != "" {
			return v
		}
	}
	if c.Request.ContentLength == 0 {
		return ""
	}
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		return ""
	}
	for _, k := range keys {
		if v, ok := body[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
