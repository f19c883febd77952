package uploads

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/stake-plus/crowdfund/src/api/apperr"
)

const (
	MaxImageSize = 5 << 20
	PublicPrefix = "/uploads/"
)

var allowedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// Image is one uploaded file as received from a multipart form.
type Image struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// Store persists images and serves them back under PublicPrefix.
type Store interface {
	Save(ctx context.Context, img Image) (string, error)
	Remove(ctx context.Context, ref string) error
	Handler() http.Handler
}

type object struct {
	key         string
	contentType string
	data        []byte
}

// prepare enforces the size cap and the extension filter and checks that the
// bytes really are the image type the extension claims.
func prepare(img Image) (object, error) {
	ext := strings.ToLower(filepath.Ext(img.Filename))
	want, ok := allowedTypes[ext]
	if !ok {
		return object{}, apperr.InvalidArg("only jpeg, jpg, png and gif images are allowed")
	}
	if img.Size > MaxImageSize {
		return object{}, apperr.InvalidArg(fmt.Sprintf("image %s exceeds the 5MB limit", img.Filename))
	}

	data, err := io.ReadAll(io.LimitReader(img.Body, MaxImageSize+1))
	if err != nil {
		return object{}, apperr.Wrap(apperr.CodeInvalidArgument, "failed to read image", err)
	}
	if len(data) > MaxImageSize {
		return object{}, apperr.InvalidArg(fmt.Sprintf("image %s exceeds the 5MB limit", img.Filename))
	}
	if len(data) == 0 {
		return object{}, apperr.InvalidArg("image is empty")
	}

	mt := mimetype.Detect(data)
	if !mt.Is(want) {
		return object{}, apperr.InvalidArg(fmt.Sprintf("image %s is not a valid %s file", img.Filename, strings.TrimPrefix(ext, ".")))
	}
	return object{key: uuid.NewString() + ext, contentType: want, data: data}, nil
}

// keyFromRef turns a stored "/uploads/<key>" path back into the object key.
func keyFromRef(ref string) string {
	return filepath.Base(strings.TrimPrefix(ref, PublicPrefix))
}
