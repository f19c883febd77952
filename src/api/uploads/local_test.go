package uploads

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/crowdfund/src/api/apperr"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR"), bytes.Repeat([]byte{0}, 32)...)

func pngImage(name string) Image {
	return Image{Filename: name, Size: int64(len(pngBytes)), Body: bytes.NewReader(pngBytes)}
}

func TestLocalStoreSaveServeRemove(t *testing.T) {
	dir := t.TempDir()
	st, err := NewLocalStore(dir)
	require.NoError(t, err)

	ref, err := st.Save(context.Background(), pngImage("cover.PNG"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, PublicPrefix))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	onDisk := filepath.Join(dir, strings.TrimPrefix(ref, PublicPrefix))
	_, err = os.Stat(onDisk)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	st.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ref, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	require.NoError(t, st.Remove(context.Background(), ref))
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, st.Remove(context.Background(), ref))
}

func TestPrepareRejects(t *testing.T) {
	tests := []struct {
		name string
		img  Image
	}{
		{"extension", Image{Filename: "script.svg", Size: 10, Body: strings.NewReader("<svg/>")}},
		{"declared size", Image{Filename: "big.png", Size: MaxImageSize + 1, Body: bytes.NewReader(pngBytes)}},
		{"actual size", Image{Filename: "big.png", Size: 1, Body: bytes.NewReader(append(append([]byte{}, pngBytes...), make([]byte, MaxImageSize)...))}},
		{"content mismatch", Image{Filename: "fake.png", Size: 5, Body: strings.NewReader("hello")}},
		{"empty", Image{Filename: "empty.gif", Size: 0, Body: strings.NewReader("")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := prepare(tt.img)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvalidArgument, apperr.CodeOf(err))
		})
	}
}

func TestPrepareAcceptsGIFAndJPEG(t *testing.T) {
	gif := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	obj, err := prepare(Image{Filename: "a.gif", Size: int64(len(gif)), Body: bytes.NewReader(gif)})
	require.NoError(t, err)
	assert.Equal(t, "image/gif", obj.contentType)

	jpg := append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 16)...)
	obj, err = prepare(Image{Filename: "a.jpeg", Size: int64(len(jpg)), Body: bytes.NewReader(jpg)})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", obj.contentType)
}

func TestKeyFromRefStripsTraversal(t *testing.T) {
	assert.Equal(t, "passwd", keyFromRef("/uploads/../../etc/passwd"))
	assert.Equal(t, "abc.png", keyFromRef("/uploads/abc.png"))
}
