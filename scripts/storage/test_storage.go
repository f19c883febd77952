// Checks that the configured upload backend accepts, serves and removes an image.
package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"log"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/stake-plus/crowdfund/src/api/config"
	"github.com/stake-plus/crowdfund/src/api/uploads"
)

var pixel, _ = hex.DecodeString("89504e470d0a1a0a0000000d4948445200000001000000010806000000" +
	"1f15c4890000000d49444154789c6360000002000154a24f5d0000000049454e44ae426082")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var st uploads.Store
	if cfg.UploadBackend == "s3" {
		st, err = uploads.NewS3Store(ctx, uploads.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			UseSSL:    cfg.S3UseSSL,
			Bucket:    cfg.S3Bucket,
		})
	} else {
		st, err = uploads.NewLocalStore(cfg.UploadDir)
	}
	if err != nil {
		log.Fatalf("open %s backend: %v", cfg.UploadBackend, err)
	}

	ref, err := st.Save(ctx, uploads.Image{Filename: "pixel.png", Size: int64(len(pixel)), Body: bytes.NewReader(pixel)})
	if err != nil {
		log.Fatalf("save: %v", err)
	}
	log.Printf("saved %s", ref)

	rec := httptest.NewRecorder()
	st.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ref, nil))
	log.Printf("GET %s -> %d", ref, rec.Code)
	if rec.Code != http.StatusOK && rec.Code != http.StatusFound && rec.Code != http.StatusTemporaryRedirect {
		log.Fatalf("serve: unexpected status %d", rec.Code)
	}

	if err := st.Remove(ctx, ref); err != nil {
		log.Fatalf("remove: %v", err)
	}
	log.Printf("removed %s", ref)
}
