package uploads

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// S3Store keeps images in an S3-compatible bucket and serves them via
// short-lived presigned redirects.
type S3Store struct {
	cfg        S3Config
	client     *minio.Client
	presignTTL time.Duration
}

func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	s := &S3Store{cfg: cfg, client: cl, presignTTL: 15 * time.Minute}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func (s *S3Store) Save(ctx context.Context, img Image) (string, error) {
	obj, err := prepare(img)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, obj.key,
		bytes.NewReader(obj.data), int64(len(obj.data)),
		minio.PutObjectOptions{ContentType: obj.contentType})
	if err != nil {
		return "", err
	}
	return PublicPrefix + obj.key, nil
}

func (s *S3Store) Remove(ctx context.Context, ref string) error {
	return s.client.RemoveObject(ctx, s.cfg.Bucket, keyFromRef(ref), minio.RemoveObjectOptions{})
}

func (s *S3Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := keyFromRef(r.URL.Path)
		if key == "" || key == "." || key == "/" {
			http.NotFound(w, r)
			return
		}
		u, err := s.client.PresignedGetObject(r.Context(), s.cfg.Bucket, key, s.presignTTL, nil)
		if err != nil {
			http.Error(w, "failed to sign url", http.StatusBadGateway)
			return
		}
		http.Redirect(w, r, u.String(), http.StatusFound)
	})
}
