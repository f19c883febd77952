package uploads

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// LocalStore writes images under a directory on the API host.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(_ context.Context, img Image) (string, error) {
	obj, err := prepare(img)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.dir, obj.key), obj.data, 0o644); err != nil {
		return "", fmt.Errorf("uploads: write %s: %w", obj.key, err)
	}
	return PublicPrefix + obj.key, nil
}

func (s *LocalStore) Remove(_ context.Context, ref string) error {
	key := keyFromRef(ref)
	if key == "." || key == "/" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStore) Handler() http.Handler {
	return http.StripPrefix(PublicPrefix, http.FileServer(http.Dir(s.dir)))
}
