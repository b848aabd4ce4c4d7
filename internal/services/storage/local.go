package storage

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
)

// LocalStorage keeps attachments on disk and links them through the
// static /uploads route. Used when no bucket is configured.
type LocalStorage struct {
	Dir string
}

func NewLocal(dir string) *LocalStorage {
	return &LocalStorage{Dir: dir}
}

func (l *LocalStorage) Save(ctx context.Context, key string, r io.Reader) error {
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(l.Dir, path.Base(key)))
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, r)
	return err
}

func (l *LocalStorage) FileURL(ctx context.Context, key string) (string, error) {
	return "/uploads/" + path.Base(key), nil
}
