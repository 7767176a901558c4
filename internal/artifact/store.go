// Package artifact stores processed images on local disk, optionally mirrored
// to an S3-compatible bucket.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Mirror receives a copy of every saved artifact.
type Mirror interface {
	Put(ctx context.Context, name string, data []byte) error
}

type LocalStore struct {
	dir    string
	mirror Mirror
}

// NewLocalStore creates dir if needed. mirror may be nil.
func NewLocalStore(dir string, mirror Mirror) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("artifact dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir: %w", err)
	}
	return &LocalStore{dir: dir, mirror: mirror}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes data as <dir>/<base name> and returns the path. An existing file
// of the same name is replaced.
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, "\\", "/")))
	if base == "/" || base == "." {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	path := filepath.Join(s.dir, base)
	if err := writeAtomic(s.dir, path, data); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if s.mirror != nil {
		if err := s.mirror.Put(ctx, base, data); err != nil {
			log.Printf("mirror artifact %s failed: %v", base, err)
		}
	}
	return path, nil
}

// writeAtomic writes to a temp file in dir and renames it over path, so
// readers never see a partially written artifact.
func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
