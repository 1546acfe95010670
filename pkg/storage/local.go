package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalStore writes images under a directory on local disk
type LocalStore struct {
	basePath string
	logger   *zap.Logger
}

// NewLocalStore creates basePath if needed
func NewLocalStore(basePath string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve image directory: %w", err)
	}
	return &LocalStore{basePath: abs, logger: logger}, nil
}

// Save writes r to <prefix>_<uuid><ext> and returns the file name as key.
// A partially written file is removed.
func (s *LocalStore) Save(_ context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	key := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), mimeTypeToExt(mimeType))
	path := filepath.Join(s.basePath, key)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		s.removeQuietly(path)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		s.removeQuietly(path)
		return "", fmt.Errorf("close image file: %w", err)
	}
	return key, nil
}

// Open returns the file and its MIME type
func (s *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("open image file: %w", err)
	}
	return f, extToMimeType(strings.ToLower(filepath.Ext(path))), nil
}

// Delete removes the file
func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("delete image file: %w", err)
	}
	return nil
}

// resolve joins key onto the base path and rejects traversal
func (s *LocalStore) resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", ErrInvalidKey
	}
	path := filepath.Join(s.basePath, key)
	if !strings.HasPrefix(path, s.basePath+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return path, nil
}

func (s *LocalStore) removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Error("remove partial image failed", zap.String("path", path), zap.Error(err))
	}
}
