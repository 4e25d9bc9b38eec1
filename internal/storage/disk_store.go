package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DiskStore keeps objects on the local filesystem under root/bucket/key and
// serves them below baseURL. Used in development and tests.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory objects are written to.
func (s *DiskStore) Root() string { return s.root }

// Upload writes data to root/bucket/key.
func (s *DiskStore) Upload(ctx context.Context, bucket, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst, clean, err := s.resolve(bucket, key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("failed to write %s: %w", key, err)
	}
	return clean, nil
}

// PublicURL returns baseURL/bucket/path.
func (s *DiskStore) PublicURL(bucket, path string) string {
	return s.baseURL + "/" + bucket + "/" + strings.TrimPrefix(path, "/")
}

// Remove deletes keys. Missing files are not an error.
func (s *DiskStore) Remove(ctx context.Context, bucket string, keys []string) error {
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst, _, err := s.resolve(bucket, key)
		if err != nil {
			return err
		}
		if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}

// resolve maps bucket/key to a path inside root and returns the cleaned key.
func (s *DiskStore) resolve(bucket, key string) (string, string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + key))
	if clean == "/" || bucket == "" || strings.ContainsAny(bucket, `/\`) || strings.Contains(bucket, "..") {
		return "", "", fmt.Errorf("invalid object location %s/%s", bucket, key)
	}
	return filepath.Join(s.root, bucket, filepath.FromSlash(clean)), strings.TrimPrefix(clean, "/"), nil
}
