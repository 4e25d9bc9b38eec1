package storage

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore stores image blobs in buckets.
type ObjectStore interface {
	// Upload stores data under key and returns the stored path.
	Upload(ctx context.Context, bucket, key, contentType string, data []byte) (string, error)
	// PublicURL returns the URL under which path can be fetched.
	PublicURL(bucket, path string) string
	// Remove deletes keys from bucket.
	Remove(ctx context.Context, bucket string, keys []string) error
}

// ObjectKey builds the storage key of one file of an entity.
func ObjectKey(entityID, fileID uuid.UUID) string {
	return entityID.String() + "/" + fileID.String()
}

// KeyFromRef recovers the object key from a stored reference. Public URLs
// are cut after the bucket path segment; anything else is treated as a key.
func KeyFromRef(bucket, ref string) string {
	path := ref
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		path = u.Path
	}
	path = strings.TrimPrefix(path, "/")

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == bucket && i < len(segments)-1 {
			return strings.Join(segments[i+1:], "/")
		}
	}
	return path
}
