package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// BlobMetadata describes an object about to be stored.
type BlobMetadata struct {
	Folder      string
	FileName    string
	ContentType string
}

// BlobStore keeps media files outside the database and hands back their public URL.
type BlobStore interface {
	Store(ctx context.Context, data []byte, meta BlobMetadata) (string, error)
	Delete(ctx context.Context, url string) error
}

// objectPath builds "<folder>/<yyyy>/<mm>/<uuid><ext>" so uploads never overwrite each other.
func objectPath(meta BlobMetadata, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(meta.FileName))
	if ext == "" && meta.ContentType != "" {
		if m := mimetype.Lookup(meta.ContentType); m != nil {
			ext = m.Extension()
		}
	}

	folder := strings.Trim(meta.Folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return path.Join(folder, fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", int(now.Month())), uuid.New().String()+ext)
}

// pathFromURL strips the public prefix from a URL this store produced.
func pathFromURL(publicURL, prefix string) (string, error) {
	prefix = strings.TrimRight(prefix, "/") + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", fmt.Errorf("url %q is not served by this store", publicURL)
	}
	p := strings.TrimPrefix(publicURL, prefix)
	if p == "" || strings.Contains(p, "..") {
		return "", fmt.Errorf("invalid object path in url %q", publicURL)
	}
	return p, nil
}
