// Package static reads the site's files from a directory or an S3 bucket.
package static

import (
	"context"
	"path"
	"strings"
)

// Store reads site files by slash-separated path relative to the site root.
// Missing files yield an error wrapping errors.ErrNotFound.
type Store interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
}

var mimeTypes = map[string]string{
	".html": "text/html",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".pdf":  "application/pdf",
	".css":  "text/css",
	".js":   "text/javascript",
	".json": "application/json",
}

// MimeType returns the content type served for name. Unknown extensions are
// served as text/plain.
func MimeType(name string) string {
	if t, ok := mimeTypes[strings.ToLower(path.Ext(name))]; ok {
		return t
	}
	return "text/plain"
}

// cleanName turns a request path into a store key, rejecting traversal.
func cleanName(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if name == "" || name == "." {
		return "", false
	}
	return name, true
}
