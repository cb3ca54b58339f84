package storage

import (
	"context"
	"path/filepath"
	"strings"
)

// Store persists generated media durably and resolves public URLs for
// stored objects. Vendors hand out ephemeral URLs; everything the
// pipeline records in an artifact must live behind a Store.
type Store interface {
	// Write persists data at key and returns the canonical key.
	Write(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// URL returns the publicly resolvable URL for a stored key.
	URL(key string) string
}

// ContentTypeForKey guesses a MIME type from the object key extension.
func ContentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
