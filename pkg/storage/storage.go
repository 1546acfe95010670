// Package storage keeps uploaded shipment images outside the database.
// Rows only hold the opaque key returned by Save.
package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// ErrNotFound no object under the key
var ErrNotFound = errors.New("image not found")

// ErrInvalidKey key escapes the store root or is malformed
var ErrInvalidKey = errors.New("invalid image key")

// ImageStore persists image blobs
type ImageStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (key string, err error)
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// DetectImageMIME sniffs the leading bytes. WebP is checked by hand since
// http.DetectContentType has no signature for it.
func DetectImageMIME(head []byte) (string, bool) {
	if len(head) >= 12 && string(head[0:4]) == "RIFF" && string(head[8:12]) == "WEBP" {
		return "image/webp", true
	}
	mime := http.DetectContentType(head)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

func mimeTypeToExt(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func extToMimeType(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
