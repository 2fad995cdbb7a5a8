// Package uploads stores user-uploaded images. The local backend writes to a
// directory served at /uploads; the S3 backend writes to a bucket.
package uploads

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// PublicPrefix is the URL path local uploads are served from.
const PublicPrefix = "/uploads"

var (
	// ErrNotFound is returned by Delete when no file has the given name.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName is returned for names that are empty or could escape
	// the upload directory.
	ErrInvalidName = errors.New("invalid file name")
)

// Object describes a stored file.
type Object struct {
	Name string
	Path string
	URL  string
}

// Storage is implemented by every upload backend.
type Storage interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (Object, error)
	Delete(ctx context.Context, name string) error
}

// ValidName reports whether name is a bare file name.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}
