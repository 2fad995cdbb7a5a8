package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local keeps uploads in a directory on disk.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: baseURL}
}

// Dir is the directory the router serves at PublicPrefix.
func (l *Local) Dir() string {
	return l.dir
}

func (l *Local) Save(_ context.Context, name string, r io.Reader, _ string) (Object, error) {
	if !ValidName(name) {
		return Object{}, ErrInvalidName
	}

	// 1. Create the upload directory if it doesn't exist
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("create upload dir: %w", err)
	}

	// 2. Write the file
	f, err := os.OpenFile(filepath.Join(l.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return Object{}, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return Object{}, fmt.Errorf("close %s: %w", name, err)
	}

	path := PublicPrefix + "/" + name
	return Object{Name: name, Path: path, URL: l.baseURL + path}, nil
}

func (l *Local) Delete(_ context.Context, name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	err := os.Remove(filepath.Join(l.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
