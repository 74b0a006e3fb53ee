// Package fsxlocal implements fsx.FileSystem on a local directory, for
// development setups without S3.
package fsxlocal

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hirelens/hirelens/pkg/fsx"
)

type LocalFileSystem struct {
	root string
}

// NewLocalFileSystem creates a file system rooted at dir, creating it if
// needed.
func NewLocalFileSystem(dir string) (fsx.FileSystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &LocalFileSystem{root: dir}, nil
}

// resolve keeps paths inside the root even when segments contain "..".
func (l *LocalFileSystem) resolve(p string) (string, error) {
	full := filepath.Join(l.root, filepath.Clean("/"+p))
	if !strings.HasPrefix(full, filepath.Clean(l.root)+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes storage root: %s", p)
	}
	return full, nil
}

func (l *LocalFileSystem) ReadFile(_ context.Context, path string) ([]byte, error) {
	full, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	return data, nil
}

func (l *LocalFileSystem) WriteFile(_ context.Context, path string, data []byte) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write file %s: %w", path, err)
	}
	return nil
}

func (l *LocalFileSystem) WriteFileStream(ctx context.Context, path string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read stream for %s: %w", path, err)
	}
	return l.WriteFile(ctx, path, data)
}

func (l *LocalFileSystem) DeleteFile(_ context.Context, path string) error {
	full, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return nil
}

func (l *LocalFileSystem) Join(parts ...string) string {
	return filepath.ToSlash(filepath.Join(parts...))
}
