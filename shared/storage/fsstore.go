package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkpress/inkpress/blog/domain"
)

var _ domain.BlobStore = (*FSStore)(nil)

// FSStore is a filesystem-backed blob store. Blobs live under root and
// resolve to public URLs under baseURL; the HTTP server is expected to
// serve root at that prefix.
type FSStore struct {
	root    string
	baseURL string
}

func NewFSStore(root, baseURL string) *FSStore {
	return &FSStore{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Put writes the blob at the given store-relative path, overwriting any
// existing file, and returns its public URL. Paths escaping the store root
// are rejected.
func (s *FSStore) Put(ctx context.Context, path string, r io.Reader) (string, error) {
	rel, err := cleanPath(path)
	if err != nil {
		return "", err
	}

	localPath := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(localPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create blob file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(localPath)
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close blob file: %w", err)
	}

	return s.baseURL + "/" + rel, nil
}

func cleanPath(path string) (string, error) {
	rel := strings.TrimLeft(strings.TrimSpace(path), "/")
	if rel == "" {
		return "", fmt.Errorf("blob path cannot be empty")
	}

	cleaned := filepath.ToSlash(filepath.Clean(rel))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("blob path %q escapes the store root", path)
	}

	return cleaned, nil
}
