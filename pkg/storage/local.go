package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// PublicPrefix is the URL path under which stored files are served.
const PublicPrefix = "/upload/images"

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// Store persists uploaded files on the local disk. Paths handed back to
// callers are public URL paths, not filesystem paths.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore ensures the upload directory exists and returns a store.
func NewStore(dir string, maxUploadMB int) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload dir is required")
	}
	imageDir := filepath.Join(dir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir %q: %w", imageDir, err)
	}
	maxBytes := int64(maxUploadMB) * 1024 * 1024
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the filesystem root served under PublicPrefix's parent.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the upload under a random name and returns its public path.
func (s *Store) Save(originalName string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("unsupported file extension %q", ext)
	}

	name := uuid.NewString() + ext
	fsPath := filepath.Join(s.dir, "images", name)

	f, err := os.OpenFile(fsPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		_ = os.Remove(fsPath)
		return "", fmt.Errorf("writing upload file: %w", err)
	}
	if written > s.maxBytes {
		_ = os.Remove(fsPath)
		return "", fmt.Errorf("upload exceeds %d bytes", s.maxBytes)
	}

	return PublicPrefix + "/" + name, nil
}

// Remove deletes the file behind a public path. Unknown paths are ignored.
func (s *Store) Remove(publicPath string) error {
	name, ok := s.fileName(publicPath)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, "images", name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %w", publicPath, err)
	}
	return nil
}

// RemoveAll deletes every file best-effort and aggregates failures.
func (s *Store) RemoveAll(publicPaths []string) error {
	var errs error
	for _, p := range publicPaths {
		errs = multierr.Append(errs, s.Remove(p))
	}
	return errs
}

// fileName extracts the stored file name, rejecting traversal attempts.
func (s *Store) fileName(publicPath string) (string, bool) {
	if !strings.HasPrefix(publicPath, PublicPrefix+"/") {
		return "", false
	}
	name := strings.TrimPrefix(publicPath, PublicPrefix+"/")
	if name == "" || name != filepath.Base(name) {
		return "", false
	}
	return name, true
}
