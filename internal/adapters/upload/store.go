// Package upload stores course photos and organization logos on local disk
// and serves them under a public base URL.
package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxSize is the largest accepted upload, in bytes.
const MaxSize = 5 << 20

// AllowedTypes lists the accepted image types, detected from content.
var AllowedTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Upload errors. Each names the reason an asset was refused.
var (
	ErrEmptyPath       = errors.New("upload path is empty")
	ErrAbsolutePath    = errors.New("upload path must be relative")
	ErrPathTraversal   = errors.New("upload path cannot contain '..'")
	ErrBackslash       = errors.New("upload path cannot contain backslashes")
	ErrEmptyFile       = errors.New("uploaded file is empty")
	ErrTooLarge        = errors.New("uploaded file exceeds 5 MB")
	ErrUnsupportedType = errors.New("file type must be JPEG, PNG, WebP or GIF")
)

// Store writes assets below a base directory.
type Store struct {
	dir       string
	publicURL string
}

// NewStore creates a store rooted at dir, publishing files under publicURL.
// PRE: dir is writable
func NewStore(dir, publicURL string) *Store {
	return &Store{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}
}

// ValidatePath checks that p is a clean relative location inside the store.
func ValidatePath(p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return ErrEmptyPath
	case strings.Contains(p, `\`):
		return ErrBackslash
	case strings.HasPrefix(p, "/") || filepath.IsAbs(p):
		return ErrAbsolutePath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return ErrPathTraversal
		}
	}
	return nil
}

// DetectType returns the MIME type of data if it is an allowed image.
func DetectType(data []byte) (string, error) {
	mt, err := detect(data)
	if err != nil {
		return "", err
	}
	return mt.String(), nil
}

func detect(data []byte) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if len(data) > MaxSize {
		return nil, ErrTooLarge
	}
	mt := mimetype.Detect(data)
	for _, allowed := range AllowedTypes {
		if mt.Is(allowed) {
			return mt, nil
		}
	}
	return nil, fmt.Errorf("%w (got %s)", ErrUnsupportedType, mt.String())
}

// withExtension replaces the extension of p with the one matching the detected content.
// The file server picks Content-Type from the name, so "x.html" holding a GIF must not keep its suffix.
func withExtension(p string, mt *mimetype.MIME) string {
	return strings.TrimSuffix(p, path.Ext(p)) + mt.Extension()
}

// Put stores data at p and returns its public URL.
// The stored name carries the extension of the detected type, whatever p ends with.
// The file is written to a temporary name first, so a failed upload leaves
// any previous asset at p untouched.
// PRE: p passes ValidatePath
// POST: Returns the public URL, or an error and nothing written
func (s *Store) Put(ctx context.Context, p string, data []byte) (string, error) {
	if err := ValidatePath(p); err != nil {
		return "", err
	}
	mt, err := detect(data)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clean := withExtension(path.Clean(p), mt)
	target := filepath.Join(s.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("store upload: %w", err)
	}

	slog.Info("upload_event", "event", "asset_stored", "path", clean, "content_type", mt.String(), "bytes", len(data))
	return s.publicURL + "/" + clean, nil
}

// Dir returns the base directory, for serving the files.
func (s *Store) Dir() string {
	return s.dir
}

// PublicURL returns the base URL files are published under, without a trailing slash.
func (s *Store) PublicURL() string {
	return s.publicURL
}
