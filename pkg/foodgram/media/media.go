// Package media stores uploaded recipe images on the local filesystem.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/impactys/foodgram/pkg/foodgram/config"
)

// ImageDir is the directory, relative to the media root, holding recipe images.
const ImageDir = "recipes/images"

var (
	// ErrInvalidImage is returned when the payload is not decodable base64.
	ErrInvalidImage = errors.New("invalid image data")
	// ErrNotImage is returned when the decoded payload is not an image.
	ErrNotImage = errors.New("uploaded file is not an image")
)

// Store saves images under Root and renders references under URLPrefix.
type Store struct {
	Root      string
	URLPrefix string
	// BaseURL makes rendered URLs absolute when set.
	BaseURL string
}

// NewStore creates a Store from configuration. baseURL is the public
// scheme and host of the API.
func NewStore(cfg config.MediaConfig, baseURL string) *Store {
	return &Store{
		Root:      cfg.Root,
		URLPrefix: strings.TrimRight(cfg.URLPrefix, "/"),
		BaseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// SaveBase64 decodes a "data:image/png;base64,..." URI or bare base64 and
// writes it to a new file. It returns the reference to persist, relative to
// the media root.
func (s *Store) SaveBase64(data string) (string, error) {
	payload := strings.TrimSpace(data)
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, ";base64,")
		if idx == -1 {
			return "", ErrInvalidImage
		}
		payload = payload[idx+len(";base64,"):]
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return "", ErrInvalidImage
		}
	}
	if len(raw) == 0 {
		return "", ErrInvalidImage
	}

	mtype := mimetype.Detect(raw)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotImage
	}

	ref := path.Join(ImageDir, uuid.NewString()+mtype.Extension())
	target := filepath.Join(s.Root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(target, raw, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return ref, nil
}

// Delete removes a stored file. Missing files are not an error.
func (s *Store) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(ref)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL renders a stored reference as a URL, absolute when BaseURL is set.
func (s *Store) URL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return s.BaseURL + s.URLPrefix + "/" + strings.TrimLeft(ref, "/")
}
