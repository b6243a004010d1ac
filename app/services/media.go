package services

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ImageTypes are the content types accepted as post images.
var ImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// IsImage reports whether data sniffs as one of ImageTypes.
func IsImage(data []byte) bool {
	mtype := mimetype.Detect(data)
	for _, t := range ImageTypes {
		if mtype.Is(t) {
			return true
		}
	}
	return false
}

// MediaStore keeps uploaded files and hands back their media-relative names.
type MediaStore interface {
	Save(data []byte) (string, error)
	Delete(name string) error
}

// FileMediaStore writes uploads under Root/posts.
type FileMediaStore struct {
	Root string
}

// NewFileMediaStore creates a FileMediaStore rooted at dir.
func NewFileMediaStore(dir string) *FileMediaStore {
	return &FileMediaStore{Root: dir}
}

// Save writes an image under a random name with the extension of its sniffed type.
func (s *FileMediaStore) Save(data []byte) (string, error) {
	if !IsImage(data) {
		return "", fmt.Errorf("%w: upload is not a supported image", ErrInvalid)
	}
	dir := filepath.Join(s.Root, "posts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media dir: %w", err)
	}

	name := uuid.NewString() + mimetype.Detect(data).Extension()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return path.Join("posts", name), nil
}

// Delete removes a stored file. Missing files are ignored.
func (s *FileMediaStore) Delete(name string) error {
	if name == "" || strings.Contains(name, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(name)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
