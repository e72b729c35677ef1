// Package storage is the file-storage boundary: avatar and logo blobs
// land on local disk under a bucket directory and are served back by a
// static route. The size cap is enforced before a single byte is
// written.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/taskdesk/taskdesk/internal/apperr"
)

// MaxUploadBytes caps avatar uploads at 2MB.
const MaxUploadBytes = 2 * 1024 * 1024

type FileStore struct {
	baseDir       string
	publicBaseURL string
}

func NewFileStore(baseDir, publicBaseURL string) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// BaseDir is what the static file route serves from.
func (fs *FileStore) BaseDir() string { return fs.baseDir }

// Save writes a blob into a bucket and returns its public URL. The
// declared size is checked first and the copy is capped as well, so a
// client lying about Content-Length cannot sneak a bigger file in.
func (fs *FileStore) Save(bucket, origName string, size int64, r io.Reader) (string, error) {
	if size > MaxUploadBytes {
		return "", apperr.New(apperr.KindValidation, "file must be smaller than 2MB")
	}

	ext := strings.ToLower(filepath.Ext(origName))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
	default:
		return "", apperr.New(apperr.KindValidation, "unsupported image type")
	}

	dir := filepath.Join(fs.baseDir, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", apperr.Wrap(apperr.KindPersistence, "could not store file", err)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", apperr.Wrap(apperr.KindPersistence, "could not store file", err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		os.Remove(path)
		return "", apperr.Wrap(apperr.KindPersistence, "could not store file", err)
	}
	if written > MaxUploadBytes {
		os.Remove(path)
		return "", apperr.New(apperr.KindValidation, "file must be smaller than 2MB")
	}

	return fs.publicBaseURL + "/files/" + bucket + "/" + name, nil
}

// Remove deletes a previously saved file given its public URL. Unknown
// URLs are a no-op; the pointer may already be stale.
func (fs *FileStore) Remove(publicURL string) error {
	prefix := fs.publicBaseURL + "/files/"
	if !strings.HasPrefix(publicURL, prefix) {
		return nil
	}
	rel := strings.TrimPrefix(publicURL, prefix)
	rel = filepath.Clean(rel)
	if strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return nil
	}
	err := os.Remove(filepath.Join(fs.baseDir, rel))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
