package local

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"juris-backend/internal/shared/storage/object"
	"juris-backend/internal/shared/util"
)

// ErrInvalidKey is returned for keys escaping the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Save writes the reader to disk under the hashed namespace with a random prefix.
func (s *Store) Save(ctx context.Context, namespace string, fileName string, r io.Reader) (string, int64, string, error) {
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", 0, "", errors.Wrap(err, "sanitize file name")
	}
	if err := ctx.Err(); err != nil {
		return "", 0, "", err
	}

	dirKey := util.HashKey(namespace)
	finalName := strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + sanitizedName

	dirPath := filepath.Join(s.baseDir, dirKey)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", 0, "", errors.Wrap(err, "mkdir")
	}

	f, err := os.OpenFile(filepath.Join(dirPath, finalName), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", 0, "", errors.Wrap(err, "open file")
	}
	defer f.Close()

	var sniff [512]byte
	n, readErr := io.ReadFull(r, sniff[:])
	if readErr != nil && readErr != io.EOF && readErr != io.ErrUnexpectedEOF {
		return "", 0, "", errors.Wrap(readErr, "read sniff")
	}
	mimeType := http.DetectContentType(sniff[:n])

	size := int64(0)
	if n > 0 {
		if _, err := f.Write(sniff[:n]); err != nil {
			return "", 0, "", errors.Wrap(err, "write sniff")
		}
		size += int64(n)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		return "", 0, "", errors.Wrap(err, "write body")
	}
	size += written

	return filepath.ToSlash(filepath.Join(dirKey, finalName)), size, mimeType, nil
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "key=%q", storageKey), object.ErrNotFound)
		}
		return nil, errors.Wrap(err, "open file")
	}
	return f, nil
}

// SaveWithKey writes the reader to disk at a specific storage key.
func (s *Store) SaveWithKey(ctx context.Context, storageKey string, _ string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	fullPath, err := s.resolve(storageKey)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, errors.Wrap(err, "mkdir")
	}
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, errors.Wrap(err, "open file")
	}
	defer f.Close()

	written, err := io.Copy(f, r)
	if err != nil {
		return 0, errors.Wrap(err, "write body")
	}
	return written, nil
}

func (s *Store) resolve(storageKey string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(storageKey))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errors.Wrapf(ErrInvalidKey, "key=%q", storageKey)
	}
	return filepath.Join(s.baseDir, clean), nil
}

var _ object.ObjectStore = (*Store)(nil)
