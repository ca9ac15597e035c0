package object

import (
	"context"
	"io"

	"github.com/cockroachdb/errors"
)

// ErrNotFound is marked on Open errors for keys that hold no object.
var ErrNotFound = errors.New("object not found")

// ObjectStore saves and retrieves uploaded documents and their extraction artefacts.
type ObjectStore interface {
	// Save stores r under a hashed namespace (usually a session id) and returns its key.
	Save(ctx context.Context, namespace string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	// Open reads a stored object. Missing keys yield an error marked with ErrNotFound.
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

// DerivedKey returns the key for an artefact stored next to storageKey.
func DerivedKey(storageKey, suffix string) string {
	return storageKey + "." + suffix
}
