package extract

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"

	"juris-backend/internal/shared/storage/object"
)

// PagesSuffix names the artefact stored next to an upload.
const PagesSuffix = "pages.json"

// SavePages persists the extraction result next to the stored upload.
func SavePages(ctx context.Context, store object.ObjectStore, storageKey string, pages Pages) (string, error) {
	payload, err := json.Marshal(pages)
	if err != nil {
		return "", errors.Wrap(err, "encode pages")
	}
	key := object.DerivedKey(storageKey, PagesSuffix)
	if _, err := store.SaveWithKey(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		return "", errors.Wrapf(err, "save pages key=%s", key)
	}
	return key, nil
}

// LoadPages reads the extraction stored next to the upload at storageKey.
func LoadPages(ctx context.Context, store object.ObjectStore, storageKey string) (Pages, error) {
	key := object.DerivedKey(storageKey, PagesSuffix)
	rc, err := store.Open(ctx, key)
	if err != nil {
		return Pages{}, errors.Wrapf(err, "load pages key=%s", key)
	}
	defer rc.Close()

	var pages Pages
	if err := json.NewDecoder(rc).Decode(&pages); err != nil {
		return Pages{}, errors.Wrapf(err, "decode pages key=%s", key)
	}
	if pages.Skipped == nil {
		pages.Skipped = []int{}
	}
	return pages, nil
}
