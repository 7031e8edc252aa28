// Package legacy provides read-only access to the prior flat key-value
// persistence format. The store is consumed exactly once, by the migration;
// nothing ever writes back to it.
package legacy

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/neurofusion/fusion/pkg/models"
)

// Store is the read surface of the legacy key-value storage.
type Store interface {
	// GetSerializedValue returns the raw serialized blob stored under key.
	// The second return is false when the key (or the whole store) is absent.
	GetSerializedValue(key string) (string, bool, error)
}

// FileStore reads the legacy store from a single JSON file mapping keys to
// serialized string blobs, the shape the old async-storage dump comes in.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed legacy store reader.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// GetSerializedValue implements Store. A missing file is an absent store,
// not an error; a file that fails to parse is a CorruptionError.
func (s *FileStore) GetSerializedValue(key string) (string, bool, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read legacy store: %w", err)
	}

	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return "", false, &models.CorruptionError{Field: "legacy store", Err: err}
	}

	value, ok := entries[key]
	return value, ok, nil
}
