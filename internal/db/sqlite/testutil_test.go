package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neurofusion/fusion/pkg/models"
)

// testStore creates a store over a temp-dir database with migrations applied.
func testStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "fusion-sqlite-test-*")
	require.NoError(t, err)

	store, err := NewStore(StoreConfig{
		Path:    filepath.Join(tmpDir, "test.db"),
		WALMode: true,
	})
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

// seedPrompt inserts a prompt row directly.
func seedPrompt(t *testing.T, store *Store, uuid, text string) {
	t.Helper()

	prompt := &models.Prompt{
		UUID:                          uuid,
		PromptText:                    text,
		ResponseType:                  models.ResponseTypeText,
		NotificationConfigDays:        models.AllDays(),
		NotificationConfigStartTime:   "08:00",
		NotificationConfigEndTime:     "18:00",
		NotificationConfigCountPerDay: 3,
	}
	created, err := NewPromptStore(store).UpsertPrompt(context.Background(), prompt)
	require.NoError(t, err)
	require.True(t, created)
}
