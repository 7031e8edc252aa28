package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurofusion/fusion/pkg/models"
)

func testPromptStore(t *testing.T) (*PromptStore, *Store, func()) {
	t.Helper()

	store, cleanup := testStore(t)
	return NewPromptStore(store), store, cleanup
}

func TestPromptStore_UpsertCreatesThenUpdates(t *testing.T) {
	promptStore, store, cleanup := testPromptStore(t)
	defer cleanup()

	ctx := context.Background()

	prompt := &models.Prompt{
		UUID:                          "uuid-1",
		PromptText:                    "How do you feel?",
		ResponseType:                  models.ResponseTypeText,
		NotificationConfigDays:        models.AllDays(),
		NotificationConfigStartTime:   "08:00",
		NotificationConfigEndTime:     "18:00",
		NotificationConfigCountPerDay: 3,
	}

	created, err := promptStore.UpsertPrompt(ctx, prompt)
	require.NoError(t, err)
	assert.True(t, created)

	// Same uuid, different text: must update in place, not insert.
	prompt.PromptText = "How are you feeling right now?"
	created, err = promptStore.UpsertPrompt(ctx, prompt)
	require.NoError(t, err)
	assert.False(t, created)

	var count int
	require.NoError(t, store.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM prompts WHERE uuid = ?", "uuid-1").Scan(&count))
	assert.Equal(t, 1, count)

	got, err := promptStore.GetPrompt(ctx, "uuid-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "How are you feeling right now?", got.PromptText)
}

func TestPromptStore_GetPromptRoundTrip(t *testing.T) {
	promptStore, _, cleanup := testPromptStore(t)
	defer cleanup()

	ctx := context.Background()

	prompt := &models.Prompt{
		UUID:                          "uuid-rt",
		PromptText:                    "Did you exercise today?",
		ResponseType:                  models.ResponseTypeYesNo,
		NotificationConfigDays:        models.DayFlags{Monday: true, Thursday: true},
		NotificationConfigStartTime:   "09:30",
		NotificationConfigEndTime:     "21:00",
		NotificationConfigCountPerDay: 2,
	}

	_, err := promptStore.UpsertPrompt(ctx, prompt)
	require.NoError(t, err)

	got, err := promptStore.GetPrompt(ctx, "uuid-rt")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, prompt, got)
}

func TestPromptStore_GetPromptMissing(t *testing.T) {
	promptStore, _, cleanup := testPromptStore(t)
	defer cleanup()

	got, err := promptStore.GetPrompt(context.Background(), "no-such-uuid")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPromptStore_GetPromptCorruptDays(t *testing.T) {
	promptStore, store, cleanup := testPromptStore(t)
	defer cleanup()

	ctx := context.Background()

	_, err := store.ExecContext(ctx, `INSERT INTO prompts
		(uuid, promptText, responseType, notificationConfig_days,
		 notificationConfig_startTime, notificationConfig_endTime, notificationConfig_countPerDay)
		VALUES ('uuid-bad', 'Corrupt days', 'text', '{broken', '08:00', '18:00', 1)`)
	require.NoError(t, err)

	_, err = promptStore.GetPrompt(ctx, "uuid-bad")
	require.Error(t, err)
	var corrupt *models.CorruptionError
	assert.ErrorAs(t, err, &corrupt)
}

func TestPromptStore_FindUUIDsByText(t *testing.T) {
	promptStore, store, cleanup := testPromptStore(t)
	defer cleanup()

	ctx := context.Background()
	seedPrompt(t, store, "uuid-a", "How do you feel?")
	seedPrompt(t, store, "uuid-b", "How do you feel?")
	seedPrompt(t, store, "uuid-c", "Did you sleep well?")

	uuids, err := promptStore.FindUUIDsByText(ctx, "How do you feel?")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"uuid-a", "uuid-b"}, uuids)

	// No matches is an empty slice, not nil and not an error.
	uuids, err = promptStore.FindUUIDsByText(ctx, "What did you eat?")
	require.NoError(t, err)
	assert.NotNil(t, uuids)
	assert.Empty(t, uuids)
}

func TestPromptStore_ListPrompts(t *testing.T) {
	promptStore, store, cleanup := testPromptStore(t)
	defer cleanup()

	ctx := context.Background()

	prompts, err := promptStore.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Empty(t, prompts)

	seedPrompt(t, store, "uuid-1", "First")
	seedPrompt(t, store, "uuid-2", "Second")

	prompts, err = promptStore.ListPrompts(ctx)
	require.NoError(t, err)
	assert.Len(t, prompts, 2)
}

func TestPromptStore_DeletePrompt(t *testing.T) {
	promptStore, store, cleanup := testPromptStore(t)
	defer cleanup()

	ctx := context.Background()
	seedPrompt(t, store, "uuid-del", "Delete me")

	affected, err := promptStore.DeletePrompt(ctx, "uuid-del")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	affected, err = promptStore.DeletePrompt(ctx, "uuid-del")
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}
