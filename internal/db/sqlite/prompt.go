package sqlite

import (
	"context"
	"database/sql"

	"github.com/neurofusion/fusion/pkg/models"
)

// promptColumns is the select list shared by every prompt query.
const promptColumns = `uuid, promptText, responseType, notificationConfig_days,
	notificationConfig_startTime, notificationConfig_endTime, notificationConfig_countPerDay`

// PromptStore provides prompt-related database operations.
type PromptStore struct {
	store *Store
}

// NewPromptStore creates a new prompt store.
func NewPromptStore(store *Store) *PromptStore {
	return &PromptStore{store: store}
}

// ListPrompts returns every stored prompt.
func (s *PromptStore) ListPrompts(ctx context.Context) ([]*models.Prompt, error) {
	const query = `SELECT ` + promptColumns + ` FROM prompts`

	rows, err := s.store.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPromptRows(rows)
}

// GetPrompt returns the prompt with the given uuid, or nil if none exists.
// Day flags are deserialized from their stored form; malformed stored data
// surfaces as a CorruptionError from the scan.
func (s *PromptStore) GetPrompt(ctx context.Context, uuid string) (*models.Prompt, error) {
	const query = `SELECT ` + promptColumns + ` FROM prompts WHERE uuid = ? LIMIT 1`

	prompt, err := scanPrompt(s.store.QueryRowContext(ctx, query, uuid))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return prompt, nil
}

// FindUUIDsByText returns the uuids of prompts whose text matches exactly.
// No matches is an empty slice, not an error.
func (s *PromptStore) FindUUIDsByText(ctx context.Context, promptText string) ([]string, error) {
	const query = `SELECT uuid FROM prompts WHERE promptText = ?`

	rows, err := s.store.QueryContext(ctx, query, promptText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uuids := []string{}
	for rows.Next() {
		var uuid string
		if err := rows.Scan(&uuid); err != nil {
			return nil, err
		}
		uuids = append(uuids, uuid)
	}
	return uuids, rows.Err()
}

// UpsertPrompt inserts or updates the prompt keyed on uuid. The existence
// check and the write run in one transaction so two concurrent saves for the
// same uuid cannot both take the insert branch. Returns true when a new row
// was created.
func (s *PromptStore) UpsertPrompt(ctx context.Context, prompt *models.Prompt) (bool, error) {
	var created bool

	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM prompts WHERE uuid = ?`, prompt.UUID,
		).Scan(&count); err != nil {
			return err
		}

		if count > 0 {
			_, err := tx.ExecContext(ctx, `
				UPDATE prompts
				SET promptText = ?, responseType = ?, notificationConfig_days = ?,
				    notificationConfig_startTime = ?, notificationConfig_endTime = ?,
				    notificationConfig_countPerDay = ?
				WHERE uuid = ?`,
				prompt.PromptText, string(prompt.ResponseType), prompt.NotificationConfigDays,
				prompt.NotificationConfigStartTime, prompt.NotificationConfigEndTime,
				prompt.NotificationConfigCountPerDay, prompt.UUID,
			)
			return err
		}

		created = true
		_, err := tx.ExecContext(ctx, `
			INSERT INTO prompts
			(uuid, promptText, responseType, notificationConfig_days,
			 notificationConfig_startTime, notificationConfig_endTime, notificationConfig_countPerDay)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			prompt.UUID, prompt.PromptText, string(prompt.ResponseType), prompt.NotificationConfigDays,
			prompt.NotificationConfigStartTime, prompt.NotificationConfigEndTime,
			prompt.NotificationConfigCountPerDay,
		)
		return err
	})

	if err != nil {
		return false, err
	}
	return created, nil
}

// DeletePrompt removes the prompt row. Returns the number of rows deleted;
// zero means no prompt with that uuid existed.
func (s *PromptStore) DeletePrompt(ctx context.Context, uuid string) (int64, error) {
	const query = `DELETE FROM prompts WHERE uuid = ?`

	result, err := s.store.ExecContext(ctx, query, uuid)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
