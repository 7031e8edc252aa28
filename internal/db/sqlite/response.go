package sqlite

import (
	"context"

	"github.com/neurofusion/fusion/pkg/models"
)

// ResponseStore provides prompt-response database operations. Responses are
// append-only: there is no update or single-row delete path.
type ResponseStore struct {
	store *Store
}

// NewResponseStore creates a new response store.
func NewResponseStore(store *Store) *ResponseStore {
	return &ResponseStore{store: store}
}

// InsertResponse appends a new response row. Timestamps are stored as given;
// millisecond normalization happens at the repository boundary.
func (s *ResponseStore) InsertResponse(ctx context.Context, resp *models.PromptResponse) error {
	const query = `
		INSERT INTO prompt_responses (promptUuid, value, triggerTimestamp, responseTimestamp)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.store.ExecContext(ctx, query,
		resp.PromptUUID, resp.Value, resp.TriggerTimestamp, resp.ResponseTimestamp,
	)
	return err
}

// ListByPrompt returns all responses for a prompt in insertion order.
func (s *ResponseStore) ListByPrompt(ctx context.Context, promptUUID string) ([]*models.PromptResponse, error) {
	const query = `
		SELECT promptUuid, value, triggerTimestamp, responseTimestamp
		FROM prompt_responses
		WHERE promptUuid = ?
		ORDER BY rowid ASC
	`

	rows, err := s.store.QueryContext(ctx, query, promptUUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []*models.PromptResponse
	for rows.Next() {
		var resp models.PromptResponse
		if err := rows.Scan(
			&resp.PromptUUID, &resp.Value, &resp.TriggerTimestamp, &resp.ResponseTimestamp,
		); err != nil {
			return nil, err
		}
		responses = append(responses, &resp)
	}
	return responses, rows.Err()
}

// CountByPrompt returns the number of responses stored for a prompt.
func (s *ResponseStore) CountByPrompt(ctx context.Context, promptUUID string) (int, error) {
	const query = `SELECT COUNT(*) FROM prompt_responses WHERE promptUuid = ?`

	var count int
	err := s.store.QueryRowContext(ctx, query, promptUUID).Scan(&count)
	return count, err
}
