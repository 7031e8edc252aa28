package sqlite

import (
	"database/sql"

	"github.com/neurofusion/fusion/pkg/models"
)

// scanPrompt scans a single prompt from a row scanner. DayFlags implements
// sql.Scanner, so corrupt serialized day data fails here as a CorruptionError.
func scanPrompt(scanner interface{ Scan(...interface{}) error }) (*models.Prompt, error) {
	var prompt models.Prompt
	if err := scanner.Scan(
		&prompt.UUID, &prompt.PromptText, &prompt.ResponseType,
		&prompt.NotificationConfigDays, &prompt.NotificationConfigStartTime,
		&prompt.NotificationConfigEndTime, &prompt.NotificationConfigCountPerDay,
	); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// scanPromptRows scans multiple prompts from rows.
func scanPromptRows(rows *sql.Rows) ([]*models.Prompt, error) {
	var prompts []*models.Prompt
	for rows.Next() {
		prompt, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		prompts = append(prompts, prompt)
	}
	return prompts, rows.Err()
}
