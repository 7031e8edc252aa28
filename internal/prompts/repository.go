// Package prompts implements the prompt repository and the one-shot legacy
// migration built on top of it.
package prompts

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/neurofusion/fusion/internal/db/sqlite"
	"github.com/neurofusion/fusion/internal/notify"
	"github.com/neurofusion/fusion/internal/tracking"
	"github.com/neurofusion/fusion/pkg/models"
)

// Repository provides CRUD over prompts and responses and keeps the
// notification scheduler consistent with stored state. Scheduler calls are
// not transactional with the database write; when one fails after a commit
// the error reports the partial state instead of hiding it.
type Repository struct {
	prompts   *sqlite.PromptStore
	responses *sqlite.ResponseStore
	scheduler notify.Scheduler
	tracker   tracking.Tracker
}

// NewRepository wires the repository to its store and injected capabilities.
func NewRepository(store *sqlite.Store, scheduler notify.Scheduler, tracker tracking.Tracker) *Repository {
	return &Repository{
		prompts:   sqlite.NewPromptStore(store),
		responses: sqlite.NewResponseStore(store),
		scheduler: scheduler,
		tracker:   tracker,
	}
}

// ReadAllPrompts returns every stored prompt.
func (r *Repository) ReadAllPrompts(ctx context.Context) ([]*models.Prompt, error) {
	prompts, err := r.prompts.ListPrompts(ctx)
	if err != nil {
		return nil, storageErr("read prompts", err)
	}
	return prompts, nil
}

// GetPrompt returns the prompt with the given uuid, or nil when none exists.
func (r *Repository) GetPrompt(ctx context.Context, promptUUID string) (*models.Prompt, error) {
	prompt, err := r.prompts.GetPrompt(ctx, promptUUID)
	if err != nil {
		return nil, storageErr("get prompt", err)
	}
	return prompt, nil
}

// FindPromptsByText returns the uuids of prompts whose text matches exactly.
// No matches is an empty slice.
func (r *Repository) FindPromptsByText(ctx context.Context, promptText string) ([]string, error) {
	uuids, err := r.prompts.FindUUIDsByText(ctx, promptText)
	if err != nil {
		return nil, storageErr("find prompts by text", err)
	}
	return uuids, nil
}

// SavePrompt validates and upserts the prompt, generating a uuid when the
// entry has none, then (re)schedules its notification campaign. The returned
// prompt carries the effective uuid. A scheduler failure after the commit is
// returned as a SchedulerError: the row is persisted but the campaign is not
// in sync.
func (r *Repository) SavePrompt(ctx context.Context, entry models.Prompt) (*models.Prompt, error) {
	hadUUID := entry.UUID != ""
	if !hadUUID {
		entry.UUID = uuid.NewString()
	}

	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("validate prompt: %w", err)
	}

	created, err := r.prompts.UpsertPrompt(ctx, &entry)
	if err != nil {
		return nil, storageErr("save prompt", err)
	}

	if err := r.scheduler.ScheduleCampaign(ctx, &entry); err != nil {
		return nil, &models.SchedulerError{PromptUUID: entry.UUID, Op: "schedule", Err: err}
	}

	action := "update"
	if created {
		action = "create"
	}
	r.trackPromptSaved(&entry, action)

	log.Debug().Str("uuid", entry.UUID).Str("action", action).Msg("Prompt saved")
	return &entry, nil
}

// DeletePrompt cancels the prompt's campaign, deletes the row, and returns
// the refreshed list of remaining prompts. The cancellation runs
// unconditionally before the existence check; deleting an unknown uuid is
// ErrPromptNotFound.
func (r *Repository) DeletePrompt(ctx context.Context, promptUUID string) ([]*models.Prompt, error) {
	if err := r.scheduler.CancelCampaign(ctx, promptUUID); err != nil {
		return nil, &models.SchedulerError{PromptUUID: promptUUID, Op: "cancel", Err: err}
	}

	affected, err := r.prompts.DeletePrompt(ctx, promptUUID)
	if err != nil {
		return nil, storageErr("delete prompt", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("delete prompt %s: %w", promptUUID, models.ErrPromptNotFound)
	}

	return r.ReadAllPrompts(ctx)
}

// SavePromptResponse normalizes both timestamps to millisecond resolution and
// appends the response. Responses are never updated or individually deleted.
func (r *Repository) SavePromptResponse(ctx context.Context, response models.PromptResponse) error {
	if response.PromptUUID == "" {
		return fmt.Errorf("%w: promptUuid is required", models.ErrInvalidResponse)
	}

	response.TriggerTimestamp = models.NormalizeToMillis(response.TriggerTimestamp)
	response.ResponseTimestamp = models.NormalizeToMillis(response.ResponseTimestamp)

	if err := r.responses.InsertResponse(ctx, &response); err != nil {
		return storageErr("save response", err)
	}
	return nil
}

// GetPromptResponses returns all responses recorded for a prompt, in
// insertion order. Orphaned responses for a deleted prompt are tolerated.
func (r *Repository) GetPromptResponses(ctx context.Context, promptUUID string) ([]*models.PromptResponse, error) {
	responses, err := r.responses.ListByPrompt(ctx, promptUUID)
	if err != nil {
		return nil, storageErr("get responses", err)
	}
	return responses, nil
}

func (r *Repository) trackPromptSaved(prompt *models.Prompt, action string) {
	config, err := json.Marshal(map[string]interface{}{
		"days":          prompt.NotificationConfigDays,
		"start_time":    prompt.NotificationConfigStartTime,
		"end_time":      prompt.NotificationConfigEndTime,
		"count_per_day": prompt.NotificationConfigCountPerDay,
	})
	if err != nil {
		config = []byte("{}")
	}

	r.tracker.TrackEvent("prompt_saved", map[string]string{
		"identifier":          tracking.MaskPromptID(prompt.UUID),
		"action_type":         action,
		"response_type":       string(prompt.ResponseType),
		"notification_config": string(config),
	})
}

// storageErr wraps a store failure, letting CorruptionError pass through
// unwrapped so callers can still distinguish parse failures from I/O ones.
func storageErr(op string, err error) error {
	var corrupt *models.CorruptionError
	if errors.As(err, &corrupt) {
		return err
	}
	return &models.StorageError{Op: op, Err: err}
}
