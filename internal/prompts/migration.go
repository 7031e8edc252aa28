package prompts

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/neurofusion/fusion/internal/legacy"
	"github.com/neurofusion/fusion/internal/privacy"
	"github.com/neurofusion/fusion/internal/tracking"
	"github.com/neurofusion/fusion/pkg/models"
)

// defaultMigrationConcurrency bounds how many legacy prompts migrate at once.
const defaultMigrationConcurrency = 4

// Default notification configuration applied to migrated prompts; the legacy
// format carried none.
var migrationDefaults = struct {
	days        models.DayFlags
	startTime   string
	endTime     string
	countPerDay int
}{
	days:        models.AllDays(),
	startTime:   "08:00",
	endTime:     "18:00",
	countPerDay: 3,
}

// MigratorConfig holds the host-facing hooks of the migration.
type MigratorConfig struct {
	// Confirm surfaces the user-visible completion message. Optional.
	Confirm func(title, message string)
	// Restart requests an application restart so the new persistence path
	// takes effect everywhere. Optional.
	Restart func()
	// Concurrency bounds parallel legacy-prompt units (default 4).
	Concurrency int
}

// Migrator reconciles the legacy key-value snapshot into the relational
// schema. It only ever talks to the repository, never to the store directly.
// Re-running against the same legacy data never duplicates prompts (text
// dedup); it can duplicate responses, which are append-only with no dedup key.
type Migrator struct {
	legacy  legacy.Store
	repo    *Repository
	tracker tracking.Tracker
	cfg     MigratorConfig
}

// NewMigrator creates the one-shot migration coordinator.
func NewMigrator(legacyStore legacy.Store, repo *Repository, tracker tracking.Tracker, cfg MigratorConfig) *Migrator {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultMigrationConcurrency
	}
	return &Migrator{legacy: legacyStore, repo: repo, tracker: tracker, cfg: cfg}
}

// RunMigration executes the migration. An absent or empty legacy prompt list
// is a no-op with no side effects. Each legacy prompt is an independent unit:
// one failing unit is logged and the rest proceed. After all units finish the
// completion confirmation is surfaced and a host restart is requested, even
// when some units failed; the routine is forward-only with no rollback.
func (m *Migrator) RunMigration(ctx context.Context) error {
	rawPrompts, ok, err := m.legacy.GetSerializedValue(models.LegacyStoreKeyPrompts)
	if err != nil {
		return fmt.Errorf("read legacy prompts: %w", err)
	}
	if !ok || rawPrompts == "" {
		log.Debug().Msg("No legacy prompts to migrate")
		return nil
	}

	legacyPrompts, err := models.ParseLegacyPrompts(rawPrompts)
	if err != nil {
		return err
	}
	if len(legacyPrompts) == 0 {
		log.Debug().Msg("Legacy prompt list is empty")
		return nil
	}

	// The events blob is a snapshot: parse it once up front rather than
	// re-reading per prompt. Absent events just means nothing to replay.
	events, err := m.readLegacyEvents()
	if err != nil {
		return err
	}

	log.Info().Int("prompts", len(legacyPrompts)).Int("events", len(events)).
		Msg("Starting legacy prompt migration")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Concurrency)
	for _, entry := range legacyPrompts {
		entry := entry
		g.Go(func() error {
			if err := m.migratePrompt(ctx, entry, events); err != nil {
				// Unit failures stay inside their unit.
				log.Error().Err(err).Str("text", privacy.Redact(entry.PromptText)).
					Msg("Failed to migrate legacy prompt")
			}
			return nil
		})
	}
	_ = g.Wait()

	if m.cfg.Confirm != nil {
		m.cfg.Confirm(
			"Prompts & Responses Synced",
			"Force close & restart the app if it doesn't happen automatically.",
		)
	}

	m.tracker.TrackEvent("resync_old_prompts", map[string]string{
		"prompt_count": strconv.Itoa(len(legacyPrompts)),
	})

	if m.cfg.Restart != nil {
		m.cfg.Restart()
	}
	return nil
}

func (m *Migrator) readLegacyEvents() ([]models.LegacyResponseEvent, error) {
	rawEvents, ok, err := m.legacy.GetSerializedValue(models.LegacyStoreKeyEvents)
	if err != nil {
		return nil, fmt.Errorf("read legacy events: %w", err)
	}
	if !ok || rawEvents == "" {
		return nil, nil
	}
	return models.ParseLegacyEvents(rawEvents)
}

// migratePrompt is one independent unit of work: dedup lookup, create-or-adopt,
// then response replay, in that order.
func (m *Migrator) migratePrompt(ctx context.Context, entry models.LegacyPrompt, events []models.LegacyResponseEvent) error {
	promptUUID := entry.UUID
	if promptUUID == "" {
		// Very unlikely in practice, but legacy data is untrusted.
		promptUUID = uuid.NewString()
	}

	existing, err := m.repo.FindPromptsByText(ctx, entry.PromptText)
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		// A prompt with this exact text already exists: adopt its identity,
		// create nothing.
		promptUUID = existing[0]
	} else {
		responseType := entry.ResponseType
		if !responseType.Valid() {
			responseType = models.ResponseTypeText
		}

		saved, err := m.repo.SavePrompt(ctx, models.Prompt{
			UUID:                          promptUUID,
			PromptText:                    entry.PromptText,
			ResponseType:                  responseType,
			NotificationConfigDays:        migrationDefaults.days,
			NotificationConfigStartTime:   migrationDefaults.startTime,
			NotificationConfigEndTime:     migrationDefaults.endTime,
			NotificationConfigCountPerDay: migrationDefaults.countPerDay,
		})
		if err != nil {
			return fmt.Errorf("create prompt: %w", err)
		}
		promptUUID = saved.UUID
	}

	return m.replayResponses(ctx, promptUUID, entry.PromptText, events)
}

// replayResponses persists every legacy event tagged to the prompt. A bad
// event does not stop the remaining ones; the first error is reported after
// the full pass.
func (m *Migrator) replayResponses(ctx context.Context, promptUUID, promptText string, events []models.LegacyResponseEvent) error {
	wantName := models.LegacyEventPrefix + promptText

	var firstErr error
	replayed := 0
	for _, event := range events {
		if event.Event.Name != wantName {
			continue
		}

		ts := models.NormalizeToMillis(event.StartTimestamp)
		err := m.repo.SavePromptResponse(ctx, models.PromptResponse{
			PromptUUID:        promptUUID,
			Value:             event.Event.Value,
			TriggerTimestamp:  ts,
			ResponseTimestamp: ts,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		replayed++
	}

	if replayed > 0 {
		log.Debug().Str("uuid", promptUUID).Int("responses", replayed).
			Msg("Replayed legacy responses")
	}
	if firstErr != nil {
		return fmt.Errorf("replay responses for %s: %w", privacy.Redact(promptText), firstErr)
	}
	return nil
}

// ErrMigrationCorrupt reports whether the error means the legacy snapshot
// itself was unreadable, as opposed to an individual unit failure.
func ErrMigrationCorrupt(err error) bool {
	var corrupt *models.CorruptionError
	return errors.As(err, &corrupt)
}
