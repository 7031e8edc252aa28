// Package notify schedules reminder campaigns for prompts. A campaign is the
// recurring set of notification occurrences derived from a prompt's
// notification configuration.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/neurofusion/fusion/pkg/models"
)

// Scheduler is the external capability the repository coordinates with.
// Both operations are idempotent and safe to call when no campaign exists.
type Scheduler interface {
	ScheduleCampaign(ctx context.Context, prompt *models.Prompt) error
	CancelCampaign(ctx context.Context, promptUUID string) error
}

// NotifyFunc delivers one reminder occurrence for a prompt.
type NotifyFunc func(prompt *models.Prompt)

// LocalScheduler drives campaigns with in-process timers. Scheduling the same
// prompt again replaces its campaign with the new configuration.
type LocalScheduler struct {
	mu        sync.Mutex
	campaigns map[string]chan struct{}
	notify    NotifyFunc
	now       func() time.Time
}

// NewLocalScheduler creates a scheduler delivering occurrences through fn.
// A nil fn logs each occurrence instead.
func NewLocalScheduler(fn NotifyFunc) *LocalScheduler {
	if fn == nil {
		fn = func(prompt *models.Prompt) {
			log.Info().
				Str("uuid", prompt.UUID).
				Str("text", prompt.PromptText).
				Msg("Prompt reminder due")
		}
	}
	return &LocalScheduler{
		campaigns: make(map[string]chan struct{}),
		notify:    fn,
		now:       time.Now,
	}
}

// ScheduleCampaign starts (or replaces) the campaign for the prompt.
func (s *LocalScheduler) ScheduleCampaign(ctx context.Context, prompt *models.Prompt) error {
	if prompt.UUID == "" {
		return fmt.Errorf("schedule campaign: prompt has no uuid")
	}
	// Reject configurations the campaign loop cannot interpret.
	if _, err := DailyTimes(
		prompt.NotificationConfigStartTime,
		prompt.NotificationConfigEndTime,
		prompt.NotificationConfigCountPerDay,
	); err != nil {
		return fmt.Errorf("schedule campaign for %s: %w", prompt.UUID, err)
	}

	s.mu.Lock()
	if stop, ok := s.campaigns[prompt.UUID]; ok {
		close(stop)
	}
	stop := make(chan struct{})
	s.campaigns[prompt.UUID] = stop
	s.mu.Unlock()

	snapshot := *prompt
	go s.run(&snapshot, stop)

	log.Debug().Str("uuid", prompt.UUID).Msg("Campaign scheduled")
	return nil
}

// CancelCampaign stops the campaign for the prompt. No-op when none exists.
func (s *LocalScheduler) CancelCampaign(ctx context.Context, promptUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stop, ok := s.campaigns[promptUUID]; ok {
		close(stop)
		delete(s.campaigns, promptUUID)
		log.Debug().Str("uuid", promptUUID).Msg("Campaign cancelled")
	}
	return nil
}

// Close cancels every running campaign.
func (s *LocalScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for uuid, stop := range s.campaigns {
		close(stop)
		delete(s.campaigns, uuid)
	}
}

// run fires occurrences until the campaign is cancelled or no occurrence
// remains (no active days).
func (s *LocalScheduler) run(prompt *models.Prompt, stop <-chan struct{}) {
	for {
		next, ok := NextOccurrence(prompt, s.now())
		if !ok {
			return
		}

		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			s.notify(prompt)
		}
	}
}

// DailyTimes returns the occurrence times within one active day as minutes
// since midnight: count occurrences evenly spaced across the window, with a
// single occurrence landing at the window midpoint.
func DailyTimes(startTime, endTime string, count int) ([]int, error) {
	start, err := models.ParseTimeOfDay(startTime)
	if err != nil {
		return nil, err
	}
	end, err := models.ParseTimeOfDay(endTime)
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, fmt.Errorf("window start %q is after end %q", startTime, endTime)
	}
	if count < 1 {
		return nil, fmt.Errorf("count must be at least 1, got %d", count)
	}

	if count == 1 {
		return []int{(start + end) / 2}, nil
	}

	times := make([]int, count)
	span := end - start
	for i := 0; i < count; i++ {
		times[i] = start + span*i/(count-1)
	}
	return times, nil
}

// NextOccurrence returns the first occurrence strictly after the given time,
// or false when the configuration yields none (no active days).
func NextOccurrence(prompt *models.Prompt, after time.Time) (time.Time, bool) {
	minutes, err := DailyTimes(
		prompt.NotificationConfigStartTime,
		prompt.NotificationConfigEndTime,
		prompt.NotificationConfigCountPerDay,
	)
	if err != nil {
		return time.Time{}, false
	}

	days := prompt.NotificationConfigDays
	// A full week plus today covers every possible next active slot.
	for offset := 0; offset <= 7; offset++ {
		day := after.AddDate(0, 0, offset)
		if !days.Active(day.Weekday()) {
			continue
		}
		midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		for _, m := range minutes {
			candidate := midnight.Add(time.Duration(m) * time.Minute)
			if candidate.After(after) {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}
