package prompts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neurofusion/fusion/internal/db/sqlite"
	"github.com/neurofusion/fusion/pkg/models"
)

// fakeScheduler records scheduler calls and can inject failures.
type fakeScheduler struct {
	mu          sync.Mutex
	scheduled   []string
	cancelled   []string
	scheduleErr error
	cancelErr   error
	failForText string
}

func (f *fakeScheduler) ScheduleCampaign(ctx context.Context, prompt *models.Prompt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scheduleErr != nil {
		return f.scheduleErr
	}
	if f.failForText != "" && prompt.PromptText == f.failForText {
		return errors.New("scheduler rejected " + prompt.PromptText)
	}
	f.scheduled = append(f.scheduled, prompt.UUID)
	return nil
}

func (f *fakeScheduler) CancelCampaign(ctx context.Context, promptUUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, promptUUID)
	return nil
}

func (f *fakeScheduler) cancelCount(promptUUID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, id := range f.cancelled {
		if id == promptUUID {
			n++
		}
	}
	return n
}

// fakeTracker records emitted events.
type fakeTracker struct {
	mu     sync.Mutex
	events []trackedEvent
}

type trackedEvent struct {
	name  string
	props map[string]string
}

func (f *fakeTracker) TrackEvent(name string, properties map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, trackedEvent{name: name, props: properties})
}

func (f *fakeTracker) byName(name string) []trackedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []trackedEvent
	for _, e := range f.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

// fakeLegacyStore serves legacy blobs from a map.
type fakeLegacyStore struct {
	entries map[string]string
	err     error
}

func (f *fakeLegacyStore) GetSerializedValue(key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	value, ok := f.entries[key]
	return value, ok, nil
}

// testRepository builds a repository over a temp-dir database with fakes.
func testRepository(t *testing.T) (*Repository, *fakeScheduler, *fakeTracker, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "fusion-prompts-test-*")
	require.NoError(t, err)

	store, err := sqlite.NewStore(sqlite.StoreConfig{
		Path:    filepath.Join(tmpDir, "test.db"),
		WALMode: true,
	})
	require.NoError(t, err)

	scheduler := &fakeScheduler{}
	tracker := &fakeTracker{}
	repo := NewRepository(store, scheduler, tracker)

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return repo, scheduler, tracker, cleanup
}

func validEntry() models.Prompt {
	return models.Prompt{
		PromptText:                    "How do you feel?",
		ResponseType:                  models.ResponseTypeText,
		NotificationConfigDays:        models.AllDays(),
		NotificationConfigStartTime:   "08:00",
		NotificationConfigEndTime:     "18:00",
		NotificationConfigCountPerDay: 3,
	}
}
