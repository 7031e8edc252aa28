package tracking

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskPromptID(t *testing.T) {
	masked := MaskPromptID("11111111-2222-3333-4444-555555555555")

	assert.Len(t, masked, 16)
	assert.NotContains(t, masked, "-")

	// Stable for the same input, different across inputs
	assert.Equal(t, masked, MaskPromptID("11111111-2222-3333-4444-555555555555"))
	assert.NotEqual(t, masked, MaskPromptID("other-uuid"))
}

func TestInsightsTrackerPostsEnvelope(t *testing.T) {
	received := make(chan eventEnvelope, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var envelope eventEnvelope
		require.NoError(t, json.Unmarshal(body, &envelope))
		received <- envelope
	}))
	defer server.Close()

	tracker := NewInsightsTracker(server.URL)
	tracker.TrackEvent("prompt_saved", map[string]string{
		"action_type":   "create",
		"response_type": "text",
	})

	select {
	case envelope := <-received:
		assert.Equal(t, "prompt_saved", envelope.Name)
		assert.Equal(t, "create", envelope.Properties["action_type"])
		assert.NotEmpty(t, envelope.Time)
	case <-time.After(2 * time.Second):
		t.Fatal("tracking event was not delivered")
	}
}

func TestInsightsTrackerUnreachableEndpointDoesNotPanic(t *testing.T) {
	tracker := NewInsightsTracker("http://127.0.0.1:1/nothing")
	tracker.TrackEvent("resync_old_prompts", map[string]string{"prompt_count": "0"})
	// fire-and-forget: nothing to assert beyond not panicking
	time.Sleep(50 * time.Millisecond)
}
