// Package tracking emits product analytics events. The sink is fire-and-forget:
// delivery failures are logged, never surfaced to callers.
package tracking

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// Tracker records a named event with string properties.
type Tracker interface {
	TrackEvent(name string, properties map[string]string)
}

// MaskPromptID returns the anonymized identifier used in tracking payloads.
// Raw prompt uuids never leave the device.
func MaskPromptID(promptUUID string) string {
	sum := sha256.Sum256([]byte(promptUUID))
	return hex.EncodeToString(sum[:])[:16]
}

// LogTracker writes events to the log. Used when no endpoint is configured.
type LogTracker struct{}

// TrackEvent implements Tracker.
func (LogTracker) TrackEvent(name string, properties map[string]string) {
	log.Info().Str("event", name).Fields(map[string]interface{}{"properties": properties}).
		Msg("Tracking event")
}

// InsightsTracker posts events to an HTTP collector endpoint in the
// app-insights envelope shape. Posts happen on a goroutine per event.
type InsightsTracker struct {
	endpoint string
	client   *http.Client
}

// NewInsightsTracker creates a tracker posting to the given endpoint.
func NewInsightsTracker(endpoint string) *InsightsTracker {
	return &InsightsTracker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

type eventEnvelope struct {
	Name       string            `json:"name"`
	Time       string            `json:"time"`
	Properties map[string]string `json:"properties,omitempty"`
}

// TrackEvent implements Tracker.
func (t *InsightsTracker) TrackEvent(name string, properties map[string]string) {
	envelope := eventEnvelope{
		Name:       name,
		Time:       time.Now().UTC().Format(time.RFC3339),
		Properties: properties,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		log.Debug().Err(err).Str("event", name).Msg("Failed to encode tracking event")
		return
	}

	go func() {
		resp, err := t.client.Post(t.endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			log.Debug().Err(err).Str("event", name).Msg("Failed to post tracking event")
			return
		}
		_ = resp.Body.Close()
	}()
}
