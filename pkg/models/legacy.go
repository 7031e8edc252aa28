package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Legacy snapshot types. The prior app version kept prompts and response
// events as ad-hoc JSON blobs in a flat key-value store. These types are the
// strict parse targets for that one-time snapshot; they are never written back.

// LegacyStoreKeyPrompts and LegacyStoreKeyEvents are the two keys the
// migration reads from the legacy store.
const (
	LegacyStoreKeyPrompts = "prompts"
	LegacyStoreKeyEvents  = "events"
)

// LegacyEventPrefix tags legacy response events to a specific prompt:
// an event named "Fusion: <promptText>" is a response to that prompt.
const LegacyEventPrefix = "Fusion: "

// LegacyPrompt is one prompt entry from the legacy "prompts" blob.
// The legacy format carried no notification configuration.
type LegacyPrompt struct {
	UUID         string       `json:"uuid"`
	PromptText   string       `json:"promptText"`
	ResponseType ResponseType `json:"responseType"`
}

// LegacyEvent is the inner event record of a legacy response entry.
type LegacyEvent struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// LegacyResponseEvent is one entry from the legacy "events" blob. The start
// timestamp may be in seconds or milliseconds depending on app version.
type LegacyResponseEvent struct {
	Event          LegacyEvent `json:"event"`
	StartTimestamp int64       `json:"startTimestamp"`
}

// ParseLegacyPrompts parses the serialized legacy prompt list, failing fast
// with a CorruptionError on malformed data.
func ParseLegacyPrompts(raw string) ([]LegacyPrompt, error) {
	var prompts []LegacyPrompt
	if err := json.Unmarshal([]byte(raw), &prompts); err != nil {
		return nil, &CorruptionError{Field: "legacy prompts", Err: err}
	}
	for i, p := range prompts {
		if p.PromptText == "" {
			return nil, &CorruptionError{
				Field: "legacy prompts",
				Err:   fmt.Errorf("entry %d has no promptText", i),
			}
		}
	}
	return prompts, nil
}

// ParseLegacyEvents parses the serialized legacy response-event list, failing
// fast with a CorruptionError on malformed data.
func ParseLegacyEvents(raw string) ([]LegacyResponseEvent, error) {
	var events []LegacyResponseEvent
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, &CorruptionError{Field: "legacy events", Err: err}
	}
	return events, nil
}
