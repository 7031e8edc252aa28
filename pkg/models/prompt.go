// Package models contains domain models for fusion.
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// ResponseType describes the expected answer shape for a prompt.
type ResponseType string

const (
	ResponseTypeText          ResponseType = "text"
	ResponseTypeYesNo         ResponseType = "yesno"
	ResponseTypeNumber        ResponseType = "number"
	ResponseTypeCustomOptions ResponseType = "customOptions"
)

// Valid reports whether the response type is one of the known kinds.
func (rt ResponseType) Valid() bool {
	switch rt {
	case ResponseTypeText, ResponseTypeYesNo, ResponseTypeNumber, ResponseTypeCustomOptions:
		return true
	}
	return false
}

// DayFlags is the set of weekdays a prompt's notifications are active.
// It is persisted as a serialized JSON object in the prompts table.
type DayFlags struct {
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

// AllDays returns day flags with every weekday active.
func AllDays() DayFlags {
	return DayFlags{
		Monday: true, Tuesday: true, Wednesday: true,
		Thursday: true, Friday: true, Saturday: true, Sunday: true,
	}
}

// Active reports whether the given weekday is enabled.
func (d DayFlags) Active(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return d.Monday
	case time.Tuesday:
		return d.Tuesday
	case time.Wednesday:
		return d.Wednesday
	case time.Thursday:
		return d.Thursday
	case time.Friday:
		return d.Friday
	case time.Saturday:
		return d.Saturday
	case time.Sunday:
		return d.Sunday
	}
	return false
}

// Count returns the number of active days.
func (d DayFlags) Count() int {
	n := 0
	for day := time.Sunday; day <= time.Saturday; day++ {
		if d.Active(day) {
			n++
		}
	}
	return n
}

// Value implements driver.Valuer, serializing the flags to JSON text.
func (d DayFlags) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. Malformed stored data is a CorruptionError.
func (d *DayFlags) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case nil:
		return &CorruptionError{Field: "notificationConfig_days", Err: fmt.Errorf("null value")}
	default:
		return &CorruptionError{Field: "notificationConfig_days", Err: fmt.Errorf("unexpected type %T", value)}
	}
	if err := json.Unmarshal(raw, d); err != nil {
		return &CorruptionError{Field: "notificationConfig_days", Err: err}
	}
	return nil
}

// Prompt is a user-configured recurring question with a notification schedule.
type Prompt struct {
	UUID                          string       `db:"uuid" json:"uuid"`
	PromptText                    string       `db:"promptText" json:"promptText"`
	ResponseType                  ResponseType `db:"responseType" json:"responseType"`
	NotificationConfigDays        DayFlags     `db:"notificationConfig_days" json:"notificationConfig_days"`
	NotificationConfigStartTime   string       `db:"notificationConfig_startTime" json:"notificationConfig_startTime"`
	NotificationConfigEndTime     string       `db:"notificationConfig_endTime" json:"notificationConfig_endTime"`
	NotificationConfigCountPerDay int          `db:"notificationConfig_countPerDay" json:"notificationConfig_countPerDay"`
}

// Validate checks the invariants enforced at the repository boundary:
// non-empty text, known response type, parseable HH:MM window with start <= end,
// and a positive per-day reminder count.
func (p *Prompt) Validate() error {
	if p.PromptText == "" {
		return fmt.Errorf("%w: promptText is required", ErrInvalidPrompt)
	}
	if !p.ResponseType.Valid() {
		return fmt.Errorf("%w: unknown responseType %q", ErrInvalidPrompt, p.ResponseType)
	}
	start, err := ParseTimeOfDay(p.NotificationConfigStartTime)
	if err != nil {
		return fmt.Errorf("%w: notificationConfig_startTime: %v", ErrInvalidPrompt, err)
	}
	end, err := ParseTimeOfDay(p.NotificationConfigEndTime)
	if err != nil {
		return fmt.Errorf("%w: notificationConfig_endTime: %v", ErrInvalidPrompt, err)
	}
	if start > end {
		return fmt.Errorf("%w: notification window start %q is after end %q",
			ErrInvalidPrompt, p.NotificationConfigStartTime, p.NotificationConfigEndTime)
	}
	if p.NotificationConfigCountPerDay < 1 {
		return fmt.Errorf("%w: notificationConfig_countPerDay must be at least 1, got %d",
			ErrInvalidPrompt, p.NotificationConfigCountPerDay)
	}
	return nil
}

// ParseTimeOfDay parses an "HH:MM" time-of-day string and returns it as
// minutes since midnight.
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// PromptResponse is one recorded answer to a prompt at a point in time.
// Timestamps are unix epoch milliseconds.
type PromptResponse struct {
	PromptUUID        string `db:"promptUuid" json:"promptUuid"`
	Value             string `db:"value" json:"value"`
	TriggerTimestamp  int64  `db:"triggerTimestamp" json:"triggerTimestamp"`
	ResponseTimestamp int64  `db:"responseTimestamp" json:"responseTimestamp"`
}

// msThreshold separates second-resolution epochs from millisecond ones.
// Any value below it is interpreted as seconds.
const msThreshold = 1_000_000_000_000

// NormalizeToMillis converts an epoch timestamp to millisecond resolution.
// Second-resolution inputs are multiplied up; millisecond inputs pass through.
func NormalizeToMillis(ts int64) int64 {
	if ts != 0 && ts < msThreshold {
		return ts * 1000
	}
	return ts
}
