package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPrompt() Prompt {
	return Prompt{
		UUID:                          "11111111-2222-3333-4444-555555555555",
		PromptText:                    "How do you feel?",
		ResponseType:                  ResponseTypeText,
		NotificationConfigDays:        AllDays(),
		NotificationConfigStartTime:   "08:00",
		NotificationConfigEndTime:     "18:00",
		NotificationConfigCountPerDay: 3,
	}
}

func TestPromptValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Prompt)
		wantErr string
	}{
		{
			name:   "valid prompt",
			mutate: func(p *Prompt) {},
		},
		{
			name:    "empty text",
			mutate:  func(p *Prompt) { p.PromptText = "" },
			wantErr: "promptText",
		},
		{
			name:    "unknown response type",
			mutate:  func(p *Prompt) { p.ResponseType = "emoji" },
			wantErr: "responseType",
		},
		{
			name:    "malformed start time",
			mutate:  func(p *Prompt) { p.NotificationConfigStartTime = "8am" },
			wantErr: "startTime",
		},
		{
			name:    "malformed end time",
			mutate:  func(p *Prompt) { p.NotificationConfigEndTime = "25:00" },
			wantErr: "endTime",
		},
		{
			name: "window start after end",
			mutate: func(p *Prompt) {
				p.NotificationConfigStartTime = "19:00"
				p.NotificationConfigEndTime = "08:00"
			},
			wantErr: "after end",
		},
		{
			name:    "zero count per day",
			mutate:  func(p *Prompt) { p.NotificationConfigCountPerDay = 0 },
			wantErr: "countPerDay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPrompt()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPrompt)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDayFlagsRoundTrip(t *testing.T) {
	flags := DayFlags{Monday: true, Wednesday: true, Sunday: true}

	value, err := flags.Value()
	require.NoError(t, err)

	var decoded DayFlags
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, flags, decoded)
}

func TestDayFlagsScanMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{name: "invalid json", input: "{not json"},
		{name: "null value", input: nil},
		{name: "unexpected type", input: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var flags DayFlags
			err := flags.Scan(tt.input)
			require.Error(t, err)
			var corrupt *CorruptionError
			assert.ErrorAs(t, err, &corrupt)
		})
	}
}

func TestDayFlagsActive(t *testing.T) {
	flags := DayFlags{Tuesday: true, Saturday: true}

	assert.True(t, flags.Active(time.Tuesday))
	assert.True(t, flags.Active(time.Saturday))
	assert.False(t, flags.Active(time.Monday))
	assert.Equal(t, 2, flags.Count())
	assert.Equal(t, 7, AllDays().Count())
}

func TestParseTimeOfDay(t *testing.T) {
	minutes, err := ParseTimeOfDay("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8*60+30, minutes)

	_, err = ParseTimeOfDay("24:30")
	assert.Error(t, err)
}

func TestNormalizeToMillis(t *testing.T) {
	tests := []struct {
		name  string
		input int64
		want  int64
	}{
		{name: "seconds converted", input: 1700000000, want: 1700000000000},
		{name: "milliseconds unchanged", input: 1700000000000, want: 1700000000000},
		{name: "zero unchanged", input: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeToMillis(tt.input))
		})
	}
}
