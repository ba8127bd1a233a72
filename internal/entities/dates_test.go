package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refMonday is Monday, November 10 2025.
var refMonday = time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateExtractor_Explicit(t *testing.T) {
	e := NewDateExtractor(DefaultDateVocabulary(), refMonday)

	tests := []struct {
		name string
		text string
		want []time.Time
	}{
		{"month day", "finish this by November 5th", []time.Time{day(2025, time.November, 5)}},
		{"month day year", "launch on January 15, 2026", []time.Time{day(2026, time.January, 15)}},
		{"abbreviated month", "the Dec 1 deadline stands", []time.Time{day(2025, time.December, 1)}},
		{"iso", "deploy on 2025-12-01", []time.Time{day(2025, time.December, 1)}},
		{"slash iso", "deploy on 2025/12/01", []time.Time{day(2025, time.December, 1)}},
		{"short month slash day", "due 11/5 at the latest", []time.Time{day(2025, time.November, 5)}},
		{"invalid calendar date", "due 2025-02-30 supposedly", nil},
		{"no dates", "no deadline was discussed", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestDateExtractor_Relative(t *testing.T) {
	e := NewDateExtractor(DefaultDateVocabulary(), refMonday)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"today", "I need it today", refMonday},
		{"tomorrow", "send it tomorrow", day(2025, time.November, 11)},
		{"in days", "ready in 3 days", day(2025, time.November, 13)},
		{"in weeks", "ship in 2 weeks", day(2025, time.November, 24)},
		{"in months", "plan in 1 month", day(2025, time.December, 10)},
		{"next week", "revisit next week", day(2025, time.November, 17)},
		{"next month", "budget review next month", day(2025, time.December, 10)},
		{"end of week", "wrap up by end of week", day(2025, time.November, 16)},
		{"end of the month", "invoice by end of the month", day(2025, time.November, 30)},
		{"asap", "fix this asap", day(2025, time.November, 11)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestDateExtractor_Weekdays(t *testing.T) {
	e := NewDateExtractor(DefaultDateVocabulary(), refMonday)

	tests := []struct {
		name string
		text string
		want time.Time
	}{
		// Bare weekday resolves strictly after the reference date.
		{"friday", "review it by Friday", day(2025, time.November, 14)},
		{"this friday", "done this Friday", day(2025, time.November, 14)},
		// Same weekday as the reference lands a full week out.
		{"same weekday", "sync again Monday", day(2025, time.November, 17)},
		// "next Friday" early in the week skips the upcoming Friday.
		{"next friday", "demo next Friday", day(2025, time.November, 21)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Extract(tt.text)
			require.NotEmpty(t, got)
			assert.Equal(t, tt.want, got[0])
		})
	}
}

func TestDateExtractor_StrictlyAfterReference(t *testing.T) {
	e := NewDateExtractor(DefaultDateVocabulary(), refMonday)

	weekdays := []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
	for _, w := range weekdays {
		got := e.Extract("deadline is " + w)
		require.Len(t, got, 1, w)
		assert.True(t, got[0].After(refMonday), "%s resolved to %v, not after reference", w, got[0])
	}
}

func TestDateExtractor_ReferenceTruncatedToMidnight(t *testing.T) {
	late := time.Date(2025, time.November, 10, 17, 45, 12, 0, time.UTC)
	e := NewDateExtractor(DefaultDateVocabulary(), late)

	got := e.Extract("finish it today")
	require.Len(t, got, 1)
	assert.Equal(t, refMonday, got[0])
}
