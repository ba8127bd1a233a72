// Package transcript defines the utterance stream consumed by the
// extraction pipeline and the JSON format produced by the upstream
// transcription service.
package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyTranscript is returned when a meeting contains no usable utterances.
var ErrEmptyTranscript = errors.New("transcript contains no usable utterances")

// Utterance is a single speaker-attributed segment. Immutable; order in
// the transcript is meaning-bearing (relative dates and follow-up
// context read earlier utterances).
type Utterance struct {
	Speaker string  `json:"speaker"`
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Meeting is the full input contract for one extraction run.
type Meeting struct {
	// Utterances in transcript order.
	Utterances []Utterance `json:"transcript"`

	// ReferenceDate anchors relative date expressions ("tomorrow",
	// "next Friday"). Required.
	ReferenceDate time.Time `json:"reference_date"`

	// Roster lists known participant display names, used to validate
	// assignee plausibility.
	Roster []string `json:"participants,omitempty"`
}

// meetingJSON mirrors the upstream transcription output, which carries
// the reference date as a plain "2006-01-02" string.
type meetingJSON struct {
	Transcript    []Utterance `json:"transcript"`
	ReferenceDate string      `json:"reference_date"`
	Participants  []string    `json:"participants"`
}

// ParseMeeting decodes a meeting from transcription-service JSON.
// The reference date may be a date ("2025-11-01") or RFC 3339 timestamp.
func ParseMeeting(data []byte) (Meeting, error) {
	var raw meetingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Meeting{}, fmt.Errorf("parsing meeting JSON: %w", err)
	}

	var ref time.Time
	if raw.ReferenceDate != "" {
		var err error
		ref, err = time.Parse("2006-01-02", raw.ReferenceDate)
		if err != nil {
			ref, err = time.Parse(time.RFC3339, raw.ReferenceDate)
			if err != nil {
				return Meeting{}, fmt.Errorf("parsing reference_date %q: %w", raw.ReferenceDate, err)
			}
		}
	}

	return Meeting{
		Utterances:    raw.Transcript,
		ReferenceDate: ref,
		Roster:        raw.Participants,
	}, nil
}

// Clean drops malformed utterances (empty text or missing speaker) and
// returns the usable remainder plus the number skipped. Indices into
// the returned slice are the indices the rest of the pipeline records,
// so cleaning happens exactly once, up front.
func Clean(utterances []Utterance) ([]Utterance, int) {
	cleaned := make([]Utterance, 0, len(utterances))
	skipped := 0
	for _, u := range utterances {
		if strings.TrimSpace(u.Text) == "" || strings.TrimSpace(u.Speaker) == "" {
			skipped++
			continue
		}
		cleaned = append(cleaned, u)
	}
	return cleaned, skipped
}

// Validate checks that a meeting can be processed at all.
func (m Meeting) Validate() error {
	usable, _ := Clean(m.Utterances)
	if len(usable) == 0 {
		return ErrEmptyTranscript
	}
	if m.ReferenceDate.IsZero() {
		return errors.New("meeting reference date is required")
	}
	return nil
}
