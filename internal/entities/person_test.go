package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/extractd/internal/transcript"
)

func TestNameFilter_Plausible(t *testing.T) {
	filter := DefaultNameFilter()
	utterance := "Sarah, can you review the audit findings?"
	roster := []string{"Sarah", "Tom"}

	tests := []struct {
		name      string
		candidate string
		want      bool
	}{
		{"in utterance", "Sarah", true},
		{"in roster only", "Tom", true},
		{"stoplisted discourse marker", "Maybe", false},
		{"stoplisted weekday", "Friday", false},
		{"stoplisted collective", "Everyone", false},
		{"lowercase", "sarah", false},
		{"not in utterance or roster", "Victor", false},
		{"too short", "A", false},
		{"all caps", "SARAH", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, filter.Plausible(tt.candidate, utterance, roster))
		})
	}
}

func TestDirectAddress(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"leading address", "Sarah, can you take the audit?", "Sarah"},
		{"trailing question", "Can you take the audit, Sarah?", "Sarah"},
		{"no address", "We should take the audit.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, directAddress(tt.text))
		})
	}
}

func TestNamedMentions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"have X handle", "Let's have Tom handle the rollout.", []string{"Tom"}},
		{"X will", "Priya will own the postmortem.", []string{"Priya"}},
		{"possessive", "Dana's going to draft the announcement.", []string{"Dana"}},
		{"assigned to", "I assigned this to Marcus yesterday.", []string{"Marcus"}},
		{"deduplicated", "Tom will start and Tom should finish.", []string{"Tom"}},
		{"none", "we will figure it out together", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, namedMentions(tt.text))
		})
	}
}

func TestSpeakerNames(t *testing.T) {
	filter := DefaultNameFilter()
	utterances := []transcript.Utterance{
		{Speaker: "Speaker_00", Text: "Sarah, can you review the audit findings?"},
		{Speaker: "Speaker_01", Text: "Sure, will do."},
		{Speaker: "Speaker_00", Text: "Thanks."},
	}

	names := SpeakerNames(utterances, filter, []string{"Sarah"})
	require.Contains(t, names, "Speaker_01")
	assert.Equal(t, "Sarah", names["Speaker_01"])
	assert.NotContains(t, names, "Speaker_00")
}

func TestSpeakerNames_LookaheadBounded(t *testing.T) {
	filter := DefaultNameFilter()
	utterances := []transcript.Utterance{
		{Speaker: "Speaker_00", Text: "Sarah, can you review the audit findings?"},
		{Speaker: "Speaker_02", Text: "Unrelated tangent one."},
		{Speaker: "Speaker_03", Text: "Unrelated tangent two."},
		{Speaker: "Speaker_04", Text: "Another unrelated remark."},
		// Affirmation arrives after the lookahead window closed.
		{Speaker: "Speaker_01", Text: "Sure, will do."},
	}

	names := SpeakerNames(utterances, filter, []string{"Sarah"})
	assert.NotContains(t, names, "Speaker_01")
}

func TestSpeakerNames_SkipsOwnAffirmation(t *testing.T) {
	filter := DefaultNameFilter()
	utterances := []transcript.Utterance{
		{Speaker: "Speaker_00", Text: "Sarah, can you review the audit findings?"},
		{Speaker: "Speaker_00", Text: "Okay, moving on."},
		{Speaker: "Speaker_01", Text: "Yes, happy to."},
	}

	names := SpeakerNames(utterances, filter, []string{"Sarah"})
	assert.Equal(t, "Sarah", names["Speaker_01"])
}
