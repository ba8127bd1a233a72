package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/extractd/internal/task"
)

func borderlineRecord() task.TaskRecord {
	st := task.ScoredTask{
		ResolvedCandidate: task.ResolvedCandidate{
			Candidate: task.Candidate{
				UtteranceIndex: 3,
				RawText:        "Someone should probably look at the flaky deploy step.",
				MatchedSpan:    "look at the flaky deploy step",
				PatternType:    "documentation",
			},
		},
		Confidence: 0.55,
		TaskType:   "documentation",
	}
	return task.NewRecord(st, st.MatchedSpan)
}

func TestNewClarifier(t *testing.T) {
	t.Run("disabled returns noop", func(t *testing.T) {
		c, err := NewClarifier(Config{Enabled: false, Provider: "anthropic"})
		require.NoError(t, err)
		assert.IsType(t, &NoOpClarifier{}, c)
		assert.False(t, c.Available())
	})

	t.Run("disabled provider returns noop", func(t *testing.T) {
		c, err := NewClarifier(Config{Enabled: true, Provider: "disabled"})
		require.NoError(t, err)
		assert.IsType(t, &NoOpClarifier{}, c)
	})

	t.Run("missing provider config", func(t *testing.T) {
		_, err := NewClarifier(Config{Enabled: true, Provider: "anthropic"})
		assert.Error(t, err)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewClarifier(Config{
			Enabled:   true,
			Provider:  "oracle-9000",
			Providers: map[string]ProviderConfig{"oracle-9000": {APIKey: "k"}},
		})
		assert.Error(t, err)
	})

	t.Run("anthropic requires api key", func(t *testing.T) {
		_, err := NewClarifier(Config{
			Enabled:   true,
			Provider:  "anthropic",
			Providers: map[string]ProviderConfig{"anthropic": {}},
		})
		assert.Error(t, err)
	})

	t.Run("anthropic configured", func(t *testing.T) {
		c, err := NewClarifier(Config{
			Enabled:   true,
			Provider:  "anthropic",
			Providers: map[string]ProviderConfig{"anthropic": {APIKey: "test-key"}},
		})
		require.NoError(t, err)
		assert.True(t, c.Available())
	})
}

func TestNoOpClarifier(t *testing.T) {
	c := &NoOpClarifier{}
	record := borderlineRecord()

	got, err := c.Clarify(context.Background(), record)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, record, *got)
	assert.False(t, c.Available())
}
