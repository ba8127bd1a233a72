package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/extractd/internal/config"
	"github.com/fyrsmithlabs/extractd/internal/logging"
	"github.com/fyrsmithlabs/extractd/internal/oracle"
	"github.com/fyrsmithlabs/extractd/internal/task"
	"github.com/fyrsmithlabs/extractd/internal/transcript"
)

// stubClarifier lets tests script oracle verdicts.
type stubClarifier struct {
	fn    func(ctx context.Context, record task.TaskRecord) (*task.TaskRecord, error)
	calls atomic.Int32
}

func (s *stubClarifier) Clarify(ctx context.Context, record task.TaskRecord) (*task.TaskRecord, error) {
	s.calls.Add(1)
	return s.fn(ctx, record)
}

func (s *stubClarifier) Available() bool { return true }

func testMeeting() transcript.Meeting {
	return transcript.Meeting{
		Utterances: []transcript.Utterance{
			{Speaker: "Speaker_00", Text: "Sarah, can you take that one as part of onboarding usability testing by November 10th?"},
			{Speaker: "Speaker_01", Text: "Thanks, that was helpful."},
			{Speaker: "Speaker_00", Text: "Okay."},
			{Speaker: "Speaker_00", Text: "We need to prepare the quarterly report."},
		},
		ReferenceDate: time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC),
		Roster:        []string{"Sarah", "Tom"},
	}
}

func newTestEngine(t *testing.T, mutate func(*config.Config), clarifier oracle.Clarifier) (*Engine, *logging.TestLogger) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	tl := logging.NewTestLogger()
	engine, err := New(cfg, nil, clarifier, tl.Logger)
	require.NoError(t, err)
	return engine, tl
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestExtract_EndToEnd(t *testing.T) {
	engine, tl := newTestEngine(t, nil, nil)

	records, err := engine.Extract(context.Background(), testMeeting())
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Highest priority first.
	first := records[0]
	assert.Equal(t, "take that one as part of onboarding usability testing by November 10th", first.Description)
	assert.Equal(t, "Sarah", first.Assignee)
	require.NotNil(t, first.DueDate)
	assert.Equal(t, time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC), *first.DueDate)
	assert.Equal(t, task.PriorityHigh, first.Priority)
	assert.InDelta(t, 0.80, first.Confidence, 0.01)

	second := records[1]
	assert.Equal(t, "prepare the quarterly report", second.Description)
	assert.Empty(t, second.Assignee)
	assert.Nil(t, second.DueDate)
	assert.Equal(t, task.PriorityMedium, second.Priority)
	assert.Less(t, second.Confidence, first.Confidence)

	tl.AssertLogged(t, zapcore.InfoLevel, "extraction complete")
}

func TestExtract_Deterministic(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)

	first, err := engine.Extract(context.Background(), testMeeting())
	require.NoError(t, err)
	second, err := engine.Extract(context.Background(), testMeeting())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExtract_InvalidMeeting(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)

	_, err := engine.Extract(context.Background(), transcript.Meeting{
		ReferenceDate: time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, transcript.ErrEmptyTranscript)
}

func TestExtract_NoCandidates(t *testing.T) {
	engine, _ := newTestEngine(t, nil, nil)

	records, err := engine.Extract(context.Background(), transcript.Meeting{
		Utterances: []transcript.Utterance{
			{Speaker: "Speaker_00", Text: "Good morning everyone, hope you all had a nice weekend."},
			{Speaker: "Speaker_01", Text: "Sounds good!"},
		},
		ReferenceDate: time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestExtract_OracleDropsNonTask(t *testing.T) {
	clarifier := &stubClarifier{fn: func(context.Context, task.TaskRecord) (*task.TaskRecord, error) {
		return nil, nil
	}}

	engine, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Oracle.Enabled = true
		cfg.Oracle.ConfidenceBand = 0.45 // band reaches 0.95
	}, clarifier)

	// Only the unassigned quarterly record is ambiguous; the addressed
	// request keeps its assignee and full description and is never sent,
	// even though its ~0.80 confidence sits below the band.
	records, err := engine.Extract(context.Background(), testMeeting())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Sarah", records[0].Assignee)
	assert.Equal(t, int32(1), clarifier.calls.Load())
}

func TestExtract_OracleRevisesAmbiguousRecord(t *testing.T) {
	clarifier := &stubClarifier{fn: func(_ context.Context, record task.TaskRecord) (*task.TaskRecord, error) {
		record.Description = "Prepare the quarterly revenue report"
		record.Assignee = "Tom"
		record.ID = task.NewRecordID(record.Description, record.Assignee, record.UtteranceIndex)
		return &record, nil
	}}

	engine, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Oracle.Enabled = true
		cfg.Oracle.ConfidenceBand = 0.45
	}, clarifier)

	records, err := engine.Extract(context.Background(), testMeeting())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, int32(1), clarifier.calls.Load())

	var revised task.TaskRecord
	for _, r := range records {
		if strings.Contains(r.Description, "quarterly") {
			revised = r
		}
	}
	assert.Equal(t, "Prepare the quarterly revenue report", revised.Description)
	assert.Equal(t, "Tom", revised.Assignee)
}

func TestExtract_OracleErrorKeepsHeuristicRecords(t *testing.T) {
	clarifier := &stubClarifier{fn: func(context.Context, task.TaskRecord) (*task.TaskRecord, error) {
		return nil, errors.New("provider unavailable")
	}}

	engine, tl := newTestEngine(t, func(cfg *config.Config) {
		cfg.Oracle.Enabled = true
		cfg.Oracle.ConfidenceBand = 0.45
	}, clarifier)

	records, err := engine.Extract(context.Background(), testMeeting())
	require.NoError(t, err)
	assert.Len(t, records, 2, "oracle failure must not lose records")
	tl.AssertLogged(t, zapcore.WarnLevel, "clarification failed")
}

func TestExtract_OracleTimeoutKeepsHeuristicRecords(t *testing.T) {
	clarifier := &stubClarifier{fn: func(ctx context.Context, _ task.TaskRecord) (*task.TaskRecord, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	engine, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Oracle.Enabled = true
		cfg.Oracle.ConfidenceBand = 0.45
		cfg.Oracle.Timeout = 50 * time.Millisecond
	}, clarifier)

	start := time.Now()
	records, err := engine.Extract(context.Background(), testMeeting())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Less(t, time.Since(start), 5*time.Second, "per-record timeout must bound the oracle stage")
}

func TestExtract_ConfidentRecordsSkipOracle(t *testing.T) {
	clarifier := &stubClarifier{fn: func(_ context.Context, record task.TaskRecord) (*task.TaskRecord, error) {
		return &record, nil
	}}

	// Default band: only ambiguous records below 0.5+0.15 go to the
	// oracle. The addressed request scores ~0.80 and is trusted without
	// review; the unassigned quarterly record scores ~0.62 and is sent.
	engine, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Oracle.Enabled = true
	}, clarifier)

	records, err := engine.Extract(context.Background(), testMeeting())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(1), clarifier.calls.Load())
}

func TestNeedsClarification(t *testing.T) {
	engine, _ := newTestEngine(t, func(cfg *config.Config) {
		cfg.Oracle.Enabled = true
		cfg.Oracle.ConfidenceBand = 0.15 // band reaches 0.65
	}, nil)

	rec := func(confidence float64, assignee, description string) task.TaskRecord {
		st := task.ScoredTask{Confidence: confidence}
		st.Assignee = assignee
		return task.TaskRecord{ScoredTask: st, Description: description}
	}

	tests := []struct {
		name   string
		record task.TaskRecord
		want   bool
	}{
		{"confident", rec(0.80, "", "fix"), false},
		{"unassigned below band", rec(0.62, "", "prepare the quarterly revenue report"), true},
		{"terse below band", rec(0.62, "Sarah", "fix the build"), true},
		{"assigned and described below band", rec(0.62, "Sarah", "prepare the quarterly revenue report"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.needsClarification(tt.record))
		})
	}
}

func TestSortRecords(t *testing.T) {
	nov10 := time.Date(2025, time.November, 10, 0, 0, 0, 0, time.UTC)
	nov20 := time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)

	rec := func(idx int, p task.Priority, due *time.Time) task.TaskRecord {
		st := task.ScoredTask{Priority: p}
		st.UtteranceIndex = idx
		st.DueDate = due
		return task.TaskRecord{ScoredTask: st}
	}

	records := []task.TaskRecord{
		rec(0, task.PriorityMedium, nil),
		rec(1, task.PriorityHigh, &nov20),
		rec(2, task.PriorityCritical, nil),
		rec(3, task.PriorityHigh, &nov10),
		rec(4, task.PriorityMedium, nil),
	}

	sortRecords(records)

	assert.Equal(t, task.PriorityCritical, records[0].Priority)
	assert.Equal(t, 3, records[1].UtteranceIndex, "soonest due date first within a priority")
	assert.Equal(t, 1, records[2].UtteranceIndex)
	assert.Equal(t, 0, records[3].UtteranceIndex, "ties keep source order")
	assert.Equal(t, 4, records[4].UtteranceIndex)
}
