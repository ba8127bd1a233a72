// Package task defines the records produced by the action item
// extraction pipeline, from raw pattern-matched candidates through
// resolved, scored and deduplicated task records.
package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Priority classifies a task for downstream ticketing.
type Priority string

// Priority levels, ordered from least to most pressing.
const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Urgency is a coarse signal derived from urgency keywords and date
// proximity. It is computed independently of confidence and dominates
// it when priority is assigned.
type Urgency string

// Urgency levels.
const (
	UrgencyNormal   Urgency = "normal"
	UrgencyElevated Urgency = "elevated"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Status tracks the lifecycle of a task record. The pipeline only ever
// emits StatusPending; transitions belong to downstream consumers.
type Status string

// Task statuses.
const (
	StatusPending Status = "pending"
)

// Candidate is an unvalidated span of transcript text suspected of
// describing a task. Produced by the detector, never mutated afterwards.
type Candidate struct {
	// UtteranceIndex is the position of the source utterance in the
	// transcript. Together with MatchedSpan it provides provenance for
	// rendering a source quote.
	UtteranceIndex int `json:"utterance_index"`

	// RawText is the full text of the source utterance.
	RawText string `json:"raw_text"`

	// MatchedSpan is the cleaned task span captured by the trigger.
	MatchedSpan string `json:"matched_span"`

	// PatternType names the pattern family that matched.
	PatternType string `json:"pattern_type"`
}

// ResolvedCandidate is a Candidate with assignee and date entities
// attached by the resolver. An empty Assignee means no plausible
// person was found; that is expected, not an error.
type ResolvedCandidate struct {
	Candidate

	Assignee     string      `json:"assignee,omitempty"`
	StartDate    *time.Time  `json:"start_date,omitempty"`
	DueDate      *time.Time  `json:"due_date,omitempty"`
	RelatedDates []time.Time `json:"related_dates,omitempty"`
}

// ScoredTask is a ResolvedCandidate with a confidence score, urgency
// and priority attached by the scorer.
type ScoredTask struct {
	ResolvedCandidate

	// Confidence is the weighted feature score in [0, 1].
	Confidence float64 `json:"confidence"`

	Priority Priority `json:"priority"`
	Urgency  Urgency  `json:"urgency"`

	// TaskType is derived from the matching pattern family.
	TaskType string `json:"task_type"`

	// Features holds the per-feature contributions that produced
	// Confidence, for audit and threshold tuning.
	Features map[string]float64 `json:"features,omitempty"`
}

// TaskRecord is the final, deduplicated record handed to downstream
// systems. One record is created per dedup cluster and is never
// re-created for the same transcript run.
type TaskRecord struct {
	ScoredTask

	// ID is stable and content-derived: the same description, assignee
	// and source position always produce the same ID.
	ID string `json:"id"`

	// Description is the representative task text for the cluster.
	Description string `json:"description"`

	Status Status `json:"status"`
}

// recordNamespace seeds content-derived record IDs. Fixed so IDs are
// reproducible across runs.
var recordNamespace = uuid.MustParse("9d3b7a52-0c44-4c19-8f4e-6f2a1d5e8b17")

// NewRecordID derives a stable record ID from the task content.
func NewRecordID(description, assignee string, utteranceIndex int) string {
	key := fmt.Sprintf("%d|%s|%s", utteranceIndex, assignee, description)
	return uuid.NewSHA1(recordNamespace, []byte(key)).String()
}

// NewRecord builds a pending TaskRecord from a scored task.
func NewRecord(st ScoredTask, description string) TaskRecord {
	return TaskRecord{
		ScoredTask:  st,
		ID:          NewRecordID(description, st.Assignee, st.UtteranceIndex),
		Description: description,
		Status:      StatusPending,
	}
}
