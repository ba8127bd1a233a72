// Package score turns resolved candidates into scored tasks. Confidence
// is a weighted combination of independent features on top of a base
// rate; urgency and priority are derived deterministically so two runs
// over the same transcript always agree.
package score

import (
	"regexp"
	"strings"
	"time"

	"github.com/fyrsmithlabs/extractd/internal/task"
)

// Config holds scorer configuration.
type Config struct {
	// MinConfidence drops scored tasks below this threshold.
	MinConfidence float64 `koanf:"min_confidence"`

	// BaseRate is the confidence floor every candidate starts from.
	BaseRate float64 `koanf:"base_rate"`

	// DueSoonWindow is how close a due date must be to the reference
	// date before urgency is floored at elevated.
	DueSoonWindow time.Duration `koanf:"due_soon_window"`
}

// DefaultConfig returns the default scorer configuration.
func DefaultConfig() Config {
	return Config{
		MinConfidence: 0.5,
		BaseRate:      0.3,
		DueSoonWindow: 48 * time.Hour,
	}
}

// Scorer computes confidence, urgency and priority for candidates.
type Scorer struct {
	cfg      Config
	features []Feature
}

// New creates a scorer. familyPriors maps pattern family names to their
// precision priors, normally detect.Priors(detect.DefaultFamilies()).
func New(cfg Config, familyPriors map[string]float64) *Scorer {
	if cfg.MinConfidence == 0 && cfg.BaseRate == 0 && cfg.DueSoonWindow == 0 {
		cfg = DefaultConfig()
	}
	if cfg.BaseRate == 0 {
		cfg.BaseRate = DefaultConfig().BaseRate
	}
	if cfg.DueSoonWindow == 0 {
		cfg.DueSoonWindow = DefaultConfig().DueSoonWindow
	}
	return &Scorer{cfg: cfg, features: DefaultFeatures(familyPriors)}
}

// Score evaluates one resolved candidate against the reference date.
// The boolean is false when the task falls below the confidence
// threshold and should be dropped. Every feature value is retained on
// the task for audit.
func (s *Scorer) Score(rc task.ResolvedCandidate, ref time.Time) (task.ScoredTask, bool) {
	st := task.ScoredTask{
		ResolvedCandidate: rc,
		Features:          make(map[string]float64, len(s.features)),
	}

	sum := 0.0
	for _, f := range s.features {
		v := f.Fn(rc)
		st.Features[f.Name] = v
		sum += f.Weight * v
	}
	st.Confidence = clamp(s.cfg.BaseRate + (1-s.cfg.BaseRate)*sum)

	if st.Confidence < s.cfg.MinConfidence {
		return st, false
	}

	st.Urgency = s.urgency(rc, ref)
	st.Priority = priorityFor(st.Urgency, st.Confidence)
	st.TaskType = rc.PatternType
	return st, true
}

var (
	criticalKeywords = regexp.MustCompile(`(?i)\b(?:asap|as soon as possible|urgent|urgently|immediately|critical|emergency|right away)\b`)
	highKeywords     = regexp.MustCompile(`(?i)\b(?:right now|top priority|high priority|time[- ]sensitive|by today|by tomorrow|before tomorrow)\b`)
	elevatedKeywords = regexp.MustCompile(`(?i)\b(?:important|by end of (?:the )?day|by end of (?:the )?week|soon|quickly|promptly)\b`)
)

// urgency layers keyword tiers with due date proximity: explicit
// urgency language sets the tier, and a due date inside the due-soon
// window raises anything below elevated up to it.
func (s *Scorer) urgency(rc task.ResolvedCandidate, ref time.Time) task.Urgency {
	text := strings.ToLower(rc.RawText)

	level := task.UrgencyNormal
	switch {
	case criticalKeywords.MatchString(text):
		level = task.UrgencyCritical
	case highKeywords.MatchString(text):
		level = task.UrgencyHigh
	case elevatedKeywords.MatchString(text):
		level = task.UrgencyElevated
	}

	if level == task.UrgencyNormal && rc.DueDate != nil {
		refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
		if until := rc.DueDate.Sub(refDay); until >= 0 && until <= s.cfg.DueSoonWindow {
			level = task.UrgencyElevated
		}
	}
	return level
}

// priorityFor maps an urgency tier and a confidence bucket onto a
// priority. High or critical urgency floors priority at high
// regardless of confidence: a weakly phrased but urgent commitment
// still demands attention first.
func priorityFor(u task.Urgency, confidence float64) task.Priority {
	bucket := 0
	switch {
	case confidence >= 0.75:
		bucket = 2
	case confidence >= 0.5:
		bucket = 1
	}

	table := map[task.Urgency][3]task.Priority{
		task.UrgencyNormal:   {task.PriorityLow, task.PriorityMedium, task.PriorityHigh},
		task.UrgencyElevated: {task.PriorityMedium, task.PriorityMedium, task.PriorityHigh},
		task.UrgencyHigh:     {task.PriorityHigh, task.PriorityHigh, task.PriorityHigh},
		task.UrgencyCritical: {task.PriorityHigh, task.PriorityCritical, task.PriorityCritical},
	}
	row, ok := table[u]
	if !ok {
		row = table[task.UrgencyNormal]
	}
	return row[bucket]
}
