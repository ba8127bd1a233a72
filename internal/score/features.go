package score

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/extractd/internal/task"
)

// Feature is one named, independently computed confidence signal.
// Each Fn is a pure function returning a value in [0, 1]; the scorer
// combines features as a weighted sum, so tests can assert on
// individual contributions.
type Feature struct {
	Name   string
	Weight float64
	Fn     func(task.ResolvedCandidate) float64
}

// modalVerbs ranks modal phrases by commitment strength.
var modalVerbs = []struct {
	phrase   string
	strength float64
}{
	{"must", 1.0},
	{"have to", 1.0},
	{"has to", 1.0},
	{"need to", 0.95},
	{"needs to", 0.95},
	{"will", 0.9},
	{"shall", 0.85},
	{"going to", 0.8},
	{"gonna", 0.75},
	{"should", 0.7},
	{"ought to", 0.7},
	{"can", 0.5},
	{"could", 0.4},
	{"might", 0.3},
	{"may", 0.3},
}

// actionVerbs are strong task indicators when present in a span.
var actionVerbs = map[string]struct{}{
	"complete": {}, "finish": {}, "deliver": {}, "submit": {}, "send": {},
	"provide": {}, "create": {}, "build": {}, "develop": {}, "implement": {},
	"design": {}, "review": {}, "check": {}, "verify": {}, "validate": {},
	"confirm": {}, "schedule": {}, "arrange": {}, "organize": {},
	"coordinate": {}, "update": {}, "revise": {}, "modify": {},
	"prepare": {}, "draft": {}, "analyze": {}, "evaluate": {},
	"assess": {}, "test": {},
}

var (
	contextPositive = regexp.MustCompile(`(?i)\b(?:please|could you|can you|would you)\b`)
	contextOwner    = regexp.MustCompile(`(?i)\b(?:responsible|assigned|tasked)\b`)
	contextDeadline = regexp.MustCompile(`(?i)\b(?:deadline|due|by)\b`)
	contextVague    = regexp.MustCompile(`(?i)\b(?:maybe|perhaps|possibly|might want to)\b`)

	imperativeOpen = regexp.MustCompile(`(?i)^(?:please\s+)?(?:can you\s+)?(?:could you\s+)?[a-z]+\b`)
	declarative    = regexp.MustCompile(`(?i)\b(?:will|should|need to|have to)\s+[a-z]+`)

	statusQuestion = regexp.MustCompile(`(?i)\b(?:who's|who is|what's the status|any update|where are we)\b`)
)

// DefaultFeatures returns the ordered feature list with default
// weights. familyPriors maps pattern family names to their historical
// precision weight; unknown families contribute a neutral 0.5.
func DefaultFeatures(familyPriors map[string]float64) []Feature {
	return []Feature{
		{Name: "has_assignee", Weight: 0.20, Fn: hasAssignee},
		{Name: "has_due_date", Weight: 0.15, Fn: hasDueDate},
		{Name: "has_start_date", Weight: 0.05, Fn: hasStartDate},
		{Name: "span_length", Weight: 0.10, Fn: spanLength},
		{Name: "action_verb", Weight: 0.15, Fn: actionVerb},
		{Name: "modal_strength", Weight: 0.10, Fn: modalStrength},
		{Name: "context_quality", Weight: 0.10, Fn: contextQuality},
		{Name: "urgency", Weight: 0.10, Fn: urgencyKeyword},
		{Name: "sentence_completeness", Weight: 0.05, Fn: sentenceCompleteness},
		{Name: "family_prior", Weight: 0.10, Fn: familyPrior(familyPriors)},
		{Name: "question_penalty", Weight: -0.10, Fn: questionForm},
	}
}

func hasAssignee(rc task.ResolvedCandidate) float64 {
	if rc.Assignee != "" {
		return 1.0
	}
	return 0.0
}

func hasDueDate(rc task.ResolvedCandidate) float64 {
	if rc.DueDate != nil {
		return 1.0
	}
	return 0.0
}

func hasStartDate(rc task.ResolvedCandidate) float64 {
	if rc.StartDate != nil {
		return 1.0
	}
	return 0.0
}

// spanLength prefers spans long enough to carry a full task description
// but not so long they swallow surrounding discourse.
func spanLength(rc task.ResolvedCandidate) float64 {
	words := len(strings.Fields(rc.MatchedSpan))
	switch {
	case words >= 15 && words <= 60:
		return 1.0
	case (words >= 10 && words < 15) || (words > 60 && words <= 80):
		return 0.7
	case words >= 5 && words < 10:
		return 0.5
	default:
		return 0.3
	}
}

func actionVerb(rc task.ResolvedCandidate) float64 {
	for _, w := range strings.Fields(strings.ToLower(rc.MatchedSpan)) {
		if _, ok := actionVerbs[strings.Trim(w, ".,!?;:")]; ok {
			return 1.0
		}
	}
	return 0.3
}

// modalStrength returns the strongest modal found in the source
// utterance, so "must" outranks "could" even when both appear.
func modalStrength(rc task.ResolvedCandidate) float64 {
	lower := strings.ToLower(rc.RawText)
	strength := 0.0
	for _, m := range modalVerbs {
		if m.strength <= strength {
			break
		}
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(m.phrase) + `\b`)
		if re.MatchString(lower) {
			strength = m.strength
		}
	}
	return strength
}

func contextQuality(rc task.ResolvedCandidate) float64 {
	text := rc.RawText
	quality := 0.5
	if contextPositive.MatchString(text) {
		quality += 0.2
	}
	if contextOwner.MatchString(text) {
		quality += 0.2
	}
	if contextDeadline.MatchString(text) {
		quality += 0.1
	}
	if contextVague.MatchString(text) {
		quality -= 0.2
	}
	if strings.HasSuffix(strings.TrimSpace(text), "?") {
		quality -= 0.1
	}
	return clamp(quality)
}

// sentenceCompleteness favors imperatives and declaratives with a clear
// verb object over fragments.
func sentenceCompleteness(rc task.ResolvedCandidate) float64 {
	text := strings.TrimSpace(rc.RawText)
	completeness := 0.5
	if imperativeOpen.MatchString(text) {
		completeness += 0.3
	}
	if declarative.MatchString(text) {
		completeness += 0.2
	}
	if strings.Contains(text, ".") || len(strings.Fields(text)) > 8 {
		completeness += 0.1
	}
	if len(strings.Fields(rc.MatchedSpan)) < 5 {
		completeness -= 0.2
	}
	return clamp(completeness)
}

// urgencyKeyword rewards explicit urgency language in the source
// utterance, using the same keyword tiers that set the urgency level.
// Due-date proximity is handled there, not here: this feature measures
// how the speaker phrased the task, not when it lands.
func urgencyKeyword(rc task.ResolvedCandidate) float64 {
	text := strings.ToLower(rc.RawText)
	switch {
	case criticalKeywords.MatchString(text):
		return 1.0
	case highKeywords.MatchString(text):
		return 0.7
	case elevatedKeywords.MatchString(text):
		return 0.4
	default:
		return 0.0
	}
}

func familyPrior(priors map[string]float64) func(task.ResolvedCandidate) float64 {
	return func(rc task.ResolvedCandidate) float64 {
		if p, ok := priors[rc.PatternType]; ok {
			return p
		}
		return 0.5
	}
}

// questionForm fires on status questions ("who's doing X?") which
// delegate nothing; combined with its negative weight it lowers the
// score relative to a direct request.
func questionForm(rc task.ResolvedCandidate) float64 {
	text := strings.TrimSpace(rc.RawText)
	if statusQuestion.MatchString(text) {
		return 1.0
	}
	if strings.HasSuffix(text, "?") && rc.Assignee == "" {
		return 0.5
	}
	return 0.0
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
