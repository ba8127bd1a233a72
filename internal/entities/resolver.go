// Package entities resolves assignees and calendar dates for task
// candidates. Person and date vocabularies are injected configuration,
// so meetings with different locales can run concurrently.
package entities

import (
	"sort"
	"time"

	"github.com/fyrsmithlabs/extractd/internal/task"
	"github.com/fyrsmithlabs/extractd/internal/transcript"
)

// Config holds resolver configuration.
type Config struct {
	// DateContextWindow is how many neighbouring utterances on each
	// side contribute date expressions to a candidate.
	DateContextWindow int `koanf:"date_context_window"`
}

// DefaultConfig returns the default resolver configuration.
func DefaultConfig() Config {
	return Config{DateContextWindow: 2}
}

// Resolver builds per-meeting resolution sessions.
type Resolver struct {
	vocab  DateVocabulary
	filter NameFilter
	window int
}

// New creates a resolver with the given vocabularies.
func New(cfg Config, vocab DateVocabulary, filter NameFilter) *Resolver {
	window := cfg.DateContextWindow
	if window == 0 {
		window = DefaultConfig().DateContextWindow
	}
	return &Resolver{vocab: vocab, filter: filter, window: window}
}

// Session holds the read-only per-meeting state: the cleaned utterance
// sequence, the speaker-to-name mapping and a date extractor anchored
// at the meeting reference date. Sessions are safe for concurrent use.
type Session struct {
	resolver     *Resolver
	utterances   []transcript.Utterance
	roster       []string
	speakerNames map[string]string
	dates        *DateExtractor
}

// Bind prepares a session for one meeting.
func (r *Resolver) Bind(utterances []transcript.Utterance, roster []string, referenceDate time.Time) *Session {
	return &Session{
		resolver:     r,
		utterances:   utterances,
		roster:       roster,
		speakerNames: SpeakerNames(utterances, r.filter, roster),
		dates:        NewDateExtractor(r.vocab, referenceDate),
	}
}

// Resolve attaches assignee and date entities to a candidate. Failure
// to resolve either is represented by zero values, never an error.
func (s *Session) Resolve(c task.Candidate) task.ResolvedCandidate {
	rc := task.ResolvedCandidate{Candidate: c}
	if c.UtteranceIndex < 0 || c.UtteranceIndex >= len(s.utterances) {
		return rc
	}
	u := s.utterances[c.UtteranceIndex]

	rc.Assignee = s.resolveAssignee(u)
	s.resolveDates(&rc)
	return rc
}

// resolveAssignee applies the precedence order: a named person adjacent
// to the trigger, then a first-person self-reference, then a direct
// address, then none. Every name from the text must pass the
// plausibility filter; an implausible token forces "no assignee".
func (s *Session) resolveAssignee(u transcript.Utterance) string {
	for _, name := range namedMentions(u.Text) {
		if s.resolver.filter.Plausible(name, u.Text, s.roster) {
			return name
		}
	}

	if selfReference.MatchString(u.Text) {
		return s.DisplayName(u.Speaker)
	}

	if name := directAddress(u.Text); name != "" && s.resolver.filter.Plausible(name, u.Text, s.roster) {
		return name
	}

	return ""
}

// DisplayName returns the mapped display name for a speaker ID, or the
// ID itself when no mapping was learned.
func (s *Session) DisplayName(speaker string) string {
	if name, ok := s.speakerNames[speaker]; ok {
		return name
	}
	return speaker
}

// resolveDates collects date expressions from the candidate's utterance
// and its context window. The latest date becomes the due date, the
// earliest plausible prior one the start date, and all are kept in
// RelatedDates for audit.
func (s *Session) resolveDates(rc *task.ResolvedCandidate) {
	idx := rc.UtteranceIndex
	lo := idx - s.resolver.window
	if lo < 0 {
		lo = 0
	}
	hi := idx + s.resolver.window
	if hi >= len(s.utterances) {
		hi = len(s.utterances) - 1
	}

	var found []time.Time
	for i := lo; i <= hi; i++ {
		found = append(found, s.dates.Extract(s.utterances[i].Text)...)
	}
	if len(found) == 0 {
		return
	}

	unique := dedupeDates(found)
	rc.RelatedDates = unique

	due := unique[len(unique)-1]
	rc.DueDate = &due
	if len(unique) >= 2 {
		start := unique[0]
		rc.StartDate = &start
	}
}

// dedupeDates sorts and removes duplicate calendar dates.
func dedupeDates(dates []time.Time) []time.Time {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	unique := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if len(unique) == 0 || !d.Equal(unique[len(unique)-1]) {
			unique = append(unique, d)
		}
	}
	return unique
}
