// Package detect scans speaker-attributed utterances against a
// declarative library of pattern families and emits raw task
// candidates. Detection optimizes recall; precision is recovered
// downstream by the scorer and deduplicator.
package detect

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/extractd/internal/task"
	"github.com/fyrsmithlabs/extractd/internal/transcript"
)

// Config holds detector configuration.
type Config struct {
	// Families overrides the built-in pattern library when non-empty.
	Families []Family `koanf:"families"`

	// Exclusions overrides the built-in exclusion patterns when non-empty.
	Exclusions []string `koanf:"exclusions"`

	// MinSpanWords drops captured spans shorter than this many words
	// (a bare verb with no object is not a task).
	MinSpanWords int `koanf:"min_span_words"`
}

// DefaultConfig returns the default detector configuration.
func DefaultConfig() Config {
	return Config{
		Families:     DefaultFamilies(),
		Exclusions:   DefaultExclusions(),
		MinSpanWords: 2,
	}
}

// compiledTrigger pairs a compiled regex with its family.
type compiledTrigger struct {
	family string
	regex  *regexp.Regexp
}

// Detector finds task candidates in utterances.
type Detector struct {
	triggers     []compiledTrigger
	exclusions   []*regexp.Regexp
	minSpanWords int
}

// New creates a detector from config, compiling the pattern library
// once. Invalid regexes are skipped rather than failing construction.
func New(cfg Config) *Detector {
	families := cfg.Families
	if len(families) == 0 {
		families = DefaultFamilies()
	}
	exclusions := cfg.Exclusions
	if len(exclusions) == 0 {
		exclusions = DefaultExclusions()
	}
	minSpanWords := cfg.MinSpanWords
	if minSpanWords == 0 {
		minSpanWords = 2
	}

	var triggers []compiledTrigger
	for _, f := range families {
		for _, t := range f.Triggers {
			re, err := regexp.Compile(t)
			if err != nil {
				continue
			}
			triggers = append(triggers, compiledTrigger{family: f.Name, regex: re})
		}
	}

	var excluded []*regexp.Regexp
	for _, e := range exclusions {
		re, err := regexp.Compile(e)
		if err != nil {
			continue
		}
		excluded = append(excluded, re)
	}

	return &Detector{
		triggers:     triggers,
		exclusions:   excluded,
		minSpanWords: minSpanWords,
	}
}

// Detect scans all utterances and returns raw candidates in transcript
// order. One utterance may yield several candidates; overlapping
// matches from different families are kept distinct. Deterministic and
// side-effect free.
func (d *Detector) Detect(utterances []transcript.Utterance) []task.Candidate {
	var candidates []task.Candidate
	for i, u := range utterances {
		text := strings.TrimSpace(u.Text)
		if text == "" || d.excluded(text) {
			continue
		}
		for _, t := range d.triggers {
			for _, m := range t.regex.FindAllStringSubmatch(text, -1) {
				if len(m) < 2 {
					continue
				}
				cleaned := CleanSpan(m[1])
				if len(strings.Fields(cleaned)) < d.minSpanWords {
					continue
				}
				candidates = append(candidates, task.Candidate{
					UtteranceIndex: i,
					RawText:        u.Text,
					MatchedSpan:    cleaned,
					PatternType:    t.family,
				})
			}
		}
	}
	return candidates
}

// excluded reports whether the utterance matches an exclusion pattern.
func (d *Detector) excluded(text string) bool {
	for _, re := range d.exclusions {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

var (
	// spanEnd truncates the span at a sentence boundary or a
	// subordinating conjunction, where the task description ends.
	spanEnd = regexp.MustCompile(`[.?!]|\s+(?:and then|but|so that|because|if|when|since)\s+`)

	// fillers are discourse noise stripped from spans.
	fillers = regexp.MustCompile(`(?i)\b(?:you know|I mean|like,|um|uh|basically|actually)\b`)

	// trailingStop removes dangling articles and prepositions.
	trailingStop = regexp.MustCompile(`(?i)\s+(?:a|an|the|to|for|with|by|on|in|at)$`)

	whitespace = regexp.MustCompile(`\s+`)
)

// CleanSpan normalizes a captured task span: it truncates at the end
// of the task clause, strips filler words and collapses whitespace.
func CleanSpan(s string) string {
	if loc := spanEnd.FindStringIndex(s); loc != nil {
		s = s[:loc[0]]
	}
	s = fillers.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = trailingStop.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
