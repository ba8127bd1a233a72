package entities

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/extractd/internal/transcript"
)

// NameFilter is the injected plausibility filter for assignee names.
// A token must look like a person name, not sit on the discourse-marker
// stoplist, and appear verbatim in the utterance or roster before it is
// accepted; anything else is coerced to "no assignee" rather than a
// wrong guess.
type NameFilter struct {
	Version  string
	Stoplist map[string]struct{}
}

// DefaultNameFilter returns the built-in English filter. The stoplist
// carries discourse markers, pronouns and calendar words that match
// capitalized-token patterns but are never people.
func DefaultNameFilter() NameFilter {
	words := []string{
		"i", "we", "you", "he", "she", "they", "it", "us", "them",
		"that", "this", "these", "those", "yes", "yeah", "yep", "no", "nope",
		"okay", "ok", "sure", "right", "alright", "well", "now", "then",
		"also", "maybe", "perhaps", "great", "perfect", "excellent", "thanks",
		"hello", "everyone", "someone", "somebody", "anyone", "anybody",
		"nobody", "team", "group", "speaker", "guys", "folks", "people",
		"monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
		"sunday", "january", "february", "march", "april", "may", "june",
		"july", "august", "september", "october", "november", "december",
		"today", "tomorrow", "tonight", "morning", "afternoon", "evening",
	}
	stoplist := make(map[string]struct{}, len(words))
	for _, w := range words {
		stoplist[w] = struct{}{}
	}
	return NameFilter{Version: "en-2025.1", Stoplist: stoplist}
}

// nameToken matches a plausible capitalized person name.
var nameToken = regexp.MustCompile(`^[A-Z][a-z]+$`)

// Plausible reports whether name may be accepted as an assignee given
// the utterance it was extracted from and the participant roster.
func (f NameFilter) Plausible(name, utteranceText string, roster []string) bool {
	if len(name) < 2 || !nameToken.MatchString(name) {
		return false
	}
	if _, stopped := f.Stoplist[strings.ToLower(name)]; stopped {
		return false
	}
	if containsWordFold(utteranceText, name) {
		return true
	}
	for _, r := range roster {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

func containsWordFold(text, word string) bool {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(text)
}

var (
	// directAddressStart matches "Sarah, can you ..." openings.
	directAddressStart = regexp.MustCompile(`^([A-Z][a-z]+),\s+`)

	// directAddressQuestion matches "..., Sarah?" closings.
	directAddressQuestion = regexp.MustCompile(`,\s+([A-Z][a-z]+)\?`)

	// namedMentionPatterns catch a person named adjacent to a trigger
	// verb, in either "have Tom handle" or "Tom will" shape.
	namedMentionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:have|let|ask|tell)\s+([A-Z][a-z]+)\s+(?:do|handle|take|lead|work|own|drive)`),
		regexp.MustCompile(`\b([A-Z][a-z]+),?\s+(?:you\s+)?(?:will|should|can you|could you|please|needs? to|has to)`),
		regexp.MustCompile(`\b([A-Z][a-z]+)'s\s+(?:going to|gonna|responsible|task|job)`),
		regexp.MustCompile(`\b(?:assign|assigned|give|gave)\s+(?:this\s+|that\s+|it\s+)?(?:to\s+)?([A-Z][a-z]+)\b`),
	}

	// selfReference marks a first-person commitment; the assignee is
	// the utterance's speaker.
	selfReference = regexp.MustCompile(`\b(?:I'll|I will|I'm going to|I can|I should)\b`)

	// affirmativeResponse detects acceptance in a following utterance,
	// used to map addressed names onto diarized speaker IDs.
	affirmativeResponse = regexp.MustCompile(`(?i)\b(?:yes|yeah|sure|okay|ok|got it|will do|sounds good|happy to|understood|copy that|on it)\b`)
)

// directAddress returns the name addressed in the utterance, if any.
func directAddress(text string) string {
	if m := directAddressStart.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := directAddressQuestion.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// namedMentions returns person-like tokens adjacent to trigger verbs,
// in order of appearance.
func namedMentions(text string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, re := range namedMentionPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			name := m[1]
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}

// responseLookahead is how many utterances after a direct address are
// searched for an affirmative response when mapping speakers to names.
const responseLookahead = 3

// SpeakerNames maps diarized speaker IDs (e.g. "Speaker_01") to display
// names by pairing direct addresses with affirmative responses shortly
// after. Speakers never addressed keep their raw IDs.
func SpeakerNames(utterances []transcript.Utterance, filter NameFilter, roster []string) map[string]string {
	names := make(map[string]string)
	for i, u := range utterances {
		addressed := directAddress(u.Text)
		if addressed == "" || !filter.Plausible(addressed, u.Text, roster) {
			continue
		}
		limit := i + 1 + responseLookahead
		if limit > len(utterances) {
			limit = len(utterances)
		}
		for j := i + 1; j < limit; j++ {
			next := utterances[j]
			if next.Speaker == u.Speaker {
				continue
			}
			if affirmativeResponse.MatchString(next.Text) {
				if _, mapped := names[next.Speaker]; !mapped {
					names[next.Speaker] = addressed
				}
				break
			}
		}
	}
	return names
}
