package entities

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateVocabulary is the injected, versioned vocabulary for natural
// language date resolution. Passing it explicitly (rather than reading
// module globals) lets meetings with different locales run concurrently.
type DateVocabulary struct {
	Version  string
	Months   map[string]time.Month
	Weekdays map[string]time.Weekday
}

// DefaultDateVocabulary returns the built-in English vocabulary.
func DefaultDateVocabulary() DateVocabulary {
	return DateVocabulary{
		Version: "en-2025.1",
		Months: map[string]time.Month{
			"january": time.January, "jan": time.January,
			"february": time.February, "feb": time.February,
			"march": time.March, "mar": time.March,
			"april": time.April, "apr": time.April,
			"may":  time.May,
			"june": time.June, "jun": time.June,
			"july": time.July, "jul": time.July,
			"august": time.August, "aug": time.August,
			"september": time.September, "sep": time.September, "sept": time.September,
			"october": time.October, "oct": time.October,
			"november": time.November, "nov": time.November,
			"december": time.December, "dec": time.December,
		},
		Weekdays: map[string]time.Weekday{
			"monday": time.Monday, "mon": time.Monday,
			"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
			"wednesday": time.Wednesday, "wed": time.Wednesday,
			"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
			"friday": time.Friday, "fri": time.Friday,
			"saturday": time.Saturday, "sat": time.Saturday,
			"sunday": time.Sunday, "sun": time.Sunday,
		},
	}
}

// DateExtractor finds every date-like expression in a span and
// normalizes it to a calendar date anchored at the meeting reference
// date. Ambiguous day-of-week references resolve to the next occurrence
// strictly after the reference date.
type DateExtractor struct {
	vocab     DateVocabulary
	ref       time.Time
	monthRe   *regexp.Regexp
	isoRe     *regexp.Regexp
	shortRe   *regexp.Regexp
	inUnitsRe *regexp.Regexp
	weekdayRe *regexp.Regexp
}

// NewDateExtractor builds an extractor for one meeting. The reference
// date is truncated to midnight so proximity comparisons are stable.
func NewDateExtractor(vocab DateVocabulary, reference time.Time) *DateExtractor {
	ref := time.Date(reference.Year(), reference.Month(), reference.Day(), 0, 0, 0, 0, reference.Location())
	return &DateExtractor{
		vocab:     vocab,
		ref:       ref,
		monthRe:   regexp.MustCompile(`\b(` + alternation(monthKeys(vocab)) + `)\s+(\d{1,2})(?:st|nd|rd|th)?,?\s*(\d{4})?\b`),
		isoRe:     regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`),
		shortRe:   regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})\b`),
		inUnitsRe: regexp.MustCompile(`\bin\s+(\d+)\s+(day|days|week|weeks|month|months)\b`),
		weekdayRe: regexp.MustCompile(`\b(?:(next|this)\s+)?(` + alternation(weekdayKeys(vocab)) + `)\b`),
	}
}

// alternation joins keys into a regex alternation, longest first so
// abbreviations never shadow full names.
func alternation(keys []string) string {
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return strings.Join(keys, "|")
}

func monthKeys(v DateVocabulary) []string {
	keys := make([]string, 0, len(v.Months))
	for k := range v.Months {
		keys = append(keys, k)
	}
	return keys
}

func weekdayKeys(v DateVocabulary) []string {
	keys := make([]string, 0, len(v.Weekdays))
	for k := range v.Weekdays {
		keys = append(keys, k)
	}
	return keys
}

// Extract returns every date found in the text, unordered and possibly
// duplicated; callers dedupe and sort. No dates found is not an error.
func (e *DateExtractor) Extract(text string) []time.Time {
	lower := strings.ToLower(text)

	var dates []time.Time
	dates = append(dates, e.explicitDates(lower)...)
	dates = append(dates, e.relativeDates(lower)...)
	dates = append(dates, e.weekdayDates(lower)...)
	return dates
}

// explicitDates handles "November 5th", "2025-11-05" and "11/5".
func (e *DateExtractor) explicitDates(lower string) []time.Time {
	var dates []time.Time

	for _, m := range e.monthRe.FindAllStringSubmatch(lower, -1) {
		month, ok := e.vocab.Months[m[1]]
		if !ok {
			continue
		}
		day, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		year := e.ref.Year()
		if m[3] != "" {
			if y, err := strconv.Atoi(m[3]); err == nil {
				year = y
			}
		}
		if d, ok := makeDate(year, int(month), day, e.ref.Location()); ok {
			dates = append(dates, d)
		}
	}

	for _, m := range e.isoRe.FindAllStringSubmatch(lower, -1) {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := makeDate(year, month, day, e.ref.Location()); ok {
			dates = append(dates, d)
		}
	}

	// M/D with the reference year assumed. Skip anything already
	// consumed by the ISO pattern.
	isoSpans := e.isoRe.FindAllStringIndex(lower, -1)
	for _, loc := range e.shortRe.FindAllStringSubmatchIndex(lower, -1) {
		if overlapsAny(loc[0], loc[1], isoSpans) {
			continue
		}
		month, _ := strconv.Atoi(lower[loc[2]:loc[3]])
		day, _ := strconv.Atoi(lower[loc[4]:loc[5]])
		if d, ok := makeDate(e.ref.Year(), month, day, e.ref.Location()); ok {
			dates = append(dates, d)
		}
	}

	return dates
}

// relativeDates handles "today", "tomorrow", "in 3 days", "next week",
// "end of week/month" and "ASAP" (treated as reference + 1 day).
func (e *DateExtractor) relativeDates(lower string) []time.Time {
	var dates []time.Time

	if containsWord(lower, "today") || containsWord(lower, "tonight") {
		dates = append(dates, e.ref)
	}
	if containsWord(lower, "tomorrow") {
		dates = append(dates, e.ref.AddDate(0, 0, 1))
	}

	for _, m := range e.inUnitsRe.FindAllStringSubmatch(lower, -1) {
		count, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(m[2], "day"):
			dates = append(dates, e.ref.AddDate(0, 0, count))
		case strings.HasPrefix(m[2], "week"):
			dates = append(dates, e.ref.AddDate(0, 0, count*7))
		case strings.HasPrefix(m[2], "month"):
			dates = append(dates, e.ref.AddDate(0, count, 0))
		}
	}

	if regexp.MustCompile(`\bnext\s+week\b`).MatchString(lower) {
		dates = append(dates, e.ref.AddDate(0, 0, 7))
	}
	if regexp.MustCompile(`\bnext\s+month\b`).MatchString(lower) {
		dates = append(dates, e.ref.AddDate(0, 1, 0))
	}
	if regexp.MustCompile(`\bend\s+of\s+(?:the\s+)?week\b`).MatchString(lower) {
		daysUntilSunday := (int(time.Sunday) - int(e.ref.Weekday()) + 7) % 7
		if daysUntilSunday == 0 {
			daysUntilSunday = 7
		}
		dates = append(dates, e.ref.AddDate(0, 0, daysUntilSunday))
	}
	if regexp.MustCompile(`\bend\s+of\s+(?:the\s+)?month\b`).MatchString(lower) {
		firstOfNext := time.Date(e.ref.Year(), e.ref.Month(), 1, 0, 0, 0, 0, e.ref.Location()).AddDate(0, 1, 0)
		dates = append(dates, firstOfNext.AddDate(0, 0, -1))
	}
	if regexp.MustCompile(`\b(?:asap|as soon as possible)\b`).MatchString(lower) {
		dates = append(dates, e.ref.AddDate(0, 0, 1))
	}

	return dates
}

// weekdayDates handles "next Friday", "this Friday" and bare weekday
// names. All resolve to the next occurrence strictly after the
// reference date; only an explicit "today" yields the same day.
func (e *DateExtractor) weekdayDates(lower string) []time.Time {
	var dates []time.Time
	for _, m := range e.weekdayRe.FindAllStringSubmatch(lower, -1) {
		target, ok := e.vocab.Weekdays[m[2]]
		if !ok {
			continue
		}
		ahead := (int(target) - int(e.ref.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		if m[1] == "next" && ahead < 7 && sameWeek(e.ref, e.ref.AddDate(0, 0, ahead)) {
			// "next Friday" said early in the week skips the upcoming
			// occurrence and lands in the following week.
			ahead += 7
		}
		dates = append(dates, e.ref.AddDate(0, 0, ahead))
	}
	return dates
}

// sameWeek reports whether two dates fall in the same Monday-anchored week.
func sameWeek(a, b time.Time) bool {
	ya, wa := a.ISOWeek()
	yb, wb := b.ISOWeek()
	return ya == yb && wa == wb
}

// makeDate validates calendar components; Go normalizes out-of-range
// values (Feb 30 becomes Mar 2), which must be rejected instead.
func makeDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if int(d.Month()) != month || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

func containsWord(text, word string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\b`)
	return re.MatchString(text)
}

func overlapsAny(start, end int, spans [][]int) bool {
	for _, s := range spans {
		if start < s[1] && end > s[0] {
			return true
		}
	}
	return false
}
