// Package extract provides pure rule-based entity extractors for dates,
// times, email addresses, names and short phrases.
//
// Every function here is deterministic: the same text and reference time
// always produce the same result. This is what makes the local fallback
// capability reproducible in tests.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	emailRe = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Ordered by specificity: clock with minutes and meridiem first, bare
	// hour with meridiem second, 24h clock last.
	timeMeridiemMinutesRe = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\s*(am|pm)\b`)
	timeMeridiemRe        = regexp.MustCompile(`\b(\d{1,2})\s*(am|pm)\b`)
	time24Re              = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)

	quotedRe      = regexp.MustCompile(`["“']([^"”']{2,120})["”']`)
	titleCueRe    = regexp.MustCompile(`(?i)\b(?:about|called|titled|regarding)\s+(.+?)(?:\s+(?:tomorrow|today|at\s+\d|on\s+[A-Za-z]+|with\s+)|[.!?]|$)`)
	// Case-insensitive keyword cue, case-sensitive capitalized names: "with
	// the team" must not yield a participant called "the".
	withNamesRe   = regexp.MustCompile(`\b(?i:with)\s+([A-Z][A-Za-z]*(?:(?:\s*,\s*|\s+(?i:and)\s+)[A-Z][A-Za-z]*)*)`)
	toRecipientRe = regexp.MustCompile(`\b(?i:email|mail|message|write)\s+(?i:to\s+)([A-Z][A-Za-z]*)\b`)

	bodyCueRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsaying\s+(?:that\s+)?(.+)$`),
		regexp.MustCompile(`(?i)\btelling\s+(?:him|her|them)\s+(?:that\s+)?(.+)$`),
		regexp.MustCompile(`(?i)\bmessage\s*:\s*(.+)$`),
	}

	// Candidate substrings handed to dateparse. Running dateparse on whole
	// sentences misfires on stray numbers, so only date-shaped fragments
	// qualify.
	absoluteDateRe = regexp.MustCompile(`(?i)\b(?:\d{4}-\d{2}-\d{2}|\d{1,2}[/.]\d{1,2}(?:[/.]\d{2,4})?|(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?|\d{1,2}(?:st|nd|rd|th)?\s+(?:of\s+)?(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*(?:,?\s+\d{4})?)\b`)

	weekdays = map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
)

// Emails returns every email address found in text, in order of appearance.
func Emails(text string) []string {
	return emailRe.FindAllString(text, -1)
}

// Time finds the first clock time in text and canonicalizes it to 24h
// "HH:MM". Accepts "3pm", "3:30 PM" and "15:00" forms.
func Time(text string) (string, bool) {
	lower := strings.ToLower(text)

	if m := timeMeridiemMinutesRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return canonicalTime(hour, minute, m[3])
	}
	if m := timeMeridiemRe.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return canonicalTime(hour, 0, m[2])
	}
	if m := time24Re.FindStringSubmatch(lower); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return canonicalTime(hour, minute, "")
	}
	return "", false
}

func canonicalTime(hour, minute int, meridiem string) (string, bool) {
	switch meridiem {
	case "pm":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return "", false
		}
	}
	if minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// Date resolves the first date expression in text to an ISO 8601 date,
// relative to now. Handles today/tomorrow/next week, weekday names, and
// absolute formats as a fallback. Unparsable input yields ok=false so the
// slot stays missing and gets re-asked.
func Date(text string, now time.Time) (string, bool) {
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "tomorrow"):
		return now.AddDate(0, 0, 1).Format("2006-01-02"), true
	case strings.Contains(lower, "today"):
		return now.Format("2006-01-02"), true
	case strings.Contains(lower, "next week"):
		return now.AddDate(0, 0, 7).Format("2006-01-02"), true
	}

	// When several weekdays are mentioned the first one in the text wins,
	// so the result never depends on map iteration order.
	bestIdx := -1
	var bestDay time.Weekday
	for name, wd := range weekdays {
		idx := indexWord(lower, name)
		if idx < 0 {
			continue
		}
		if bestIdx < 0 || idx < bestIdx {
			bestIdx = idx
			bestDay = wd
		}
	}
	if bestIdx >= 0 {
		ahead := int(bestDay) - int(now.Weekday())
		if ahead <= 0 {
			ahead += 7
		}
		return now.AddDate(0, 0, ahead).Format("2006-01-02"), true
	}

	if m := absoluteDateRe.FindString(text); m != "" {
		if t, err := dateparse.ParseAny(m); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// Participants extracts meeting attendees: email addresses when present,
// otherwise capitalized names following "with". Multiple values are joined
// with ", ".
func Participants(text string) (string, bool) {
	if emails := Emails(text); len(emails) > 0 {
		return strings.Join(emails, ", "), true
	}
	if m := withNamesRe.FindStringSubmatch(text); m != nil {
		parts := regexp.MustCompile(`\s*,\s*|\s+and\s+`).Split(m[1], -1)
		return strings.Join(parts, ", "), true
	}
	return "", false
}

// MeetingTitle extracts an explicit meeting title: a quoted phrase or one
// introduced by "about", "called", "titled" or "regarding". Deliberately
// conservative; a command like "schedule a meeting with John" carries no
// title and should leave the slot missing.
func MeetingTitle(text string) (string, bool) {
	if m := quotedRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := titleCueRe.FindStringSubmatch(text); m != nil {
		title := strings.TrimSpace(m[1])
		if title != "" {
			return title, true
		}
	}
	return "", false
}

// Recipient extracts an email recipient: the first email address, or a
// capitalized name following "email/mail/message to".
func Recipient(text string) (string, bool) {
	if emails := Emails(text); len(emails) > 0 {
		return emails[0], true
	}
	if m := toRecipientRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// Body extracts email body content introduced by "saying", "telling ...",
// or "message:".
func Body(text string) (string, bool) {
	for _, re := range bodyCueRes {
		if m := re.FindStringSubmatch(text); m != nil {
			body := strings.TrimSpace(strings.Trim(strings.TrimSpace(m[1]), `"'`))
			if body != "" {
				return body, true
			}
		}
	}
	return "", false
}

// indexWord returns the byte offset of the first whole-word occurrence of
// word in text, or -1.
func indexWord(text, word string) int {
	for from := 0; ; {
		idx := strings.Index(text[from:], word)
		if idx < 0 {
			return -1
		}
		idx += from
		before := idx == 0 || !isLetter(text[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(text) || !isLetter(text[afterIdx])
		if before && after {
			return idx
		}
		from = idx + len(word)
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
