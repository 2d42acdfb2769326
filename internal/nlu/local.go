package nlu

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/extract"
	"github.com/AvaWorks/TaskAssist/internal/models"
)

// Keyword vocabularies for the rule-based classifier.
var (
	meetingWords  = []string{"book", "schedule", "meeting", "appointment", "calendar"}
	emailWords    = []string{"email", "mail", "send"}
	greetingWords = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}

	// Pivot phrases signal the user is abandoning the current task.
	pivotWords = []string{"actually", "instead", "sorry", "wait", "no,"}
)

// Confidence levels for the local classifier. Keyword matching is either
// confident or silent, so these are fixed constants rather than scores.
const (
	localConfidence      = 0.85
	localPivotConfidence = 0.95
	greetingConfidence   = 0.9
)

// LocalProvider is the deterministic rule-based fallback: keyword intent
// matching plus regex/heuristic entity extraction. Given the same text and
// state it always returns the same result.
type LocalProvider struct {
	// now supplies the reference time for relative date resolution.
	// Injectable for reproducible tests.
	now func() time.Time
}

// NewLocalProvider creates the rule-based provider.
func NewLocalProvider() *LocalProvider {
	return &LocalProvider{now: time.Now}
}

// NewLocalProviderAt creates a rule-based provider with a fixed clock.
func NewLocalProviderAt(now func() time.Time) *LocalProvider {
	return &LocalProvider{now: now}
}

// Classify matches keyword vocabularies against the text. It never errors;
// when nothing matches it returns IntentNone with zero confidence.
func (p *LocalProvider) Classify(_ context.Context, text string, _ []models.Turn) (models.Classification, error) {
	lower := strings.ToLower(text)

	meetingHits := countHits(lower, meetingWords)
	emailHits := countHits(lower, emailWords)
	// "send" alone is ambiguous; an email-word hit only counts as an email
	// intent when it is not part of a meeting phrase with more evidence.
	confidence := localConfidence
	if countHits(lower, pivotWords) > 0 {
		confidence = localPivotConfidence
	}

	switch {
	case meetingHits > 0 && meetingHits >= emailHits:
		return models.Classification{Intent: models.IntentScheduleMeeting, Confidence: confidence}, nil
	case emailHits > 0:
		return models.Classification{Intent: models.IntentSendEmail, Confidence: confidence}, nil
	case countHits(lower, greetingWords) > 0:
		return models.Classification{Intent: models.IntentChitchat, Confidence: greetingConfidence}, nil
	default:
		return models.Classification{Intent: models.IntentNone, Confidence: 0}, nil
	}
}

// Extract applies the rule extractors for the active intent, then falls
// back to treating the whole message as the answer to the first missing
// free-text slot. That second step is what lets a bare "Project kickoff"
// reply fill the title the assistant just asked for.
func (p *LocalProvider) Extract(_ context.Context, text string, intent models.Intent, slots map[models.Slot]string, _ []models.Turn) (map[models.Slot]string, error) {
	updates := make(map[models.Slot]string)

	switch intent {
	case models.IntentScheduleMeeting:
		if title, ok := extract.MeetingTitle(text); ok {
			updates[models.SlotTitle] = title
		}
		if date, ok := extract.Date(text, p.now()); ok {
			updates[models.SlotDate] = date
		}
		if clock, ok := extract.Time(text); ok {
			updates[models.SlotTime] = clock
		}
		if participants, ok := extract.Participants(text); ok {
			updates[models.SlotParticipants] = participants
		}
	case models.IntentSendEmail:
		if recipient, ok := extract.Recipient(text); ok {
			updates[models.SlotRecipient] = recipient
		}
		if body, ok := extract.Body(text); ok {
			updates[models.SlotBody] = body
		}
	default:
		return updates, nil
	}

	if len(updates) == 0 {
		if slot, ok := p.bareAnswerSlot(text, intent, slots); ok {
			updates[slot] = strings.TrimSpace(text)
		}
	}

	slog.Debug("LocalProvider.Extract: rule extraction complete", "intent", intent, "updates", len(updates))
	return updates, nil
}

// bareAnswerSlot decides whether the whole message should fill the first
// missing slot. Only free-text slots qualify; dates and times must parse.
// Messages that look like new commands never qualify.
func (p *LocalProvider) bareAnswerSlot(text string, intent models.Intent, slots map[models.Slot]string) (models.Slot, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || len(trimmed) > 200 {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	if countHits(lower, meetingWords) > 0 || countHits(lower, emailWords) > 0 || countHits(lower, greetingWords) > 0 {
		return "", false
	}

	for _, slot := range models.RequiredSlots(intent) {
		if strings.TrimSpace(slots[slot]) != "" {
			continue
		}
		switch slot {
		case models.SlotTitle, models.SlotParticipants, models.SlotRecipient, models.SlotBody:
			return slot, true
		default:
			// First missing slot needs a parsable value; do not guess.
			return "", false
		}
	}
	return "", false
}

// countHits counts vocabulary entries present in the lower-cased text.
// Single words match on word boundaries so "this" never hits "hi"; phrases
// match as substrings.
func countHits(lower string, words []string) int {
	hits := 0
	for _, w := range words {
		if strings.ContainsAny(w, " ,") {
			if strings.Contains(lower, w) {
				hits++
			}
			continue
		}
		for _, token := range strings.FieldsFunc(lower, func(r rune) bool {
			return (r < 'a' || r > 'z') && (r < '0' || r > '9')
		}) {
			if token == w {
				hits++
				break
			}
		}
	}
	return hits
}
