package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/extract"
	"github.com/AvaWorks/TaskAssist/internal/genai"
	"github.com/AvaWorks/TaskAssist/internal/models"
)

const classifySystemPrompt = `You classify user messages for a task assistant.
The possible intents are:
- schedule_meeting: the user wants to book or schedule a meeting
- send_email: the user wants to send an email
- chitchat: greetings or general conversation

Consider the conversation context: the user may be supplying missing
information for a previous request, or switching from one task to another.

Reply with ONLY a JSON object, no prose:
{"intent": "<schedule_meeting|send_email|chitchat>", "confidence": <0.0-1.0>}`

const extractSystemPrompt = `You extract structured entities for a task assistant.
Extract ONLY information present in the current message; do not repeat
values already known. Reply with ONLY a JSON object of the form
{"entities": {...}}, using exactly these keys when present:
%s
Omit keys with no value. No prose.`

// RemoteProvider classifies and extracts via a generative model. It sends
// the message plus a bounded window of recent turns and the currently known
// slots as context, and expects a strict JSON reply. Any transport or parse
// failure surfaces as an error so the failover provider can switch to local
// rules for the turn.
type RemoteProvider struct {
	client genai.ClientInterface
	now    func() time.Time
}

// NewRemoteProvider creates a model-backed provider.
func NewRemoteProvider(client genai.ClientInterface) *RemoteProvider {
	return &RemoteProvider{client: client, now: time.Now}
}

type classifyReply struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

type extractReply struct {
	Entities map[string]string `json:"entities"`
}

// Classify asks the model for the intent of text.
func (p *RemoteProvider) Classify(ctx context.Context, text string, history []models.Turn) (models.Classification, error) {
	var sb strings.Builder
	for _, turn := range BoundHistory(history) {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Speaker, turn.Text)
	}
	fmt.Fprintf(&sb, "\nCurrent user input: %s", text)

	raw, err := p.client.GeneratePrompt(ctx, classifySystemPrompt, sb.String())
	if err != nil {
		return models.Classification{}, fmt.Errorf("remote classify failed: %w", err)
	}

	var reply classifyReply
	if err := json.Unmarshal([]byte(stripFences(raw)), &reply); err != nil {
		slog.Warn("RemoteProvider.Classify: unparsable reply", "error", err, "raw", truncate(raw, 200))
		return models.Classification{}, models.ErrNoConfidentResult
	}

	intent := models.Intent(strings.ToLower(strings.TrimSpace(reply.Intent)))
	if !models.IsValidIntent(intent) || intent == models.IntentNone {
		slog.Warn("RemoteProvider.Classify: unknown intent in reply", "intent", reply.Intent)
		return models.Classification{}, models.ErrNoConfidentResult
	}
	if reply.Confidence < 0 || reply.Confidence > 1 {
		return models.Classification{}, models.ErrNoConfidentResult
	}
	return models.Classification{Intent: intent, Confidence: reply.Confidence}, nil
}

// Extract asks the model for slot updates. Unknown or extra keys in the
// reply are dropped; dates and times are canonicalized through the same
// rules the local provider uses, so both providers emit identical shapes.
func (p *RemoteProvider) Extract(ctx context.Context, text string, intent models.Intent, slots map[models.Slot]string, history []models.Turn) (map[models.Slot]string, error) {
	if !models.IsTask(intent) {
		return map[models.Slot]string{}, nil
	}

	var keys []string
	for _, s := range models.RequiredSlots(intent) {
		keys = append(keys, string(s))
	}
	if intent == models.IntentSendEmail {
		keys = append(keys, string(models.SlotSubject))
	}

	var sb strings.Builder
	for _, turn := range BoundHistory(history) {
		fmt.Fprintf(&sb, "%s: %s\n", turn.Speaker, turn.Text)
	}
	known, _ := json.Marshal(slots)
	fmt.Fprintf(&sb, "\nAlready known entities: %s", known)
	fmt.Fprintf(&sb, "\nCurrent user input: %s", text)

	system := fmt.Sprintf(extractSystemPrompt, strings.Join(keys, ", "))
	raw, err := p.client.GeneratePrompt(ctx, system, sb.String())
	if err != nil {
		return nil, fmt.Errorf("remote extract failed: %w", err)
	}

	var reply extractReply
	if err := json.Unmarshal([]byte(stripFences(raw)), &reply); err != nil {
		slog.Warn("RemoteProvider.Extract: unparsable reply", "error", err, "raw", truncate(raw, 200))
		return nil, models.ErrNoConfidentResult
	}

	updates := make(map[models.Slot]string)
	for key, value := range reply.Entities {
		slot := models.Slot(strings.ToLower(strings.TrimSpace(key)))
		value = strings.TrimSpace(value)
		if value == "" || !models.DeclaresSlot(intent, slot) {
			continue
		}
		switch slot {
		case models.SlotDate:
			if date, ok := extract.Date(value, p.now()); ok {
				updates[slot] = date
			}
		case models.SlotTime:
			if clock, ok := extract.Time(value); ok {
				updates[slot] = clock
			}
		default:
			updates[slot] = value
		}
	}
	slog.Debug("RemoteProvider.Extract: extraction complete", "intent", intent, "updates", len(updates))
	return updates, nil
}

// stripFences removes markdown code fences models sometimes wrap JSON in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
