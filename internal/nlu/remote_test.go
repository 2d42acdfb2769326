package nlu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/models"
	"github.com/openai/openai-go"
)

// mockGenAIClient returns canned replies or errors.
type mockGenAIClient struct {
	reply string
	err   error
	calls int
}

func (m *mockGenAIClient) GeneratePrompt(ctx context.Context, system, user string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockGenAIClient) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func TestRemoteClassifyParsesJSON(t *testing.T) {
	mock := &mockGenAIClient{reply: `{"intent": "schedule_meeting", "confidence": 0.92}`}
	p := NewRemoteProvider(mock)

	got, err := p.Classify(context.Background(), "book a meeting", nil)
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if got.Intent != models.IntentScheduleMeeting || got.Confidence != 0.92 {
		t.Errorf("unexpected classification: %+v", got)
	}
}

func TestRemoteClassifyStripsCodeFences(t *testing.T) {
	mock := &mockGenAIClient{reply: "```json\n{\"intent\": \"send_email\", \"confidence\": 0.8}\n```"}
	p := NewRemoteProvider(mock)

	got, err := p.Classify(context.Background(), "mail sara", nil)
	if err != nil {
		t.Fatalf("Classify error: %v", err)
	}
	if got.Intent != models.IntentSendEmail {
		t.Errorf("expected send_email, got %s", got.Intent)
	}
}

func TestRemoteClassifyMalformedReply(t *testing.T) {
	for _, reply := range []string{"not json at all", `{"intent": "make_coffee", "confidence": 0.9}`, `{"intent": "send_email", "confidence": 3}`} {
		p := NewRemoteProvider(&mockGenAIClient{reply: reply})
		_, err := p.Classify(context.Background(), "whatever", nil)
		if !errors.Is(err, models.ErrNoConfidentResult) {
			t.Errorf("reply %q: expected ErrNoConfidentResult, got %v", reply, err)
		}
	}
}

func TestRemoteExtractDropsUnknownFields(t *testing.T) {
	mock := &mockGenAIClient{reply: `{"entities": {"title": "Kickoff", "mood": "excited", "recipient": "x@y.z"}}`}
	p := NewRemoteProvider(mock)

	updates, err := p.Extract(context.Background(), "schedule kickoff", models.IntentScheduleMeeting, map[models.Slot]string{}, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if updates[models.SlotTitle] != "Kickoff" {
		t.Errorf("expected title, got %v", updates)
	}
	if _, ok := updates["mood"]; ok {
		t.Errorf("unknown field must be dropped")
	}
	if _, ok := updates[models.SlotRecipient]; ok {
		t.Errorf("recipient is not a meeting slot, must be dropped")
	}
}

func TestRemoteExtractCanonicalizesDateAndTime(t *testing.T) {
	mock := &mockGenAIClient{reply: `{"entities": {"date": "tomorrow", "time": "3pm"}}`}
	p := NewRemoteProvider(mock)
	p.now = func() time.Time { return refNow }

	updates, err := p.Extract(context.Background(), "tomorrow at 3pm", models.IntentScheduleMeeting, map[models.Slot]string{}, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if updates[models.SlotDate] != "2025-03-15" {
		t.Errorf("expected canonical date, got %q", updates[models.SlotDate])
	}
	if updates[models.SlotTime] != "15:00" {
		t.Errorf("expected canonical time, got %q", updates[models.SlotTime])
	}
}

func TestRemoteExtractUnparsableDateDropped(t *testing.T) {
	mock := &mockGenAIClient{reply: `{"entities": {"date": "whenever", "title": "Sync"}}`}
	p := NewRemoteProvider(mock)

	updates, err := p.Extract(context.Background(), "sync whenever", models.IntentScheduleMeeting, map[models.Slot]string{}, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if _, ok := updates[models.SlotDate]; ok {
		t.Errorf("unparsable date must stay missing, got %v", updates)
	}
	if updates[models.SlotTitle] != "Sync" {
		t.Errorf("expected title kept, got %v", updates)
	}
}
