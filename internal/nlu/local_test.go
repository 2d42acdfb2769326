package nlu

import (
	"context"
	"testing"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

// Fixed reference time: Friday 2025-03-14.
var refNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func fixedLocal() *LocalProvider {
	return NewLocalProviderAt(func() time.Time { return refNow })
}

func TestLocalClassify(t *testing.T) {
	p := fixedLocal()
	ctx := context.Background()

	cases := []struct {
		text string
		want models.Intent
	}{
		{"I want to schedule a meeting with John", models.IntentScheduleMeeting},
		{"book an appointment for tomorrow", models.IntentScheduleMeeting},
		{"send an email to sara@example.com", models.IntentSendEmail},
		{"hello there!", models.IntentChitchat},
		{"good morning", models.IntentChitchat},
		{"Project kickoff", models.IntentNone},
	}
	for _, c := range cases {
		got, err := p.Classify(ctx, c.text, nil)
		if err != nil {
			t.Fatalf("Classify(%q) error: %v", c.text, err)
		}
		if got.Intent != c.want {
			t.Errorf("Classify(%q) = %s, want %s", c.text, got.Intent, c.want)
		}
	}
}

func TestLocalClassifyPivotBoost(t *testing.T) {
	p := fixedLocal()
	plain, _ := p.Classify(context.Background(), "send an email", nil)
	pivot, _ := p.Classify(context.Background(), "actually, send an email instead", nil)
	if pivot.Confidence <= plain.Confidence {
		t.Errorf("pivot phrasing should boost confidence: plain=%v pivot=%v", plain.Confidence, pivot.Confidence)
	}
}

func TestLocalClassifyDeterministic(t *testing.T) {
	p := fixedLocal()
	first, _ := p.Classify(context.Background(), "schedule a meeting tomorrow", nil)
	for i := 0; i < 10; i++ {
		again, _ := p.Classify(context.Background(), "schedule a meeting tomorrow", nil)
		if again != first {
			t.Fatalf("classification not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestLocalExtractMeeting(t *testing.T) {
	p := fixedLocal()
	updates, err := p.Extract(context.Background(), "I want to schedule a meeting with John tomorrow at 3pm", models.IntentScheduleMeeting, map[models.Slot]string{}, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if updates[models.SlotDate] != "2025-03-15" {
		t.Errorf("expected tomorrow's date, got %q", updates[models.SlotDate])
	}
	if updates[models.SlotTime] != "15:00" {
		t.Errorf("expected 15:00, got %q", updates[models.SlotTime])
	}
	if updates[models.SlotParticipants] != "John" {
		t.Errorf("expected John, got %q", updates[models.SlotParticipants])
	}
	if _, ok := updates[models.SlotTitle]; ok {
		t.Errorf("bare scheduling command must not produce a title")
	}
}

func TestLocalExtractBareAnswerFillsFirstMissing(t *testing.T) {
	p := fixedLocal()
	slots := map[models.Slot]string{
		models.SlotDate:         "2025-03-15",
		models.SlotTime:         "15:00",
		models.SlotParticipants: "John",
	}
	updates, err := p.Extract(context.Background(), "Project kickoff", models.IntentScheduleMeeting, slots, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if updates[models.SlotTitle] != "Project kickoff" {
		t.Errorf("expected bare answer to fill title, got %v", updates)
	}
}

func TestLocalExtractBareAnswerNeverGuessesDates(t *testing.T) {
	p := fixedLocal()
	slots := map[models.Slot]string{models.SlotTitle: "Sync"}
	// First missing slot is date; free text must not fill it.
	updates, err := p.Extract(context.Background(), "whenever works", models.IntentScheduleMeeting, slots, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("expected no updates for unparsable date answer, got %v", updates)
	}
}

func TestLocalExtractGreetingNotASlotValue(t *testing.T) {
	p := fixedLocal()
	updates, err := p.Extract(context.Background(), "hello", models.IntentScheduleMeeting, map[models.Slot]string{}, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("greeting must not fill slots, got %v", updates)
	}
}

func TestLocalExtractEmail(t *testing.T) {
	p := fixedLocal()
	updates, err := p.Extract(context.Background(), "send an email to john@example.com saying the report is done", models.IntentSendEmail, map[models.Slot]string{}, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if updates[models.SlotRecipient] != "john@example.com" {
		t.Errorf("expected recipient, got %q", updates[models.SlotRecipient])
	}
	if updates[models.SlotBody] != "the report is done" {
		t.Errorf("expected body, got %q", updates[models.SlotBody])
	}
}

func TestLocalExtractNothingMatches(t *testing.T) {
	p := fixedLocal()
	updates, err := p.Extract(context.Background(), "tell me a joke", models.IntentChitchat, map[models.Slot]string{}, nil)
	if err != nil {
		t.Fatalf("Extract must not error, got: %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("chitchat extraction must be empty, got %v", updates)
	}
}
