package action

import (
	"testing"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

var refNow = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

func fixedExecutor() *Executor {
	return NewExecutorAt(func() time.Time { return refNow })
}

func TestExecuteMeeting(t *testing.T) {
	e := fixedExecutor()
	record, err := e.Execute("s1", models.IntentScheduleMeeting, map[models.Slot]string{
		models.SlotTitle:        "Project kickoff",
		models.SlotDate:         "2025-03-15",
		models.SlotTime:         "15:00",
		models.SlotParticipants: "John",
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if record.Type != models.ActionTypeMeeting {
		t.Errorf("expected meeting record, got %s", record.Type)
	}
	if record.Fields["type"] != "meeting" || record.Fields["title"] != "Project kickoff" {
		t.Errorf("unexpected fields: %v", record.Fields)
	}
	if record.Fields["created_at"] != "2025-03-14T10:00:00Z" {
		t.Errorf("expected RFC3339 created_at, got %q", record.Fields["created_at"])
	}
	if record.ID == "" {
		t.Errorf("expected generated action id")
	}
}

func TestExecuteEmailDefaultsSubject(t *testing.T) {
	e := fixedExecutor()
	record, err := e.Execute("s1", models.IntentSendEmail, map[models.Slot]string{
		models.SlotRecipient: "john@example.com",
		models.SlotBody:      "the demo is ready",
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if record.Fields["subject"] != DefaultEmailSubject {
		t.Errorf("expected defaulted subject, got %q", record.Fields["subject"])
	}
	if record.Fields["recipient"] != "john@example.com" {
		t.Errorf("unexpected fields: %v", record.Fields)
	}
}

func TestExecuteMissingSlotFails(t *testing.T) {
	e := fixedExecutor()
	_, err := e.Execute("s1", models.IntentSendEmail, map[models.Slot]string{
		models.SlotRecipient: "john@example.com",
	})
	if err == nil {
		t.Fatalf("expected error for missing body slot")
	}
}

func TestExecuteChitchatNotExecutable(t *testing.T) {
	e := fixedExecutor()
	if _, err := e.Execute("s1", models.IntentChitchat, nil); err == nil {
		t.Fatalf("chitchat must not be executable")
	}
}
