package models

import (
	"errors"
	"strings"
	"testing"
)

func TestRequiredSlots(t *testing.T) {
	meeting := RequiredSlots(IntentScheduleMeeting)
	wantMeeting := []Slot{SlotTitle, SlotDate, SlotTime, SlotParticipants}
	if len(meeting) != len(wantMeeting) {
		t.Fatalf("meeting slots = %v", meeting)
	}
	for i, slot := range wantMeeting {
		if meeting[i] != slot {
			t.Errorf("meeting slot %d = %s, want %s", i, meeting[i], slot)
		}
	}

	email := RequiredSlots(IntentSendEmail)
	if len(email) != 2 || email[0] != SlotRecipient || email[1] != SlotBody {
		t.Errorf("email slots = %v", email)
	}

	if slots := RequiredSlots(IntentChitchat); len(slots) != 0 {
		t.Errorf("chitchat slots = %v", slots)
	}

	// Callers must not be able to mutate the canonical ordering.
	meeting[0] = SlotBody
	if again := RequiredSlots(IntentScheduleMeeting); again[0] != SlotTitle {
		t.Errorf("RequiredSlots shares its backing array")
	}
}

func TestDeclaresSlot(t *testing.T) {
	if !DeclaresSlot(IntentSendEmail, SlotSubject) {
		t.Errorf("subject should be declared for email")
	}
	if DeclaresSlot(IntentSendEmail, SlotDate) {
		t.Errorf("date should not be declared for email")
	}
	if DeclaresSlot(IntentScheduleMeeting, SlotRecipient) {
		t.Errorf("recipient should not be declared for meetings")
	}
	if !DeclaresSlot(IntentScheduleMeeting, SlotTime) {
		t.Errorf("time should be declared for meetings")
	}
}

func TestStageIsTerminal(t *testing.T) {
	for stage, want := range map[Stage]bool{
		StageIdle:       false,
		StageCollecting: false,
		StageConfirming: false,
		StageExecuted:   true,
		StageCancelled:  true,
	} {
		if got := stage.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", stage, got, want)
		}
	}
}

func TestIsTask(t *testing.T) {
	if !IsTask(IntentScheduleMeeting) || !IsTask(IntentSendEmail) {
		t.Errorf("task intents not recognized")
	}
	if IsTask(IntentChitchat) || IsTask(IntentNone) {
		t.Errorf("non-task intents treated as tasks")
	}
}

func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage("s1", "hello"); err != nil {
		t.Errorf("valid message rejected: %v", err)
	}
	if err := ValidateMessage("", "hello"); !errors.Is(err, ErrEmptySessionID) {
		t.Errorf("empty session id: %v", err)
	}
	if err := ValidateMessage("s1", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty message: %v", err)
	}
	if err := ValidateMessage("s1", "  \t "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("whitespace message: %v", err)
	}
	if err := ValidateMessage("s1", strings.Repeat("x", MaxMessageLength+1)); !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("oversized message: %v", err)
	}
}

func TestNewDialogueState(t *testing.T) {
	state := NewDialogueState()
	if state.Stage != StageIdle || state.Intent != IntentNone {
		t.Errorf("baseline = %s/%s", state.Stage, state.Intent)
	}
	if state.Slots == nil || len(state.Slots) != 0 {
		t.Errorf("slots = %v", state.Slots)
	}
}
