// Package session owns per-session dialogue state: the slot-filling state
// machine, turn history, and the registry of concurrently active sessions.
package session

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

// Tracker owns the DialogueState and turn history for one session. It is
// not safe for concurrent use; the Registry serializes access per session.
type Tracker struct {
	sessionID string
	state     models.DialogueState
	history   []models.Turn
	createdAt time.Time
}

// NewTracker creates a tracker with baseline state.
func NewTracker(sessionID string) *Tracker {
	return &Tracker{
		sessionID: sessionID,
		state:     models.NewDialogueState(),
		createdAt: time.Now(),
	}
}

// SessionID returns the opaque session identifier.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// State returns a copy of the current dialogue state. The slot map and
// missing slice are cloned so callers cannot mutate tracker internals.
func (t *Tracker) State() models.DialogueState {
	state := t.state
	state.Slots = make(map[models.Slot]string, len(t.state.Slots))
	for k, v := range t.state.Slots {
		state.Slots[k] = v
	}
	state.Missing = append([]models.Slot(nil), t.state.Missing...)
	return state
}

// History returns the session's turns in order.
func (t *Tracker) History() []models.Turn {
	return append([]models.Turn(nil), t.history...)
}

// AppendTurn records an utterance in the session history.
func (t *Tracker) AppendTurn(speaker models.Speaker, text string) {
	t.history = append(t.history, models.Turn{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now(),
	})
}

// NewIntentDetected switches the active intent: slots and missing reset to
// the new intent's baseline and the stage enters COLLECTING. Old slots
// never leak into the new intent's slot set.
func (t *Tracker) NewIntentDetected(intent models.Intent) {
	slog.Debug("Tracker.NewIntentDetected: switching intent", "sessionID", t.sessionID, "from", t.state.Intent, "to", intent)
	t.state.Intent = intent
	t.state.Slots = make(map[models.Slot]string)
	t.state.Stage = models.StageCollecting
	t.state.Missing = t.RecomputeMissing()
}

// MergeSlots merges slot updates extracted under the active intent. An
// update is accepted when the slot is currently unset, or when it is set
// and the new value is non-empty (a correction, last write wins). Updates
// for slots the active intent does not declare are ignored. Values from a
// different intent never reach this point: an intent switch goes through
// NewIntentDetected, which resets the slot set first.
func (t *Tracker) MergeSlots(updates map[models.Slot]string) {
	for slot, value := range updates {
		if !models.DeclaresSlot(t.state.Intent, slot) {
			slog.Debug("Tracker.MergeSlots: ignoring undeclared slot", "sessionID", t.sessionID, "slot", slot, "intent", t.state.Intent)
			continue
		}
		value = strings.TrimSpace(value)
		current, set := t.state.Slots[slot]
		switch {
		case !set || current == "":
			if value != "" {
				t.state.Slots[slot] = value
			}
		case value != "":
			if value != current {
				slog.Debug("Tracker.MergeSlots: correcting slot", "sessionID", t.sessionID, "slot", slot)
			}
			t.state.Slots[slot] = value
		}
	}
	t.state.Missing = t.RecomputeMissing()
}

// RecomputeMissing derives the ordered missing-slot list purely from the
// active intent and current slots: required slots minus keys present and
// non-empty, preserving declared order.
func (t *Tracker) RecomputeMissing() []models.Slot {
	var missing []models.Slot
	for _, slot := range models.RequiredSlots(t.state.Intent) {
		if strings.TrimSpace(t.state.Slots[slot]) == "" {
			missing = append(missing, slot)
		}
	}
	return missing
}

// Transition applies a state machine event. Transitions not in the table
// are errors; in particular CONFIRMING is only reachable when no required
// slot is missing.
func (t *Tracker) Transition(event models.Event) error {
	switch event {
	case models.EventSlotsUpdated:
		if t.state.Stage != models.StageCollecting {
			return fmt.Errorf("event %s in stage %s: %w", event, t.state.Stage, models.ErrUnknownEvent)
		}
		t.state.Missing = t.RecomputeMissing()
		if len(t.state.Missing) == 0 {
			t.setStage(models.StageConfirming)
		}
		return nil

	case models.EventUserConfirmed:
		if t.state.Stage != models.StageConfirming {
			return fmt.Errorf("event %s in stage %s: %w", event, t.state.Stage, models.ErrUnknownEvent)
		}
		if missing := t.RecomputeMissing(); len(missing) != 0 {
			return fmt.Errorf("%w: %v", models.ErrNotConfirmable, missing)
		}
		t.setStage(models.StageExecuted)
		return nil

	case models.EventUserDenied, models.EventUserCancelled:
		if t.state.Stage != models.StageConfirming {
			return fmt.Errorf("event %s in stage %s: %w", event, t.state.Stage, models.ErrUnknownEvent)
		}
		t.setStage(models.StageCancelled)
		return nil

	case models.EventNewIntent:
		// Intent switches carry a payload; use NewIntentDetected.
		return fmt.Errorf("%w: %s requires an intent payload", models.ErrUnknownEvent, event)

	default:
		return fmt.Errorf("%w: %s", models.ErrUnknownEvent, event)
	}
}

// ResetSubConversation returns the state to baseline while retaining the
// session's turn history. Called after a terminal stage so the next message
// starts a fresh logical sub-conversation.
func (t *Tracker) ResetSubConversation() {
	slog.Debug("Tracker.ResetSubConversation", "sessionID", t.sessionID, "fromStage", t.state.Stage)
	t.state = models.NewDialogueState()
}

func (t *Tracker) setStage(stage models.Stage) {
	slog.Debug("Tracker.setStage", "sessionID", t.sessionID, "from", t.state.Stage, "to", stage)
	t.state.Stage = stage
}
