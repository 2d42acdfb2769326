// Package dialogue drives one conversation turn end to end: classification,
// extraction, slot merging, stage transitions, and action execution.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/action"
	"github.com/AvaWorks/TaskAssist/internal/models"
	"github.com/AvaWorks/TaskAssist/internal/nlu"
	"github.com/AvaWorks/TaskAssist/internal/session"
	"github.com/AvaWorks/TaskAssist/internal/store"
)

// DefaultSwitchThreshold is the minimum classifier confidence needed for a
// different task intent to replace the active one mid-conversation.
const DefaultSwitchThreshold = 0.7

// sinkWarning is appended to a success reply when persistence failed. The
// action still counts as executed; only durability suffered.
const sinkWarning = " (Note: I could not save the details to storage.)"

// Orchestrator coordinates the per-turn pipeline for all sessions.
type Orchestrator struct {
	registry *session.Registry
	provider nlu.Provider
	executor *action.Executor
	store    store.Store
	outbox   *store.Outbox

	switchThreshold float64
}

// NewOrchestrator wires the orchestrator's collaborators. outbox may be nil
// when per-action files are disabled.
func NewOrchestrator(registry *session.Registry, provider nlu.Provider, executor *action.Executor, st store.Store, outbox *store.Outbox) *Orchestrator {
	return &Orchestrator{
		registry:        registry,
		provider:        provider,
		executor:        executor,
		store:           st,
		outbox:          outbox,
		switchThreshold: DefaultSwitchThreshold,
	}
}

// SetSwitchThreshold overrides the intent switch confidence threshold.
func (o *Orchestrator) SetSwitchThreshold(threshold float64) {
	o.switchThreshold = threshold
}

// ProcessMessage runs one turn for a session and returns the assistant's
// reply. The session's per-key lock is held for the whole turn, so a
// session's turns are strictly sequential; a turn always runs to
// completion.
func (o *Orchestrator) ProcessMessage(ctx context.Context, sessionID, text string) (string, error) {
	if err := models.ValidateMessage(sessionID, text); err != nil {
		return "", err
	}

	tracker, release := o.registry.Acquire(sessionID)
	defer release()

	// A message after a terminal stage starts a fresh sub-conversation;
	// the session and its history are retained.
	if tracker.State().Stage.IsTerminal() {
		tracker.ResetSubConversation()
	}

	tracker.AppendTurn(models.SpeakerUser, text)
	history := nlu.BoundHistory(tracker.History())

	response := o.runTurn(ctx, tracker, text, history)

	tracker.AppendTurn(models.SpeakerAssistant, response)
	o.persistTurn(tracker, text, response)

	slog.Info("Orchestrator.ProcessMessage: turn complete",
		"sessionID", session.ShortID(sessionID),
		"stage", tracker.State().Stage,
		"intent", tracker.State().Intent)
	return response, nil
}

// runTurn executes the turn pipeline against an acquired tracker.
func (o *Orchestrator) runTurn(ctx context.Context, tracker *session.Tracker, text string, history []models.Turn) string {
	state := tracker.State()

	if state.Stage == models.StageConfirming {
		switch ParseConfirmation(text) {
		case ConfirmYes:
			return o.executeConfirmed(tracker)
		case ConfirmNo:
			return o.cancel(tracker, models.EventUserDenied)
		case ConfirmCancel:
			return o.cancel(tracker, models.EventUserCancelled)
		}
		// Not a yes/no: the user may be switching tasks or correcting a
		// detail; fall through to the regular pipeline.
	}

	classification := o.classify(ctx, text, history)
	o.applyIntent(tracker, classification)
	state = tracker.State()

	if !models.IsTask(state.Intent) {
		if classification.Intent == models.IntentChitchat {
			return chitchatReply(text)
		}
		return genericReply
	}

	updates, err := o.provider.Extract(ctx, text, state.Intent, state.Slots, history)
	if err != nil {
		// Extraction is best-effort; an empty update re-asks the question.
		slog.Warn("Orchestrator.runTurn: extraction failed", "error", err, "sessionID", session.ShortID(tracker.SessionID()))
		updates = nil
	}
	tracker.MergeSlots(updates)
	if tracker.State().Stage == models.StageCollecting {
		if err := tracker.Transition(models.EventSlotsUpdated); err != nil {
			slog.Error("Orchestrator.runTurn: slots_updated transition failed", "error", err, "stage", tracker.State().Stage)
		}
	}

	state = tracker.State()
	switch state.Stage {
	case models.StageConfirming:
		return confirmationFor(state.Intent, state.Slots)
	default:
		return questionFor(state.Missing)
	}
}

// classify runs the capability provider; classification failures are never
// surfaced, they just mean no confident intent this turn.
func (o *Orchestrator) classify(ctx context.Context, text string, history []models.Turn) models.Classification {
	classification, err := o.provider.Classify(ctx, text, history)
	if err != nil {
		slog.Warn("Orchestrator.classify: classification unavailable", "error", err)
		return models.Classification{Intent: models.IntentNone}
	}
	return classification
}

// applyIntent fires new_intent_detected when a task intent first appears or
// when a different task intent wins above the switch threshold. Chitchat
// and none never replace an active task: mid-collection answers routinely
// classify as neither.
func (o *Orchestrator) applyIntent(tracker *session.Tracker, classification models.Classification) {
	if !models.IsTask(classification.Intent) {
		return
	}
	active := tracker.State().Intent
	if classification.Intent == active {
		return
	}
	if models.IsTask(active) && classification.Confidence < o.switchThreshold {
		slog.Debug("Orchestrator.applyIntent: below switch threshold",
			"active", active, "candidate", classification.Intent, "confidence", classification.Confidence)
		return
	}
	tracker.NewIntentDetected(classification.Intent)
}

// executeConfirmed transitions to TERMINAL(executed), builds the
// ActionRecord, and hands it to the sink. Sink failures downgrade to a
// warning; the action semantically already happened.
func (o *Orchestrator) executeConfirmed(tracker *session.Tracker) string {
	if err := tracker.Transition(models.EventUserConfirmed); err != nil {
		slog.Error("Orchestrator.executeConfirmed: transition failed", "error", err)
		return genericReply
	}

	state := tracker.State()
	record, err := o.executor.Execute(tracker.SessionID(), state.Intent, state.Slots)
	if err != nil {
		slog.Error("Orchestrator.executeConfirmed: execution failed", "error", err, "intent", state.Intent)
		return genericReply
	}

	response := successFor(record)
	if !o.handToSink(record) {
		response += sinkWarning
	}
	return response
}

// handToSink writes the action to the all-actions log and the outbox.
// Returns false when any write failed.
func (o *Orchestrator) handToSink(record models.ActionRecord) bool {
	ok := true
	if err := o.store.SaveAction(record); err != nil {
		slog.Warn("Orchestrator.handToSink: action log write failed", "error", err, "actionID", record.ID)
		ok = false
	}
	if o.outbox != nil {
		if err := o.outbox.WriteAction(record); err != nil {
			slog.Warn("Orchestrator.handToSink: outbox write failed", "error", err, "actionID", record.ID)
			ok = false
		}
	}
	return ok
}

// cancel transitions into TERMINAL(cancelled) and resets to IDLE so the
// session is immediately re-enterable.
func (o *Orchestrator) cancel(tracker *session.Tracker, event models.Event) string {
	if err := tracker.Transition(event); err != nil {
		slog.Error("Orchestrator.cancel: transition failed", "error", err)
	}
	tracker.ResetSubConversation()
	return cancelReply
}

// persistTurn records the completed exchange. Failures are soft; the
// conversation continues regardless.
func (o *Orchestrator) persistTurn(tracker *session.Tracker, userMessage, response string) {
	state := tracker.State()
	rec := models.TurnRecord{
		SessionID:         tracker.SessionID(),
		UserMessage:       userMessage,
		AssistantResponse: response,
		Intent:            state.Intent,
		Slots:             state.Slots,
		AwaitingConfirm:   state.Stage == models.StageConfirming,
		Timestamp:         time.Now(),
	}
	if err := o.store.SaveTurn(rec); err != nil {
		slog.Warn("Orchestrator.persistTurn: turn write failed", "error", err, "sessionID", session.ShortID(tracker.SessionID()))
	}
}

// ResetSession archives the current session and starts a new one,
// returning the new session id.
func (o *Orchestrator) ResetSession(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", models.ErrEmptySessionID
	}
	newID, _ := o.registry.Reset(sessionID)
	return newID, nil
}

// SessionState returns a point-in-time view of a session's dialogue state,
// or an error when the session is unknown. The registry clones the state
// under the session's lock, so polling state during a turn is safe.
func (o *Orchestrator) SessionState(sessionID string) (models.DialogueState, error) {
	state, ok := o.registry.StateOf(sessionID)
	if !ok {
		return models.DialogueState{}, fmt.Errorf("unknown session %s", session.ShortID(sessionID))
	}
	return state, nil
}

// SessionHistory returns the recorded turns for a session.
func (o *Orchestrator) SessionHistory(sessionID string, limit int) ([]models.TurnRecord, error) {
	return o.store.GetTurnHistory(sessionID, limit)
}

// ActiveSessions reports how many sessions currently hold in-memory state.
func (o *Orchestrator) ActiveSessions() int {
	return len(o.registry.All())
}
