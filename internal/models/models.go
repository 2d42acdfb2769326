// Package models defines the core data structures for TaskAssist.
//
// It includes intents, dialogue stages, slot definitions, turn records and
// action records, which are shared across modules.
package models

import (
	"errors"
	"strings"
	"time"
)

// Intent identifies the user's high-level goal for the active sub-conversation.
type Intent string

const (
	// IntentScheduleMeeting books a meeting.
	IntentScheduleMeeting Intent = "schedule_meeting"
	// IntentSendEmail sends an email.
	IntentSendEmail Intent = "send_email"
	// IntentChitchat is general conversation that never collects slots.
	IntentChitchat Intent = "chitchat"
	// IntentNone means no goal has been detected.
	IntentNone Intent = "none"
)

// Stage is the dialogue state machine's current phase.
type Stage string

const (
	StageIdle       Stage = "IDLE"
	StageCollecting Stage = "COLLECTING"
	StageConfirming Stage = "CONFIRMING"
	StageExecuted   Stage = "TERMINAL_EXECUTED"
	StageCancelled  Stage = "TERMINAL_CANCELLED"
)

// Event drives transitions of the dialogue state machine.
type Event string

const (
	EventNewIntent     Event = "new_intent_detected"
	EventSlotsUpdated  Event = "slots_updated"
	EventUserConfirmed Event = "user_confirmed"
	EventUserDenied    Event = "user_denied"
	EventUserCancelled Event = "user_cancelled"
)

// Slot names a required piece of information for an intent.
type Slot string

const (
	SlotTitle        Slot = "title"
	SlotDate         Slot = "date"
	SlotTime         Slot = "time"
	SlotParticipants Slot = "participants"
	SlotRecipient    Slot = "recipient"
	SlotSubject      Slot = "subject"
	SlotBody         Slot = "body"
)

// requiredSlots maps each task intent to its required slots in declaration
// order. The order fixes which missing slot is asked about next.
var requiredSlots = map[Intent][]Slot{
	IntentScheduleMeeting: {SlotTitle, SlotDate, SlotTime, SlotParticipants},
	IntentSendEmail:       {SlotRecipient, SlotBody},
}

// RequiredSlots returns the ordered required slots for an intent. Chitchat
// and none have no slots.
func RequiredSlots(intent Intent) []Slot {
	slots := requiredSlots[intent]
	out := make([]Slot, len(slots))
	copy(out, slots)
	return out
}

// DeclaresSlot reports whether the intent declares the given slot, required
// or optional.
func DeclaresSlot(intent Intent, slot Slot) bool {
	for _, s := range requiredSlots[intent] {
		if s == slot {
			return true
		}
	}
	// Subject is optional for emails and defaulted at execution time.
	return intent == IntentSendEmail && slot == SlotSubject
}

// IsTask reports whether the intent collects slots and executes an action.
func IsTask(intent Intent) bool {
	return intent == IntentScheduleMeeting || intent == IntentSendEmail
}

// IsValidIntent checks if the given intent is supported.
func IsValidIntent(i Intent) bool {
	switch i {
	case IntentScheduleMeeting, IntentSendEmail, IntentChitchat, IntentNone:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the stage ends the logical sub-conversation.
func (s Stage) IsTerminal() bool {
	return s == StageExecuted || s == StageCancelled
}

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// Turn is a single utterance in a session's history.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// DialogueState is the per-session mutable record the tracker owns.
// Missing is a cache of RequiredSlots(Intent) minus the non-empty keys of
// Slots; it is recomputed every turn, never trusted across turns.
type DialogueState struct {
	Stage   Stage           `json:"stage"`
	Intent  Intent          `json:"intent"`
	Slots   map[Slot]string `json:"slots"`
	Missing []Slot          `json:"missing"`
}

// NewDialogueState returns the baseline state for a fresh sub-conversation.
func NewDialogueState() DialogueState {
	return DialogueState{
		Stage:  StageIdle,
		Intent: IntentNone,
		Slots:  make(map[Slot]string),
	}
}

// ActionType identifies the kind of executed action.
type ActionType string

const (
	ActionTypeMeeting ActionType = "meeting"
	ActionTypeEmail   ActionType = "email"
)

// ActionRecord is the immutable result of a successfully confirmed and
// executed intent. It is built once on the transition into
// TERMINAL(executed) and handed to the persistence sink exactly once.
type ActionRecord struct {
	ID        string            `json:"id"`
	SessionID string            `json:"session_id"`
	Type      ActionType        `json:"type"`
	Fields    map[string]string `json:"fields"`
	CreatedAt time.Time         `json:"created_at"`
}

// TurnRecord is the persisted form of one completed exchange.
type TurnRecord struct {
	SessionID         string          `json:"session_id"`
	UserMessage       string          `json:"user_message"`
	AssistantResponse string          `json:"assistant_response"`
	Intent            Intent          `json:"intent"`
	Slots             map[Slot]string `json:"slots,omitempty"`
	AwaitingConfirm   bool            `json:"awaiting_confirmation"`
	Timestamp         time.Time       `json:"timestamp"`
}

// Classification is the structured result of the capability boundary.
// Unknown or extra fields from the remote capability are dropped before a
// Classification is built.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Error variables for better error handling and testability.
var (
	ErrEmptySessionID    = errors.New("session id cannot be empty")
	ErrEmptyMessage      = errors.New("message cannot be empty")
	ErrMessageTooLong    = errors.New("message exceeds maximum length")
	ErrUnknownIntent     = errors.New("unknown intent")
	ErrUnknownEvent      = errors.New("unknown state machine event")
	ErrNotConfirmable    = errors.New("state has missing slots, cannot confirm")
	ErrNoConfidentResult = errors.New("no confident classification result")
)

// MaxMessageLength bounds a single user turn.
const MaxMessageLength = 4096

// ValidateMessage performs input validation on one inbound chat message.
func ValidateMessage(sessionID, text string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if len(text) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// APIStatus is the top-level status of an API response.
type APIStatus string

const (
	APIStatusOK    APIStatus = "ok"
	APIStatusError APIStatus = "error"
)

// APIResponse is the standard JSON envelope for every endpoint.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// ChatMessageRequest is the body of POST /api/messages.
type ChatMessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Validate checks the request against the message input rules.
func (r ChatMessageRequest) Validate() error {
	return ValidateMessage(r.SessionID, r.Message)
}

// ChatMessageResponse is the result payload of POST /api/messages.
type ChatMessageResponse struct {
	SessionID string `json:"session_id"`
	Response  string `json:"response"`
	Stage     Stage  `json:"stage"`
	Intent    Intent `json:"intent"`
}

// SessionResetRequest is the body of POST /api/sessions/reset.
type SessionResetRequest struct {
	SessionID string `json:"session_id"`
}

// SessionResetResponse carries the replacement session id.
type SessionResetResponse struct {
	SessionID string `json:"session_id"`
}
