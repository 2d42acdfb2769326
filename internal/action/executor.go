// Package action materializes confirmed intents into canonical action
// records. Execution is local record construction; scheduling and sending
// are simulated against the persistence sink, not live services.
package action

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/AvaWorks/TaskAssist/internal/models"
	"github.com/google/uuid"
)

// DefaultEmailSubject is used when the user never supplied a subject.
const DefaultEmailSubject = "No subject"

// Executor maps filled slots to immutable ActionRecords.
type Executor struct {
	now func() time.Time
}

// NewExecutor creates an executor with the system clock.
func NewExecutor() *Executor {
	return &Executor{now: time.Now}
}

// NewExecutorAt creates an executor with a fixed clock for tests.
func NewExecutorAt(now func() time.Time) *Executor {
	return &Executor{now: now}
}

// Execute builds the ActionRecord for a confirmed intent. The slot set must
// be complete; missing required slots are an error, since the state machine
// only reaches execution with empty missing.
func (e *Executor) Execute(sessionID string, intent models.Intent, slots map[models.Slot]string) (models.ActionRecord, error) {
	for _, slot := range models.RequiredSlots(intent) {
		if slots[slot] == "" {
			return models.ActionRecord{}, fmt.Errorf("cannot execute %s with missing slot %s", intent, slot)
		}
	}

	createdAt := e.now()
	record := models.ActionRecord{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		CreatedAt: createdAt,
	}

	switch intent {
	case models.IntentScheduleMeeting:
		record.Type = models.ActionTypeMeeting
		record.Fields = map[string]string{
			"type":         string(models.ActionTypeMeeting),
			"title":        slots[models.SlotTitle],
			"date":         slots[models.SlotDate],
			"time":         slots[models.SlotTime],
			"participants": slots[models.SlotParticipants],
			"created_at":   createdAt.Format(time.RFC3339),
		}
	case models.IntentSendEmail:
		subject := slots[models.SlotSubject]
		if subject == "" {
			subject = DefaultEmailSubject
		}
		record.Type = models.ActionTypeEmail
		record.Fields = map[string]string{
			"type":       string(models.ActionTypeEmail),
			"recipient":  slots[models.SlotRecipient],
			"subject":    subject,
			"body":       slots[models.SlotBody],
			"created_at": createdAt.Format(time.RFC3339),
		}
	default:
		return models.ActionRecord{}, fmt.Errorf("%w: %s is not executable", models.ErrUnknownIntent, intent)
	}

	slog.Info("Executor.Execute: action record built", "type", record.Type, "id", record.ID, "sessionID", sessionID)
	return record, nil
}
