// Package nlu provides the classifier/extractor capability for TaskAssist.
//
// Two providers implement the same contract: a remote provider backed by a
// generative model and a local rule-based provider. The failover provider
// composes them so that remote errors degrade extraction quality instead of
// breaking the conversation.
package nlu

import (
	"context"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

// HistoryWindow bounds how many recent turns are handed to a provider as
// context.
const HistoryWindow = 5

// Provider classifies intents and extracts slot values from user text.
type Provider interface {
	// Classify determines the intent of text given recent history.
	Classify(ctx context.Context, text string, history []models.Turn) (models.Classification, error)

	// Extract returns partial slot updates for the active intent. Slots the
	// intent does not declare must not appear in the result.
	Extract(ctx context.Context, text string, intent models.Intent, slots map[models.Slot]string, history []models.Turn) (map[models.Slot]string, error)
}

// BoundHistory returns at most the last HistoryWindow turns.
func BoundHistory(history []models.Turn) []models.Turn {
	if len(history) <= HistoryWindow {
		return history
	}
	return history[len(history)-HistoryWindow:]
}
