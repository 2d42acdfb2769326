package dialogue

import (
	"fmt"
	"strings"

	"github.com/AvaWorks/TaskAssist/internal/models"
)

// slotQuestions maps each slot to the question asked when it is the first
// missing one. One slot per question keeps the prompting deterministic.
var slotQuestions = map[models.Slot]string{
	models.SlotTitle:        "What should I call this meeting?",
	models.SlotDate:         "What date would you like to schedule this meeting?",
	models.SlotTime:         "What time should the meeting be?",
	models.SlotParticipants: "Who should I invite to this meeting? Please provide their names or email addresses.",
	models.SlotRecipient:    "Who should I send the email to? Please provide their email address.",
	models.SlotBody:         "What should the email say?",
}

const (
	greetingReply = "Hello! I can help you schedule meetings or send emails. What would you like to do?"
	genericReply  = "I'm here to help you schedule meetings and send emails. What can I do for you?"
	cancelReply   = "Action cancelled. How else can I help you?"
)

// questionFor returns the question for the first missing slot.
func questionFor(missing []models.Slot) string {
	if len(missing) == 0 {
		return ""
	}
	if q, ok := slotQuestions[missing[0]]; ok {
		return q
	}
	return fmt.Sprintf("Could you tell me the %s?", missing[0])
}

// confirmationFor builds the human-readable yes/no summary of all
// collected slots.
func confirmationFor(intent models.Intent, slots map[models.Slot]string) string {
	switch intent {
	case models.IntentScheduleMeeting:
		summary := fmt.Sprintf("Do you want me to book '%s' on %s at %s",
			slots[models.SlotTitle], slots[models.SlotDate], slots[models.SlotTime])
		if participants := slots[models.SlotParticipants]; participants != "" {
			summary += " with " + participants
		}
		return summary + "?"
	case models.IntentSendEmail:
		summary := fmt.Sprintf("Do you want me to send an email to %s", slots[models.SlotRecipient])
		if subject := slots[models.SlotSubject]; subject != "" {
			summary += fmt.Sprintf(" with subject '%s'", subject)
		}
		return summary + fmt.Sprintf(" saying: '%s'?", slots[models.SlotBody])
	default:
		return "Do you want me to proceed with this action?"
	}
}

// successFor builds the success acknowledgment for an executed action,
// echoing its defining fields.
func successFor(record models.ActionRecord) string {
	switch record.Type {
	case models.ActionTypeMeeting:
		return fmt.Sprintf("Done! Meeting '%s' has been booked for %s at %s with %s.",
			record.Fields["title"], record.Fields["date"], record.Fields["time"], record.Fields["participants"])
	case models.ActionTypeEmail:
		return fmt.Sprintf("Done! Email sent to %s.", record.Fields["recipient"])
	default:
		return "Done! Action completed."
	}
}

// chitchatReply answers general conversation without entering COLLECTING.
func chitchatReply(text string) string {
	lower := strings.ToLower(text)
	for _, g := range []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"} {
		if strings.Contains(lower, g) {
			return greetingReply
		}
	}
	return genericReply
}
