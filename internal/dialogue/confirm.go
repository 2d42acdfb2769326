package dialogue

import "strings"

// ConfirmReply is the result of parsing a message while awaiting
// confirmation.
type ConfirmReply int

const (
	ConfirmUnknown ConfirmReply = iota
	ConfirmYes
	ConfirmNo
	ConfirmCancel
)

// The confirmation step uses a small explicit grammar, deliberately
// separate from the general intent classifier.
var (
	yesReplies = map[string]bool{
		"yes": true, "y": true, "yeah": true, "yep": true, "confirm": true,
		"ok": true, "okay": true, "sure": true, "go ahead": true, "do it": true,
		"yes please": true, "sure thing": true,
	}
	noReplies = map[string]bool{
		"no": true, "n": true, "nope": true, "don't": true, "dont": true,
		"no thanks": true, "no thank you": true,
	}
	cancelReplies = map[string]bool{
		"cancel": true, "nevermind": true, "never mind": true, "stop": true,
		"forget it": true,
	}
)

// ParseConfirmation classifies a reply as yes, no, cancel, or unknown.
// Only whole normalized phrases match; "yes tomorrow works" is unknown and
// goes back through the regular pipeline.
func ParseConfirmation(text string) ConfirmReply {
	normalized := strings.ToLower(strings.TrimSpace(text))
	normalized = strings.TrimRight(normalized, ".!?")
	switch {
	case yesReplies[normalized]:
		return ConfirmYes
	case noReplies[normalized]:
		return ConfirmNo
	case cancelReplies[normalized]:
		return ConfirmCancel
	default:
		return ConfirmUnknown
	}
}
