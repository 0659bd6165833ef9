// Package screening implements the decision protocol between the call
// session state machine and the language model: how routing intent is
// encoded into the model request and decoded out of its free-text reply.
// All marker semantics live here so a policy change touches one place.
package screening

import (
	"strings"
)

// Role identifies the author of a protocol message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one (role, text) pair in a model request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Decision is the structured outcome parsed from a model reply.
type Decision string

const (
	// DecisionNone means no decision has been made yet (fresh session).
	DecisionNone Decision = ""
	// DecisionContinue means the reply is a clarifying question; keep listening.
	DecisionContinue Decision = "continue"
	// DecisionTransfer means connect the caller to the real number.
	DecisionTransfer Decision = "transfer"
	// DecisionEnd means finish the call with the spoken reply.
	DecisionEnd Decision = "end"
)

// Decision markers the model is instructed to terminate decisive replies
// with. They are literal substrings, never spoken to the caller.
const (
	MarkerTransfer = "{TRANSFER}"
	MarkerEndCall  = "{END CALL}"
)

// FallbackReply is substituted when the model invocation fails or returns an
// empty reply. It must carry the end marker so the state machine closes the
// call deterministically instead of retrying mid-call.
const FallbackReply = "I'm sorry, I'm having some trouble right now. Please text him and he will get back to you. " + MarkerEndCall

// BuildRequest prepends the screening policy to the accumulated turn history,
// producing the ordered message list for the model.
func BuildRequest(history []Message) []Message {
	messages := make([]Message, 0, len(history)+1)
	messages = append(messages, Message{Role: RoleSystem, Content: SystemPrompt})
	messages = append(messages, history...)
	return messages
}

// ParseReply decodes a free-text model reply into a decision and the text to
// speak back to the caller. Detection: a {TRANSFER} substring wins, then
// {END CALL}, otherwise the reply is a clarifying turn and the conversation
// continues. When malformed output carries both markers, transfer wins.
// The spoken text has every marker removed and surrounding whitespace trimmed.
func ParseReply(raw string) (Decision, string) {
	hasTransfer := strings.Contains(raw, MarkerTransfer)
	hasEnd := strings.Contains(raw, MarkerEndCall)

	spoken := strings.ReplaceAll(raw, MarkerTransfer, "")
	spoken = strings.ReplaceAll(spoken, MarkerEndCall, "")
	spoken = strings.TrimSpace(spoken)

	switch {
	case hasTransfer:
		return DecisionTransfer, spoken
	case hasEnd:
		return DecisionEnd, spoken
	default:
		return DecisionContinue, spoken
	}
}
