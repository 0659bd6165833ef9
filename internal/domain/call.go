package domain

import (
	"time"
)

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerCaller Speaker = "caller"
	SpeakerSystem Speaker = "system"
)

// CallOutcome is the final classification of how a call ended. It is set
// together with EndedAt by exactly one terminal transition; the transfer
// failure callback is the one writer allowed to overwrite it.
type CallOutcome string

const (
	// OutcomeTransferred means the screener decided to connect the caller.
	OutcomeTransferred CallOutcome = "transferred"
	// OutcomeTransferredException means the caller was on the allow list and
	// was connected without any screening.
	OutcomeTransferredException CallOutcome = "transferred_exception"
	// OutcomeCompleted means the screener ended the call with a spoken reply.
	OutcomeCompleted CallOutcome = "completed"
	// OutcomeEndedNoSpeech means the caller never said anything audible.
	OutcomeEndedNoSpeech CallOutcome = "ended_no_speech"
	// OutcomeEndedError means processing failed and the call was closed with
	// an apology.
	OutcomeEndedError CallOutcome = "ended_error"

	// TransferFailedPrefix prefixes outcomes recorded when the dial attempt to
	// the real number did not bridge, suffixed with the carrier status, e.g.
	// "transfer_failed_no-answer".
	TransferFailedPrefix = "transfer_failed_"
)

// TransferFailedOutcome builds the outcome recorded for a failed transfer.
func TransferFailedOutcome(dialStatus string) CallOutcome {
	return CallOutcome(TransferFailedPrefix + dialStatus)
}

// Call represents one screened phone call.
type Call struct {
	ID           string      `json:"id" gorm:"column:id;primaryKey"`
	CallerID     string      `json:"caller_id" gorm:"column:caller_id;index"`
	StartedAt    time.Time   `json:"started_at" gorm:"column:started_at;index"`
	EndedAt      *time.Time  `json:"ended_at,omitempty" gorm:"column:ended_at"`
	FinalOutcome CallOutcome `json:"final_outcome,omitempty" gorm:"column:final_outcome"`
	Summary      string      `json:"summary,omitempty" gorm:"column:summary"`
	CreatedAt    time.Time   `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time   `json:"updated_at" gorm:"column:updated_at"`
}

func (Call) TableName() string {
	return "calls"
}

// Finalized reports whether the terminal write has happened.
func (c *Call) Finalized() bool {
	return c.EndedAt != nil && c.FinalOutcome != ""
}

// ConversationTurn is one utterance within a call. Multiple rows may share a
// TurnIndex (one per speaker), and carrier retries may produce duplicate
// rows; neither is an error at this layer.
type ConversationTurn struct {
	ID        string    `json:"id" gorm:"column:id;primaryKey"`
	CallID    string    `json:"call_id" gorm:"column:call_id;index"`
	TurnIndex int       `json:"turn_index" gorm:"column:turn_index"`
	Speaker   Speaker   `json:"speaker" gorm:"column:speaker"`
	Text      string    `json:"text" gorm:"column:text"`
	Timestamp time.Time `json:"timestamp" gorm:"column:timestamp"`
}

func (ConversationTurn) TableName() string {
	return "conversation_turns"
}

// CallWithTurns is a call joined with its ordered transcript, as returned by
// the recent-calls query.
type CallWithTurns struct {
	Call
	Turns []ConversationTurn `json:"conversation"`
}
