package model

import "time"

// FeedbackStatus tracks whether the user has recorded an outcome for a sent
// message.
type FeedbackStatus string

const (
	FeedbackStatusPending   FeedbackStatus = "PENDING"
	FeedbackStatusCompleted FeedbackStatus = "COMPLETED"
)

// OutcomeType is the user-reported result of an outreach attempt.
type OutcomeType string

const (
	OutcomeReplied OutcomeType = "REPLIED"
	OutcomeGhosted OutcomeType = "GHOSTED"
	OutcomeBounced OutcomeType = "BOUNCED"
)

// ValidOutcome reports whether s is a recognized outcome.
func ValidOutcome(s string) bool {
	switch OutcomeType(s) {
	case OutcomeReplied, OutcomeGhosted, OutcomeBounced:
		return true
	}
	return false
}

// OutreachAttempt records one sent message and its feedback lifecycle.
type OutreachAttempt struct {
	ID             string         `json:"id"`
	ContactID      string         `json:"contact_id"`
	StrategyTag    StrategyTag    `json:"strategy_tag"`
	MessageBody    string         `json:"message_body"`
	SentAt         time.Time      `json:"sent_at"`
	FeedbackDueAt  time.Time      `json:"feedback_due_at"`
	FeedbackStatus FeedbackStatus `json:"feedback_status"`
	Outcome        OutcomeType    `json:"outcome,omitempty"`
}
