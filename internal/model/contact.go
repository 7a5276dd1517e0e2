package model

import "time"

// ContactStatus represents the lifecycle stage of a contact. Statuses only
// move forward: NEW -> RESEARCHING -> DRAFT_READY -> SENT -> ARCHIVED.
type ContactStatus string

const (
	ContactStatusNew         ContactStatus = "NEW"
	ContactStatusResearching ContactStatus = "RESEARCHING"
	ContactStatusDraftReady  ContactStatus = "DRAFT_READY"
	ContactStatusSent        ContactStatus = "SENT"
	ContactStatusArchived    ContactStatus = "ARCHIVED"
)

// Contact is a person imported from a LinkedIn connections export.
type Contact struct {
	ID           string        `json:"id"`
	UserID       string        `json:"user_id"`
	FullName     string        `json:"full_name"`
	CompanyName  string        `json:"company_name"`
	RawRole      string        `json:"raw_role"`
	LinkedInURL  string        `json:"linkedin_url"`
	Status       ContactStatus `json:"status"`
	DraftMessage string        `json:"draft_message,omitempty"`
	StrategyTag  StrategyTag   `json:"strategy_tag,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Research holds the persisted result of the research step for one contact.
// Rows are insert-only: the pipeline writes exactly one per contact per run,
// including an empty row when the search provider failed.
type Research struct {
	ID          string    `json:"id"`
	ContactID   string    `json:"contact_id"`
	NewsSummary string    `json:"news_summary"`
	PainPoints  string    `json:"pain_points"`
	SourceURL   string    `json:"source_url"`
	RawResponse []byte    `json:"raw_response,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Field length bounds applied before persisting.
const (
	MaxDraftMessageChars = 300
	MaxNewsSummaryChars  = 2000
	MaxPainPointsChars   = 1000
)

// Profile holds the outreach context of the owning user.
type Profile struct {
	ID               string `json:"id"`
	MissionStatement string `json:"mission_statement"`
	IntentType       string `json:"intent_type"`
}

// DefaultIntentType is assumed when a profile is saved without an intent.
const DefaultIntentType = "VALIDATION"
