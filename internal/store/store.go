package store

import (
	"context"
	"time"

	"github.com/sells-group/outreach-api/internal/model"
)

// ContactFilter specifies criteria for listing contacts.
type ContactFilter struct {
	UserID string              `json:"user_id,omitempty"`
	Status model.ContactStatus `json:"status,omitempty"`
	Limit  int                 `json:"limit,omitempty"`
	Offset int                 `json:"offset,omitempty"`
}

// JobFilter specifies criteria for listing enrichment jobs.
type JobFilter struct {
	UserID       string          `json:"user_id,omitempty"`
	Status       model.JobStatus `json:"status,omitempty"`
	CreatedAfter time.Time       `json:"created_after,omitempty"`
	Limit        int             `json:"limit,omitempty"`
	Offset       int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the outreach backend.
//
// Lookups return (nil, nil) when the row does not exist; the enrichment
// pipeline depends on that to tell a missing contact apart from a store
// failure. Counter increments are single-statement read-modify-writes so the
// database serializes concurrent updates per job row; counters never
// decrease.
type Store interface {
	// Profiles
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	UpsertProfile(ctx context.Context, profile model.Profile) error

	// Contacts
	CreateContacts(ctx context.Context, contacts []model.Contact) ([]string, error)
	GetContact(ctx context.Context, id string) (*model.Contact, error)
	UpdateContactStatus(ctx context.Context, id string, status model.ContactStatus) error
	SetContactDraft(ctx context.Context, id string, message string, tag model.StrategyTag) error
	ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error)
	CountContacts(ctx context.Context, filter ContactFilter) (int, error)

	// Research
	CreateResearch(ctx context.Context, research model.Research) (string, error)
	GetResearchByContacts(ctx context.Context, contactIDs []string) (map[string]model.Research, error)

	// Job ledger
	CreateJob(ctx context.Context, userID string, totalContacts int) (*model.EnrichmentJob, error)
	GetJob(ctx context.Context, id string) (*model.EnrichmentJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]model.EnrichmentJob, error)
	IncrementProcessed(ctx context.Context, id string) error
	IncrementFailed(ctx context.Context, id string) error
	CompleteJob(ctx context.Context, id string, at time.Time) error
	FailJob(ctx context.Context, id string, at time.Time) error

	// Outreach
	CreateOutreach(ctx context.Context, attempt model.OutreachAttempt) (*model.OutreachAttempt, error)
	GetOutreach(ctx context.Context, id string) (*model.OutreachAttempt, error)
	ListDueOutreach(ctx context.Context, userID string, asOf time.Time) ([]model.OutreachAttempt, error)
	CompleteOutreach(ctx context.Context, id string, outcome model.OutcomeType) error
	ListOutreachByUser(ctx context.Context, userID string) ([]model.OutreachAttempt, error)
	ListRecentOutreach(ctx context.Context, sentAfter time.Time) ([]model.OutreachAttempt, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
