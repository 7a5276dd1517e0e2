package model

import "time"

// JobStatus represents the state of one enrichment run. Transitions are
// RUNNING -> COMPLETED or RUNNING -> FAILED; both are terminal.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// EnrichmentJob is the durable ledger for one enrichment run over a fixed
// set of contacts captured at creation time. TotalContacts is immutable;
// ProcessedCount and FailedCount only ever increase, and their sum never
// exceeds TotalContacts.
type EnrichmentJob struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	TotalContacts  int        `json:"total_contacts"`
	ProcessedCount int        `json:"processed_count"`
	FailedCount    int        `json:"failed_count"`
	Status         JobStatus  `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Attempted returns how many contacts in the run have been attempted so far.
func (j *EnrichmentJob) Attempted() int {
	return j.ProcessedCount + j.FailedCount
}

// Terminal reports whether the job has reached a terminal status.
func (j *EnrichmentJob) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
