package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/internal/store"
)

// mockStore implements store.Store for testing.
type mockStore struct {
	jobs     []model.EnrichmentJob
	attempts []model.OutreachAttempt
	listErr  error
}

func (m *mockStore) ListJobs(_ context.Context, filter store.JobFilter) ([]model.EnrichmentJob, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var filtered []model.EnrichmentJob
	for _, j := range m.jobs {
		if !filter.CreatedAfter.IsZero() && j.CreatedAt.Before(filter.CreatedAfter) {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		filtered = append(filtered, j)
	}
	return filtered, nil
}

func (m *mockStore) ListRecentOutreach(_ context.Context, sentAfter time.Time) ([]model.OutreachAttempt, error) {
	var filtered []model.OutreachAttempt
	for _, a := range m.attempts {
		if a.SentAt.Before(sentAfter) {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered, nil
}

// Unused store methods, satisfy the interface.
func (m *mockStore) GetProfile(context.Context, string) (*model.Profile, error) { return nil, nil }
func (m *mockStore) UpsertProfile(context.Context, model.Profile) error         { return nil }
func (m *mockStore) CreateContacts(context.Context, []model.Contact) ([]string, error) {
	return nil, nil
}
func (m *mockStore) GetContact(context.Context, string) (*model.Contact, error) { return nil, nil }
func (m *mockStore) UpdateContactStatus(context.Context, string, model.ContactStatus) error {
	return nil
}
func (m *mockStore) SetContactDraft(context.Context, string, string, model.StrategyTag) error {
	return nil
}
func (m *mockStore) ListContacts(context.Context, store.ContactFilter) ([]model.Contact, error) {
	return nil, nil
}
func (m *mockStore) CountContacts(context.Context, store.ContactFilter) (int, error) { return 0, nil }
func (m *mockStore) CreateResearch(context.Context, model.Research) (string, error)  { return "", nil }
func (m *mockStore) GetResearchByContacts(context.Context, []string) (map[string]model.Research, error) {
	return nil, nil
}
func (m *mockStore) CreateJob(context.Context, string, int) (*model.EnrichmentJob, error) {
	return nil, nil
}
func (m *mockStore) GetJob(context.Context, string) (*model.EnrichmentJob, error) { return nil, nil }
func (m *mockStore) IncrementProcessed(context.Context, string) error             { return nil }
func (m *mockStore) IncrementFailed(context.Context, string) error                { return nil }
func (m *mockStore) CompleteJob(context.Context, string, time.Time) error         { return nil }
func (m *mockStore) FailJob(context.Context, string, time.Time) error             { return nil }
func (m *mockStore) CreateOutreach(context.Context, model.OutreachAttempt) (*model.OutreachAttempt, error) {
	return nil, nil
}
func (m *mockStore) GetOutreach(context.Context, string) (*model.OutreachAttempt, error) {
	return nil, nil
}
func (m *mockStore) ListDueOutreach(context.Context, string, time.Time) ([]model.OutreachAttempt, error) {
	return nil, nil
}
func (m *mockStore) CompleteOutreach(context.Context, string, model.OutcomeType) error { return nil }
func (m *mockStore) ListOutreachByUser(context.Context, string) ([]model.OutreachAttempt, error) {
	return nil, nil
}
func (m *mockStore) Ping(context.Context) error    { return nil }
func (m *mockStore) Migrate(context.Context) error { return nil }
func (m *mockStore) Close() error                  { return nil }

func TestCollector_EmptyStore(t *testing.T) {
	st := &mockStore{}
	c := NewCollector(st, 30*time.Minute)

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 0, snap.JobsTotal)
	assert.Equal(t, 0, snap.JobsFailed)
	assert.Equal(t, 0.0, snap.ContactFailureRate)
	assert.Equal(t, 0.0, snap.ReplyRate)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.False(t, snap.CollectedAt.IsZero())
}

func TestCollector_JobMetrics(t *testing.T) {
	now := time.Now().UTC()
	st := &mockStore{
		jobs: []model.EnrichmentJob{
			{ID: "1", Status: model.JobStatusCompleted, CreatedAt: now.Add(-1 * time.Hour), UpdatedAt: now.Add(-1 * time.Hour), ProcessedCount: 8, FailedCount: 2, TotalContacts: 10},
			{ID: "2", Status: model.JobStatusCompleted, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour), ProcessedCount: 5, TotalContacts: 5},
			{ID: "3", Status: model.JobStatusFailed, CreatedAt: now.Add(-3 * time.Hour), UpdatedAt: now.Add(-3 * time.Hour), TotalContacts: 4},
			{ID: "4", Status: model.JobStatusRunning, CreatedAt: now.Add(-5 * time.Minute), UpdatedAt: now.Add(-1 * time.Minute), ProcessedCount: 2, TotalContacts: 6},
			// Outside lookback window, should be filtered out.
			{ID: "5", Status: model.JobStatusFailed, CreatedAt: now.Add(-48 * time.Hour), UpdatedAt: now.Add(-48 * time.Hour)},
		},
	}

	c := NewCollector(st, 30*time.Minute)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 4, snap.JobsTotal)
	assert.Equal(t, 2, snap.JobsCompleted)
	assert.Equal(t, 1, snap.JobsFailed)
	assert.Equal(t, 1, snap.JobsRunning)
	assert.Equal(t, 0, snap.JobsStalled)
	assert.Equal(t, 15, snap.ContactsProcessed)
	assert.Equal(t, 2, snap.ContactsFailed)
	assert.InDelta(t, 2.0/17.0, snap.ContactFailureRate, 0.001)
}

func TestCollector_StalledJobs(t *testing.T) {
	now := time.Now().UTC()
	st := &mockStore{
		jobs: []model.EnrichmentJob{
			// RUNNING with no counter movement past the threshold.
			{ID: "stuck", Status: model.JobStatusRunning, CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-90 * time.Minute)},
			// RUNNING but recently advanced.
			{ID: "alive", Status: model.JobStatusRunning, CreatedAt: now.Add(-1 * time.Hour), UpdatedAt: now.Add(-1 * time.Minute)},
		},
	}

	c := NewCollector(st, 30*time.Minute)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 2, snap.JobsRunning)
	assert.Equal(t, 1, snap.JobsStalled)
	assert.Equal(t, []string{"stuck"}, snap.StalledJobIDs)
}

func TestCollector_ZeroThresholdDisablesStallDetection(t *testing.T) {
	now := time.Now().UTC()
	st := &mockStore{
		jobs: []model.EnrichmentJob{
			{ID: "stuck", Status: model.JobStatusRunning, CreatedAt: now.Add(-5 * time.Hour), UpdatedAt: now.Add(-5 * time.Hour)},
		},
	}

	c := NewCollector(st, 0)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.JobsStalled)
}

func TestCollector_OutreachMetrics(t *testing.T) {
	now := time.Now().UTC()
	st := &mockStore{
		attempts: []model.OutreachAttempt{
			{ID: "1", SentAt: now.Add(-1 * time.Hour), FeedbackStatus: model.FeedbackStatusCompleted, Outcome: model.OutcomeReplied},
			{ID: "2", SentAt: now.Add(-2 * time.Hour), FeedbackStatus: model.FeedbackStatusCompleted, Outcome: model.OutcomeGhosted},
			{ID: "3", SentAt: now.Add(-3 * time.Hour), FeedbackStatus: model.FeedbackStatusPending},
			// Outside window.
			{ID: "4", SentAt: now.Add(-72 * time.Hour), FeedbackStatus: model.FeedbackStatusCompleted, Outcome: model.OutcomeReplied},
		},
	}

	c := NewCollector(st, 30*time.Minute)
	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.OutreachSent)
	assert.Equal(t, 2, snap.OutreachCompleted)
	assert.Equal(t, 1, snap.OutreachReplied)
	assert.InDelta(t, 0.5, snap.ReplyRate, 0.001)
}

func TestCollector_ListError(t *testing.T) {
	st := &mockStore{listErr: assert.AnError}
	c := NewCollector(st, 30*time.Minute)

	_, err := c.Collect(context.Background(), 24)
	assert.Error(t, err)
}
