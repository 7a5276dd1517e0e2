package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/pkg/youcom"
)

func TestRunner_DispatchRunsToCompletion(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	userID := seedProfile(t, st)
	contactIDs := seedContacts(t, st, userID, "Ada Lovelace")
	job, err := st.CreateJob(ctx, userID, 1)
	require.NoError(t, err)

	search := new(mockSearchClient)
	search.On("Search", mock.Anything, mock.Anything).Return(&youcom.SearchResponse{}, nil)
	ai := new(mockAIClient)
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(validDraftResponse(), nil)

	r := NewRunner(New(testConfig(), st, search, ai))
	require.NoError(t, r.Dispatch(job.ID, contactIDs))

	drainCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, r.Drain(drainCtx))
	assert.Zero(t, r.Active())

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
}

func TestRunner_RejectsDuplicateDispatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	userID := seedProfile(t, st)
	contactIDs := seedContacts(t, st, userID, "Ada Lovelace")
	job, err := st.CreateJob(ctx, userID, 1)
	require.NoError(t, err)

	// Hold the run open so the second dispatch races against a live one.
	release := make(chan struct{})
	search := new(mockSearchClient)
	search.On("Search", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		<-release
	}).Return(&youcom.SearchResponse{}, nil)
	ai := new(mockAIClient)
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(validDraftResponse(), nil)

	r := NewRunner(New(testConfig(), st, search, ai))
	require.NoError(t, r.Dispatch(job.ID, contactIDs))

	err = r.Dispatch(job.ID, contactIDs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in flight")

	close(release)
	drainCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, r.Drain(drainCtx))
}

func TestRunner_PanicDoesNotSinkTheBatch(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	userID := seedProfile(t, st)
	contactIDs := seedContacts(t, st, userID, "Ada Lovelace", "Grace Hopper")
	job, err := st.CreateJob(ctx, userID, len(contactIDs))
	require.NoError(t, err)

	// A panicking provider fails only its own contact; the dispatched run
	// still finishes the rest and completes the job.
	search := new(mockSearchClient)
	search.On("Search", mock.Anything, BuildResearchQuery("Ada Lovelace Co")).Run(func(mock.Arguments) {
		panic("search client bug")
	}).Return(&youcom.SearchResponse{}, nil)
	search.On("Search", mock.Anything, BuildResearchQuery("Grace Hopper Co")).Return(&youcom.SearchResponse{}, nil)
	ai := new(mockAIClient)
	ai.On("CreateMessage", mock.Anything, mock.Anything).Return(validDraftResponse(), nil)

	r := NewRunner(New(testConfig(), st, search, ai))
	require.NoError(t, r.Dispatch(job.ID, contactIDs))

	drainCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	require.NoError(t, r.Drain(drainCtx))

	got, err := st.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, got.Status)
	assert.Equal(t, 1, got.ProcessedCount)
	assert.Equal(t, 1, got.FailedCount)

	second, err := st.GetContact(ctx, contactIDs[1])
	require.NoError(t, err)
	assert.Equal(t, model.ContactStatusDraftReady, second.Status)
}
