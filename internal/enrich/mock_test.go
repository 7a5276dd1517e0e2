package enrich

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-api/internal/config"
	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/internal/store"
	"github.com/sells-group/outreach-api/pkg/anthropic"
	"github.com/sells-group/outreach-api/pkg/youcom"
)

// --- Search Mock ---

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, query string) (*youcom.SearchResponse, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*youcom.SearchResponse), args.Error(1)
}

// --- Anthropic Mock ---

type mockAIClient struct {
	mock.Mock
}

func (m *mockAIClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Anthropic: config.AnthropicConfig{Model: "claude-haiku-4-5-20251001", MaxTokens: 1024},
		Pipeline: config.PipelineConfig{
			ContactDelayMs:         0,
			RunTimeoutSecs:         30,
			SearchFailureThreshold: 3,
			SearchResetTimeoutSecs: 1,
		},
	}
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "enrich.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedProfile(t *testing.T, st store.Store) string {
	t.Helper()
	require.NoError(t, st.UpsertProfile(context.Background(), model.Profile{
		ID:               "user-1",
		MissionStatement: "help founders ship faster",
		IntentType:       model.DefaultIntentType,
	}))
	return "user-1"
}

func seedContacts(t *testing.T, st store.Store, userID string, names ...string) []string {
	t.Helper()
	contacts := make([]model.Contact, len(names))
	for i, name := range names {
		contacts[i] = model.Contact{
			UserID:      userID,
			FullName:    name,
			CompanyName: name + " Co",
			RawRole:     "Founder",
		}
	}
	ids, err := st.CreateContacts(context.Background(), contacts)
	require.NoError(t, err)
	return ids
}

func validDraftResponse() *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Text: `{"message": "Hi there, saw the news about your launch.", "strategy_tag": "PAIN_POINT"}`,
	}
}
