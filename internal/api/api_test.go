package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-api/internal/config"
	"github.com/sells-group/outreach-api/internal/enrich"
	"github.com/sells-group/outreach-api/internal/ingest"
	"github.com/sells-group/outreach-api/internal/model"
	"github.com/sells-group/outreach-api/internal/store"
	"github.com/sells-group/outreach-api/pkg/anthropic"
	"github.com/sells-group/outreach-api/pkg/youcom"
)

type stubSearch struct{}

func (stubSearch) Search(ctx context.Context, query string) (*youcom.SearchResponse, error) {
	return &youcom.SearchResponse{Hits: []youcom.Hit{{
		URL:         "https://news.example.com",
		Description: "Recent funding round.",
	}}}, nil
}

type stubAI struct{}

func (stubAI) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return &anthropic.MessageResponse{
		Text: `{"message": "Hi, congrats on the round.", "strategy_tag": "PAIN_POINT"}`,
	}, nil
}

type testEnv struct {
	server *httptest.Server
	store  store.Store
	runner *enrich.Runner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	cfg := &config.Config{
		Anthropic: config.AnthropicConfig{Model: "claude-haiku-4-5-20251001", MaxTokens: 1024},
		Ingest:    config.IngestConfig{MaxContacts: 500},
		Outreach:  config.OutreachConfig{FeedbackDueHours: 72},
		Pipeline: config.PipelineConfig{
			RunTimeoutSecs:         30,
			SearchFailureThreshold: 3,
			SearchResetTimeoutSecs: 1,
		},
	}

	runner := enrich.NewRunner(enrich.New(cfg, st, stubSearch{}, stubAI{}))
	gateway := ingest.NewGateway(cfg, st, runner)

	srv := httptest.NewServer(NewServer(cfg, st, gateway).Router())
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, store: st, runner: runner}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.server.URL+path, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) seedProfile(t *testing.T) string {
	t.Helper()
	resp := e.postJSON(t, "/profile", map[string]string{
		"user_id":           "user-1",
		"mission_statement": "help founders ship faster",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	return "user-1"
}

func (e *testEnv) uploadCSV(t *testing.T, userID, csvBody string) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("user_id", userID))
	fw, err := mw.CreateFormFile("file", "connections.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csvBody))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.server.URL+"/ingest/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	return decode[map[string]any](t, resp)
}

func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, e.runner.Drain(ctx))
}

const testCSV = `First Name,Last Name,URL,Email Address,Company,Position
Ada,Lovelace,https://linkedin.com/in/ada,,Analytical Engines,CTO
`

func TestAPI_Health(t *testing.T) {
	e := newTestEnv(t)

	resp := e.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_ProfileRoundTrip(t *testing.T) {
	e := newTestEnv(t)
	userID := e.seedProfile(t)

	resp := e.get(t, "/profile?user_id="+userID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[map[string]string](t, resp)
	assert.Equal(t, "help founders ship faster", profile["mission_statement"])
	assert.Equal(t, model.DefaultIntentType, profile["intent_type"])

	resp = e.get(t, "/profile?user_id=nobody")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_UploadAndPollStatus(t *testing.T) {
	e := newTestEnv(t)
	userID := e.seedProfile(t)

	result := e.uploadCSV(t, userID, testCSV)
	jobID := result["job_id"].(string)
	require.NotEmpty(t, jobID)

	e.drain(t)

	resp := e.get(t, fmt.Sprintf("/ingest/status/%s?user_id=%s", jobID, userID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decode[jobStatusResponse](t, resp)
	assert.Equal(t, string(model.JobStatusCompleted), status.Status)
	assert.Equal(t, 1, status.TotalContacts)
	assert.Equal(t, 1, status.ProcessedCount)
	assert.Zero(t, status.FailedCount)
}

func TestAPI_JobStatus_WrongUserIs404(t *testing.T) {
	e := newTestEnv(t)
	userID := e.seedProfile(t)

	result := e.uploadCSV(t, userID, testCSV)
	e.drain(t)

	resp := e.get(t, fmt.Sprintf("/ingest/status/%s?user_id=intruder", result["job_id"]))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_Upload_WithoutProfile(t *testing.T) {
	e := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("user_id", "ghost"))
	fw, err := mw.CreateFormFile("file", "connections.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(testCSV))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.server.URL+"/ingest/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[map[string]string](t, resp)
	assert.Contains(t, body["error"], "profile")
}

func TestAPI_Upload_RejectsNonCSV(t *testing.T) {
	e := newTestEnv(t)
	userID := e.seedProfile(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("user_id", userID))
	fw, err := mw.CreateFormFile("file", "connections.xlsx")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not a csv"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.server.URL+"/ingest/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_DraftsFeedIncludesResearch(t *testing.T) {
	e := newTestEnv(t)
	userID := e.seedProfile(t)

	e.uploadCSV(t, userID, testCSV)
	e.drain(t)

	resp := e.get(t, "/feed/drafts?user_id="+userID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	feed := decode[struct {
		Drafts []draftView `json:"drafts"`
		Total  int         `json:"total"`
	}](t, resp)

	require.Equal(t, 1, feed.Total)
	draft := feed.Drafts[0]
	assert.Equal(t, "Ada Lovelace", draft.FullName)
	assert.Equal(t, "Hi, congrats on the round.", draft.DraftMessage)
	assert.Equal(t, "PAIN_POINT", draft.StrategyTag)
	assert.Equal(t, "Recent funding round.", draft.Research.NewsSummary)
	assert.Equal(t, "https://news.example.com", draft.Research.SourceURL)
}

func TestAPI_SendSwipeDashboardFlow(t *testing.T) {
	e := newTestEnv(t)
	userID := e.seedProfile(t)

	e.uploadCSV(t, userID, testCSV)
	e.drain(t)

	contacts, err := e.store.ListContacts(context.Background(), store.ContactFilter{UserID: userID})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	contactID := contacts[0].ID

	// Send with an edited body.
	resp := e.postJSON(t, "/action/send", map[string]string{
		"contact_id":   contactID,
		"message_body": "Hi Ada, edited before sending.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sent := decode[map[string]any](t, resp)
	outreachID := sent["outreach_id"].(string)
	require.NotEmpty(t, outreachID)

	c, err := e.store.GetContact(context.Background(), contactID)
	require.NoError(t, err)
	assert.Equal(t, model.ContactStatusSent, c.Status)

	// Not yet due, so the queue is empty.
	resp = e.get(t, "/feedback/queue?user_id="+userID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	queue := decode[struct {
		Total int `json:"total"`
	}](t, resp)
	assert.Zero(t, queue.Total)

	// Swipe an outcome.
	resp = e.postJSON(t, "/feedback/swipe", map[string]string{
		"outreach_id": outreachID,
		"outcome":     "REPLIED",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// A second swipe conflicts.
	resp = e.postJSON(t, "/feedback/swipe", map[string]string{
		"outreach_id": outreachID,
		"outcome":     "GHOSTED",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Dashboard reflects the reply.
	resp = e.get(t, "/analytics/dashboard?user_id="+userID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	dash := decode[map[string]any](t, resp)
	assert.Equal(t, float64(1), dash["total_sent"])
	assert.Equal(t, float64(1), dash["total_completed"])
	assert.Equal(t, float64(1), dash["reply_rate"])
}

func TestAPI_Swipe_Validation(t *testing.T) {
	e := newTestEnv(t)

	resp := e.postJSON(t, "/feedback/swipe", map[string]string{
		"outreach_id": "some-id",
		"outcome":     "SHRUGGED",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = e.postJSON(t, "/feedback/swipe", map[string]string{
		"outreach_id": "missing-id",
		"outcome":     "REPLIED",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestAPI_Send_NotFoundAndFallbacks(t *testing.T) {
	e := newTestEnv(t)
	userID := e.seedProfile(t)

	resp := e.postJSON(t, "/action/send", map[string]string{"contact_id": "ghost"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// A contact with a draft: empty body falls back to the stored draft.
	e.uploadCSV(t, userID, testCSV)
	e.drain(t)
	contacts, err := e.store.ListContacts(context.Background(), store.ContactFilter{UserID: userID})
	require.NoError(t, err)
	contactID := contacts[0].ID

	resp = e.postJSON(t, "/action/send", map[string]string{"contact_id": contactID})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	attempts, err := e.store.ListOutreachByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "Hi, congrats on the round.", attempts[0].MessageBody)
	assert.Equal(t, model.StrategyPainPoint, attempts[0].StrategyTag)
}

func TestAPI_ContactsList_Pagination(t *testing.T) {
	e := newTestEnv(t)
	userID := e.seedProfile(t)

	var b strings.Builder
	b.WriteString("First Name,Last Name,URL,Email Address,Company,Position\n")
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, "Contact%d,Person,,,Company %d,Role\n", i, i)
	}
	e.uploadCSV(t, userID, b.String())
	e.drain(t)

	resp := e.get(t, "/contacts/list?user_id="+userID+"&limit=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[struct {
		Contacts []contactView `json:"contacts"`
		Total    int           `json:"total"`
		HasMore  bool          `json:"has_more"`
	}](t, resp)
	assert.Len(t, page.Contacts, 2)
	assert.Equal(t, 5, page.Total)
	assert.True(t, page.HasMore)

	resp = e.get(t, "/contacts/list?user_id="+userID+"&limit=2&offset=4")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	last := decode[struct {
		Contacts []contactView `json:"contacts"`
		HasMore  bool          `json:"has_more"`
	}](t, resp)
	assert.Len(t, last.Contacts, 1)
	assert.False(t, last.HasMore)
}

func TestAPI_MissingUserIDIs400(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{
		"/contacts/list",
		"/feed/drafts",
		"/feedback/queue",
		"/analytics/dashboard",
		"/profile",
	} {
		resp := e.get(t, path)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		resp.Body.Close()
	}
}
