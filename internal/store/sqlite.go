package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-api/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It backs local
// development and the offline CLI commands; production uses PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id                TEXT PRIMARY KEY,
	mission_statement TEXT NOT NULL DEFAULT '',
	intent_type       TEXT NOT NULL DEFAULT 'VALIDATION',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contacts (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	full_name     TEXT NOT NULL,
	company_name  TEXT NOT NULL,
	raw_role      TEXT NOT NULL DEFAULT '',
	linkedin_url  TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT 'NEW',
	draft_message TEXT,
	strategy_tag  TEXT,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS research (
	id           TEXT PRIMARY KEY,
	contact_id   TEXT NOT NULL REFERENCES contacts(id),
	news_summary TEXT NOT NULL DEFAULT '',
	pain_points  TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	raw_response TEXT NOT NULL DEFAULT '{}',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS enrichment_jobs (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	total_contacts  INTEGER NOT NULL,
	processed_count INTEGER NOT NULL DEFAULT 0,
	failed_count    INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'RUNNING',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at    DATETIME,
	CHECK (processed_count + failed_count <= total_contacts)
);

CREATE TABLE IF NOT EXISTS outreach_attempts (
	id              TEXT PRIMARY KEY,
	contact_id      TEXT NOT NULL REFERENCES contacts(id),
	strategy_tag    TEXT NOT NULL,
	message_body    TEXT NOT NULL,
	sent_at         DATETIME NOT NULL,
	feedback_due_at DATETIME NOT NULL,
	feedback_status TEXT NOT NULL DEFAULT 'PENDING',
	outcome         TEXT
);

CREATE INDEX IF NOT EXISTS idx_contacts_user_id ON contacts(user_id);
CREATE INDEX IF NOT EXISTS idx_contacts_user_status ON contacts(user_id, status);
CREATE INDEX IF NOT EXISTS idx_research_contact_id ON research(contact_id);
CREATE INDEX IF NOT EXISTS idx_jobs_user_id ON enrichment_jobs(user_id);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON enrichment_jobs(status);
CREATE INDEX IF NOT EXISTS idx_outreach_contact_id ON outreach_attempts(contact_id);
CREATE INDEX IF NOT EXISTS idx_outreach_feedback_due ON outreach_attempts(feedback_status, feedback_due_at);
`

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, mission_statement, intent_type FROM profiles WHERE id = ?`,
		userID,
	).Scan(&p.ID, &p.MissionStatement, &p.IntentType)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get profile %s", userID)
	}
	return &p, nil
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile model.Profile) error {
	intent := profile.IntentType
	if intent == "" {
		intent = model.DefaultIntentType
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, mission_statement, intent_type) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET mission_statement = excluded.mission_statement, intent_type = excluded.intent_type`,
		profile.ID, profile.MissionStatement, intent,
	)
	return eris.Wrapf(err, "sqlite: upsert profile %s", profile.ID)
}

func (s *SQLiteStore) CreateContacts(ctx context.Context, contacts []model.Contact) ([]string, error) {
	if len(contacts) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	ids := make([]string, len(contacts))
	for i, c := range contacts {
		id := c.ID
		if id == "" {
			id = uuid.New().String()
		}
		ids[i] = id

		status := c.Status
		if status == "" {
			status = model.ContactStatusNew
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO contacts (id, user_id, full_name, company_name, raw_role, linkedin_url, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, c.UserID, c.FullName, c.CompanyName, c.RawRole, c.LinkedInURL, string(status), now,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert contact %s", c.FullName)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit contacts")
	}
	return ids, nil
}

func (s *SQLiteStore) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, full_name, company_name, raw_role, linkedin_url, status, draft_message, strategy_tag, created_at FROM contacts WHERE id = ?`,
		id,
	)

	c, err := scanContact(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get contact %s", id)
	}
	return c, nil
}

func (s *SQLiteStore) UpdateContactStatus(ctx context.Context, id string, status model.ContactStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update contact status %s", id)
	}
	return checkRowsAffected(res, "contact", id)
}

func (s *SQLiteStore) SetContactDraft(ctx context.Context, id string, message string, tag model.StrategyTag) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET draft_message = ?, strategy_tag = ?, status = ? WHERE id = ?`,
		message, string(tag), string(model.ContactStatusDraftReady), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set contact draft %s", id)
	}
	return checkRowsAffected(res, "contact", id)
}

func (s *SQLiteStore) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	query := `SELECT id, user_id, full_name, company_name, raw_role, linkedin_url, status, draft_message, strategy_tag, created_at FROM contacts WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		contacts = append(contacts, *c)
	}
	return contacts, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

func (s *SQLiteStore) CountContacts(ctx context.Context, filter ContactFilter) (int, error) {
	query := `SELECT COUNT(*) FROM contacts WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}

	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, eris.Wrap(err, "sqlite: count contacts")
}

func (s *SQLiteStore) CreateResearch(ctx context.Context, research model.Research) (string, error) {
	id := research.ID
	if id == "" {
		id = uuid.New().String()
	}
	raw := research.RawResponse
	if len(raw) == 0 {
		raw = []byte(`{}`)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO research (id, contact_id, news_summary, pain_points, source_url, raw_response, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, research.ContactID, research.NewsSummary, research.PainPoints, research.SourceURL, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert research for contact %s", research.ContactID)
	}
	return id, nil
}

func (s *SQLiteStore) GetResearchByContacts(ctx context.Context, contactIDs []string) (map[string]model.Research, error) {
	if len(contactIDs) == 0 {
		return map[string]model.Research{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(contactIDs)), ",")
	args := make([]any, len(contactIDs))
	for i, id := range contactIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, contact_id, news_summary, pain_points, source_url, created_at FROM research WHERE contact_id IN (%s) ORDER BY created_at ASC`, placeholders),
		args...,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get research by contacts")
	}
	defer rows.Close()

	out := make(map[string]model.Research)
	for rows.Next() {
		var r model.Research
		if err := rows.Scan(&r.ID, &r.ContactID, &r.NewsSummary, &r.PainPoints, &r.SourceURL, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan research")
		}
		out[r.ContactID] = r
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get research iterate")
}

func (s *SQLiteStore) CreateJob(ctx context.Context, userID string, totalContacts int) (*model.EnrichmentJob, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment_jobs (id, user_id, total_contacts, processed_count, failed_count, status, created_at, updated_at) VALUES (?, ?, ?, 0, 0, ?, ?, ?)`,
		id, userID, totalContacts, string(model.JobStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
	}

	return &model.EnrichmentJob{
		ID:            id,
		UserID:        userID,
		TotalContacts: totalContacts,
		Status:        model.JobStatusRunning,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.EnrichmentJob, error) {
	var j model.EnrichmentJob
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, total_contacts, processed_count, failed_count, status, created_at, updated_at, completed_at FROM enrichment_jobs WHERE id = ?`,
		id,
	).Scan(&j.ID, &j.UserID, &j.TotalContacts, &j.ProcessedCount, &j.FailedCount, &j.Status, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", id)
	}
	return &j, nil
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.EnrichmentJob, error) {
	query := `SELECT id, user_id, total_contacts, processed_count, failed_count, status, created_at, updated_at, completed_at FROM enrichment_jobs WHERE 1=1`
	var args []any

	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.EnrichmentJob
	for rows.Next() {
		var j model.EnrichmentJob
		if err := rows.Scan(&j.ID, &j.UserID, &j.TotalContacts, &j.ProcessedCount, &j.FailedCount, &j.Status, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan job")
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) IncrementProcessed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_jobs SET processed_count = processed_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment processed %s", id)
	}
	return checkRowsAffected(res, "job", id)
}

func (s *SQLiteStore) IncrementFailed(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_jobs SET failed_count = failed_count + 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment failed %s", id)
	}
	return checkRowsAffected(res, "job", id)
}

func (s *SQLiteStore) CompleteJob(ctx context.Context, id string, at time.Time) error {
	return s.finishJob(ctx, id, model.JobStatusCompleted, at)
}

func (s *SQLiteStore) FailJob(ctx context.Context, id string, at time.Time) error {
	return s.finishJob(ctx, id, model.JobStatusFailed, at)
}

func (s *SQLiteStore) finishJob(ctx context.Context, id string, status model.JobStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE enrichment_jobs SET status = ?, completed_at = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(status), at.UTC(), at.UTC(), id, string(model.JobStatusRunning),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish job %s", id)
	}
	return checkRowsAffected(res, "running job", id)
}

func (s *SQLiteStore) CreateOutreach(ctx context.Context, attempt model.OutreachAttempt) (*model.OutreachAttempt, error) {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.FeedbackStatus == "" {
		attempt.FeedbackStatus = model.FeedbackStatusPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outreach_attempts (id, contact_id, strategy_tag, message_body, sent_at, feedback_due_at, feedback_status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		attempt.ID, attempt.ContactID, string(attempt.StrategyTag), attempt.MessageBody,
		attempt.SentAt.UTC(), attempt.FeedbackDueAt.UTC(), string(attempt.FeedbackStatus),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert outreach for contact %s", attempt.ContactID)
	}
	return &attempt, nil
}

func (s *SQLiteStore) GetOutreach(ctx context.Context, id string) (*model.OutreachAttempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, contact_id, strategy_tag, message_body, sent_at, feedback_due_at, feedback_status, outcome FROM outreach_attempts WHERE id = ?`,
		id,
	)

	a, err := scanOutreach(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get outreach %s", id)
	}
	return a, nil
}

func (s *SQLiteStore) ListDueOutreach(ctx context.Context, userID string, asOf time.Time) ([]model.OutreachAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT o.id, o.contact_id, o.strategy_tag, o.message_body, o.sent_at, o.feedback_due_at, o.feedback_status, o.outcome
		 FROM outreach_attempts o
		 JOIN contacts c ON c.id = o.contact_id
		 WHERE c.user_id = ? AND o.feedback_status = ? AND o.feedback_due_at <= ?
		 ORDER BY o.feedback_due_at ASC`,
		userID, string(model.FeedbackStatusPending), asOf.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list due outreach")
	}
	defer rows.Close()

	return collectOutreach(rows)
}

func (s *SQLiteStore) CompleteOutreach(ctx context.Context, id string, outcome model.OutcomeType) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE outreach_attempts SET outcome = ?, feedback_status = ? WHERE id = ?`,
		string(outcome), string(model.FeedbackStatusCompleted), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete outreach %s", id)
	}
	return checkRowsAffected(res, "outreach attempt", id)
}

func (s *SQLiteStore) ListOutreachByUser(ctx context.Context, userID string) ([]model.OutreachAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT o.id, o.contact_id, o.strategy_tag, o.message_body, o.sent_at, o.feedback_due_at, o.feedback_status, o.outcome
		 FROM outreach_attempts o
		 JOIN contacts c ON c.id = o.contact_id
		 WHERE c.user_id = ?
		 ORDER BY o.sent_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list outreach by user")
	}
	defer rows.Close()

	return collectOutreach(rows)
}

func (s *SQLiteStore) ListRecentOutreach(ctx context.Context, sentAfter time.Time) ([]model.OutreachAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, contact_id, strategy_tag, message_body, sent_at, feedback_due_at, feedback_status, outcome
		 FROM outreach_attempts
		 WHERE sent_at >= ?
		 ORDER BY sent_at DESC`,
		sentAfter.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent outreach")
	}
	defer rows.Close()

	return collectOutreach(rows)
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanContact(row scannable) (*model.Contact, error) {
	var c model.Contact
	var draft, tag sql.NullString

	err := row.Scan(&c.ID, &c.UserID, &c.FullName, &c.CompanyName, &c.RawRole, &c.LinkedInURL, &c.Status, &draft, &tag, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if draft.Valid {
		c.DraftMessage = draft.String
	}
	if tag.Valid {
		c.StrategyTag = model.StrategyTag(tag.String)
	}
	return &c, nil
}

func scanOutreach(row scannable) (*model.OutreachAttempt, error) {
	var a model.OutreachAttempt
	var outcome sql.NullString

	err := row.Scan(&a.ID, &a.ContactID, &a.StrategyTag, &a.MessageBody, &a.SentAt, &a.FeedbackDueAt, &a.FeedbackStatus, &outcome)
	if err != nil {
		return nil, err
	}
	if outcome.Valid {
		a.Outcome = model.OutcomeType(outcome.String)
	}
	return &a, nil
}

func collectOutreach(rows *sql.Rows) ([]model.OutreachAttempt, error) {
	var attempts []model.OutreachAttempt
	for rows.Next() {
		a, err := scanOutreach(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan outreach")
		}
		attempts = append(attempts, *a)
	}
	return attempts, eris.Wrap(rows.Err(), "sqlite: outreach iterate")
}
