package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-api/internal/db"
	"github.com/sells-group/outreach-api/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists the hot-path queries to prepare on each new
// connection; the counter increments run once per contact per job.
var preparedStatements = map[string]string{
	"get_contact":           `SELECT id, user_id, full_name, company_name, raw_role, linkedin_url, status, draft_message, strategy_tag, created_at FROM contacts WHERE id = $1`,
	"update_contact_status": `UPDATE contacts SET status = $1 WHERE id = $2`,
	"set_contact_draft":     `UPDATE contacts SET draft_message = $1, strategy_tag = $2, status = $3 WHERE id = $4`,
	"insert_research":       `INSERT INTO research (id, contact_id, news_summary, pain_points, source_url, raw_response, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
	"get_job":               `SELECT id, user_id, total_contacts, processed_count, failed_count, status, created_at, updated_at, completed_at FROM enrichment_jobs WHERE id = $1`,
	"increment_processed":   `UPDATE enrichment_jobs SET processed_count = processed_count + 1, updated_at = now() WHERE id = $1`,
	"increment_failed":      `UPDATE enrichment_jobs SET failed_count = failed_count + 1, updated_at = now() WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS profiles (
	id                TEXT PRIMARY KEY,
	mission_statement TEXT NOT NULL DEFAULT '',
	intent_type       TEXT NOT NULL DEFAULT 'VALIDATION',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
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
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contacts_user_id ON contacts(user_id);
CREATE INDEX IF NOT EXISTS idx_contacts_user_status ON contacts(user_id, status);

CREATE TABLE IF NOT EXISTS research (
	id           TEXT PRIMARY KEY,
	contact_id   TEXT NOT NULL REFERENCES contacts(id),
	news_summary TEXT NOT NULL DEFAULT '',
	pain_points  TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL DEFAULT '',
	raw_response JSONB NOT NULL DEFAULT '{}',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_research_contact_id ON research(contact_id);

CREATE TABLE IF NOT EXISTS enrichment_jobs (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	total_contacts  INTEGER NOT NULL,
	processed_count INTEGER NOT NULL DEFAULT 0,
	failed_count    INTEGER NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'RUNNING',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at    TIMESTAMPTZ,
	CONSTRAINT chk_job_counts CHECK (processed_count + failed_count <= total_contacts)
);

CREATE INDEX IF NOT EXISTS idx_jobs_user_id ON enrichment_jobs(user_id);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON enrichment_jobs(status);

CREATE TABLE IF NOT EXISTS outreach_attempts (
	id              TEXT PRIMARY KEY,
	contact_id      TEXT NOT NULL REFERENCES contacts(id),
	strategy_tag    TEXT NOT NULL,
	message_body    TEXT NOT NULL,
	sent_at         TIMESTAMPTZ NOT NULL,
	feedback_due_at TIMESTAMPTZ NOT NULL,
	feedback_status TEXT NOT NULL DEFAULT 'PENDING',
	outcome         TEXT
);

CREATE INDEX IF NOT EXISTS idx_outreach_contact_id ON outreach_attempts(contact_id);
CREATE INDEX IF NOT EXISTS idx_outreach_feedback_due ON outreach_attempts(feedback_status, feedback_due_at);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT id, mission_statement, intent_type FROM profiles WHERE id = $1`,
		userID,
	).Scan(&p.ID, &p.MissionStatement, &p.IntentType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get profile %s", userID)
	}
	return &p, nil
}

func (s *PostgresStore) UpsertProfile(ctx context.Context, profile model.Profile) error {
	intent := profile.IntentType
	if intent == "" {
		intent = model.DefaultIntentType
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, mission_statement, intent_type) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET mission_statement = EXCLUDED.mission_statement, intent_type = EXCLUDED.intent_type`,
		profile.ID, profile.MissionStatement, intent,
	)
	return eris.Wrapf(err, "postgres: upsert profile %s", profile.ID)
}

func (s *PostgresStore) CreateContacts(ctx context.Context, contacts []model.Contact) ([]string, error) {
	if len(contacts) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	ids := make([]string, len(contacts))
	rows := make([][]any, len(contacts))
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
		rows[i] = []any{id, c.UserID, c.FullName, c.CompanyName, c.RawRole, c.LinkedInURL, string(status), now}
	}

	_, err := db.CopyFrom(ctx, s.pool, "contacts",
		[]string{"id", "user_id", "full_name", "company_name", "raw_role", "linkedin_url", "status", "created_at"},
		rows,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: bulk insert contacts")
	}
	return ids, nil
}

func (s *PostgresStore) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	var c model.Contact
	var draft, tag *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, full_name, company_name, raw_role, linkedin_url, status, draft_message, strategy_tag, created_at FROM contacts WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.UserID, &c.FullName, &c.CompanyName, &c.RawRole, &c.LinkedInURL, &c.Status, &draft, &tag, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get contact %s", id)
	}

	if draft != nil {
		c.DraftMessage = *draft
	}
	if tag != nil {
		c.StrategyTag = model.StrategyTag(*tag)
	}
	return &c, nil
}

func (s *PostgresStore) UpdateContactStatus(ctx context.Context, id string, status model.ContactStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update contact status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("contact not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SetContactDraft(ctx context.Context, id string, message string, strategyTag model.StrategyTag) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET draft_message = $1, strategy_tag = $2, status = $3 WHERE id = $4`,
		message, string(strategyTag), string(model.ContactStatusDraftReady), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set contact draft %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("contact not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	query := `SELECT id, user_id, full_name, company_name, raw_role, linkedin_url, status, draft_message, strategy_tag, created_at FROM contacts WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		var draft, tag *string
		if err := rows.Scan(&c.ID, &c.UserID, &c.FullName, &c.CompanyName, &c.RawRole, &c.LinkedInURL, &c.Status, &draft, &tag, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		if draft != nil {
			c.DraftMessage = *draft
		}
		if tag != nil {
			c.StrategyTag = model.StrategyTag(*tag)
		}
		contacts = append(contacts, c)
	}
	return contacts, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}

func (s *PostgresStore) CountContacts(ctx context.Context, filter ContactFilter) (int, error) {
	query := `SELECT COUNT(*) FROM contacts WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
	}

	var count int
	err := s.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, eris.Wrap(err, "postgres: count contacts")
}

func (s *PostgresStore) CreateResearch(ctx context.Context, research model.Research) (string, error) {
	id := research.ID
	if id == "" {
		id = uuid.New().String()
	}
	raw := research.RawResponse
	if len(raw) == 0 {
		raw = []byte(`{}`)
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO research (id, contact_id, news_summary, pain_points, source_url, raw_response, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, research.ContactID, research.NewsSummary, research.PainPoints, research.SourceURL, raw, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert research for contact %s", research.ContactID)
	}
	return id, nil
}

func (s *PostgresStore) GetResearchByContacts(ctx context.Context, contactIDs []string) (map[string]model.Research, error) {
	if len(contactIDs) == 0 {
		return map[string]model.Research{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, contact_id, news_summary, pain_points, source_url, created_at FROM research WHERE contact_id = ANY($1) ORDER BY created_at ASC`,
		contactIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get research by contacts")
	}
	defer rows.Close()

	// Later rows win so a re-enriched contact surfaces its newest research.
	out := make(map[string]model.Research)
	for rows.Next() {
		var r model.Research
		if err := rows.Scan(&r.ID, &r.ContactID, &r.NewsSummary, &r.PainPoints, &r.SourceURL, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan research")
		}
		out[r.ContactID] = r
	}
	return out, eris.Wrap(rows.Err(), "postgres: get research iterate")
}

func (s *PostgresStore) CreateJob(ctx context.Context, userID string, totalContacts int) (*model.EnrichmentJob, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment_jobs (id, user_id, total_contacts, processed_count, failed_count, status, created_at, updated_at) VALUES ($1, $2, $3, 0, 0, $4, $5, $6)`,
		id, userID, totalContacts, string(model.JobStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert job")
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

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*model.EnrichmentJob, error) {
	var j model.EnrichmentJob
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, total_contacts, processed_count, failed_count, status, created_at, updated_at, completed_at FROM enrichment_jobs WHERE id = $1`,
		id,
	).Scan(&j.ID, &j.UserID, &j.TotalContacts, &j.ProcessedCount, &j.FailedCount, &j.Status, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get job %s", id)
	}
	return &j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.EnrichmentJob, error) {
	query := `SELECT id, user_id, total_contacts, processed_count, failed_count, status, created_at, updated_at, completed_at FROM enrichment_jobs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(` AND user_id = $%d`, argIdx)
		args = append(args, filter.UserID)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.CreatedAfter.UTC())
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.EnrichmentJob
	for rows.Next() {
		var j model.EnrichmentJob
		if err := rows.Scan(&j.ID, &j.UserID, &j.TotalContacts, &j.ProcessedCount, &j.FailedCount, &j.Status, &j.CreatedAt, &j.UpdatedAt, &j.CompletedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		jobs = append(jobs, j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func (s *PostgresStore) IncrementProcessed(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_jobs SET processed_count = processed_count + 1, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment processed %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) IncrementFailed(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_jobs SET failed_count = failed_count + 1, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment failed %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) CompleteJob(ctx context.Context, id string, at time.Time) error {
	return s.finishJob(ctx, id, model.JobStatusCompleted, at)
}

func (s *PostgresStore) FailJob(ctx context.Context, id string, at time.Time) error {
	return s.finishJob(ctx, id, model.JobStatusFailed, at)
}

// finishJob only transitions RUNNING jobs; a terminal status is never
// overwritten.
func (s *PostgresStore) finishJob(ctx context.Context, id string, status model.JobStatus, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE enrichment_jobs SET status = $1, completed_at = $2, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(status), at.UTC(), id, string(model.JobStatusRunning),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish job %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("job not found or not running: %s", id)
	}
	return nil
}

func (s *PostgresStore) CreateOutreach(ctx context.Context, attempt model.OutreachAttempt) (*model.OutreachAttempt, error) {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.FeedbackStatus == "" {
		attempt.FeedbackStatus = model.FeedbackStatusPending
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO outreach_attempts (id, contact_id, strategy_tag, message_body, sent_at, feedback_due_at, feedback_status) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		attempt.ID, attempt.ContactID, string(attempt.StrategyTag), attempt.MessageBody,
		attempt.SentAt.UTC(), attempt.FeedbackDueAt.UTC(), string(attempt.FeedbackStatus),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert outreach for contact %s", attempt.ContactID)
	}
	return &attempt, nil
}

func (s *PostgresStore) GetOutreach(ctx context.Context, id string) (*model.OutreachAttempt, error) {
	var a model.OutreachAttempt
	var outcome *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, contact_id, strategy_tag, message_body, sent_at, feedback_due_at, feedback_status, outcome FROM outreach_attempts WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.ContactID, &a.StrategyTag, &a.MessageBody, &a.SentAt, &a.FeedbackDueAt, &a.FeedbackStatus, &outcome)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get outreach %s", id)
	}
	if outcome != nil {
		a.Outcome = model.OutcomeType(*outcome)
	}
	return &a, nil
}

func (s *PostgresStore) ListDueOutreach(ctx context.Context, userID string, asOf time.Time) ([]model.OutreachAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT o.id, o.contact_id, o.strategy_tag, o.message_body, o.sent_at, o.feedback_due_at, o.feedback_status, o.outcome
		 FROM outreach_attempts o
		 JOIN contacts c ON c.id = o.contact_id
		 WHERE c.user_id = $1 AND o.feedback_status = $2 AND o.feedback_due_at <= $3
		 ORDER BY o.feedback_due_at ASC`,
		userID, string(model.FeedbackStatusPending), asOf.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list due outreach")
	}
	defer rows.Close()

	return scanOutreachRows(rows)
}

func (s *PostgresStore) CompleteOutreach(ctx context.Context, id string, outcome model.OutcomeType) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE outreach_attempts SET outcome = $1, feedback_status = $2 WHERE id = $3`,
		string(outcome), string(model.FeedbackStatusCompleted), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete outreach %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("outreach attempt not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListOutreachByUser(ctx context.Context, userID string) ([]model.OutreachAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT o.id, o.contact_id, o.strategy_tag, o.message_body, o.sent_at, o.feedback_due_at, o.feedback_status, o.outcome
		 FROM outreach_attempts o
		 JOIN contacts c ON c.id = o.contact_id
		 WHERE c.user_id = $1
		 ORDER BY o.sent_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list outreach by user")
	}
	defer rows.Close()

	return scanOutreachRows(rows)
}

func (s *PostgresStore) ListRecentOutreach(ctx context.Context, sentAfter time.Time) ([]model.OutreachAttempt, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, contact_id, strategy_tag, message_body, sent_at, feedback_due_at, feedback_status, outcome
		 FROM outreach_attempts
		 WHERE sent_at >= $1
		 ORDER BY sent_at DESC`,
		sentAfter.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recent outreach")
	}
	defer rows.Close()

	return scanOutreachRows(rows)
}

func scanOutreachRows(rows pgx.Rows) ([]model.OutreachAttempt, error) {
	var attempts []model.OutreachAttempt
	for rows.Next() {
		var a model.OutreachAttempt
		var outcome *string
		if err := rows.Scan(&a.ID, &a.ContactID, &a.StrategyTag, &a.MessageBody, &a.SentAt, &a.FeedbackDueAt, &a.FeedbackStatus, &outcome); err != nil {
			return nil, eris.Wrap(err, "postgres: scan outreach")
		}
		if outcome != nil {
			a.Outcome = model.OutcomeType(*outcome)
		}
		attempts = append(attempts, a)
	}
	return attempts, eris.Wrap(rows.Err(), "postgres: outreach iterate")
}
